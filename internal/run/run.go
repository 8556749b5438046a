package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/checks"
	"github.com/inoxlang/phpcheck/internal/config"
	"github.com/inoxlang/phpcheck/internal/logs"
	"github.com/inoxlang/phpcheck/internal/parse"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/symbols"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

var ErrNoIndexCache = errors.New("no index cache is configured")

type Options struct {
	Config config.Config

	// Files are the files to analyze, the files of the configuration are analyzed if nil.
	Files []string

	// Cache is used to avoid parsing unchanged files again, it can be nil.
	Cache *parse.FileCache

	Logger zerolog.Logger
}

type Result struct {
	ID          ulid.ULID
	Diagnostics []report.Diagnostic
	Summary     report.Summary
	Worst       report.Severity

	EvaluatedFiles int64
	CrashedFiles   int64
}

// Run analyzes the files in three phases: the files are parsed concurrently, the symbols they declare are indexed
// and the workers evaluate the parsed files. A parsing error only excludes its file from the evaluation.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	state := NewState(logs.NewRunID())
	logger := logs.WithRunID(opts.Logger, state.ID)
	start := time.Now()

	paths, err := filesToAnalyze(opts)
	if err != nil {
		return nil, err
	}

	collector := report.NewCollector(cfg.Codes()...)
	collector.SetMinSeverity(cfg.Severity())

	files, err := parseFiles(ctx, paths, workerCount(cfg), opts.Cache, collector)
	if err != nil {
		return nil, err
	}

	table, closeTable, err := index(files, cfg, logs.ChildLoggerForSource(logger, "indexer"))
	if err != nil {
		return nil, err
	}
	defer closeTable()

	err = evaluate(ctx, files, table, state, collector, cfg, logger)
	if err != nil {
		return nil, err
	}

	diagnostics := collector.Diagnostics()
	result := &Result{
		ID:          state.ID,
		Diagnostics: diagnostics,
		Summary: report.Summary{
			Files:  len(paths),
			Checks: collector.CheckCount(),
		},
		Worst:          report.WorstSeverity(diagnostics),
		EvaluatedFiles: state.EvaluatedFiles(),
		CrashedFiles:   state.CrashedFiles(),
	}

	logger.Info().
		Int("files", len(paths)).
		Int("diagnostics", len(diagnostics)).
		Dur("duration", time.Since(start)).
		Msg("run finished")
	return result, nil
}

// Index parses the files and persists the symbols they declare in the index cache of the configuration.
// It returns the number of indexed classes and functions.
func Index(ctx context.Context, opts Options) (classes, functions int, _ error) {
	cfg := opts.Config
	if cfg.IndexCache == "" {
		return 0, 0, ErrNoIndexCache
	}
	logger := logs.WithRunID(opts.Logger, logs.NewRunID())

	paths, err := filesToAnalyze(opts)
	if err != nil {
		return 0, 0, err
	}

	files, err := parseFiles(ctx, paths, workerCount(cfg), opts.Cache, report.NewCollector())
	if err != nil {
		return 0, 0, err
	}

	table, closeTable, err := index(files, cfg, logs.ChildLoggerForSource(logger, "indexer"))
	if err != nil {
		return 0, 0, err
	}
	defer closeTable()

	return table.ClassCount(), table.FunctionCount(), nil
}

func filesToAnalyze(opts Options) ([]string, error) {
	if opts.Files != nil {
		return opts.Files, nil
	}
	paths, err := opts.Config.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to list the files to analyze: %w", err)
	}
	return paths, nil
}

func workerCount(cfg config.Config) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return runtime.NumCPU()
}

// parseFiles parses the files concurrently, the files that cannot be read or parsed are reported and left out.
// The order of the files is preserved.
func parseFiles(ctx context.Context, paths []string, limit int, cache *parse.FileCache, emitter report.Emitter) ([]*ast.File, error) {
	parsed := make([]*ast.File, len(paths))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i, path := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			src, err := os.ReadFile(path)
			if err != nil {
				emitter.Emit("", path, 0, report.InternalError, fmt.Sprintf("failed to read the file: %s", err))
				return nil
			}

			var file *ast.File
			if cache != nil {
				file, err = cache.ParseCached(path, src)
			} else {
				file, err = parse.Parse(path, src)
			}

			if err != nil {
				var parsingErr *parse.ParsingError
				if errors.As(err, &parsingErr) {
					emitter.Emit("", path, parsingErr.Line, report.ParseError, parsingErr.Message)
				} else {
					emitter.Emit("", path, 0, report.ParseError, err.Error())
				}
				return nil
			}
			parsed[i] = file
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return slices.DeleteFunc(parsed, func(f *ast.File) bool { return f == nil }), nil
}

// index builds the symbol table of the project. If an index cache is configured the table is layered over the
// persisted index, which is then updated with the symbols of the files.
func index(files []*ast.File, cfg config.Config, logger zerolog.Logger) (_ *symbols.MemoryTable, closeTable func(), _ error) {
	var parent symbols.Source = symbols.Builtins()
	closeTable = func() {}

	var bolt *symbols.BoltTable
	if cfg.IndexCache != "" {
		var err error
		bolt, err = symbols.OpenBoltTable(cfg.IndexCache, symbols.Builtins(), cfg.IgnoreTypes...)
		if err != nil {
			return nil, nil, err
		}
		parent = bolt
		closeTable = func() {
			if err := bolt.Close(); err != nil {
				logger.Err(err).Msg("failed to close the index cache")
			}
		}
	}

	table := symbols.NewMemoryTable(parent, cfg.IgnoreTypes...)
	for _, file := range files {
		table.Add(symbols.IndexFile(file))
	}

	if bolt != nil {
		if err := bolt.Store(table.Snapshot(), len(files)); err != nil {
			closeTable()
			return nil, nil, err
		}
	}

	logger.Debug().
		Int("classes", table.ClassCount()).
		Int("functions", table.FunctionCount()).
		Msg("symbols indexed")
	return table, closeTable, nil
}

// evaluate starts the workers and collects their messages until they are all done.
func evaluate(
	ctx context.Context,
	files []*ast.File,
	table symbols.Table,
	state *State,
	collector *report.Collector,
	cfg config.Config,
	logger zerolog.Logger,
) error {
	coordinatorLogger := logs.ChildLoggerForSource(logger, "coordinator")
	disabledChecks := disabledCheckSet(cfg.DisabledChecks, coordinatorLogger)
	enabledChecks := checks.Filter(checks.All(state), cfg.DisabledChecks)

	pipeReader, pipeWriter := io.Pipe()
	out := newMessageWriter(pipeWriter, coordinatorLogger)

	jobs := make(chan *ast.File)
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(jobs)
		for _, file := range files {
			select {
			case jobs <- file:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}
		return nil
	})

	for i := range min(workerCount(cfg), max(len(files), 1)) {
		w := &worker{
			id:     i,
			table:  table,
			checks: enabledChecks,
			strict: cfg.Strict,
			out:    out,
			state:  state,
			logger: logs.ChildLoggerForSource(logger, fmt.Sprintf("worker-%d", i)),
		}
		group.Go(func() error {
			return w.work(groupCtx, jobs)
		})
	}

	go func() {
		pipeWriter.CloseWithError(group.Wait())
	}()

	readErr := readMessages(pipeReader, func(msg message) {
		switch msg.Kind {
		case MESSAGE_KIND_DIAGNOSTIC:
			if msg.Diagnostic == nil || disabledChecks[strings.ToLower(msg.Diagnostic.Check)] {
				return
			}
			collector.Add(*msg.Diagnostic)
		case MESSAGE_KIND_FILE_DONE:
			collector.AddChecks(msg.Checks)
			coordinatorLogger.Debug().Int("worker", msg.Worker).Str(logs.FILE_LOG_FIELD_NAME, msg.File).Msg("file done")
		}
	})

	if readErr != nil {
		//unblock the workers
		pipeReader.Close()
	}

	err := group.Wait()
	if readErr != nil && err == nil {
		err = readErr
	}
	return err
}

func disabledCheckSet(disabled []string, logger zerolog.Logger) map[string]bool {
	set := map[string]bool{}
	unknown := map[string]struct{}{}
	known := checks.Names()

	for _, name := range disabled {
		set[strings.ToLower(name)] = true
		if !slices.ContainsFunc(known, func(k string) bool { return strings.EqualFold(k, name) }) {
			unknown[name] = struct{}{}
		}
	}

	if len(unknown) > 0 {
		names := maps.Keys(unknown)
		slices.Sort(names)
		logger.Warn().Strs("checks", names).Msg("unknown checks are disabled")
	}
	return set
}
