package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/inoxlang/phpcheck/internal/config"
	"github.com/inoxlang/phpcheck/internal/parse"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/run"
	"github.com/inoxlang/phpcheck/internal/utils"
	"github.com/rs/zerolog"
)

var WATCH_DEBOUNCE_DURATION = 200 * time.Millisecond

// WatchProject analyzes the project once and again each time a selected file changes, until ctx is done.
func WatchProject(ctx context.Context, args []string, outW, errW io.Writer) (exitCode int) {
	flags, values := newAnalysisFlagSet(WATCH_SUBCMD)
	if showHelp(flags, args, outW) {
		return 0
	}

	cfg, logger, ok := setup(flags, values, args, errW)
	if !ok {
		return ERROR_STATUS_CODE
	}

	err := watch(ctx, cfg, logger, func(result *run.Result) {
		utils.PrintSmallLineSeparator(outW)
		if err := report.Write(outW, cfg.Format(), result.Diagnostics, result.Summary, values.colorize(outW)); err != nil {
			logger.Err(err).Msg("failed to write the report")
		}
	})

	if err != nil && ctx.Err() == nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	return 0
}

// watch runs the analysis once and then each time a file selected by the configuration is written, created,
// removed or renamed. Bursts of events trigger a single run. Unchanged files are not parsed again.
func watch(ctx context.Context, cfg config.Config, logger zerolog.Logger, onResult func(*run.Result)) error {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return err
	}
	cfg.Root = root

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	err = filepath.WalkDir(cfg.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.Root, err)
	}

	cache := parse.NewFileCache()
	analyze := func() error {
		result, err := run.Run(ctx, run.Options{Config: cfg, Cache: cache, Logger: logger})
		if err != nil {
			return err
		}
		onResult(result)
		return nil
	}

	if err := analyze(); err != nil {
		return err
	}

	rerun := make(chan struct{}, 1)
	debounced := debounce.New(WATCH_DEBOUNCE_DURATION)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
					watcher.Add(event.Name)
					continue
				}
			}

			if !cfg.Matches(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}

			logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("file changed")
			debounced(func() {
				select {
				case rerun <- struct{}{}:
				default:
				}
			})
		case <-rerun:
			if err := analyze(); err != nil {
				return err
			}
		}
	}
}
