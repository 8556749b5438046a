package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/inoxlang/phpcheck/internal/config"
	"github.com/inoxlang/phpcheck/internal/logs"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/run"
	"github.com/rs/zerolog"
)

// CheckProject analyzes the project, or the files passed as arguments, and writes the report to outW.
// The exit status reflects the worst severity of the reported diagnostics.
func CheckProject(ctx context.Context, args []string, outW, errW io.Writer) (exitCode int) {
	flags, values := newAnalysisFlagSet(CHECK_SUBCMD)
	if showHelp(flags, args, outW) {
		return 0
	}

	cfg, logger, ok := setup(flags, values, args, errW)
	if !ok {
		return ERROR_STATUS_CODE
	}

	opts := run.Options{Config: cfg, Logger: logger}
	if flags.NArg() > 0 {
		for _, arg := range flags.Args() {
			path, err := filepath.Abs(arg)
			if err != nil {
				fmt.Fprintln(errW, err)
				return ERROR_STATUS_CODE
			}
			opts.Files = append(opts.Files, path)
		}
	}

	result, err := run.Run(ctx, opts)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	if err := report.Write(outW, cfg.Format(), result.Diagnostics, result.Summary, values.colorize(outW)); err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	return result.Worst.ExitStatus()
}

// IndexProject persists the symbols of the project in the index cache.
func IndexProject(ctx context.Context, args []string, outW, errW io.Writer) (exitCode int) {
	flags, values := newAnalysisFlagSet(INDEX_SUBCMD)
	if showHelp(flags, args, outW) {
		return 0
	}

	cfg, logger, ok := setup(flags, values, args, errW)
	if !ok {
		return ERROR_STATUS_CODE
	}

	classes, functions, err := run.Index(ctx, run.Options{Config: cfg, Logger: logger})
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	fmt.Fprintf(outW, "%d classes and %d functions indexed in %s\n", classes, functions, cfg.IndexCache)
	return 0
}

// setup parses the flags, loads the configuration and creates the logger, errors are written to errW.
func setup(flags *flag.FlagSet, values *analysisFlags, args []string, errW io.Writer) (config.Config, zerolog.Logger, bool) {
	flags.SetOutput(errW)
	if err := flags.Parse(args); err != nil {
		return config.Config{}, zerolog.Nop(), false
	}

	cfg, err := values.loadConfig(flags)
	if err != nil {
		fmt.Fprintln(errW, err)
		return config.Config{}, zerolog.Nop(), false
	}

	logger := logs.New(errW, logs.Options{
		Level:    cfg.Level(),
		Console:  true,
		Colorize: values.colorize(errW),
	})
	return cfg, logs.ChildLoggerForSource(logger, COMMAND_NAME), true
}
