package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/inoxlang/phpcheck/internal/checks"
	"github.com/inoxlang/phpcheck/internal/config"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

const (
	CHECK_SUBCMD                 = "check"
	INDEX_SUBCMD                 = "index"
	WATCH_SUBCMD                 = "watch"
	INSTALL_COMPLETIONS_SUBCMD   = "install-completions"
	UNINSTALL_COMPLETIONS_SUBCMD = "uninstall-completions"
	HELP_SUBCMD                  = "help"
)

var (
	SUBCOMMANDS = []string{
		CHECK_SUBCMD, INDEX_SUBCMD, WATCH_SUBCMD,
		INSTALL_COMPLETIONS_SUBCMD, UNINSTALL_COMPLETIONS_SUBCMD, HELP_SUBCMD,
	}

	HELP_SUBCMD_EQUIVALENTS = []string{"--help", "-help", "-h"}

	SUBCOMMAND_DESCRIPTIONS = [][2]string{
		{CHECK_SUBCMD, "analyze the files of the project and report the defects found"},
		{INDEX_SUBCMD, "index the symbols of the project into the index cache"},
		{WATCH_SUBCMD, "analyze the project each time a file changes"},
		{INSTALL_COMPLETIONS_SUBCMD, "install CLI completions by adding the completion command to the detected rc file (bash, zsh and fish)"},
		{UNINSTALL_COMPLETIONS_SUBCMD, "uninstall CLI completions by removing the completion command from the detected rc file"},
		{HELP_SUBCMD, "show the general help or command-specific help"},
	}

	SUBCOMMAND_DESCRIPTION_MAP = map[string]string{}

	CMD_HELP = "commands:\n"
)

func init() {
	for _, entry := range SUBCOMMAND_DESCRIPTIONS {
		cmd, desc := entry[0], entry[1]
		SUBCOMMAND_DESCRIPTION_MAP[cmd] = desc
		CMD_HELP += "\t" + cmd + " - " + desc + "\n"
	}
	CMD_HELP += "\nType `" + COMMAND_NAME + " help <command>` to get command-specific help.\n"
}

// completionCommand returns the completion tree of the CLI, the analysis flags are shared by the
// check, index and watch subcommands.
func completionCommand() *complete.Command {
	flags := map[string]complete.Predictor{
		"config":       predict.Files("*.yml"),
		"root":         predict.Dirs("*"),
		"workers":      predict.Nothing,
		"strict":       predict.Nothing,
		"output":       predict.Set{string(report.FormatText), string(report.FormatJSON), string(report.FormatCheckstyle)},
		"disable":      predict.Set(checks.Names()),
		"min-severity": predict.Set{"info", "warning", "error"},
		"index-cache":  predict.Files("*"),
		"log-level":    predict.Set{"debug", "info", "warn", "error"},
		"no-color":     predict.Nothing,
	}

	return &complete.Command{
		Sub: map[string]*complete.Command{
			CHECK_SUBCMD: {Flags: flags, Args: predict.Files("*.php")},
			INDEX_SUBCMD: {Flags: flags},
			WATCH_SUBCMD: {Flags: flags},
			HELP_SUBCMD: {
				Args: predict.Set(SUBCOMMANDS),
			},
			INSTALL_COMPLETIONS_SUBCMD:   {},
			UNINSTALL_COMPLETIONS_SUBCMD: {},
		},
	}
}

// analysisFlags are the flags overriding the values of the configuration file.
type analysisFlags struct {
	configPath  string
	root        string
	workers     int
	strict      bool
	output      string
	disable     string
	minSeverity string
	indexCache  string
	logLevel    string
	noColor     bool
}

func newAnalysisFlagSet(name string) (*flag.FlagSet, *analysisFlags) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	values := &analysisFlags{}

	flags.StringVar(&values.configPath, "config", "", "path of the configuration file, "+config.DEFAULT_CONFIG_FILENAME+" is searched in the current directory and its parents by default")
	flags.StringVar(&values.root, "root", "", "root directory of the project")
	flags.IntVar(&values.workers, "workers", 0, "number of workers, 0 means one per CPU")
	flags.BoolVar(&values.strict, "strict", false, "compare the types as if the files declared strict_types=1")
	flags.StringVar(&values.output, "output", "", "output format: text, json or checkstyle")
	flags.StringVar(&values.disable, "disable", "", "comma-separated list of checks to disable")
	flags.StringVar(&values.minSeverity, "min-severity", "", "minimum severity of the reported diagnostics: info, warning or error")
	flags.StringVar(&values.indexCache, "index-cache", "", "path of the persisted symbol index")
	flags.StringVar(&values.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&values.noColor, "no-color", false, "disable colors")

	return flags, values
}

// loadConfig loads the configuration file and applies the flags that were explicitly set.
func (f *analysisFlags) loadConfig(flags *flag.FlagSet) (config.Config, error) {
	cfg := config.Default()

	path := f.configPath
	if path == "" {
		dir := f.root
		if dir == "" {
			dir = "."
		}
		if absDir, err := filepath.Abs(dir); err == nil {
			path, _ = config.Find(absDir)
		}
	}

	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "root":
			cfg.Root = f.root
		case "workers":
			cfg.Workers = f.workers
		case "strict":
			cfg.Strict = f.strict
		case "output":
			cfg.Output = f.output
		case "disable":
			for _, name := range strings.Split(f.disable, ",") {
				if name = strings.TrimSpace(name); name != "" {
					cfg.DisabledChecks = append(cfg.DisabledChecks, name)
				}
			}
		case "min-severity":
			cfg.MinSeverity = f.minSeverity
		case "index-cache":
			cfg.IndexCache = f.indexCache
		case "log-level":
			cfg.LogLevel = f.logLevel
		}
	})

	return cfg, cfg.Validate()
}

// colorize returns true if the output written to w should contain colors.
func (f *analysisFlags) colorize(w io.Writer) bool {
	if f.noColor {
		return false
	}
	file, ok := w.(*os.File)
	if !ok || file != os.Stdout && file != os.Stderr {
		return false
	}
	return config.TermColorsFromEnv(nil).ShouldColorize()
}

func showHelp(flags *flag.FlagSet, args []string, out io.Writer) bool {
	//only show help
	if slices.ContainsFunc(args, func(arg string) bool { return slices.Contains(HELP_SUBCMD_EQUIVALENTS, arg) }) {

		cmd := flags.Name()
		if desc, ok := SUBCOMMAND_DESCRIPTION_MAP[cmd]; ok {
			fmt.Fprintln(out, desc)
		}

		flags.SetOutput(out)
		fmt.Fprint(out, "\noptions:\n")
		flags.PrintDefaults()

		return true
	}

	return false
}
