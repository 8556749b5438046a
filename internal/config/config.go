package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/utils"
	"github.com/rs/zerolog"
)

const (
	APP_NAME                = "phpcheck"
	DEFAULT_CONFIG_FILENAME = APP_NAME + ".yml"
	DEFAULT_INCLUDE_PATTERN = "**/*.php"
	DEFAULT_LOG_LEVEL       = "warn"
	MAX_WORKERS             = 256
)

var (
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidPattern     = errors.New("invalid glob pattern")
	ErrInvalidLogLevel    = errors.New("invalid log level")
)

// Config is the configuration of an analysis run, it is read from a YAML file and CLI flags override its values.
type Config struct {
	// directory containing the analyzed files, relative paths are resolved against the directory of the config file.
	Root string `yaml:"root"`

	// glob patterns (relative to Root) of the analyzed files, ** matches any number of directories.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// number of files analyzed concurrently, 0 means the number of CPUs.
	Workers int `yaml:"workers"`

	// strict makes every file behave as if it declared strict_types=1.
	Strict bool `yaml:"strict"`

	IgnoreTypes    []string `yaml:"ignore-types"`
	DisabledChecks []string `yaml:"disabled-checks"`
	DisabledCodes  []string `yaml:"disabled-codes"`
	MinSeverity    string   `yaml:"min-severity"`
	Output         string   `yaml:"output"`

	// path of the persisted symbol index, no index is persisted if empty.
	IndexCache string `yaml:"index-cache"`

	LogLevel string `yaml:"log-level"`
}

func Default() Config {
	return Config{
		Root:     ".",
		Include:  []string{DEFAULT_INCLUDE_PATTERN},
		Output:   string(report.FormatText),
		LogLevel: DEFAULT_LOG_LEVEL,
	}
}

// Load reads the configuration file at path, unset values keep their default value.
// Unknown keys are errors.
func Load(path string) (Config, error) {
	config := Default()

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read the configuration file: %w", err)
	}

	if err := yaml.UnmarshalWithOptions(content, &config, yaml.Strict()); err != nil {
		return Config{}, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}

	if !filepath.IsAbs(config.Root) {
		config.Root = filepath.Join(filepath.Dir(path), config.Root)
	}
	if config.IndexCache != "" && !filepath.IsAbs(config.IndexCache) {
		config.IndexCache = filepath.Join(filepath.Dir(path), config.IndexCache)
	}
	if len(config.Include) == 0 {
		config.Include = []string{DEFAULT_INCLUDE_PATTERN}
	}

	return config, config.Validate()
}

// Find returns the path of the configuration file in dir or in one of its parents.
func Find(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, DEFAULT_CONFIG_FILENAME)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Validate checks all the values and returns the combined errors.
func (c Config) Validate() error {
	var errs []error

	if c.Workers < 0 || c.Workers > MAX_WORKERS {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, c.Workers))
	}

	for _, pattern := range slices.Concat(c.Include, c.Exclude) {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern))
		}
	}

	if _, err := report.ParseFormat(c.Output); err != nil {
		errs = append(errs, err)
	}

	if c.MinSeverity != "" {
		if _, err := report.ParseSeverity(c.MinSeverity); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel))
	}

	for _, code := range c.DisabledCodes {
		if !slices.Contains(report.Codes(), report.Code(code)) {
			errs = append(errs, fmt.Errorf("unknown diagnostic code %q", code))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return utils.CombineErrorsWithPrefixMessage("invalid configuration", errs...)
}

func (c Config) Format() report.Format {
	format, err := report.ParseFormat(c.Output)
	if err != nil {
		return report.FormatText
	}
	return format
}

func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.WarnLevel
	}
	return level
}

func (c Config) Severity() report.Severity {
	severity, err := report.ParseSeverity(c.MinSeverity)
	if err != nil {
		return report.SeverityInfo
	}
	return severity
}

func (c Config) Codes() []report.Code {
	return utils.MapSlice(c.DisabledCodes, func(code string) report.Code { return report.Code(code) })
}

// Matches returns true if the file at path (absolute or relative to Root) is selected by the include and exclude patterns.
func (c Config) Matches(path string) bool {
	if filepath.IsAbs(path) {
		root, err := filepath.Abs(c.Root)
		if err != nil {
			return false
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return false
		}
		path = rel
	}
	path = filepath.ToSlash(path)

	return matchesAny(c.Include, path) && !matchesAny(c.Exclude, path)
}

func matchesAny(patterns []string, path string) bool {
	return utils.Some(patterns, func(pattern string) bool {
		ok, _ := doublestar.Match(pattern, path)
		return ok
	})
}

// Files returns the paths (joined with Root) of the selected files, sorted.
func (c Config) Files() ([]string, error) {
	fsys := os.DirFS(c.Root)
	seen := map[string]bool{}
	var files []string

	for _, pattern := range c.Include {
		err := doublestar.GlobWalk(fsys, pattern, func(path string, entry fs.DirEntry) error {
			if entry.IsDir() || seen[path] || matchesAny(c.Exclude, path) {
				return nil
			}
			seen[path] = true
			files = append(files, filepath.Join(c.Root, filepath.FromSlash(path)))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list the files matching %q: %w", pattern, err)
		}
	}

	slices.Sort(files)
	return files, nil
}
