package logs

import (
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const (
	SOURCE_LOG_FIELD_NAME = "src"
	RUN_ID_LOG_FIELD_NAME = "run"
	FILE_LOG_FIELD_NAME   = "file"
)

func init() {
	zerolog.DurationFieldInteger = false
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.MessageFieldName = "msg"
	zerolog.LevelFieldName = "lvl"
	zerolog.TimestampFieldName = "tm"
}

type Options struct {
	Level zerolog.Level

	// Console makes the logger write human-readable lines instead of JSON.
	Console  bool
	Colorize bool
}

// New returns a logger writing to w, log lines have a timestamp.
func New(w io.Writer, opts Options) zerolog.Logger {
	if opts.Console {
		w = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !opts.Colorize,
			TimeFormat: time.TimeOnly,
		}
	}
	return zerolog.New(w).Level(opts.Level).With().Timestamp().Logger()
}

// ChildLoggerForSource returns a copy of logger whose src field is set to src, the field is replaced if present.
func ChildLoggerForSource(logger zerolog.Logger, src string) zerolog.Logger {
	logger = logger.With().Logger() //copy the logger
	return addReplaceStringField(logger, SOURCE_LOG_FIELD_NAME, src)
}

func NewRunID() ulid.ULID {
	return ulid.Make()
}

func WithRunID(logger zerolog.Logger, id ulid.ULID) zerolog.Logger {
	return logger.With().Str(RUN_ID_LOG_FIELD_NAME, id.String()).Logger()
}
