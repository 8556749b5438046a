package logs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildLoggerForSource(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		logger := zerolog.New(buf).With().Str("a", "b").Logger()

		child := ChildLoggerForSource(logger, "/src/a.php")
		child.Info().Msg("hello")
		assert.Equal(t, `{"lvl":"info","a":"b","src":"/src/a.php","msg":"hello"}`+"\n", buf.String())
	})

	t.Run("replace", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		parent := zerolog.New(buf).With().Str(SOURCE_LOG_FIELD_NAME, "indexer").Str("a", "b").Logger()

		child := ChildLoggerForSource(parent, "worker-1")
		child.Info().Msg("child")
		parent.Info().Msg("parent")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, `{"lvl":"info","src":"worker-1","a":"b","msg":"child"}`, lines[0])
		assert.Equal(t, `{"lvl":"info","src":"indexer","a":"b","msg":"parent"}`, lines[1])
	})

	t.Run("escaped value", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		logger := zerolog.New(buf).With().Str(SOURCE_LOG_FIELD_NAME, `a"b`).Logger()

		child := ChildLoggerForSource(logger, `c"d`)
		child.Info().Msg("")
		assert.Equal(t, `{"lvl":"info","src":"c\"d"}`+"\n", buf.String())
	})

	t.Run("non-string value", func(t *testing.T) {
		logger := zerolog.New(nil).With().Int(SOURCE_LOG_FIELD_NAME, 1).Str("a", "b").Logger()

		assert.Panics(t, func() {
			ChildLoggerForSource(logger, "x")
		})
	})
}

func TestNew(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		id := NewRunID()
		logger := WithRunID(New(buf, Options{Level: zerolog.InfoLevel}), id)

		logger.Debug().Msg("ignored")
		logger.Info().Str(FILE_LOG_FIELD_NAME, "a.php").Msg("evaluated")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "info", line["lvl"])
		assert.Equal(t, "evaluated", line["msg"])
		assert.Equal(t, "a.php", line[FILE_LOG_FIELD_NAME])
		assert.Contains(t, line, "tm")

		parsed, err := ulid.Parse(line[RUN_ID_LOG_FIELD_NAME].(string))
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("console", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		logger := New(buf, Options{Level: zerolog.WarnLevel, Console: true})

		logger.Warn().Msg("slow file")
		assert.Contains(t, buf.String(), "WRN")
		assert.Contains(t, buf.String(), "slow file")
	})
}
