package report

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/inoxlang/phpcheck/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("order & dedupe", func(t *testing.T) {
		collector := NewCollector()
		collector.Emit("c", "src/file10.php", 3, UnknownVariable, "b")
		collector.Emit("c", "src/file2.php", 8, NullDereference, "a")
		collector.Emit("c", "src/file2.php", 1, UnknownClass, "a")
		collector.Emit("c", "src/file2.php", 1, UnknownClass, "a")

		diagnostics := collector.Diagnostics()
		require.Len(t, diagnostics, 3)
		assert.Equal(t, "src/file2.php", diagnostics[0].File)
		assert.Equal(t, 1, diagnostics[0].Line)
		assert.Equal(t, 8, diagnostics[1].Line)
		assert.Equal(t, "src/file10.php", diagnostics[2].File)
		assert.Equal(t, SeverityError, collector.WorstSeverity())
	})

	t.Run("disabled codes & min severity", func(t *testing.T) {
		collector := NewCollector(UnknownVariable)
		collector.SetMinSeverity(SeverityWarning)
		collector.Emit("c", "a.php", 1, UnknownVariable, "")
		collector.Emit("c", "a.php", 1, UnusedVariable, "")
		collector.Emit("c", "a.php", 1, NullDereference, "")
		assert.Equal(t, 1, collector.Len())
		assert.Equal(t, SeverityWarning, collector.WorstSeverity())
	})

	t.Run("remove file", func(t *testing.T) {
		collector := NewCollector()
		collector.Emit("c", "a.php", 1, UnknownClass, "")
		collector.Emit("c", "b.php", 1, UnknownClass, "")
		collector.RemoveFile("a.php")
		diagnostics := collector.Diagnostics()
		require.Len(t, diagnostics, 1)
		assert.Equal(t, "b.php", diagnostics[0].File)
	})

	t.Run("concurrent emission", func(t *testing.T) {
		collector := NewCollector()
		wg := new(sync.WaitGroup)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				collector.Emit("c", "a.php", i, UnknownClass, "")
				collector.IncChecks()
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 10, collector.Len())
		assert.EqualValues(t, 10, collector.CheckCount())
	})
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, SeverityInfo, UnusedVariable.Severity())
	assert.Equal(t, SeverityWarning, Code("Custom").Severity())
	assert.Equal(t, 2, SeverityError.ExitStatus())
	assert.Equal(t, 0, Severity(0).ExitStatus())

	s, err := ParseSeverity("WARN")
	require.NoError(t, err)
	assert.Equal(t, SeverityWarning, s)

	_, err = ParseSeverity("fatal")
	assert.ErrorIs(t, err, ErrUnknownSeverity)
}

func sampleDiagnostics() []Diagnostic {
	collector := NewCollector()
	collector.Emit("UndefinedVariableCheck", "a.php", 3, UnknownVariable, "variable $x is not defined")
	collector.Emit("NullDereferenceCheck", "a.php", 5, NullDereference, "method call on possibly null $y")
	collector.Emit("", "b.php", 1, ParseError, "unexpected token \"<\"")
	return collector.Diagnostics()
}

func TestWriteText(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Write(buf, FormatText, sampleDiagnostics(), Summary{Files: 2, Checks: 7}, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "a.php:3: error [Standard.Unknown.Variable] variable $x is not defined", lines[0])
	assert.Equal(t, "3 diagnostic(s), 2 file(s), 7 check(s) run", lines[3])

	t.Run("colorized", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, WriteText(buf, sampleDiagnostics(), Summary{}, true))
		assert.Contains(t, buf.String(), string(ansiResetSequence))

		plain := new(bytes.Buffer)
		require.NoError(t, WriteText(plain, sampleDiagnostics(), Summary{}, false))
		assert.Equal(t, plain.String(), utils.StripANSISequences(buf.String()))
	})
}

func TestWriteJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Write(buf, FormatJSON, sampleDiagnostics(), Summary{Files: 2}, false))

	var report struct {
		Diagnostics []Diagnostic   `json:"diagnostics"`
		Counts      map[string]int `json:"counts"`
		Worst       string         `json:"worstSeverity"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Len(t, report.Diagnostics, 3)
	assert.Equal(t, SeverityWarning, report.Diagnostics[1].Severity)
	assert.Equal(t, 1, report.Counts[string(ParseError)])
	assert.Equal(t, "error", report.Worst)
}

func TestWriteCheckstyle(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Write(buf, FormatCheckstyle, sampleDiagnostics(), Summary{}, false))

	output := buf.String()
	assert.True(t, strings.HasPrefix(output, "<?xml"))
	assert.Equal(t, 2, strings.Count(output, "<file "))
	assert.Contains(t, output, `<error line="5" severity="warning" message="method call on possibly null $y" source="Standard.Null.Dereference"></error>`)
	assert.Contains(t, output, `message="unexpected token &#34;&lt;&#34;"`)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("html")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
