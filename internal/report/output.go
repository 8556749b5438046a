package report

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/muesli/termenv"
)

var ErrUnknownFormat = errors.New("unknown output format")

type Format string

const (
	FormatText       Format = "text"
	FormatJSON       Format = "json"
	FormatCheckstyle Format = "checkstyle"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCheckstyle:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

var ansiResetSequence = []byte(termenv.CSI + termenv.ResetSeq + "m")

type Colors struct {
	Location, Code, Discrete, Info, Warning, Error []byte
}

var (
	DEFAULT_COLORS = Colors{
		Location: GetFullColorSequence(termenv.ANSIBrightCyan, false),
		Code:     GetFullColorSequence(termenv.ANSIBrightMagenta, false),
		Discrete: GetFullColorSequence(termenv.ANSIBrightBlack, false),
		Info:     GetFullColorSequence(termenv.ANSIBlue, false),
		Warning:  GetFullColorSequence(termenv.ANSIYellow, false),
		Error:    GetFullColorSequence(termenv.ANSIRed, false),
	}
)

func GetFullColorSequence(color termenv.Color, bg bool) []byte {
	var b = []byte(termenv.CSI)
	b = append(b, []byte(color.Sequence(bg))...)
	b = append(b, 'm')
	return b
}

func (c Colors) severity(s Severity) []byte {
	switch s {
	case SeverityError:
		return c.Error
	case SeverityWarning:
		return c.Warning
	}
	return c.Info
}

type Summary struct {
	Files  int   `json:"files"`
	Checks int64 `json:"checks"`
}

// Write writes the diagnostics in the given format.
func Write(w io.Writer, format Format, diagnostics []Diagnostic, summary Summary, colorize bool) error {
	switch format {
	case FormatText, "":
		return WriteText(w, diagnostics, summary, colorize)
	case FormatJSON:
		return WriteJSON(w, diagnostics, summary)
	case FormatCheckstyle:
		return WriteCheckstyle(w, diagnostics)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteText writes one line per diagnostic followed by a summary line.
func WriteText(w io.Writer, diagnostics []Diagnostic, summary Summary, colorize bool) error {
	writer := bufio.NewWriter(w)
	colors := DEFAULT_COLORS

	color := func(seq []byte, s string) {
		if colorize {
			writer.Write(seq)
			writer.WriteString(s)
			writer.Write(ansiResetSequence)
		} else {
			writer.WriteString(s)
		}
	}

	for _, d := range diagnostics {
		color(colors.Location, fmt.Sprintf("%s:%d", d.File, d.Line))
		writer.WriteString(": ")
		color(colors.severity(d.Severity), d.Severity.String())
		writer.WriteByte(' ')
		color(colors.Code, "["+string(d.Code)+"]")
		writer.WriteByte(' ')
		writer.WriteString(d.Message)
		writer.WriteByte('\n')
	}

	line := fmt.Sprintf("%d diagnostic(s), %d file(s), %d check(s) run", len(diagnostics), summary.Files, summary.Checks)
	color(colors.Discrete, line)
	writer.WriteByte('\n')

	return writer.Flush()
}

type jsonReport struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Counts      map[Code]int `json:"counts"`
	Summary     Summary      `json:"summary"`
	Worst       Severity     `json:"worstSeverity,omitempty"`
}

func WriteJSON(w io.Writer, diagnostics []Diagnostic, summary Summary) error {
	if diagnostics == nil {
		diagnostics = []Diagnostic{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonReport{
		Diagnostics: diagnostics,
		Counts:      CountByCode(diagnostics),
		Summary:     summary,
		Worst:       WorstSeverity(diagnostics),
	})
}

type checkstyleReport struct {
	XMLName xml.Name         `xml:"checkstyle"`
	Version string           `xml:"version,attr"`
	Files   []checkstyleFile `xml:"file"`
}

type checkstyleFile struct {
	Name   string            `xml:"name,attr"`
	Errors []checkstyleError `xml:"error"`
}

type checkstyleError struct {
	Line     int    `xml:"line,attr"`
	Severity string `xml:"severity,attr"`
	Message  string `xml:"message,attr"`
	Source   string `xml:"source,attr"`
}

// WriteCheckstyle writes the diagnostics in the checkstyle XML format, diagnostics are expected to be ordered by file.
func WriteCheckstyle(w io.Writer, diagnostics []Diagnostic) error {
	report := checkstyleReport{Version: "4.3"}

	for _, d := range diagnostics {
		if len(report.Files) == 0 || report.Files[len(report.Files)-1].Name != d.File {
			report.Files = append(report.Files, checkstyleFile{Name: d.File})
		}
		file := &report.Files[len(report.Files)-1]
		file.Errors = append(file.Errors, checkstyleError{
			Line:     d.Line,
			Severity: d.Severity.String(),
			Message:  d.Message,
			Source:   string(d.Code),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
