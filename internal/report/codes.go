package report

import (
	"fmt"
	"strings"
)

// Code identifies a kind of defect, codes are stable and are used to enable or disable reporting.
type Code string

const (
	ParseError    Code = "Standard.Parse.Error"
	InternalError Code = "Standard.Internal.Error"

	UnusedVariable     Code = "Standard.Unused.Variable"
	CatchShadowing     Code = "Standard.Catch.Shadowing"
	UnknownUseVariable Code = "Standard.Unknown.Closure.Variable"

	UnknownVariable    Code = "Standard.Unknown.Variable"
	NullDereference    Code = "Standard.Null.Dereference"
	UnknownMethod      Code = "Standard.Unknown.Class.Method"
	UnknownClass       Code = "Standard.Unknown.Class"
	ParamTypeMismatch  Code = "Standard.Param.Type"
	ReturnTypeMismatch Code = "Standard.Return.Type"
)

var severities = map[Code]Severity{
	ParseError:         SeverityError,
	InternalError:      SeverityError,
	UnusedVariable:     SeverityInfo,
	CatchShadowing:     SeverityWarning,
	UnknownUseVariable: SeverityError,
	UnknownVariable:    SeverityError,
	NullDereference:    SeverityWarning,
	UnknownMethod:      SeverityError,
	UnknownClass:       SeverityError,
	ParamTypeMismatch:  SeverityWarning,
	ReturnTypeMismatch: SeverityWarning,
}

// Codes returns all the known codes.
func Codes() []Code {
	return []Code{
		ParseError, InternalError,
		UnusedVariable, CatchShadowing, UnknownUseVariable,
		UnknownVariable, NullDereference, UnknownMethod, UnknownClass, ParamTypeMismatch, ReturnTypeMismatch,
	}
}

// Severity returns the severity of the code, unknown codes are warnings.
func (c Code) Severity() Severity {
	if severity, ok := severities[c]; ok {
		return severity
	}
	return SeverityWarning
}

type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "none"
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	severity, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = severity
	return nil
}

// ExitStatus returns the process exit status for a run whose worst diagnostic has the severity s.
func (s Severity) ExitStatus() int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}
