package types

import (
	"errors"
	"fmt"

	"github.com/inoxlang/phpcheck/internal/ast"
)

var (
	ErrEmptyTypeText = errors.New("empty type text")
)

func fmtUnexpectedType(t Type) error {
	return fmt.Errorf("unexpected type %T", t)
}

func fmtInvalidTypeText(text string, pos int, reason string) error {
	return fmt.Errorf("invalid type %q at position %d: %s", text, pos, reason)
}

func fmtUnexpectedHint(hint ast.TypeHint) error {
	return fmt.Errorf("unexpected type hint %T", hint)
}
