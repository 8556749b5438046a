package checks

import (
	"slices"
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/evaluator"
	"github.com/inoxlang/phpcheck/internal/types"
)

const (
	UNDEFINED_VARIABLE_CHECK = "UndefinedVariable"
	NULL_DEREFERENCE_CHECK   = "NullDereference"
	UNKNOWN_METHOD_CHECK     = "UnknownMethod"
	UNKNOWN_CLASS_CHECK      = "UnknownClass"
	PARAM_TYPE_CHECK         = "ParamType"
	RETURN_TYPE_CHECK        = "ReturnType"
)

// A Deduper remembers the diagnostics already emitted during a run, FirstTime returns true
// the first time it is called with a given key. Implementations must be safe for concurrent use.
type Deduper interface {
	FirstTime(key string) bool
}

type noDedupe struct{}

func (noDedupe) FirstTime(string) bool {
	return true
}

// All returns an instance of every check, dedupe can be nil.
func All(dedupe Deduper) []evaluator.Check {
	if dedupe == nil {
		dedupe = noDedupe{}
	}
	return []evaluator.Check{
		&UndefinedVariableCheck{dedupe: dedupe},
		&NullDereferenceCheck{},
		&UnknownMethodCheck{},
		&UnknownClassCheck{dedupe: dedupe},
		&ParamTypeCheck{},
		&ReturnTypeCheck{},
	}
}

// Names returns the names of all the checks, including the evaluator.
func Names() []string {
	names := []string{evaluator.EVALUATOR_CHECK_NAME}
	for _, check := range All(nil) {
		names = append(names, check.Name())
	}
	return names
}

// Filter returns the checks whose name is not in disabled (case-insensitive).
func Filter(checks []evaluator.Check, disabled []string) []evaluator.Check {
	var kept []evaluator.Check
	for _, check := range checks {
		if !slices.ContainsFunc(disabled, func(name string) bool { return strings.EqualFold(name, check.Name()) }) {
			kept = append(kept, check)
		}
	}
	return kept
}

// IsFunctionLike returns true for the nodes having their own variable scope.
func IsFunctionLike(node ast.Node) bool {
	switch node.(type) {
	case *ast.FunctionDecl, *ast.Method, *ast.Closure, *ast.ArrowFunction:
		return true
	}
	return false
}

// unreliable returns true if t carries too little information to be compared against a declared type.
func unreliable(t types.Type) bool {
	if t == nil {
		return true
	}
	return types.IfAny(t, func(alternative types.Type) bool {
		named, ok := alternative.(*types.Named)
		if !ok {
			return false
		}
		switch strings.ToLower(named.Name) {
		case "mixed", "callable", "object", "scalar", "iterable", "never", "void", "self", "static", "parent":
			return true
		}
		return false
	})
}

// classNames returns the class names referenced by t, builtin names are excluded.
func classNames(t types.Type) []string {
	var names []string
	var visit func(t types.Type)
	visit = func(t types.Type) {
		switch typ := t.(type) {
		case *types.Named:
			if !types.IsBuiltinName(typ.Name) {
				names = append(names, typ.Name)
			}
		case *types.Nullable:
			visit(typ.Inner)
		case *types.Union:
			for _, alternative := range typ.Types {
				visit(alternative)
			}
		case *types.Intersection:
			for _, component := range typ.Types {
				visit(component)
			}
		}
	}
	if t != nil {
		visit(t)
	}
	return names
}
