package checks

import (
	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/evaluator"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/types"
)

// NullDereferenceCheck reports method calls and property fetches on variables that may be null at this point.
// Only variable receivers are checked, the nullability of other expressions is not tracked.
type NullDereferenceCheck struct{}

func (c *NullDereferenceCheck) Name() string {
	return NULL_DEREFERENCE_CHECK
}

func (c *NullDereferenceCheck) Kinds() []ast.Kind {
	return []ast.Kind{ast.MethodCallKind, ast.PropertyFetchKind}
}

func (c *NullDereferenceCheck) Run(e *evaluator.Evaluator, node ast.Node) {
	var receiver, member ast.Expr
	var isCall bool

	switch n := node.(type) {
	case *ast.MethodCall:
		if n.NullSafe {
			return
		}
		receiver, member, isCall = n.Var, n.Name, true
	case *ast.PropertyFetch:
		if n.NullSafe {
			return
		}
		receiver, member = n.Var, n.Name
	default:
		return
	}

	variable, ok := receiver.(*ast.Variable)
	if !ok || variable.Name == "this" || e.IsSilenced(node) {
		return
	}
	identifier, ok := member.(*ast.Identifier)
	if !ok {
		return
	}

	t, ok := e.TypeOf(variable)
	if !ok || !types.ContainsNull(t) {
		return
	}

	if isCall {
		e.Emit(c.Name(), node, report.NullDereference, fmtMethodCallOnPossiblyNull(identifier.Value, variable.Name))
	} else {
		e.Emit(c.Name(), node, report.NullDereference, fmtPropertyFetchOnPossiblyNull(identifier.Value, variable.Name))
	}
}
