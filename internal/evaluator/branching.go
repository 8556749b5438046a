package evaluator

import (
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/scope"
	"github.com/inoxlang/phpcheck/internal/types"
)

// types implied by the type testing functions
var typePredicates = map[string]types.Type{
	"is_string":   types.String,
	"is_int":      types.Int,
	"is_integer":  types.Int,
	"is_long":     types.Int,
	"is_float":    types.Float,
	"is_double":   types.Float,
	"is_bool":     types.Bool,
	"is_array":    types.Array,
	"is_object":   types.Object,
	"is_callable": types.Callable,
	"is_iterable": types.Iterable,
	"is_scalar":   types.Scalar,
}

// evalCondition evaluates cond in the current scope and returns the states in which cond is true and false.
// Both states are new scopes derived from the current scope.
func (e *Evaluator) evalCondition(cond ast.Expr) (whenTrue, whenFalse *scope.Scope) {
	switch c := cond.(type) {
	case *ast.BinaryOp:
		switch strings.ToLower(c.Op) {
		case "&&", "and":
			return e.evalAnd(c)
		case "||", "or":
			return e.evalOr(c)
		}
	case *ast.UnaryOp:
		if c.Op == "!" {
			e.stack.PushNode(c)
			whenTrue, whenFalse = e.evalCondition(c.Expr)
			e.types.Stamp(c, types.Bool)
			e.runChecks(c)
			e.stack.PopNode()
			return whenFalse, whenTrue
		}
	}

	e.evalExpr(cond)

	current := e.stack.Top()
	whenTrue, whenFalse = current.Clone(), current.Clone()
	e.narrow(cond, whenTrue, whenFalse)
	return
}

// evalAnd evaluates the right operand in the state where the left operand is true.
func (e *Evaluator) evalAnd(n *ast.BinaryOp) (whenTrue, whenFalse *scope.Scope) {
	e.stack.PushNode(n)
	base := e.stack.Top()

	leftTrue, leftFalse := e.evalCondition(n.Left)

	e.stack.Push(leftTrue)
	rightTrue, rightFalse := e.evalCondition(n.Right)
	e.stack.Pop()

	whenTrue = rightTrue
	whenFalse = scope.Merge(base, leftFalse, rightFalse)

	e.types.Stamp(n, types.Bool)
	e.runChecks(n)
	e.stack.PopNode()
	return
}

// evalOr evaluates the right operand in the state where the left operand is false.
func (e *Evaluator) evalOr(n *ast.BinaryOp) (whenTrue, whenFalse *scope.Scope) {
	e.stack.PushNode(n)
	base := e.stack.Top()

	leftTrue, leftFalse := e.evalCondition(n.Left)

	e.stack.Push(leftFalse)
	rightTrue, rightFalse := e.evalCondition(n.Right)
	e.stack.Pop()

	whenTrue = scope.Merge(base, leftTrue, rightTrue)
	whenFalse = rightFalse

	e.types.Stamp(n, types.Bool)
	e.runChecks(n)
	e.stack.PopNode()
	return
}

// narrow refines the variables tested by an evaluated condition.
func (e *Evaluator) narrow(cond ast.Expr, whenTrue, whenFalse *scope.Scope) {
	switch c := cond.(type) {
	case *ast.Variable, *ast.Assign:
		if name := testedVariable(c); name != "" {
			removeNull(whenTrue, name)
		}
	case *ast.BinaryOp:
		name, isNullTest := nullTest(c)
		if !isNullTest {
			return
		}
		//0, "", "0", false and [] are loosely equal to null: == and != only narrow the not-null side
		switch c.Op {
		case "===":
			setNull(whenTrue, name)
			removeNull(whenFalse, name)
		case "==":
			removeNull(whenFalse, name)
		case "!==":
			removeNull(whenTrue, name)
			setNull(whenFalse, name)
		case "!=":
			removeNull(whenTrue, name)
		}
	case *ast.Instanceof:
		name := testedVariable(c.Expr)
		className, ok := c.Class.(*ast.Name)
		if name == "" || !ok {
			return
		}
		resolved, ok := e.ResolveClassName(className)
		if !ok {
			return
		}
		class := types.Intern(resolved)
		narrowTo(whenTrue, name, class)
		removeAlternatives(whenFalse, name, func(alternative types.Type) bool {
			return types.IsExactMatch(alternative, class)
		})
	case *ast.FuncCall:
		e.narrowCall(c, whenTrue, whenFalse)
	case *ast.Isset:
		for _, variable := range c.Vars {
			if name := testedVariable(variable); name != "" {
				removeNull(whenTrue, name)
			}
		}
	case *ast.Empty:
		if name := testedVariable(c.Expr); name != "" {
			removeNull(whenFalse, name)
		}
	}
}

func (e *Evaluator) narrowCall(call *ast.FuncCall, whenTrue, whenFalse *scope.Scope) {
	name, ok := call.Name.(*ast.Name)
	if !ok || len(call.Args) != 1 || call.Args[0].Unpack {
		return
	}
	variable := testedVariable(call.Args[0].Value)
	if variable == "" {
		return
	}

	function := strings.ToLower(strings.TrimPrefix(name.Value, "\\"))
	if function == "is_null" {
		setNull(whenTrue, variable)
		removeNull(whenFalse, variable)
		return
	}

	tested, ok := typePredicates[function]
	if !ok {
		return
	}
	matches := func(alternative types.Type) bool {
		switch {
		case types.IsExactMatch(alternative, tested):
			return true
		case tested == types.Array:
			return types.IsArrayOf(alternative)
		case tested == types.Object:
			named, ok := alternative.(*types.Named)
			return ok && !types.IsBuiltinName(named.Name)
		case tested == types.Bool:
			return types.IsNamed(alternative, "true") || types.IsNamed(alternative, "false")
		}
		return false
	}

	if v, ok := whenTrue.Get(variable); ok {
		if kept := types.Filter(v.Type, matches); kept != nil {
			v.Narrow(kept)
		} else {
			v.Narrow(tested)
		}
	}
	removeAlternatives(whenFalse, variable, matches)
}

// testedVariable returns the name of the variable whose value is tested by expr: a variable or
// the target of an assignment used as a condition. It returns an empty string for other expressions.
func testedVariable(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Variable:
		if e.Name == "this" {
			return ""
		}
		return e.Name
	case *ast.Assign:
		if e.ByRef {
			return ""
		}
		return testedVariable(e.Var)
	}
	return ""
}

// nullTest returns the tested variable of a comparison with null.
func nullTest(binary *ast.BinaryOp) (string, bool) {
	switch binary.Op {
	case "===", "==", "!==", "!=":
	default:
		return "", false
	}
	switch {
	case isNullLiteral(binary.Right):
		name := testedVariable(binary.Left)
		return name, name != ""
	case isNullLiteral(binary.Left):
		name := testedVariable(binary.Right)
		return name, name != ""
	}
	return "", false
}

func isNullLiteral(expr ast.Expr) bool {
	constFetch, ok := expr.(*ast.ConstFetch)
	return ok && strings.EqualFold(strings.TrimPrefix(constFetch.Name.Value, "\\"), "null")
}

func setNull(s *scope.Scope, name string) {
	if v, ok := s.Get(name); ok {
		v.Narrow(types.Null)
	}
}

func removeNull(s *scope.Scope, name string) {
	v, ok := s.Get(name)
	if !ok {
		return
	}
	v.Narrow(types.RemoveNullOption(v.Type))
	v.Nullability = scope.NullabilityNo
}

func narrowTo(s *scope.Scope, name string, t types.Type) {
	if v, ok := s.Get(name); ok {
		v.Narrow(t)
	}
}

// removeAlternatives removes the alternatives of the variable's type for which remove returns true,
// the type is not changed if no alternative would remain.
func removeAlternatives(s *scope.Scope, name string, remove func(alternative types.Type) bool) {
	v, ok := s.Get(name)
	if !ok || v.Type == nil {
		return
	}
	kept := types.Filter(v.EffectiveType(), func(alternative types.Type) bool {
		return !remove(alternative)
	})
	if kept != nil && !types.IsExactMatch(kept, v.EffectiveType()) {
		v.Narrow(kept)
	}
}
