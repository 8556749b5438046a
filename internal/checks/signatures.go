package checks

import (
	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/evaluator"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/types"
)

// ParamTypeCheck reports arguments whose inferred type is not accepted by the declared type of the parameter.
// The comparison follows the strict_types mode of the calling code.
type ParamTypeCheck struct{}

func (c *ParamTypeCheck) Name() string {
	return PARAM_TYPE_CHECK
}

func (c *ParamTypeCheck) Kinds() []ast.Kind {
	return []ast.Kind{ast.FuncCallKind, ast.MethodCallKind, ast.StaticCallKind, ast.NewKind}
}

func (c *ParamTypeCheck) Run(e *evaluator.Evaluator, node ast.Node) {
	callee, params, ok := e.CallTarget(node)
	if !ok || len(params) == 0 {
		return
	}

	var args []*ast.Arg
	switch n := node.(type) {
	case *ast.FuncCall:
		args = n.Args
	case *ast.MethodCall:
		args = n.Args
	case *ast.StaticCall:
		args = n.Args
	case *ast.New:
		args = n.Args
	}

	strict := e.Stack().IsStrict()

	for i, arg := range args {
		if arg.Unpack {
			return
		}
		param, ok := evaluator.ParamFor(params, i, arg)
		if !ok || param.ByRef {
			continue
		}

		expected := param.TypeOf()
		if unreliable(expected) {
			continue
		}
		given, ok := e.TypeOf(arg.Value)
		if !ok || unreliable(given) || (param.Optional && types.IsNull(given)) {
			continue
		}

		if !isCompatible(e, expected, given, strict) {
			e.Emit(c.Name(), arg, report.ParamTypeMismatch, fmtArgumentTypeMismatch(i+1, callee, expected, given))
		}
	}
}

// ReturnTypeCheck reports return statements inconsistent with the declared return type of the enclosing function.
type ReturnTypeCheck struct{}

func (c *ReturnTypeCheck) Name() string {
	return RETURN_TYPE_CHECK
}

func (c *ReturnTypeCheck) Kinds() []ast.Kind {
	return []ast.Kind{ast.ReturnKind}
}

func (c *ReturnTypeCheck) Run(e *evaluator.Evaluator, node ast.Node) {
	ret := node.(*ast.Return)

	var hint ast.TypeHint
	switch fn := e.Stack().FunctionLike().(type) {
	case *ast.FunctionDecl:
		hint = fn.ReturnType
	case *ast.Method:
		hint = fn.ReturnType
	case *ast.Closure:
		hint = fn.ReturnType
	default:
		return
	}
	if hint == nil {
		return
	}

	declared := e.ResolveHint(hint)
	switch {
	case declared == nil, types.IsNamed(declared, "never"):
		return
	case types.IsNamed(declared, "void"):
		if ret.Expr != nil {
			e.Emit(c.Name(), ret, report.ReturnTypeMismatch, VOID_FUNCTION_RETURNS_A_VALUE)
		}
		return
	case ret.Expr == nil:
		e.Emit(c.Name(), ret, report.ReturnTypeMismatch, MISSING_RETURN_VALUE)
		return
	case unreliable(declared):
		return
	}

	given, ok := e.TypeOf(ret.Expr)
	if !ok || unreliable(given) {
		return
	}
	if !isCompatible(e, declared, given, e.Stack().IsStrict()) {
		e.Emit(c.Name(), ret, report.ReturnTypeMismatch, fmtReturnTypeMismatch(declared, given))
	}
}

// isCompatible compares a declared type with an inferred type, boolean literals are inferred as bool
// so bool is accepted where true or false is.
func isCompatible(e *evaluator.Evaluator, declared, given types.Type, strict bool) bool {
	if e.Comparer().IsCompatibleWithTarget(declared, given, strict) {
		return true
	}
	if !types.IsNamed(types.RemoveNullOption(given), "bool") {
		return false
	}
	return types.IfAny(declared, func(alternative types.Type) bool {
		return types.IsNamed(alternative, "true") || types.IsNamed(alternative, "false")
	})
}
