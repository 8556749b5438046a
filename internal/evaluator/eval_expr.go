package evaluator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/scope"
	"github.com/inoxlang/phpcheck/internal/symbols"
	"github.com/inoxlang/phpcheck/internal/types"
)

var interpolatedVariableRegex = regexp.MustCompile(`\$\{?([a-zA-Z_\x80-\xff][a-zA-Z0-9_\x80-\xff]*)`)

var superGlobals = map[string]bool{
	"GLOBALS": true, "_SERVER": true, "_GET": true, "_POST": true, "_FILES": true, "_COOKIE": true,
	"_SESSION": true, "_REQUEST": true, "_ENV": true, "http_response_header": true, "argc": true, "argv": true,
}

// IsSuperGlobal returns true for the variables that are defined in every scope.
func IsSuperGlobal(name string) bool {
	return superGlobals[name]
}

// functions reading or writing the variables of the calling scope by name
var dynamicVariableFunctions = map[string]bool{
	"extract": true, "get_defined_vars": true, "eval": true, "func_get_args": true, "parse_str": true,
}

// evalExpr evaluates expr in the current scope, stamps its type and runs the checks of its kind.
func (e *Evaluator) evalExpr(expr ast.Expr) types.Type {
	if isShortCircuit(expr) {
		base := e.stack.Top()
		whenTrue, whenFalse := e.evalCondition(expr)
		base.Adopt(scope.Merge(base, whenTrue, whenFalse))
		return types.Bool
	}

	e.stack.PushNode(expr)
	if e.quiet > 0 {
		e.silenced.Set(uint(expr.Base().ID))
	}

	t := e.evalExprKind(expr)

	e.types.Stamp(expr, t)
	e.runChecks(expr)
	e.stack.PopNode()
	return t
}

func isShortCircuit(expr ast.Expr) bool {
	binary, ok := expr.(*ast.BinaryOp)
	if !ok {
		return false
	}
	switch strings.ToLower(binary.Op) {
	case "&&", "||", "and", "or":
		return true
	}
	return false
}

// evalDynamic evaluates the dynamic part of a member or class reference, static names are not evaluated.
func (e *Evaluator) evalDynamic(expr ast.Expr) {
	switch expr.(type) {
	case nil, *ast.Name, *ast.Identifier:
		return
	}
	e.evalExpr(expr)
}

// evalSilenced evaluates expr without reporting undefined variables and null values (isset, empty, ??).
func (e *Evaluator) evalSilenced(expr ast.Expr) types.Type {
	e.quiet++
	defer func() {
		e.quiet--
	}()
	return e.evalExpr(expr)
}

func (e *Evaluator) evalExprKind(expr ast.Expr) types.Type {
	infer := func() types.Type {
		return e.inferrer.Infer(e.currentClass(), expr, e.stack.Top())
	}

	switch n := expr.(type) {
	case *ast.Variable:
		return e.readVariable(n)
	case *ast.IntLiteral, *ast.FloatLiteral, *ast.MagicConst, *ast.ConstFetch:
		return infer()
	case *ast.StringLiteral:
		if n.Interpolated {
			for _, match := range interpolatedVariableRegex.FindAllStringSubmatch(n.Value, -1) {
				e.stack.MarkUsed(match[1])
			}
		}
		return types.String
	case *ast.ClassConstFetch:
		e.evalDynamic(n.Class)
		return infer()
	case *ast.ArrayLiteral:
		e.evalArrayItems(n.Items)
		return types.Array
	case *ast.ListExpr:
		e.evalArrayItems(n.Items)
		return types.Array
	case *ast.ArrayDimFetch:
		e.evalExpr(n.Var)
		if n.Dim != nil {
			e.evalExpr(n.Dim)
		}
		return infer()
	case *ast.Assign:
		return e.evalAssign(n)
	case *ast.AssignOp:
		return e.evalAssignOp(n)
	case *ast.BinaryOp:
		if n.Op == "??" {
			e.evalSilenced(n.Left)
			e.evalOptional(n.Right)
			return infer()
		}
		e.evalExpr(n.Left)
		e.evalExpr(n.Right)
		return infer()
	case *ast.UnaryOp:
		e.evalExpr(n.Expr)
		return infer()
	case *ast.IncDec:
		e.evalExpr(n.Var)
		if variable, ok := n.Var.(*ast.Variable); ok {
			if v, ok := e.stack.Var(variable.Name); ok {
				v.Write(v.Type, n.Line)
			}
		}
		return infer()
	case *ast.Instanceof:
		e.evalExpr(n.Expr)
		e.evalDynamic(n.Class)
		return types.Bool
	case *ast.Ternary:
		return e.evalTernary(n)
	case *ast.New:
		e.evalDynamic(n.Class)
		e.evalArgs(n.Args, e.paramsOf(n))
		if n.AnonymousClass != nil {
			e.evalAnonymousClass(n.AnonymousClass)
		}
		return infer()
	case *ast.Clone:
		e.evalExpr(n.Expr)
		return infer()
	case *ast.FuncCall:
		return e.evalFuncCall(n)
	case *ast.MethodCall:
		e.evalExpr(n.Var)
		e.evalDynamic(n.Name)
		e.evalArgs(n.Args, e.paramsOf(n))
		return infer()
	case *ast.StaticCall:
		e.evalDynamic(n.Class)
		e.evalDynamic(n.Name)
		e.evalArgs(n.Args, e.paramsOf(n))
		return infer()
	case *ast.PropertyFetch:
		e.evalExpr(n.Var)
		e.evalDynamic(n.Name)
		return infer()
	case *ast.StaticPropertyFetch:
		e.evalDynamic(n.Class)
		return infer()
	case *ast.Closure:
		e.evalClosure(n)
		return infer()
	case *ast.ArrowFunction:
		e.evalArrowFunction(n)
		return infer()
	case *ast.Isset:
		for _, variable := range n.Vars {
			e.evalSilenced(variable)
		}
		return types.Bool
	case *ast.Empty:
		e.evalSilenced(n.Expr)
		return types.Bool
	case *ast.Cast:
		e.evalExpr(n.Expr)
		return infer()
	case *ast.Print:
		e.evalExpr(n.Expr)
		return types.Int
	case *ast.Exit:
		if n.Expr != nil {
			e.evalExpr(n.Expr)
		}
		return infer()
	}

	panic(fmt.Errorf("%w: %s", ErrNoEvaluator, expr.Kind()))
}

func (e *Evaluator) readVariable(n *ast.Variable) types.Type {
	if v, ok := e.stack.Var(n.Name); ok {
		v.Used = true
		return v.EffectiveType()
	}
	if n.Name == "this" {
		if class, ok := e.stack.CurrentClass(); ok && !e.stack.Top().Static {
			return types.Intern(class.Name)
		}
		return nil
	}
	switch {
	case n.Name == "argc":
		return types.Int
	case IsSuperGlobal(n.Name):
		return types.Array
	}
	return nil
}

// evalOptional evaluates an expression that may not be evaluated at runtime (right operand of ??).
func (e *Evaluator) evalOptional(expr ast.Expr) {
	base := e.stack.Top()
	evaluated := e.stack.PushClone()
	e.evalExpr(expr)
	e.stack.Pop()
	base.Adopt(scope.Merge(base, evaluated, base.Clone()))
}

func (e *Evaluator) evalTernary(n *ast.Ternary) types.Type {
	base := e.stack.Top()
	whenTrue, whenFalse := e.evalCondition(n.Cond)

	if n.Then != nil {
		e.stack.Push(whenTrue)
		e.evalExpr(n.Then)
		e.stack.Pop()
	}

	e.stack.Push(whenFalse)
	e.evalExpr(n.Else)
	e.stack.Pop()

	base.Adopt(scope.Merge(base, whenTrue, whenFalse))
	return e.inferrer.Infer(e.currentClass(), n, base)
}

func (e *Evaluator) evalArrayItems(items []*ast.ArrayItem) {
	for _, item := range items {
		if item == nil {
			continue
		}
		if item.Key != nil {
			e.evalExpr(item.Key)
		}
		if item.Value == nil {
			continue
		}
		if item.ByRef {
			e.evalReference(item.Value, item.Line)
		} else {
			e.evalExpr(item.Value)
		}
	}
}

// ==================== assignments ====================

func (e *Evaluator) evalAssign(n *ast.Assign) types.Type {
	if !n.ByRef {
		t := e.evalExpr(n.Expr)
		e.assignTo(n.Var, t, n.Line, false)
		return t
	}

	t := e.evalReference(n.Expr, n.Line)
	target, isVar := n.Var.(*ast.Variable)
	source, isVarSource := n.Expr.(*ast.Variable)
	if !isVar || !isVarSource {
		e.assignTo(n.Var, t, n.Line, true)
		return t
	}

	cell, _ := e.stack.Var(source.Name)
	e.stack.PushNode(target)
	e.targets.Set(uint(target.ID))
	e.stack.Top().Alias(target.Name, cell)
	e.types.Stamp(target, cell.EffectiveType())
	e.runChecks(target)
	e.stack.PopNode()
	return t
}

func (e *Evaluator) evalAssignOp(n *ast.AssignOp) types.Type {
	if n.Op == "??" {
		e.evalSilenced(n.Var)
		e.evalOptional(n.Expr)
	} else {
		e.evalExpr(n.Var)
		e.evalExpr(n.Expr)
	}

	t := e.inferrer.Infer(e.currentClass(), n, e.stack.Top())
	if variable, ok := n.Var.(*ast.Variable); ok && variable.Name != "this" {
		e.stack.Assign(variable.Name, t, n.Line)
	}
	return t
}

// evalReference evaluates an expression whose reference is taken, a missing variable is created.
func (e *Evaluator) evalReference(expr ast.Expr, line int) types.Type {
	variable, ok := expr.(*ast.Variable)
	if !ok {
		return e.evalSilenced(expr)
	}

	e.stack.PushNode(variable)
	e.targets.Set(uint(variable.ID))

	v, ok := e.stack.Var(variable.Name)
	if ok {
		v.Used = true
	} else {
		v = e.stack.Assign(variable.Name, nil, line)
	}
	t := v.EffectiveType()

	e.types.Stamp(variable, t)
	e.runChecks(variable)
	e.stack.PopNode()
	return t
}

// assignTo records the assignment of a value of type t to target.
func (e *Evaluator) assignTo(target ast.Expr, t types.Type, line int, byRef bool) {
	switch target.(type) {
	case *ast.Variable, *ast.ArrayDimFetch, *ast.PropertyFetch, *ast.StaticPropertyFetch, *ast.ListExpr, *ast.ArrayLiteral:
	default:
		e.evalExpr(target)
		return
	}

	e.stack.PushNode(target)
	e.targets.Set(uint(target.Base().ID))

	switch n := target.(type) {
	case *ast.Variable:
		if n.Name != "this" {
			e.stack.Assign(n.Name, t, line)
		}
	case *ast.ArrayDimFetch:
		e.updateContainer(n.Var, line)
		if n.Dim != nil {
			e.evalExpr(n.Dim)
		}
	case *ast.PropertyFetch:
		e.evalExpr(n.Var)
		e.evalDynamic(n.Name)
	case *ast.StaticPropertyFetch:
		e.evalDynamic(n.Class)
	case *ast.ListExpr:
		e.destructure(n.Items, t, line, byRef)
	case *ast.ArrayLiteral:
		e.destructure(n.Items, t, line, byRef)
	}

	e.types.Stamp(target, t)
	e.runChecks(target)
	e.stack.PopNode()
}

// destructure assigns the elements of a value of type t to the items of a list() or [] target.
func (e *Evaluator) destructure(items []*ast.ArrayItem, t types.Type, line int, byRef bool) {
	element := types.ElementType(t)

	for _, item := range items {
		if item == nil || item.Value == nil {
			continue
		}
		if item.Key != nil {
			e.evalExpr(item.Key)
		}
		e.assignTo(item.Value, element, line, byRef || item.ByRef)
	}
}

// updateContainer records the write of an element of container ($a[] = ..., $a['k']['l'] = ...),
// a missing variable is created as an array.
func (e *Evaluator) updateContainer(container ast.Expr, line int) {
	switch c := container.(type) {
	case *ast.Variable:
		e.stack.PushNode(c)
		e.targets.Set(uint(c.ID))

		var t types.Type
		if c.Name == "this" {
			t = e.readVariable(c)
		} else if v, ok := e.stack.Var(c.Name); ok {
			updated := v.Type
			if updated == nil || types.IsNull(updated) {
				updated = types.Array
			}
			v.Write(updated, line)
			t = v.EffectiveType()
		} else {
			t = e.stack.Assign(c.Name, types.Array, line).EffectiveType()
		}

		e.types.Stamp(c, t)
		e.runChecks(c)
		e.stack.PopNode()
	case *ast.ArrayDimFetch:
		e.stack.PushNode(c)
		e.targets.Set(uint(c.ID))

		e.updateContainer(c.Var, line)
		if c.Dim != nil {
			e.evalExpr(c.Dim)
		}

		e.types.Stamp(c, e.inferrer.Infer(e.currentClass(), c, e.stack.Top()))
		e.runChecks(c)
		e.stack.PopNode()
	default:
		e.evalExpr(container)
	}
}

// ==================== calls ====================

func (e *Evaluator) evalFuncCall(n *ast.FuncCall) types.Type {
	var params []symbols.ParamInfo

	if name, ok := n.Name.(*ast.Name); ok {
		lower := strings.ToLower(strings.TrimPrefix(name.Value, "\\"))

		switch {
		case lower == "compact":
			for _, arg := range n.Args {
				if s, ok := constantString(arg.Value); ok {
					e.stack.MarkUsed(s)
				}
			}
		case dynamicVariableFunctions[lower]:
			if frame := e.currentFrame(); frame != nil {
				frame.dynamicVars = true
			}
		}

		params = e.paramsOf(n)
	} else {
		e.evalExpr(n.Name)
	}

	e.evalArgs(n.Args, params)
	return e.inferrer.Infer(e.currentClass(), n, e.stack.Top())
}

func (e *Evaluator) evalArgs(args []*ast.Arg, params []symbols.ParamInfo) {
	for i, arg := range args {
		e.stack.PushNode(arg)

		if param, ok := ParamFor(params, i, arg); ok && param.ByRef && !arg.Unpack {
			e.evalReference(arg.Value, arg.Line)
		} else {
			e.evalExpr(arg.Value)
		}

		e.runChecks(arg)
		e.stack.PopNode()
	}
}

// ParamFor returns the parameter receiving the argument at index i, named arguments are matched by name.
func ParamFor(params []symbols.ParamInfo, i int, arg *ast.Arg) (symbols.ParamInfo, bool) {
	if arg.Name != "" {
		for _, param := range params {
			if param.Name == arg.Name {
				return param, true
			}
		}
		return symbols.ParamInfo{}, false
	}
	if i < len(params) {
		return params[i], true
	}
	if len(params) > 0 && params[len(params)-1].Variadic {
		return params[len(params)-1], true
	}
	return symbols.ParamInfo{}, false
}

func (e *Evaluator) paramsOf(call ast.Node) []symbols.ParamInfo {
	_, params, _ := e.CallTarget(call)
	return params
}

// CallTarget returns a display name and the parameters of the function, method or constructor called by an
// evaluated call node. The boolean result is false if the callee is unknown.
func (e *Evaluator) CallTarget(call ast.Node) (string, []symbols.ParamInfo, bool) {
	if e.symbols == nil {
		return "", nil, false
	}

	switch n := call.(type) {
	case *ast.FuncCall:
		name, ok := n.Name.(*ast.Name)
		if !ok {
			return "", nil, false
		}
		fn, ok := e.names.LookupFunction(e.symbols, name)
		if !ok {
			return "", nil, false
		}
		return fn.Name, fn.Params, true
	case *ast.MethodCall:
		name, ok := n.Name.(*ast.Identifier)
		if !ok {
			return "", nil, false
		}
		receiver, _ := e.types.TypeOf(n.Var)
		class, ok := types.RemoveNullOption(receiver).(*types.Named)
		if !ok || types.IsBuiltinName(class.Name) {
			return "", nil, false
		}
		return e.methodTarget(class.Name, name.Value)
	case *ast.StaticCall:
		name, ok := n.Name.(*ast.Identifier)
		if !ok {
			return "", nil, false
		}
		className, ok := n.Class.(*ast.Name)
		if !ok {
			return "", nil, false
		}
		resolved, ok := e.ResolveClassName(className)
		if !ok {
			return "", nil, false
		}
		return e.methodTarget(resolved, name.Value)
	case *ast.New:
		className, ok := n.Class.(*ast.Name)
		if !ok || n.AnonymousClass != nil {
			return "", nil, false
		}
		resolved, ok := e.ResolveClassName(className)
		if !ok {
			return "", nil, false
		}
		return e.methodTarget(resolved, "__construct")
	}
	return "", nil, false
}

func (e *Evaluator) methodTarget(className, methodName string) (string, []symbols.ParamInfo, bool) {
	method, ok := symbols.FindMethod(e.symbols, className, methodName)
	if !ok {
		return "", nil, false
	}
	return method.Class + "::" + method.Name, method.Params, true
}
