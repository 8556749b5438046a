package evaluator

import (
	"fmt"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/scope"
	"github.com/inoxlang/phpcheck/internal/types"
)

const ANONYMOUS_CLASS_NAME = "class@anonymous"

// evalFunctionLike evaluates a function-like body in a fresh scope: bind is called before the parameters are bound,
// the unused variables are reported when body returns.
func (e *Evaluator) evalFunctionLike(node ast.Node, params []*ast.Param, bindThis bool, bind func(s *scope.Scope), body func()) {
	enclosing := e.stack.Top()

	s := scope.New(node)
	s.StrictTypes = enclosing.StrictTypes
	switch n := node.(type) {
	case *ast.Method:
		s.Static = n.Modifiers.Static
	case *ast.Closure:
		s.Static = n.Static
	case *ast.ArrowFunction:
		s.Static = n.Static
	}

	if class, ok := e.stack.CurrentClass(); ok && bindThis {
		s.Set("this", scope.NewVar(types.Intern(class.Name), scope.OriginThis))
	}

	frame := &frame{node: node}
	e.frames = append(e.frames, frame)
	e.stack.Push(s)

	if bind != nil {
		bind(s)
	}
	e.bindParams(params)
	body()
	e.reportUnused(s, frame)

	e.stack.Pop()
	e.frames = e.frames[:len(e.frames)-1]
	e.returns[node] = frame.returns
}

func (e *Evaluator) bindParams(params []*ast.Param) {
	for _, param := range params {
		e.stack.PushNode(param)

		if param.Default != nil {
			e.evalExpr(param.Default)
		}

		t := e.ResolveHint(param.Type)
		if t != nil && param.Default != nil && isNullLiteral(param.Default) {
			t = types.NewNullable(t)
		}
		if param.Variadic {
			if t == nil {
				t = types.Array
			} else {
				t = types.ArrayOf(t)
			}
		}

		v := scope.NewVar(t, scope.OriginParam)
		v.ModifiedLine = param.Line
		e.stack.Top().Set(param.Name, v)

		e.runChecks(param)
		e.stack.PopNode()
	}
}

func (e *Evaluator) reportUnused(s *scope.Scope, frame *frame) {
	if frame.dynamicVars {
		return
	}

	s.ForEach(func(name string, v *scope.Var) {
		if v.Used || !v.Origin.IsReportedWhenUnused() || v.Shared() || IsSuperGlobal(name) || name == "this" {
			return
		}
		line := v.ModifiedLine
		if line == 0 {
			line = frame.node.Base().Line
		}
		e.emitter.Emit(EVALUATOR_CHECK_NAME, e.file.Path, line, report.UnusedVariable,
			fmt.Sprintf("variable $%s is assigned but never used", name))
	})
}

func (e *Evaluator) evalClosure(n *ast.Closure) {
	enclosing := e.stack.Top()
	captured := make([]*scope.Var, len(n.Uses))

	for i, use := range n.Uses {
		name := use.Var.Name
		v, ok := enclosing.Get(name)

		switch {
		case use.ByRef:
			if !ok {
				v = scope.NewVar(nil, scope.OriginLocal)
				enclosing.Set(name, v)
			}
			v.Used = true
		case ok:
			v.Used = true
		case !enclosing.Global:
			e.Emit(EVALUATOR_CHECK_NAME, use, report.UnknownUseVariable, "unknown variable $%s in use clause", name)
		}
		captured[i] = v
	}

	e.evalFunctionLike(n, n.Params, !n.Static, func(s *scope.Scope) {
		for i, use := range n.Uses {
			v := captured[i]
			switch {
			case use.ByRef:
				s.Alias(use.Var.Name, v)
			case v != nil:
				copied := v.Copy()
				copied.Origin = scope.OriginUse
				copied.Used = false
				s.Set(use.Var.Name, copied)
			default:
				s.Set(use.Var.Name, scope.NewVar(nil, scope.OriginUse))
			}
		}
	}, func() {
		e.evalStmt(n.Body)
	})
}

// evalArrowFunction evaluates an arrow function, the free variables it references are imported by value.
func (e *Evaluator) evalArrowFunction(n *ast.ArrowFunction) {
	enclosing := e.stack.Top()

	isParam := map[string]bool{}
	for _, param := range n.Params {
		isParam[param.Name] = true
	}

	e.evalFunctionLike(n, n.Params, !n.Static, func(s *scope.Scope) {
		for _, name := range ast.ReferencedVariables(n) {
			if name == "this" || isParam[name] {
				continue
			}
			v, ok := enclosing.Get(name)
			if !ok {
				continue
			}
			v.Used = true

			imported := v.Copy()
			imported.Origin = scope.OriginUse
			imported.Used = false
			s.Set(name, imported)
		}
	}, func() {
		t := e.evalExpr(n.Expr)
		frame := e.currentFrame()
		frame.returns = append(frame.returns, t)
	})
}

func (e *Evaluator) evalClassDecl(n *ast.ClassDecl) {
	class := scope.Class{
		Decl: n,
		Name: e.names.QualifyDeclared(n.Name.Value),
	}
	if n.ClassKind == ast.ClassKindClass && len(n.Extends) > 0 {
		class.Parent = e.names.ResolveName(n.Extends[0])
	}
	e.evalClassBody(n, class)
}

func (e *Evaluator) evalAnonymousClass(n *ast.ClassDecl) {
	e.stack.PushNode(n)

	class := scope.Class{Decl: n, Name: ANONYMOUS_CLASS_NAME}
	if len(n.Extends) > 0 {
		class.Parent = e.names.ResolveName(n.Extends[0])
	}
	e.evalClassBody(n, class)

	e.runChecks(n)
	e.stack.PopNode()
}

func (e *Evaluator) evalClassBody(n *ast.ClassDecl, class scope.Class) {
	e.stack.PushClass(class)

	//constant expressions have no variables
	e.stack.Push(scope.New(n))
	for _, constant := range n.Constants {
		e.stack.PushNode(constant)
		e.evalExpr(constant.Value)
		e.runChecks(constant)
		e.stack.PopNode()
	}
	for _, property := range n.Properties {
		e.stack.PushNode(property)
		if property.Default != nil {
			e.evalExpr(property.Default)
		}
		e.runChecks(property)
		e.stack.PopNode()
	}
	e.stack.Pop()

	for _, method := range n.Methods {
		e.stack.PushNode(method)
		e.evalFunctionLike(method, method.Params, !method.Modifiers.Static, nil, func() {
			if method.Body != nil {
				e.evalStmt(method.Body)
			}
		})
		e.runChecks(method)
		e.stack.PopNode()
	}

	e.stack.PopClass()
}
