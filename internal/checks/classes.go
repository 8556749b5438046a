package checks

import (
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/evaluator"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/symbols"
	"github.com/inoxlang/phpcheck/internal/types"
)

// UnknownMethodCheck reports calls to methods that are not declared by the receiver class or its ancestors.
// Receivers of undefined or ignored classes and classes with magic call handlers are not checked.
type UnknownMethodCheck struct{}

func (c *UnknownMethodCheck) Name() string {
	return UNKNOWN_METHOD_CHECK
}

func (c *UnknownMethodCheck) Kinds() []ast.Kind {
	return []ast.Kind{ast.MethodCallKind, ast.StaticCallKind}
}

func (c *UnknownMethodCheck) Run(e *evaluator.Evaluator, node ast.Node) {
	var classes []string
	var methodName ast.Expr
	magic := "__call"

	switch n := node.(type) {
	case *ast.MethodCall:
		methodName = n.Name
		receiver, ok := e.TypeOf(n.Var)
		if !ok {
			return
		}
		classes = classNames(types.RemoveNullOption(receiver))
	case *ast.StaticCall:
		methodName = n.Name
		magic = "__callStatic"
		name, ok := n.Class.(*ast.Name)
		if !ok {
			return
		}
		resolved, ok := e.ResolveClassName(name)
		if !ok {
			return
		}
		classes = []string{resolved}
	default:
		return
	}

	identifier, ok := methodName.(*ast.Identifier)
	if !ok || strings.EqualFold(identifier.Value, "__construct") || isGuardedByMethodExists(e) {
		return
	}

	table := e.Symbols()
	for _, class := range classes {
		if !table.IsDefinedClass(class) || table.IgnoreType(class) {
			continue
		}
		if _, ok := symbols.FindMethod(table, class, identifier.Value); ok {
			continue
		}
		if _, ok := symbols.FindMethod(table, class, magic); ok {
			continue
		}
		e.Emit(c.Name(), node, report.UnknownMethod, fmtUnknownMethod(class, identifier.Value))
		return
	}
}

// isGuardedByMethodExists returns true if the current node is in the body of a condition calling method_exists.
func isGuardedByMethodExists(e *evaluator.Evaluator) bool {
	_, ok := e.Stack().FindAncestor(func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.If:
			return callsMethodExists(n.Cond)
		case *ast.ElseIf:
			return callsMethodExists(n.Cond)
		case *ast.Ternary:
			return callsMethodExists(n.Cond)
		case *ast.BinaryOp:
			return (n.Op == "&&" || n.Op == "and") && callsMethodExists(n.Left)
		}
		return false
	})
	return ok
}

func callsMethodExists(expr ast.Expr) bool {
	for _, call := range ast.FindNodes[*ast.FuncCall](expr) {
		if name, ok := call.Name.(*ast.Name); ok && strings.EqualFold(strings.TrimPrefix(name.Value, "\\"), "method_exists") {
			return true
		}
	}
	return false
}

// UnknownClassCheck reports references to undefined classes in instantiations, parameter types and catch clauses.
// Each class is reported once per file.
type UnknownClassCheck struct {
	dedupe Deduper
}

func (c *UnknownClassCheck) Name() string {
	return UNKNOWN_CLASS_CHECK
}

func (c *UnknownClassCheck) Kinds() []ast.Kind {
	return []ast.Kind{ast.NewKind, ast.ParamKind, ast.CatchKind}
}

func (c *UnknownClassCheck) Run(e *evaluator.Evaluator, node ast.Node) {
	switch n := node.(type) {
	case *ast.New:
		name, ok := n.Class.(*ast.Name)
		if !ok || n.AnonymousClass != nil {
			return
		}
		if resolved, ok := e.ResolveClassName(name); ok {
			c.check(e, node, resolved)
		}
	case *ast.Param:
		if n.Type == nil {
			return
		}
		for _, class := range classNames(e.ResolveHint(n.Type)) {
			c.check(e, node, class)
		}
	case *ast.Catch:
		for _, name := range n.Types {
			if resolved, ok := e.ResolveClassName(name); ok {
				c.check(e, name, resolved)
			}
		}
	}
}

func (c *UnknownClassCheck) check(e *evaluator.Evaluator, node ast.Node, class string) {
	table := e.Symbols()
	if types.IsBuiltinName(class) || class == evaluator.ANONYMOUS_CLASS_NAME || table.IsDefinedClass(class) || table.IgnoreType(class) {
		return
	}
	if !c.dedupe.FirstTime(e.File().Path + ":" + symbols.Key(class)) {
		return
	}
	e.Emit(c.Name(), node, report.UnknownClass, fmtUnknownClass(class))
}
