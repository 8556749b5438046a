package evaluator

import (
	"fmt"
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/scope"
	"github.com/inoxlang/phpcheck/internal/types"
)

func (e *Evaluator) evalStatements(statements []ast.Stmt) {
	for _, stmt := range statements {
		e.evalStmt(stmt)
	}
}

func (e *Evaluator) evalStmt(stmt ast.Stmt) {
	e.stack.PushNode(stmt)

	switch n := stmt.(type) {
	case *ast.Block:
		e.evalStatements(n.Statements)
	case *ast.ExprStmt:
		e.evalExpr(n.Expr)
	case *ast.Echo:
		for _, expr := range n.Exprs {
			e.evalExpr(expr)
		}
	case *ast.Namespace:
		e.names.Update(n)
		if n.Braced {
			e.evalStatements(n.Statements)
			e.names.EnterNamespace("")
		}
	case *ast.UseStmt:
		e.names.Update(n)
	case *ast.ClassDecl:
		e.evalClassDecl(n)
	case *ast.FunctionDecl:
		e.evalFunctionLike(n, n.Params, false, nil, func() {
			e.evalStmt(n.Body)
		})
	case *ast.If:
		e.evalIf(n)
	case *ast.While:
		e.evalWhile(n)
	case *ast.DoWhile:
		e.evalDoWhile(n)
	case *ast.For:
		e.evalFor(n)
	case *ast.Foreach:
		e.evalForeach(n)
	case *ast.Switch:
		e.evalSwitch(n)
	case *ast.Try:
		e.evalTry(n)
	case *ast.Break, *ast.Continue, *ast.Nop:
	case *ast.Return:
		var t types.Type = types.Void
		if n.Expr != nil {
			t = e.evalExpr(n.Expr)
		}
		if frame := e.currentFrame(); frame != nil {
			frame.returns = append(frame.returns, t)
		}
	case *ast.Throw:
		e.evalExpr(n.Expr)
	case *ast.Global:
		e.evalGlobal(n)
	case *ast.StaticVars:
		e.evalStaticVars(n)
	case *ast.Unset:
		e.evalUnset(n)
	case *ast.Declare:
		e.evalDeclare(n)
	default:
		panic(fmt.Errorf("%w: %s", ErrNoEvaluator, stmt.Kind()))
	}

	e.runChecks(stmt)
	e.stack.PopNode()
}

// evalBranch evaluates body in s and appends s to ends or to terminated depending on whether the end of body is reachable.
func (e *Evaluator) evalBranch(s *scope.Scope, body *ast.Block, ends, terminated *[]*scope.Scope) {
	e.stack.Push(s)
	e.evalStmt(body)
	e.stack.Pop()

	if ast.IsTerminatingBlock(body) {
		*terminated = append(*terminated, s)
	} else {
		*ends = append(*ends, s)
	}
}

// join makes base the state following alternate branches that started at base. ends are the final states of the branches
// reaching the next statement, terminated are the final states of the other branches: their reads are kept.
func (e *Evaluator) join(base *scope.Scope, ends, terminated []*scope.Scope) {
	var result *scope.Scope

	switch len(ends) {
	case 0:
		//the next statement is unreachable
		result = base
	case 1:
		//a single path continues, its narrowings are kept
		result = ends[0]
	default:
		result = scope.Merge(base, ends...)
	}

	for _, s := range terminated {
		result.PropagateUsed(s)
	}
	if result != base {
		base.Adopt(result)
	}
}

func (e *Evaluator) evalIf(n *ast.If) {
	base := e.stack.Top()
	whenTrue, whenFalse := e.evalCondition(n.Cond)

	var ends, terminated []*scope.Scope
	e.evalBranch(whenTrue, n.Then, &ends, &terminated)

	current := whenFalse
	for _, elseIf := range n.ElseIfs {
		e.stack.PushNode(elseIf)

		e.stack.Push(current)
		whenTrue, whenFalse := e.evalCondition(elseIf.Cond)
		e.stack.Pop()

		e.evalBranch(whenTrue, elseIf.Body, &ends, &terminated)
		current = whenFalse

		e.runChecks(elseIf)
		e.stack.PopNode()
	}

	if n.Else != nil {
		e.stack.PushNode(n.Else)
		e.evalBranch(current, n.Else.Body, &ends, &terminated)
		e.runChecks(n.Else)
		e.stack.PopNode()
	} else {
		ends = append(ends, current)
	}

	e.join(base, ends, terminated)
}

// Loops are evaluated in a single pass: the state after the loop is the merge of the state at the end of the body
// and the state of the path that does not enter the body.

func (e *Evaluator) evalWhile(n *ast.While) {
	base := e.stack.Top()
	whenTrue, whenFalse := e.evalCondition(n.Cond)

	e.stack.Push(whenTrue)
	e.evalStmt(n.Body)
	e.stack.Pop()

	base.Adopt(scope.Merge(base, whenTrue, whenFalse))
}

func (e *Evaluator) evalDoWhile(n *ast.DoWhile) {
	base := e.stack.Top()
	e.stack.PushClone()
	e.evalStmt(n.Body)
	_, whenFalse := e.evalCondition(n.Cond)
	e.stack.Pop()

	base.Adopt(whenFalse)
}

func (e *Evaluator) evalFor(n *ast.For) {
	base := e.stack.Top()
	for _, expr := range n.Init {
		e.evalExpr(expr)
	}

	var whenTrue, whenFalse *scope.Scope
	for i, expr := range n.Cond {
		if i < len(n.Cond)-1 {
			e.evalExpr(expr)
			continue
		}
		whenTrue, whenFalse = e.evalCondition(expr)
	}
	if whenTrue == nil {
		whenTrue = base.Clone()
	}

	e.stack.Push(whenTrue)
	e.evalStmt(n.Body)
	for _, expr := range n.Loop {
		e.evalExpr(expr)
	}
	e.stack.Pop()

	if whenFalse == nil {
		//no condition: the loop is only left with break
		base.Adopt(scope.Merge(base, whenTrue))
		return
	}
	base.Adopt(scope.Merge(base, whenTrue, whenFalse))
}

func (e *Evaluator) evalForeach(n *ast.Foreach) {
	base := e.stack.Top()
	e.evalExpr(n.Expr)

	body := e.stack.PushClone()
	if n.Key != nil {
		e.assignTo(n.Key, nil, n.Line, false)
		if key, ok := n.Key.(*ast.Variable); ok {
			//keys are often only needed to access the values
			e.stack.MarkUsed(key.Name)
		}
	}
	e.assignTo(n.Value, nil, n.Line, n.ByRef)
	e.evalStmt(n.Body)
	e.stack.Pop()

	base.Adopt(scope.Merge(base, body, base.Clone()))
}

func (e *Evaluator) evalSwitch(n *ast.Switch) {
	base := e.stack.Top()
	e.evalExpr(n.Subject)

	var ends, terminated []*scope.Scope
	var fallthroughState *scope.Scope
	hasDefault := false

	for _, c := range n.Cases {
		e.stack.PushNode(c)

		if c.Cond == nil {
			hasDefault = true
		} else {
			e.evalExpr(c.Cond)
		}

		entry := base.Clone()
		if fallthroughState != nil {
			entry = scope.Merge(base, fallthroughState, entry)
		}
		fallthroughState = nil

		e.stack.Push(entry)
		e.evalStatements(c.Body)
		e.stack.Pop()

		switch exitOf(c.Body) {
		case exitBreak:
			ends = append(ends, entry)
		case exitTerminate:
			terminated = append(terminated, entry)
		default:
			fallthroughState = entry
		}

		e.runChecks(c)
		e.stack.PopNode()
	}

	if fallthroughState != nil {
		ends = append(ends, fallthroughState)
	}
	if !hasDefault {
		ends = append(ends, base.Clone())
	}
	e.join(base, ends, terminated)
}

type exitKind int

const (
	exitNone exitKind = iota
	exitBreak
	exitTerminate
)

// exitOf returns how the control leaves a switch case body.
func exitOf(statements []ast.Stmt) exitKind {
	if len(statements) == 0 {
		return exitNone
	}
	switch last := statements[len(statements)-1].(type) {
	case *ast.Break:
		return exitBreak
	case *ast.Block:
		return exitOf(last.Statements)
	default:
		if ast.IsTerminatingStatement(last) {
			return exitTerminate
		}
	}
	return exitNone
}

func (e *Evaluator) evalTry(n *ast.Try) {
	base := e.stack.Top()

	var ends, terminated []*scope.Scope
	tryEnd := base.Clone()
	e.evalBranch(tryEnd, n.Body, &ends, &terminated)

	for _, catch := range n.Catches {
		e.stack.PushNode(catch)

		//the exception can be thrown before or after any statement of the try body
		entry := scope.Merge(base, tryEnd, base.Clone())
		e.stack.Push(entry)
		e.bindCatchVariable(catch)
		e.stack.Pop()

		e.evalBranch(entry, catch.Body, &ends, &terminated)

		e.runChecks(catch)
		e.stack.PopNode()
	}

	e.join(base, ends, terminated)

	if n.Finally != nil {
		e.evalStmt(n.Finally)
	}
}

func (e *Evaluator) bindCatchVariable(catch *ast.Catch) {
	caught := make([]types.Type, 0, len(catch.Types))
	for _, name := range catch.Types {
		className, _ := e.ResolveClassName(name)
		caught = append(caught, types.Intern(className))
	}
	caughtType := types.GetUniqueTypes(caught...)

	if catch.Var == nil {
		return
	}
	name := catch.Var.Name

	if existing, ok := e.stack.Var(name); ok && !e.isThrowable(existing.Type) {
		e.Emit(EVALUATOR_CHECK_NAME, catch.Var, report.CatchShadowing,
			"catch variable $%s overwrites a variable of type %s", name, types.Stringify(existing.EffectiveType()))
	}

	e.assignTo(catch.Var, caughtType, catch.Line, false)
	if v, ok := e.stack.Var(name); ok {
		v.Origin = scope.OriginCatch
	}
}

// isThrowable returns false only if t has an alternative that cannot be a Throwable class,
// unknown and mixed types may hold an exception.
func (e *Evaluator) isThrowable(t types.Type) bool {
	if t == nil {
		return true
	}
	return types.IfEvery(t, func(alternative types.Type) bool {
		if types.IsMixed(alternative) {
			return true
		}
		named, ok := alternative.(*types.Named)
		if !ok || types.IsBuiltinName(named.Name) {
			return false
		}
		if strings.EqualFold(named.Name, "Throwable") {
			return true
		}
		if e.symbols == nil || !e.symbols.IsDefinedClass(named.Name) {
			return true
		}
		return e.symbols.IsParentClassOrInterface("Throwable", named.Name)
	})
}

func (e *Evaluator) evalGlobal(n *ast.Global) {
	global := e.stack.Global()
	current := e.stack.Top()

	for _, variable := range n.Vars {
		e.stack.PushNode(variable)
		e.targets.Set(uint(variable.ID))

		cell, ok := global.Get(variable.Name)
		if !ok {
			cell = scope.NewVar(nil, scope.OriginGlobal)
			global.Set(variable.Name, cell)
		}
		if current != global {
			current.Alias(variable.Name, cell)
		}
		cell.Write(nil, n.Line)

		e.types.Stamp(variable, nil)
		e.runChecks(variable)
		e.stack.PopNode()
	}
}

func (e *Evaluator) evalStaticVars(n *ast.StaticVars) {
	current := e.stack.Top()

	for _, item := range n.Vars {
		e.stack.PushNode(item)
		if item.Default != nil {
			e.evalExpr(item.Default)
		}

		variable := item.Var
		e.stack.PushNode(variable)
		e.targets.Set(uint(variable.ID))

		cell := scope.NewVar(nil, scope.OriginStatic)
		e.statics.Alias(fmt.Sprintf("%d:%s", item.ID, variable.Name), cell)
		current.Alias(variable.Name, cell)
		cell.Write(nil, item.Line)

		e.types.Stamp(variable, nil)
		e.runChecks(variable)
		e.stack.PopNode()

		e.runChecks(item)
		e.stack.PopNode()
	}
}

func (e *Evaluator) evalUnset(n *ast.Unset) {
	for _, expr := range n.Vars {
		variable, ok := expr.(*ast.Variable)
		if !ok {
			e.evalSilenced(expr)
			continue
		}

		e.stack.PushNode(variable)
		e.targets.Set(uint(variable.ID))
		t, _ := e.stack.TypeOf(variable.Name)
		e.types.Stamp(variable, t)
		e.runChecks(variable)
		e.stack.PopNode()

		e.stack.Unset(variable.Name)
	}
}

func (e *Evaluator) evalDeclare(n *ast.Declare) {
	strict, hasStrictTypes := false, false

	for _, directive := range n.Directives {
		e.stack.PushNode(directive)
		e.evalExpr(directive.Value)
		if strings.EqualFold(directive.Name, "strict_types") {
			if value, ok := constantInt(directive.Value); ok {
				hasStrictTypes = true
				strict = value == 1
			}
		}
		e.runChecks(directive)
		e.stack.PopNode()
	}

	if n.Body == nil {
		if hasStrictTypes {
			e.stack.Top().StrictTypes = strict
		}
		return
	}

	base := e.stack.Top()
	saved := base.StrictTypes

	body := e.stack.PushClone()
	if hasStrictTypes {
		body.StrictTypes = strict
	}
	e.evalStmt(n.Body)
	e.stack.Pop()

	base.Adopt(body)
	base.StrictTypes = saved
}
