package checks

import (
	"fmt"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/evaluator"
	"github.com/inoxlang/phpcheck/internal/report"
)

// UndefinedVariableCheck reports the reads of variables that are not defined on any path leading to them.
// Only function-like bodies are checked: the variables of the file scope may come from included files.
type UndefinedVariableCheck struct {
	dedupe Deduper
}

func (c *UndefinedVariableCheck) Name() string {
	return UNDEFINED_VARIABLE_CHECK
}

func (c *UndefinedVariableCheck) Kinds() []ast.Kind {
	return []ast.Kind{ast.VariableKind}
}

func (c *UndefinedVariableCheck) Run(e *evaluator.Evaluator, node ast.Node) {
	variable := node.(*ast.Variable)

	if e.IsWriteContext(variable) || evaluator.IsSuperGlobal(variable.Name) || e.HasDynamicVariables() {
		return
	}

	stack := e.Stack()
	fn := stack.FunctionLike()
	if fn == nil || !IsFunctionLike(fn) || stack.Exists(variable.Name) {
		return
	}
	if variable.Name == "this" {
		if _, ok := e.Class(); ok {
			return
		}
	}

	key := fmt.Sprintf("%s:%d:%s", e.File().Path, fn.Base().ID, variable.Name)
	if !c.dedupe.FirstTime(key) {
		return
	}
	e.Emit(c.Name(), variable, report.UnknownVariable, fmtUndefinedVariable(variable.Name))
}
