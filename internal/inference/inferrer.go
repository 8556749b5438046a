package inference

import (
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/scope"
	"github.com/inoxlang/phpcheck/internal/symbols"
	"github.com/inoxlang/phpcheck/internal/types"
)

// An Inferrer derives a best-effort type for expressions. Inference never fails: what cannot be
// resolved is mixed (or unknown for undefined variables).
type Inferrer struct {
	Symbols symbols.Table
	Names   *symbols.NameContext

	// Lookup, if not nil, is consulted for the sub-expressions that were already evaluated.
	Lookup Lookup
}

func NewInferrer(table symbols.Table, names *symbols.NameContext, lookup Lookup) *Inferrer {
	return &Inferrer{
		Symbols: table,
		Names:   names,
		Lookup:  lookup,
	}
}

// Infer returns the type of expr evaluated in s, class is the enclosing class (zero value outside classes).
func (i *Inferrer) Infer(class scope.Class, expr ast.Expr, s *scope.Scope) types.Type {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return types.Int
	case *ast.FloatLiteral:
		return types.Float
	case *ast.StringLiteral:
		return types.String
	case *ast.MagicConst:
		if strings.EqualFold(e.Name, "__LINE__") {
			return types.Int
		}
		return types.String
	case *ast.ConstFetch:
		switch strings.ToLower(e.Name.Value) {
		case "true", "false":
			return types.Bool
		case "null":
			return types.Null
		}
		return types.Mixed
	case *ast.ClassConstFetch:
		if strings.EqualFold(e.Name.Value, "class") {
			return types.String
		}
		return types.Mixed
	case *ast.ArrayLiteral, *ast.ListExpr:
		return types.Array
	case *ast.Variable:
		if v, ok := s.Get(e.Name); ok {
			return v.EffectiveType()
		}
		if e.Name == "this" && class.Name != "" {
			return types.Intern(class.Name)
		}
		return nil
	case *ast.New:
		return i.inferNew(class, e)
	case *ast.Clone:
		return i.sub(class, e.Expr, s)
	case *ast.Closure, *ast.ArrowFunction:
		return types.Callable
	case *ast.FuncCall:
		return i.inferFuncCall(e)
	case *ast.MethodCall:
		return i.inferMethodCall(class, e, s)
	case *ast.StaticCall:
		return i.inferStaticCall(class, e)
	case *ast.PropertyFetch:
		return i.inferPropertyFetch(class, e, s)
	case *ast.StaticPropertyFetch:
		className, ok := i.className(class, e.Class)
		if !ok {
			return types.Mixed
		}
		return i.propertyType(className, e.Name)
	case *ast.ArrayDimFetch:
		container := i.sub(class, e.Var, s)
		switch {
		case types.IsArrayOf(container):
			return types.ElementType(container)
		case types.IsNamed(container, "string"):
			return types.String
		}
		return types.Mixed
	case *ast.Assign:
		return i.sub(class, e.Expr, s)
	case *ast.AssignOp:
		return i.inferBinary(class, e.Op, e.Var, e.Expr, s)
	case *ast.BinaryOp:
		return i.inferBinary(class, e.Op, e.Left, e.Right, s)
	case *ast.UnaryOp:
		switch e.Op {
		case "!":
			return types.Bool
		case "~":
			return types.Int
		case "@":
			return i.sub(class, e.Expr, s)
		}
		operand := i.sub(class, e.Expr, s)
		if types.IsNamed(operand, "int") || types.IsNamed(operand, "float") {
			return operand
		}
		return types.Mixed
	case *ast.IncDec:
		return i.sub(class, e.Var, s)
	case *ast.Instanceof, *ast.Isset, *ast.Empty:
		return types.Bool
	case *ast.Print:
		return types.Int
	case *ast.Cast:
		return castType(e.Type)
	case *ast.Ternary:
		otherwise := i.sub(class, e.Else, s)
		if e.Then == nil {
			return types.GetUniqueTypes(types.RemoveNullOption(i.sub(class, e.Cond, s)), otherwise)
		}
		return types.GetUniqueTypes(i.sub(class, e.Then, s), otherwise)
	case *ast.Exit:
		return types.Intern("never")
	}
	return types.Mixed
}

// sub infers the type of a sub-expression, the type stamped during the evaluation is preferred.
func (i *Inferrer) sub(class scope.Class, expr ast.Expr, s *scope.Scope) types.Type {
	if i.Lookup != nil {
		if t, ok := i.Lookup.TypeOf(expr); ok {
			return t
		}
	}
	return i.Infer(class, expr, s)
}

// ResolveClassName resolves a class reference: self, static and parent are resolved against class.
// The boolean result is false if the name cannot be resolved.
func (i *Inferrer) ResolveClassName(class scope.Class, name string) (string, bool) {
	switch strings.ToLower(name) {
	case "self", "static":
		return class.Name, class.Name != ""
	case "parent":
		return class.Parent, class.Parent != ""
	}
	if i.Names == nil {
		return strings.TrimPrefix(name, "\\"), true
	}
	return i.Names.ResolveClass(name), true
}

func (i *Inferrer) className(class scope.Class, expr ast.Expr) (string, bool) {
	name, ok := expr.(*ast.Name)
	if !ok {
		return "", false
	}
	if name.FullyQualified {
		return name.Value, true
	}
	return i.ResolveClassName(class, name.Value)
}

func (i *Inferrer) inferNew(class scope.Class, e *ast.New) types.Type {
	if e.AnonymousClass != nil {
		return types.Object
	}
	name, ok := i.className(class, e.Class)
	if !ok {
		return types.Mixed
	}
	return types.Intern(name)
}

func (i *Inferrer) inferFuncCall(e *ast.FuncCall) types.Type {
	name, ok := e.Name.(*ast.Name)
	if !ok || i.Symbols == nil {
		return types.Mixed
	}

	var fn *symbols.FunctionInfo
	if i.Names != nil {
		fn, ok = i.Names.LookupFunction(i.Symbols, name)
	} else {
		fn, ok = i.Symbols.GetAbstractedFunction(name.Value)
	}
	if !ok {
		return types.Mixed
	}
	if ret := fn.Return(); ret != nil {
		return ret
	}
	return types.Mixed
}

func (i *Inferrer) inferMethodCall(class scope.Class, e *ast.MethodCall, s *scope.Scope) types.Type {
	methodName, ok := e.Name.(*ast.Identifier)
	if !ok {
		return types.Mixed
	}
	receiver := i.sub(class, e.Var, s)
	result := i.methodReturnType(receiver, methodName.Value)
	if e.NullSafe && result != nil && types.ContainsNull(receiver) {
		return types.NewNullable(result)
	}
	return result
}

func (i *Inferrer) inferStaticCall(class scope.Class, e *ast.StaticCall) types.Type {
	methodName, ok := e.Name.(*ast.Identifier)
	if !ok {
		return types.Mixed
	}
	className, ok := i.className(class, e.Class)
	if !ok {
		return types.Mixed
	}
	return i.methodReturnType(types.Intern(className), methodName.Value)
}

// methodReturnType returns the union of the return types of the method for each class alternative of receiver.
// The null alternative is ignored.
func (i *Inferrer) methodReturnType(receiver types.Type, methodName string) types.Type {
	if receiver == nil || i.Symbols == nil {
		return types.Mixed
	}

	var returnTypes []types.Type
	resolved := true

	types.ForEach(receiver, func(alternative types.Type) {
		if types.IsNull(alternative) {
			return
		}
		named, ok := alternative.(*types.Named)
		if !ok || types.IsBuiltinName(named.Name) {
			resolved = false
			return
		}
		method, ok := symbols.FindMethod(i.Symbols, named.Name, methodName)
		if !ok || method.Return() == nil {
			resolved = false
			return
		}
		returnTypes = append(returnTypes, method.Return())
	})

	if !resolved || len(returnTypes) == 0 {
		return types.Mixed
	}
	return types.GetUniqueTypes(returnTypes...)
}

func (i *Inferrer) inferPropertyFetch(class scope.Class, e *ast.PropertyFetch, s *scope.Scope) types.Type {
	propName, ok := e.Name.(*ast.Identifier)
	if !ok {
		return types.Mixed
	}
	receiver := i.sub(class, e.Var, s)
	named, ok := types.RemoveNullOption(receiver).(*types.Named)
	if !ok || types.IsBuiltinName(named.Name) {
		return types.Mixed
	}
	return i.propertyType(named.Name, propName.Value)
}

func (i *Inferrer) propertyType(className, propName string) types.Type {
	if i.Symbols == nil {
		return types.Mixed
	}
	prop, ok := symbols.FindProperty(i.Symbols, className, propName)
	if !ok || prop.TypeOf() == nil {
		return types.Mixed
	}
	return prop.TypeOf()
}

func (i *Inferrer) inferBinary(class scope.Class, op string, left, right ast.Expr, s *scope.Scope) types.Type {
	switch op {
	case ".":
		return types.String
	case "==", "!=", "===", "!==", "<", "<=", ">", ">=", "&&", "||", "and", "or", "xor":
		return types.Bool
	case "<=>", "%", "<<", ">>", "&", "|", "^":
		return types.Int
	case "??":
		return types.GetUniqueTypes(types.RemoveNullOption(i.sub(class, left, s)), i.sub(class, right, s))
	case "+", "-", "*", "**":
		l, r := i.sub(class, left, s), i.sub(class, right, s)
		switch {
		case types.IsNamed(l, "int") && types.IsNamed(r, "int"):
			return types.Int
		case isNumber(l) && isNumber(r):
			return types.Float
		}
	}
	return types.Mixed
}

func isNumber(t types.Type) bool {
	return types.IsNamed(t, "int") || types.IsNamed(t, "float")
}

func castType(name string) types.Type {
	switch strings.ToLower(name) {
	case "int", "integer":
		return types.Int
	case "float", "double", "real":
		return types.Float
	case "string", "binary":
		return types.String
	case "bool", "boolean":
		return types.Bool
	case "array":
		return types.Array
	case "object":
		return types.Intern("stdClass")
	case "unset":
		return types.Null
	}
	return types.Mixed
}
