package ast

// NodeID identifies a node inside the file it was parsed from, IDs start at 1 and are dense.
type NodeID int32

type NodeSpan struct {
	Start int32 `json:"start"`
	End   int32 `json:"end"` //exclusive
}

type NodeBase struct {
	ID   NodeID   `json:"id"`
	Span NodeSpan `json:"span"`
	Line int      `json:"line"`
}

func (base *NodeBase) Base() *NodeBase {
	return base
}

func (*NodeBase) node() {}

// Node is implemented by all the node types of this package, the set of node types is closed.
type Node interface {
	Base() *NodeBase
	Kind() Kind
	node()
}

type Expr interface {
	Node
	expr()
}

type Stmt interface {
	Node
	stmt()
}

type exprBase struct{ NodeBase }

func (exprBase) expr() {}

type stmtBase struct{ NodeBase }

func (stmtBase) stmt() {}

// ==================== names & type hints ====================

// Name is a (possibly qualified) class, function or constant name.
type Name struct {
	NodeBase
	Value          string
	FullyQualified bool
}

func (*Name) expr() {}

// Identifier is a bare identifier: method, property or constant name.
type Identifier struct {
	NodeBase
	Value string
}

func (*Identifier) expr() {}

// TypeHint is the syntax of a declared type: NamedTypeHint, NullableTypeHint, UnionTypeHint or IntersectionTypeHint.
type TypeHint interface {
	Node
	typeHint()
}

type NamedTypeHint struct {
	NodeBase
	Name           string
	FullyQualified bool
}

type NullableTypeHint struct {
	NodeBase
	Inner TypeHint
}

type UnionTypeHint struct {
	NodeBase
	Types []TypeHint
}

type IntersectionTypeHint struct {
	NodeBase
	Types []TypeHint
}

func (*NamedTypeHint) typeHint()        {}
func (*NullableTypeHint) typeHint()     {}
func (*UnionTypeHint) typeHint()        {}
func (*IntersectionTypeHint) typeHint() {}

// ==================== file & declarations ====================

type File struct {
	NodeBase
	Path       string
	Statements []Stmt
	NodeCount  int
}

type Namespace struct {
	stmtBase
	Name       *Name //nil for the global namespace
	Statements []Stmt
	Braced     bool
}

type UseItem struct {
	NodeBase
	Name  *Name
	Alias string
}

type UseStmt struct {
	stmtBase
	Items []*UseItem
}

type ClassKind int

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindTrait
)

func (k ClassKind) String() string {
	switch k {
	case ClassKindInterface:
		return "interface"
	case ClassKindTrait:
		return "trait"
	default:
		return "class"
	}
}

type Modifiers struct {
	Visibility string //"public", "protected", "private" or empty
	Static     bool
	Abstract   bool
	Final      bool
	Readonly   bool
}

type ClassDecl struct {
	stmtBase
	ClassKind  ClassKind
	Name       *Identifier
	Extends    []*Name //several only for interfaces
	Implements []*Name
	Modifiers  Modifiers
	TraitUses  []*Name
	Constants  []*ClassConst
	Properties []*Property
	Methods    []*Method
}

type ClassConst struct {
	NodeBase
	Name  *Identifier
	Value Expr
}

type Property struct {
	NodeBase
	Name      string
	Type      TypeHint //can be nil
	Default   Expr     //can be nil
	Modifiers Modifiers
}

type Param struct {
	NodeBase
	Name     string
	Type     TypeHint //can be nil
	Default  Expr     //can be nil
	ByRef    bool
	Variadic bool
	Promoted *Modifiers //constructor promotion, can be nil
}

type Method struct {
	NodeBase
	Name       *Identifier
	Modifiers  Modifiers
	Params     []*Param
	ReturnType TypeHint //can be nil
	ByRefRet   bool
	Body       *Block //nil for abstract & interface methods
}

type FunctionDecl struct {
	stmtBase
	Name       *Identifier
	Params     []*Param
	ReturnType TypeHint
	ByRefRet   bool
	Body       *Block
}

// ==================== statements ====================

type Block struct {
	stmtBase
	Statements []Stmt
}

type ExprStmt struct {
	stmtBase
	Expr Expr
}

type Echo struct {
	stmtBase
	Exprs []Expr
}

type If struct {
	stmtBase
	Cond    Expr
	Then    *Block
	ElseIfs []*ElseIf
	Else    *Else //can be nil
}

type ElseIf struct {
	NodeBase
	Cond Expr
	Body *Block
}

type Else struct {
	NodeBase
	Body *Block
}

type While struct {
	stmtBase
	Cond Expr
	Body *Block
}

type DoWhile struct {
	stmtBase
	Body *Block
	Cond Expr
}

type For struct {
	stmtBase
	Init []Expr
	Cond []Expr
	Loop []Expr
	Body *Block
}

type Foreach struct {
	stmtBase
	Expr  Expr
	Key   Expr //can be nil
	Value Expr
	ByRef bool
	Body  *Block
}

type Switch struct {
	stmtBase
	Subject Expr
	Cases   []*Case
}

type Case struct {
	NodeBase
	Cond Expr //nil for default
	Body []Stmt
}

type Break struct {
	stmtBase
	Levels int
}

type Continue struct {
	stmtBase
	Levels int
}

type Return struct {
	stmtBase
	Expr Expr //can be nil
}

type Throw struct {
	stmtBase
	Expr Expr
}

type Try struct {
	stmtBase
	Body    *Block
	Catches []*Catch
	Finally *Block //can be nil
}

type Catch struct {
	NodeBase
	Types []*Name
	Var   *Variable //can be nil
	Body  *Block
}

type Global struct {
	stmtBase
	Vars []*Variable
}

type StaticVarItem struct {
	NodeBase
	Var     *Variable
	Default Expr //can be nil
}

type StaticVars struct {
	stmtBase
	Vars []*StaticVarItem
}

type Unset struct {
	stmtBase
	Vars []Expr
}

type DeclareDirective struct {
	NodeBase
	Name  string
	Value Expr
}

type Declare struct {
	stmtBase
	Directives []*DeclareDirective
	Body       *Block //nil for the `declare(...);` form
}

type Nop struct {
	stmtBase
}

// ==================== expressions ====================

type Variable struct {
	exprBase
	Name string //without the '$'
}

type IntLiteral struct {
	exprBase
	Raw string
}

type FloatLiteral struct {
	exprBase
	Raw string
}

type StringLiteral struct {
	exprBase
	Value        string
	Interpolated bool
}

type MagicConst struct {
	exprBase
	Name string
}

type ConstFetch struct {
	exprBase
	Name *Name
}

type ClassConstFetch struct {
	exprBase
	Class Expr //*Name or expression
	Name  *Identifier
}

type ArrayLiteral struct {
	exprBase
	Items []*ArrayItem
}

// ArrayItem is a structural wrapper, it has no type of its own.
type ArrayItem struct {
	NodeBase
	Key    Expr //can be nil
	Value  Expr
	ByRef  bool
	Unpack bool
}

type ArrayDimFetch struct {
	exprBase
	Var Expr
	Dim Expr //nil for $a[]
}

type Assign struct {
	exprBase
	Var   Expr
	Expr  Expr
	ByRef bool
}

type AssignOp struct {
	exprBase
	Op   string //operator without '=': "+", ".", "??", ...
	Var  Expr
	Expr Expr
}

type BinaryOp struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

type UnaryOp struct {
	exprBase
	Op   string //"!", "-", "+", "~", "@"
	Expr Expr
}

type IncDec struct {
	exprBase
	Var    Expr
	Inc    bool
	Prefix bool
}

type Instanceof struct {
	exprBase
	Expr  Expr
	Class Expr //*Name or expression
}

type Ternary struct {
	exprBase
	Cond Expr
	Then Expr //nil for the short form `a ?: b`
	Else Expr
}

type Arg struct {
	NodeBase
	Value  Expr
	Unpack bool
	Name   string //named argument, can be empty
}

type New struct {
	exprBase
	Class          Expr //*Name or expression
	Args           []*Arg
	AnonymousClass *ClassDecl //nil unless the class is anonymous
}

type Clone struct {
	exprBase
	Expr Expr
}

type FuncCall struct {
	exprBase
	Name Expr //*Name or expression
	Args []*Arg
}

type MethodCall struct {
	exprBase
	Var      Expr
	Name     Expr //*Identifier or expression
	Args     []*Arg
	NullSafe bool
}

type StaticCall struct {
	exprBase
	Class Expr //*Name or expression
	Name  Expr //*Identifier or expression
	Args  []*Arg
}

type PropertyFetch struct {
	exprBase
	Var      Expr
	Name     Expr //*Identifier or expression
	NullSafe bool
}

type StaticPropertyFetch struct {
	exprBase
	Class Expr
	Name  string
}

// ClosureUse is a structural wrapper, it has no type of its own.
type ClosureUse struct {
	NodeBase
	Var   *Variable
	ByRef bool
}

type Closure struct {
	exprBase
	Static     bool
	ByRefRet   bool
	Params     []*Param
	Uses       []*ClosureUse
	ReturnType TypeHint
	Body       *Block
}

type ArrowFunction struct {
	exprBase
	Static     bool
	Params     []*Param
	ReturnType TypeHint
	Expr       Expr
}

type Isset struct {
	exprBase
	Vars []Expr
}

type Empty struct {
	exprBase
	Expr Expr
}

type Cast struct {
	exprBase
	Type string //"int", "float", "string", "bool", "array", "object"
	Expr Expr
}

type Print struct {
	exprBase
	Expr Expr
}

type Exit struct {
	exprBase
	Expr Expr //can be nil
}

type ListExpr struct {
	exprBase
	Items []*ArrayItem
}

// IsFunctionLike returns true for the nodes that create their own variable scope.
func IsFunctionLike(node Node) bool {
	switch node.(type) {
	case *FunctionDecl, *Method, *Closure, *ArrowFunction:
		return true
	}
	return false
}

// FunctionParams returns the parameters of a function-like node.
func FunctionParams(node Node) []*Param {
	switch n := node.(type) {
	case *FunctionDecl:
		return n.Params
	case *Method:
		return n.Params
	case *Closure:
		return n.Params
	case *ArrowFunction:
		return n.Params
	}
	return nil
}

// FunctionReturnType returns the declared return type of a function-like node, it can be nil.
func FunctionReturnType(node Node) TypeHint {
	switch n := node.(type) {
	case *FunctionDecl:
		return n.ReturnType
	case *Method:
		return n.ReturnType
	case *Closure:
		return n.ReturnType
	case *ArrowFunction:
		return n.ReturnType
	}
	return nil
}
