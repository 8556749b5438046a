package ast

// Kind identifies the concrete type of a node.
type Kind uint8

const (
	UnknownKind Kind = iota
	NameKind
	IdentifierKind
	NamedTypeHintKind
	NullableTypeHintKind
	UnionTypeHintKind
	IntersectionTypeHintKind
	FileKind
	NamespaceKind
	UseItemKind
	UseStmtKind
	ClassDeclKind
	ClassConstKind
	PropertyKind
	ParamKind
	MethodKind
	FunctionDeclKind
	BlockKind
	ExprStmtKind
	EchoKind
	IfKind
	ElseIfKind
	ElseKind
	WhileKind
	DoWhileKind
	ForKind
	ForeachKind
	SwitchKind
	CaseKind
	BreakKind
	ContinueKind
	ReturnKind
	ThrowKind
	TryKind
	CatchKind
	GlobalKind
	StaticVarItemKind
	StaticVarsKind
	UnsetKind
	DeclareDirectiveKind
	DeclareKind
	NopKind
	VariableKind
	IntLiteralKind
	FloatLiteralKind
	StringLiteralKind
	MagicConstKind
	ConstFetchKind
	ClassConstFetchKind
	ArrayLiteralKind
	ArrayItemKind
	ArrayDimFetchKind
	AssignKind
	AssignOpKind
	BinaryOpKind
	UnaryOpKind
	IncDecKind
	InstanceofKind
	TernaryKind
	ArgKind
	NewKind
	CloneKind
	FuncCallKind
	MethodCallKind
	StaticCallKind
	PropertyFetchKind
	StaticPropertyFetchKind
	ClosureUseKind
	ClosureKind
	ArrowFunctionKind
	IssetKind
	EmptyKind
	CastKind
	PrintKind
	ExitKind
	ListExprKind

	kindCount
)

var kindNames = [kindCount]string{
	UnknownKind:              "unknown",
	NameKind:                 "Name",
	IdentifierKind:           "Identifier",
	NamedTypeHintKind:        "NamedTypeHint",
	NullableTypeHintKind:     "NullableTypeHint",
	UnionTypeHintKind:        "UnionTypeHint",
	IntersectionTypeHintKind: "IntersectionTypeHint",
	FileKind:                 "File",
	NamespaceKind:            "Namespace",
	UseItemKind:              "UseItem",
	UseStmtKind:              "UseStmt",
	ClassDeclKind:            "ClassDecl",
	ClassConstKind:           "ClassConst",
	PropertyKind:             "Property",
	ParamKind:                "Param",
	MethodKind:               "Method",
	FunctionDeclKind:         "FunctionDecl",
	BlockKind:                "Block",
	ExprStmtKind:             "ExprStmt",
	EchoKind:                 "Echo",
	IfKind:                   "If",
	ElseIfKind:               "ElseIf",
	ElseKind:                 "Else",
	WhileKind:                "While",
	DoWhileKind:              "DoWhile",
	ForKind:                  "For",
	ForeachKind:              "Foreach",
	SwitchKind:               "Switch",
	CaseKind:                 "Case",
	BreakKind:                "Break",
	ContinueKind:             "Continue",
	ReturnKind:               "Return",
	ThrowKind:                "Throw",
	TryKind:                  "Try",
	CatchKind:                "Catch",
	GlobalKind:               "Global",
	StaticVarItemKind:        "StaticVarItem",
	StaticVarsKind:           "StaticVars",
	UnsetKind:                "Unset",
	DeclareDirectiveKind:     "DeclareDirective",
	DeclareKind:              "Declare",
	NopKind:                  "Nop",
	VariableKind:             "Variable",
	IntLiteralKind:           "IntLiteral",
	FloatLiteralKind:         "FloatLiteral",
	StringLiteralKind:        "StringLiteral",
	MagicConstKind:           "MagicConst",
	ConstFetchKind:           "ConstFetch",
	ClassConstFetchKind:      "ClassConstFetch",
	ArrayLiteralKind:         "ArrayLiteral",
	ArrayItemKind:            "ArrayItem",
	ArrayDimFetchKind:        "ArrayDimFetch",
	AssignKind:               "Assign",
	AssignOpKind:             "AssignOp",
	BinaryOpKind:             "BinaryOp",
	UnaryOpKind:              "UnaryOp",
	IncDecKind:               "IncDec",
	InstanceofKind:           "Instanceof",
	TernaryKind:              "Ternary",
	ArgKind:                  "Arg",
	NewKind:                  "New",
	CloneKind:                "Clone",
	FuncCallKind:             "FuncCall",
	MethodCallKind:           "MethodCall",
	StaticCallKind:           "StaticCall",
	PropertyFetchKind:        "PropertyFetch",
	StaticPropertyFetchKind:  "StaticPropertyFetch",
	ClosureUseKind:           "ClosureUse",
	ClosureKind:              "Closure",
	ArrowFunctionKind:        "ArrowFunction",
	IssetKind:                "Isset",
	EmptyKind:                "Empty",
	CastKind:                 "Cast",
	PrintKind:                "Print",
	ExitKind:                 "Exit",
	ListExprKind:             "ListExpr",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// KindCount returns the number of node kinds, it can be used to size tables indexed by Kind.
func KindCount() int {
	return int(kindCount)
}

func (*Name) Kind() Kind                 { return NameKind }
func (*Identifier) Kind() Kind           { return IdentifierKind }
func (*NamedTypeHint) Kind() Kind        { return NamedTypeHintKind }
func (*NullableTypeHint) Kind() Kind     { return NullableTypeHintKind }
func (*UnionTypeHint) Kind() Kind        { return UnionTypeHintKind }
func (*IntersectionTypeHint) Kind() Kind { return IntersectionTypeHintKind }
func (*File) Kind() Kind                 { return FileKind }
func (*Namespace) Kind() Kind            { return NamespaceKind }
func (*UseItem) Kind() Kind              { return UseItemKind }
func (*UseStmt) Kind() Kind              { return UseStmtKind }
func (*ClassDecl) Kind() Kind            { return ClassDeclKind }
func (*ClassConst) Kind() Kind           { return ClassConstKind }
func (*Property) Kind() Kind             { return PropertyKind }
func (*Param) Kind() Kind                { return ParamKind }
func (*Method) Kind() Kind               { return MethodKind }
func (*FunctionDecl) Kind() Kind         { return FunctionDeclKind }
func (*Block) Kind() Kind                { return BlockKind }
func (*ExprStmt) Kind() Kind             { return ExprStmtKind }
func (*Echo) Kind() Kind                 { return EchoKind }
func (*If) Kind() Kind                   { return IfKind }
func (*ElseIf) Kind() Kind               { return ElseIfKind }
func (*Else) Kind() Kind                 { return ElseKind }
func (*While) Kind() Kind                { return WhileKind }
func (*DoWhile) Kind() Kind              { return DoWhileKind }
func (*For) Kind() Kind                  { return ForKind }
func (*Foreach) Kind() Kind              { return ForeachKind }
func (*Switch) Kind() Kind               { return SwitchKind }
func (*Case) Kind() Kind                 { return CaseKind }
func (*Break) Kind() Kind                { return BreakKind }
func (*Continue) Kind() Kind             { return ContinueKind }
func (*Return) Kind() Kind               { return ReturnKind }
func (*Throw) Kind() Kind                { return ThrowKind }
func (*Try) Kind() Kind                  { return TryKind }
func (*Catch) Kind() Kind                { return CatchKind }
func (*Global) Kind() Kind               { return GlobalKind }
func (*StaticVarItem) Kind() Kind        { return StaticVarItemKind }
func (*StaticVars) Kind() Kind           { return StaticVarsKind }
func (*Unset) Kind() Kind                { return UnsetKind }
func (*DeclareDirective) Kind() Kind     { return DeclareDirectiveKind }
func (*Declare) Kind() Kind              { return DeclareKind }
func (*Nop) Kind() Kind                  { return NopKind }
func (*Variable) Kind() Kind             { return VariableKind }
func (*IntLiteral) Kind() Kind           { return IntLiteralKind }
func (*FloatLiteral) Kind() Kind         { return FloatLiteralKind }
func (*StringLiteral) Kind() Kind        { return StringLiteralKind }
func (*MagicConst) Kind() Kind           { return MagicConstKind }
func (*ConstFetch) Kind() Kind           { return ConstFetchKind }
func (*ClassConstFetch) Kind() Kind      { return ClassConstFetchKind }
func (*ArrayLiteral) Kind() Kind         { return ArrayLiteralKind }
func (*ArrayItem) Kind() Kind            { return ArrayItemKind }
func (*ArrayDimFetch) Kind() Kind        { return ArrayDimFetchKind }
func (*Assign) Kind() Kind               { return AssignKind }
func (*AssignOp) Kind() Kind             { return AssignOpKind }
func (*BinaryOp) Kind() Kind             { return BinaryOpKind }
func (*UnaryOp) Kind() Kind              { return UnaryOpKind }
func (*IncDec) Kind() Kind               { return IncDecKind }
func (*Instanceof) Kind() Kind           { return InstanceofKind }
func (*Ternary) Kind() Kind              { return TernaryKind }
func (*Arg) Kind() Kind                  { return ArgKind }
func (*New) Kind() Kind                  { return NewKind }
func (*Clone) Kind() Kind                { return CloneKind }
func (*FuncCall) Kind() Kind             { return FuncCallKind }
func (*MethodCall) Kind() Kind           { return MethodCallKind }
func (*StaticCall) Kind() Kind           { return StaticCallKind }
func (*PropertyFetch) Kind() Kind        { return PropertyFetchKind }
func (*StaticPropertyFetch) Kind() Kind  { return StaticPropertyFetchKind }
func (*ClosureUse) Kind() Kind           { return ClosureUseKind }
func (*Closure) Kind() Kind              { return ClosureKind }
func (*ArrowFunction) Kind() Kind        { return ArrowFunctionKind }
func (*Isset) Kind() Kind                { return IssetKind }
func (*Empty) Kind() Kind                { return EmptyKind }
func (*Cast) Kind() Kind                 { return CastKind }
func (*Print) Kind() Kind                { return PrintKind }
func (*Exit) Kind() Kind                 { return ExitKind }
func (*ListExpr) Kind() Kind             { return ListExprKind }
