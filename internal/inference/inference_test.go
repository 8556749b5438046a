package inference

import (
	"testing"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/parse"
	"github.com/inoxlang/phpcheck/internal/scope"
	"github.com/inoxlang/phpcheck/internal/symbols"
	"github.com/inoxlang/phpcheck/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const declarations = `<?php
namespace App;

class Node {
	public ?Node $next = null;
	public $untyped;
	public static int $count = 0;
	public function getNext(): ?Node { return $this->next; }
	public function name(): string { return ""; }
	public function children(): array { return []; }
	public static function create(): static { return new static(); }
	public function untyped() { }
}

class Leaf extends Node {
	public function name(): int { return 1; }
}

function make(): Node { return new Node(); }
`

func newInferrer(t *testing.T) *Inferrer {
	t.Helper()
	file, err := parse.Parse("decl.php", []byte(declarations))
	require.NoError(t, err)

	table := symbols.NewMemoryTable(symbols.Builtins())
	table.Add(symbols.IndexFile(file))

	names := symbols.NewNameContext()
	names.EnterNamespace("App")
	return NewInferrer(table, names, nil)
}

func expr(t *testing.T, code string) ast.Expr {
	t.Helper()
	file, err := parse.Parse("test.php", []byte("<?php "+code+";"))
	require.NoError(t, err)
	stmt, ok := file.Statements[0].(*ast.ExprStmt)
	require.True(t, ok)
	return stmt.Expr
}

func TestInfer(t *testing.T) {
	inferrer := newInferrer(t)

	s := scope.New(nil)
	s.Set("node", scope.NewVar(types.Intern("App\\Node"), scope.OriginLocal))
	s.Set("maybe", scope.NewVar(types.MustParse("?App\\Node"), scope.OriginLocal))
	s.Set("nodes", scope.NewVar(types.MustParse("App\\Node[]"), scope.OriginLocal))
	s.Set("either", scope.NewVar(types.MustParse("App\\Node|App\\Leaf"), scope.OriginLocal))
	s.Set("i", scope.NewVar(types.Int, scope.OriginLocal))
	s.Set("f", scope.NewVar(types.Float, scope.OriginLocal))
	s.Set("possiblyNull", &scope.Var{Type: types.Intern("App\\Node"), Nullability: scope.NullabilityPossible})

	class := scope.Class{Name: "App\\Leaf", Parent: "App\\Node"}

	cases := []struct {
		code     string
		expected string
	}{
		{"1", "int"},
		{"1.5", "float"},
		{"'a'", "string"},
		{"\"a $i\"", "string"},
		{"true", "bool"},
		{"null", "null"},
		{"SOME_CONST", "mixed"},
		{"__LINE__", "int"},
		{"__CLASS__", "string"},
		{"Node::class", "string"},
		{"[1, 2]", "array"},
		{"$node", "App\\Node"},
		{"$possiblyNull", "?App\\Node"},
		{"$undefined", "unknown"},
		{"$this", "App\\Leaf"},
		{"new Node()", "App\\Node"},
		{"new \\Other\\Thing", "Other\\Thing"},
		{"new self()", "App\\Leaf"},
		{"new parent()", "App\\Node"},
		{"new class {}", "object"},
		{"new $className()", "mixed"},
		{"clone $node", "App\\Node"},
		{"function() {}", "callable"},
		{"fn() => 1", "callable"},
		{"make()", "App\\Node"},
		{"strlen('a')", "int"},
		{"unknown_function()", "mixed"},
		{"$node->getNext()", "?App\\Node"},
		{"$node->getNext()->name()", "string"},
		{"$either->name()", "string|int"},
		{"$node->untyped()", "mixed"},
		{"$node->missing()", "mixed"},
		{"$undefined->name()", "mixed"},
		{"$maybe?->name()", "?string"},
		{"Node::create()", "App\\Node"},
		{"$node->next", "?App\\Node"},
		{"$maybe->next", "?App\\Node"},
		{"$node->untyped", "mixed"},
		{"Node::$count", "int"},
		{"$nodes[0]", "App\\Node"},
		{"'abc'[0]", "string"},
		{"$a = 1", "int"},
		{"$i + 1", "int"},
		{"$i * $f", "float"},
		{"$i / 2", "mixed"},
		{"$a . 1", "string"},
		{"$a === 1", "bool"},
		{"$a <=> 1", "int"},
		{"$maybe ?? $node", "App\\Node"},
		{"$i += 1", "int"},
		{"!$a", "bool"},
		{"-$i", "int"},
		{"$i++", "int"},
		{"$a instanceof Node", "bool"},
		{"isset($a)", "bool"},
		{"(string) $i", "string"},
		{"(object) []", "stdClass"},
		{"$a ? 1 : 2", "int"},
		{"$a ? 1 : 'a'", "int|string"},
		{"$maybe ?: 1", "App\\Node|int"},
	}

	for _, testCase := range cases {
		t.Run(testCase.code, func(t *testing.T) {
			typ := inferrer.Infer(class, expr(t, testCase.code), s)
			assert.Equal(t, testCase.expected, types.Stringify(typ))
		})
	}

	t.Run("this outside of classes", func(t *testing.T) {
		assert.Nil(t, inferrer.Infer(scope.Class{}, expr(t, "$this"), s))
		assert.Same(t, types.Mixed, inferrer.Infer(scope.Class{}, expr(t, "new static()"), s))
	})
}

type fakeLookup map[ast.Node]types.Type

func (l fakeLookup) TypeOf(node ast.Node) (types.Type, bool) {
	t, ok := l[node]
	return t, ok
}

func TestInferWithLookup(t *testing.T) {
	inferrer := newInferrer(t)
	call := expr(t, "$x->name()").(*ast.MethodCall)

	inferrer.Lookup = fakeLookup{call.Var: types.Intern("App\\Leaf")}
	assert.Equal(t, "int", types.Stringify(inferrer.Infer(scope.Class{}, call, scope.New(nil))))
}

func TestTable(t *testing.T) {
	file := parse.MustParse("<?php $a = 1 + 2;")
	assign := file.Statements[0].(*ast.ExprStmt).Expr.(*ast.Assign)
	table := NewTable(file.NodeCount)

	_, ok := table.TypeOf(assign)
	assert.False(t, ok)

	table.Stamp(assign.Expr, types.Int)
	table.Stamp(assign.Var, nil)

	typ, ok := table.TypeOf(assign.Expr)
	require.True(t, ok)
	assert.Same(t, types.Int, typ)

	typ, ok = table.TypeOf(assign.Var)
	assert.True(t, ok)
	assert.Nil(t, typ)
	assert.Equal(t, 2, table.Count())

	assert.PanicsWithError(t, "node type is already set: BinaryOp node at line 1", func() {
		table.Stamp(assign.Expr, types.Float)
	})

	t.Run("grow", func(t *testing.T) {
		table := NewTable(0)
		table.Stamp(assign, types.Int)
		assert.True(t, table.IsStamped(assign))
	})

	t.Run("reset", func(t *testing.T) {
		table.Reset()
		assert.Equal(t, 0, table.Count())
		assert.False(t, table.IsStamped(assign.Expr))
	})
}
