package parse

import (
	"testing"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExprStmt(t *testing.T, code string) ast.Expr {
	t.Helper()
	file, err := Parse("test.php", []byte("<?php "+code+";"))
	require.NoError(t, err)
	require.Len(t, file.Statements, 1)
	stmt, ok := file.Statements[0].(*ast.ExprStmt)
	require.True(t, ok, "%T", file.Statements[0])
	return stmt.Expr
}

func TestTokenize(t *testing.T) {
	t.Run("inline html before the open tag", func(t *testing.T) {
		tokens, err := tokenize([]byte("<html>\n<?php $a;"))
		require.NoError(t, err)
		require.Len(t, tokens, 3)
		assert.Equal(t, Token{Type: VARIABLE, Value: "a", Line: 2, Start: 13, End: 15}, tokens[0])
		assert.Equal(t, EOF, tokens[2].Type)
	})

	t.Run("short echo tag", func(t *testing.T) {
		tokens, err := tokenize([]byte("<?= $a ?>"))
		require.NoError(t, err)
		require.Len(t, tokens, 4)
		assert.True(t, tokens[0].is("echo"))
		assert.True(t, tokens[2].is(";"))
	})

	t.Run("numbers", func(t *testing.T) {
		tokens, err := tokenize([]byte("<?php 1 1.5 .5 1e3 0x1F 1_000 1..2"))
		require.NoError(t, err)

		var types []TokenType
		for _, tok := range tokens {
			types = append(types, tok.Type)
		}
		assert.Equal(t, []TokenType{INT, FLOAT, FLOAT, FLOAT, INT, INT, INT, PUNCT, FLOAT, EOF}, types)
		assert.Equal(t, "1000", tokens[5].Value)
	})

	t.Run("strings", func(t *testing.T) {
		tokens, err := tokenize([]byte(`<?php 'a\'b' "x\n$y" 'no $interp'`))
		require.NoError(t, err)
		require.Len(t, tokens, 4)
		assert.Equal(t, "a'b", tokens[0].Value)
		assert.Equal(t, "x\n$y", tokens[1].Value)
		assert.True(t, tokens[1].Interpolated)
		assert.False(t, tokens[2].Interpolated)
	})

	t.Run("heredoc", func(t *testing.T) {
		tokens, err := tokenize([]byte("<?php <<<EOT\nline $a\n  EOT;\n"))
		require.NoError(t, err)
		require.Len(t, tokens, 3)
		assert.Equal(t, STRING, tokens[0].Type)
		assert.Equal(t, "line $a", tokens[0].Value)
		assert.True(t, tokens[0].Interpolated)
	})

	t.Run("casts", func(t *testing.T) {
		tokens, err := tokenize([]byte("<?php (int)$a; ( string )$b; ($c)"))
		require.NoError(t, err)
		assert.Equal(t, Token{Type: CAST, Value: "int", Line: 1, Start: 6, End: 11}, tokens[0])
		assert.Equal(t, CAST, tokens[3].Type)
		assert.Equal(t, "string", tokens[3].Value)
		assert.True(t, tokens[6].is("("))
	})

	t.Run("comments and attributes", func(t *testing.T) {
		tokens, err := tokenize([]byte("<?php // a\n# b\n/* c\n*/ #[Attr('x')]\n$a"))
		require.NoError(t, err)
		require.Len(t, tokens, 2)
		assert.Equal(t, 5, tokens[0].Line)
	})

	t.Run("unterminated string", func(t *testing.T) {
		_, err := tokenize([]byte("<?php 'abc"))
		assert.ErrorContains(t, err, "unterminated string")
	})
}

func TestParseExpressions(t *testing.T) {

	t.Run("precedence", func(t *testing.T) {
		expr := parseExprStmt(t, "$a + $b * $c")
		binary := expr.(*ast.BinaryOp)
		assert.Equal(t, "+", binary.Op)
		assert.Equal(t, "*", binary.Right.(*ast.BinaryOp).Op)

		expr = parseExprStmt(t, "$a . $b + $c")
		binary = expr.(*ast.BinaryOp)
		assert.Equal(t, ".", binary.Op)
		assert.Equal(t, "+", binary.Right.(*ast.BinaryOp).Op)

		expr = parseExprStmt(t, "$a ?? $b ?? $c")
		binary = expr.(*ast.BinaryOp)
		assert.Equal(t, "??", binary.Op)
		assert.IsType(t, (*ast.Variable)(nil), binary.Left)
		assert.Equal(t, "??", binary.Right.(*ast.BinaryOp).Op)
	})

	t.Run("logical keywords have a lower precedence than assignment", func(t *testing.T) {
		expr := parseExprStmt(t, "$a = $b and $c")
		binary := expr.(*ast.BinaryOp)
		assert.Equal(t, "and", binary.Op)
		assert.IsType(t, (*ast.Assign)(nil), binary.Left)
	})

	t.Run("negation and instanceof", func(t *testing.T) {
		expr := parseExprStmt(t, "!$a instanceof Foo")
		unary := expr.(*ast.UnaryOp)
		instanceof := unary.Expr.(*ast.Instanceof)
		assert.Equal(t, "Foo", instanceof.Class.(*ast.Name).Value)
	})

	t.Run("assignment inside a negation", func(t *testing.T) {
		expr := parseExprStmt(t, "!$a = f()")
		unary := expr.(*ast.UnaryOp)
		assert.IsType(t, (*ast.Assign)(nil), unary.Expr)
	})

	t.Run("ternary", func(t *testing.T) {
		expr := parseExprStmt(t, "$a ? $b : $c")
		ternary := expr.(*ast.Ternary)
		assert.NotNil(t, ternary.Then)

		expr = parseExprStmt(t, "$a ?: $c")
		ternary = expr.(*ast.Ternary)
		assert.Nil(t, ternary.Then)
	})

	t.Run("member accesses and calls", func(t *testing.T) {
		expr := parseExprStmt(t, "$a?->b()->c[0]")
		fetch := expr.(*ast.ArrayDimFetch)
		prop := fetch.Var.(*ast.PropertyFetch)
		assert.Equal(t, "c", prop.Name.(*ast.Identifier).Value)
		call := prop.Var.(*ast.MethodCall)
		assert.True(t, call.NullSafe)

		expr = parseExprStmt(t, "Foo::bar(1, ...$args)")
		staticCall := expr.(*ast.StaticCall)
		assert.Equal(t, "Foo", staticCall.Class.(*ast.Name).Value)
		require.Len(t, staticCall.Args, 2)
		assert.True(t, staticCall.Args[1].Unpack)

		expr = parseExprStmt(t, "\\Foo\\Bar::class")
		constFetch := expr.(*ast.ClassConstFetch)
		name := constFetch.Class.(*ast.Name)
		assert.Equal(t, "Foo\\Bar", name.Value)
		assert.True(t, name.FullyQualified)

		expr = parseExprStmt(t, "static::$instance")
		assert.Equal(t, "instance", expr.(*ast.StaticPropertyFetch).Name)
	})

	t.Run("new", func(t *testing.T) {
		expr := parseExprStmt(t, "new Foo(1)")
		newExpr := expr.(*ast.New)
		assert.Equal(t, "Foo", newExpr.Class.(*ast.Name).Value)
		assert.Len(t, newExpr.Args, 1)

		expr = parseExprStmt(t, "new class(1) extends Foo { public function f() {} }")
		newExpr = expr.(*ast.New)
		assert.Equal(t, "class@anonymous", newExpr.Class.(*ast.Name).Value)
	})

	t.Run("destructuring assignment", func(t *testing.T) {
		expr := parseExprStmt(t, "[$a, , $b] = $arr")
		assign := expr.(*ast.Assign)
		list := assign.Var.(*ast.ListExpr)
		assert.Len(t, list.Items, 2)
	})

	t.Run("compound assignment", func(t *testing.T) {
		expr := parseExprStmt(t, "$a ??= 1")
		assert.Equal(t, "??", expr.(*ast.AssignOp).Op)
	})

	t.Run("closures", func(t *testing.T) {
		expr := parseExprStmt(t, "function (int $x, ...$rest) use ($a, &$b): ?int { return $x; }")
		closure := expr.(*ast.Closure)
		require.Len(t, closure.Params, 2)
		assert.True(t, closure.Params[1].Variadic)
		require.Len(t, closure.Uses, 2)
		assert.True(t, closure.Uses[1].ByRef)
		assert.IsType(t, (*ast.NullableTypeHint)(nil), closure.ReturnType)

		expr = parseExprStmt(t, "static fn($x) => $x + $y")
		arrowFn := expr.(*ast.ArrowFunction)
		assert.True(t, arrowFn.Static)
		assert.IsType(t, (*ast.BinaryOp)(nil), arrowFn.Expr)
	})

	t.Run("casts and literals", func(t *testing.T) {
		expr := parseExprStmt(t, "(int) $a")
		assert.Equal(t, "int", expr.(*ast.Cast).Type)

		expr = parseExprStmt(t, "array(1, 'a' => 2.5, &$c)")
		array := expr.(*ast.ArrayLiteral)
		require.Len(t, array.Items, 3)
		assert.IsType(t, (*ast.StringLiteral)(nil), array.Items[1].Key)
		assert.True(t, array.Items[2].ByRef)

		expr = parseExprStmt(t, "__CLASS__")
		assert.Equal(t, "__CLASS__", expr.(*ast.MagicConst).Name)

		expr = parseExprStmt(t, "null")
		assert.Equal(t, "null", expr.(*ast.ConstFetch).Name.Value)
	})
}

func TestParseStatements(t *testing.T) {

	t.Run("if elseif else", func(t *testing.T) {
		file := MustParse("<?php if ($a) { f(); } elseif ($b) g(); else if ($c) {} else { h(); }")
		require.Len(t, file.Statements, 1)
		ifStmt := file.Statements[0].(*ast.If)
		assert.Len(t, ifStmt.ElseIfs, 2)
		assert.NotNil(t, ifStmt.Else)
		assert.Len(t, ifStmt.ElseIfs[0].Body.Statements, 1)
	})

	t.Run("loops", func(t *testing.T) {
		file := MustParse("<?php foreach ($arr as $k => &$v) {} for ($i = 0; $i < 10; $i++) {} while (true) break; do {} while ($x);")
		require.Len(t, file.Statements, 4)
		foreach := file.Statements[0].(*ast.Foreach)
		assert.NotNil(t, foreach.Key)
		assert.True(t, foreach.ByRef)
		forStmt := file.Statements[1].(*ast.For)
		assert.Len(t, forStmt.Init, 1)
		assert.Len(t, forStmt.Loop, 1)
	})

	t.Run("switch", func(t *testing.T) {
		file := MustParse("<?php switch ($a) { case 1: case 2: f(); break; default: g(); }")
		switchStmt := file.Statements[0].(*ast.Switch)
		require.Len(t, switchStmt.Cases, 3)
		assert.Empty(t, switchStmt.Cases[0].Body)
		assert.Len(t, switchStmt.Cases[1].Body, 2)
		assert.Nil(t, switchStmt.Cases[2].Cond)
	})

	t.Run("try catch finally", func(t *testing.T) {
		file := MustParse("<?php try { f(); } catch (A|B $e) {} catch (C) {} finally { g(); }")
		try := file.Statements[0].(*ast.Try)
		require.Len(t, try.Catches, 2)
		assert.Len(t, try.Catches[0].Types, 2)
		assert.Equal(t, "e", try.Catches[0].Var.Name)
		assert.Nil(t, try.Catches[1].Var)
		assert.NotNil(t, try.Finally)
	})

	t.Run("class declaration", func(t *testing.T) {
		file := MustParse(`<?php
			namespace App;
			use Foo\Bar as Baz, Foo\{Qux, Quux};

			abstract class A extends B implements C, D {
				use T;
				const X = 1;
				private ?int $count = 0, $other;
				public function __construct(private readonly string $name) {}
				abstract protected static function &make(A&B $x, int|string|null $y = null): static;
			}
		`)
		require.Len(t, file.Statements, 3)
		use := file.Statements[1].(*ast.UseStmt)
		require.Len(t, use.Items, 3)
		assert.Equal(t, "Baz", use.Items[0].Alias)
		assert.Equal(t, "Foo\\Quux", use.Items[2].Name.Value)

		class := file.Statements[2].(*ast.ClassDecl)
		assert.Equal(t, "A", class.Name.Value)
		assert.True(t, class.Modifiers.Abstract)
		assert.Len(t, class.Implements, 2)
		assert.Len(t, class.TraitUses, 1)
		assert.Len(t, class.Constants, 1)
		require.Len(t, class.Properties, 2)
		assert.Equal(t, "count", class.Properties[0].Name)
		assert.Equal(t, "private", class.Properties[1].Modifiers.Visibility)

		require.Len(t, class.Methods, 2)
		ctor := class.Methods[0]
		require.NotNil(t, ctor.Params[0].Promoted)
		assert.True(t, ctor.Params[0].Promoted.Readonly)

		factory := class.Methods[1]
		assert.Nil(t, factory.Body)
		assert.True(t, factory.ByRefRet)
		assert.True(t, factory.Modifiers.Static)
		assert.IsType(t, (*ast.IntersectionTypeHint)(nil), factory.Params[0].Type)
		assert.Len(t, factory.Params[1].Type.(*ast.UnionTypeHint).Types, 3)
	})

	t.Run("global static declare", func(t *testing.T) {
		file := MustParse("<?php declare(strict_types=1); function f() { global $a, $b; static $c = 1; unset($c); }")
		require.Len(t, file.Statements, 2)
		declare := file.Statements[0].(*ast.Declare)
		assert.Nil(t, declare.Body)
		assert.Equal(t, "strict_types", declare.Directives[0].Name)

		fn := file.Statements[1].(*ast.FunctionDecl)
		require.Len(t, fn.Body.Statements, 3)
		assert.Len(t, fn.Body.Statements[0].(*ast.Global).Vars, 2)
		assert.NotNil(t, fn.Body.Statements[1].(*ast.StaticVars).Vars[0].Default)
	})

	t.Run("node ids are unique and counted", func(t *testing.T) {
		file := MustParse("<?php $a = 1; if ($a) { echo $a + 2; }")

		seen := map[ast.NodeID]bool{}
		ast.Walk(file, func(node, _, _ ast.Node, _ []ast.Node, _ bool) (ast.TraversalAction, error) {
			id := node.Base().ID
			assert.False(t, seen[id], "duplicate id %d", id)
			assert.Greater(t, int(id), 0)
			assert.LessOrEqual(t, int(id), file.NodeCount)
			seen[id] = true
			return ast.ContinueTraversal, nil
		}, nil)
	})

	t.Run("lines", func(t *testing.T) {
		file := MustParse("<?php\n$a = 1;\n\nf($a);")
		assert.Equal(t, 2, file.Statements[0].Base().Line)
		assert.Equal(t, 4, file.Statements[1].Base().Line)
	})

	t.Run("parsing error", func(t *testing.T) {
		_, err := Parse("x.php", []byte("<?php\nif ($a {"))
		var parsingErr *ParsingError
		require.ErrorAs(t, err, &parsingErr)
		assert.Equal(t, 2, parsingErr.Line)
	})
}
