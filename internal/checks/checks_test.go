package checks

import (
	"sync"
	"testing"

	"github.com/inoxlang/phpcheck/internal/evaluator"
	"github.com/inoxlang/phpcheck/internal/parse"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/symbols"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prelude = `
class Foo {
	public ?Foo $next = null;
	public function bar(): bool { return true; }
	public function take(Foo $f): void {}
	public static function make(): static { return new static(); }
}
class Bar {}
class Child extends Foo {}
class Magic {
	public function __call($name, $args) { return null; }
}
`

type mapDeduper struct {
	lock sync.Mutex
	seen map[string]bool
}

func (d *mapDeduper) FirstTime(key string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

func diagnose(t *testing.T, code string) []report.Diagnostic {
	t.Helper()
	file, err := parse.Parse("/src/test.php", []byte("<?php\n"+code+"\n"+prelude))
	require.NoError(t, err)

	table := symbols.NewMemoryTable(symbols.Builtins())
	table.Add(symbols.IndexFile(file))

	collector := report.NewCollector()
	evaluator.New(file, evaluator.Config{
		Symbols: table,
		Emitter: collector,
		Checks:  All(&mapDeduper{seen: map[string]bool{}}),
	}).Evaluate()

	return collector.Diagnostics()
}

func codes(diagnostics []report.Diagnostic) []report.Code {
	var result []report.Code
	for _, diagnostic := range diagnostics {
		result = append(result, diagnostic.Code)
	}
	return result
}

type testCase struct {
	name     string
	code     string
	expected []report.Code
}

func runCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, codes(diagnose(t, testCase.code)))
		})
	}
}

func TestPrelude(t *testing.T) {
	assert.Empty(t, diagnose(t, ""))
}

func TestUndefinedVariableCheck(t *testing.T) {
	runCases(t, []testCase{
		{"read", `function f() { echo $x; }`, []report.Code{report.UnknownVariable}},
		{"reported once per function", `function f() { echo $x; echo $x; }`, []report.Code{report.UnknownVariable}},
		{"file scope", `echo $x;`, nil},
		{"defined", `function f() { $x = 1; echo $x; }`, nil},
		{"parameter", `function f($x) { echo $x; }`, nil},
		{"isset", `function f() { return isset($x) ? 1 : 2; }`, nil},
		{"null coalescing", `function f() { return $x ?? 1; }`, nil},
		{"superglobal", `function f() { return $_GET['a']; }`, nil},
		{"extract", `function f(array $a) { extract($a); return $x; }`, nil},
		{"this in method", `class A { function m() { return $this; } }`, nil},
		{"defined in a branch", `function f($c) { if ($c) { $x = 1; } return $x; }`, nil},
		{"foreach value after loop", `function f(array $l) { foreach ($l as $v) {} return $v; }`, nil},
		{"closure use", `function f() { $y = 1; return function () use ($y) { return $y; }; }`, nil},
		{"arrow function import", `function f() { $y = 1; return fn() => $y; }`, nil},
	})
}

func TestNullDereferenceCheck(t *testing.T) {
	runCases(t, []testCase{
		{"nullable parameter", `function f(?Foo $a) { return $a->bar(); }`, []report.Code{report.NullDereference}},
		{"null variable", `function f() { $a = null; return $a->next; }`, []report.Code{report.NullDereference}},
		{"null safe", `function f(?Foo $a) { return $a?->bar(); }`, nil},
		{"guarded", `function f(?Foo $a) { if ($a !== null) { return $a->bar(); } }`, nil},
		{"early return", `function f(?Foo $a) { if ($a === null) { return; } return $a->next; }`, nil},
		{"instanceof conjunction", `function f(?Foo $a) { if ($a instanceof Foo && $a->bar()) {} }`, nil},
		{"isset", `function f(?Foo $a) { return isset($a->next); }`, nil},
		{"chained", `function f(?Foo $a) { return $a->next->bar(); }`, []report.Code{report.NullDereference}},
	})

	t.Run("message", func(t *testing.T) {
		diagnostics := diagnose(t, `function f(?Foo $a) { return $a->bar(); }`)
		require.Len(t, diagnostics, 1)
		assert.Equal(t, "method bar() is called on $a that may be null", diagnostics[0].Message)
		assert.Equal(t, NULL_DEREFERENCE_CHECK, diagnostics[0].Check)
		assert.Equal(t, 2, diagnostics[0].Line)
	})
}

func TestUnknownMethodCheck(t *testing.T) {
	runCases(t, []testCase{
		{"missing", `function f(Foo $a) { return $a->missing(); }`, []report.Code{report.UnknownMethod}},
		{"case insensitive", `function f(Foo $a) { return $a->BAR(); }`, nil},
		{"inherited", `function f(Child $a) { return $a->bar(); }`, nil},
		{"magic call", `function f(Magic $m) { return $m->anything(); }`, nil},
		{"undefined class", `function f(Unknown $u) { return $u->x(); }`, []report.Code{report.UnknownClass}},
		{"method_exists guard", `function f(Foo $a) { if (method_exists($a, 'x')) { return $a->x(); } }`, nil},
		{"method_exists conjunction", `function f(Foo $a) { return method_exists($a, 'x') && $a->x(); }`, nil},
		{"static", `Foo::make(); Foo::create();`, []report.Code{report.UnknownMethod}},
		{"parent", `class C extends Foo { function m() { return parent::bar() && $this->bar(); } }`, nil},
		{"this", `class C extends Foo { function m() { return $this->nope(); } }`, []report.Code{report.UnknownMethod}},
	})

	t.Run("message", func(t *testing.T) {
		diagnostics := diagnose(t, `function f(Foo $a) { return $a->missing(); }`)
		require.Len(t, diagnostics, 1)
		assert.Equal(t, "call to unknown method Foo::missing()", diagnostics[0].Message)
	})
}

func TestUnknownClassCheck(t *testing.T) {
	runCases(t, []testCase{
		{"new", `new Missing();`, []report.Code{report.UnknownClass}},
		{"reported once per file", `new Missing(); new Missing();`, []report.Code{report.UnknownClass}},
		{"parameter", `function f(?Missing $m) {}`, []report.Code{report.UnknownClass}},
		{"catch", `function f() { try { f(); } catch (MissingException $e) {} }`, []report.Code{report.UnknownClass}},
		{"defined", `new Foo(); new Exception(); new \RuntimeException();`, nil},
		{"anonymous", `new class {};`, nil},
		{"builtin hints", `function f(int $i, ?array $a, self|static $s) {}`, nil},
	})
}

func TestParamTypeCheck(t *testing.T) {
	const strict = "declare(strict_types=1);\n"

	runCases(t, []testCase{
		{"scalar coercion", `function g(int $i) {} g('a');`, nil},
		{"strict scalar", strict + `function g(int $i) {} g('a');`, []report.Code{report.ParamTypeMismatch}},
		{"int to float", strict + `function g(float $f) {} g(1);`, nil},
		{"unrelated class", `function g(Foo $f) {} g(new Bar());`, []report.Code{report.ParamTypeMismatch}},
		{"subclass", `function g(Foo $f) {} g(new Child());`, nil},
		{"nullable", `function g(?Foo $f) {} g(null);`, nil},
		{"null default", `function g(Foo $f = null) {} g(null);`, nil},
		{"variadic", strict + `function g(int ...$n) {} g(1, 2, 'a');`, []report.Code{report.ParamTypeMismatch}},
		{"named", strict + `function g(int $a, string $b) {} g(b: 1, a: 2);`, []report.Code{report.ParamTypeMismatch}},
		{"method", `function f(Foo $a) { $a->take(new Bar()); }`, []report.Code{report.ParamTypeMismatch}},
		{"unknown argument type", `function g(Foo $f) {} function h($x) { g($x); }`, nil},
		{"by reference", `function g(array &$a) {} function h() { g($x); return $x; }`, nil},
	})

	t.Run("constructor", func(t *testing.T) {
		diagnostics := diagnose(t, strict+`class Point { function __construct(int $x) {} } new Point('a');`)
		require.Len(t, diagnostics, 1)
		assert.Equal(t, report.ParamTypeMismatch, diagnostics[0].Code)
		assert.Equal(t, "argument 1 of Point::__construct() should be of type int, string given", diagnostics[0].Message)
	})
}

func TestReturnTypeCheck(t *testing.T) {
	const strict = "declare(strict_types=1);\n"

	runCases(t, []testCase{
		{"scalar coercion", `function f(): int { return 'a'; }`, nil},
		{"strict scalar", strict + `function f(): int { return 'a'; }`, []report.Code{report.ReturnTypeMismatch}},
		{"unrelated class", `function f(): Foo { return new Bar(); }`, []report.Code{report.ReturnTypeMismatch}},
		{"void with value", `function f(): void { return 1; }`, []report.Code{report.ReturnTypeMismatch}},
		{"void", `function f(): void { return; }`, nil},
		{"missing value", `function f(): int { return; }`, []report.Code{report.ReturnTypeMismatch}},
		{"nullable", `function f(): ?Foo { return null; }`, nil},
		{"false alternative", `function f(): Foo|false { return false; }`, nil},
		{"static", `class C { function m(): static { return $this; } }`, nil},
		{"closure", strict + `$f = function (): int { return 'a'; };`, []report.Code{report.ReturnTypeMismatch}},
		{"nested arrow function", `function f(): Foo { $g = fn() => 1; $g(); return new Foo(); }`, nil},
		{"no declared type", `function f() { return 1; }`, nil},
	})

	t.Run("message", func(t *testing.T) {
		diagnostics := diagnose(t, `function f(): Foo { return new Bar(); }`)
		require.Len(t, diagnostics, 1)
		assert.Equal(t, "returned value should be of type Foo, Bar given", diagnostics[0].Message)
	})
}

func TestFilter(t *testing.T) {
	all := All(nil)
	kept := Filter(all, []string{"nulldereference", RETURN_TYPE_CHECK})
	assert.Len(t, kept, len(all)-2)
	for _, check := range kept {
		assert.NotEqual(t, NULL_DEREFERENCE_CHECK, check.Name())
		assert.NotEqual(t, RETURN_TYPE_CHECK, check.Name())
	}

	assert.Equal(t, all, Filter(all, nil))
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, evaluator.EVALUATOR_CHECK_NAME)
	assert.Contains(t, names, UNKNOWN_CLASS_CHECK)
	assert.Len(t, names, 7)
}
