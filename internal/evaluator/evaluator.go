package evaluator

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/inference"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/scope"
	"github.com/inoxlang/phpcheck/internal/symbols"
	"github.com/inoxlang/phpcheck/internal/types"
	"github.com/rs/zerolog"
)

const (
	// name of the evaluator as the originating check of its own diagnostics
	EVALUATOR_CHECK_NAME = "Evaluator"
)

var (
	ErrNoEvaluator      = errors.New("no evaluator for node kind")
	ErrAlreadyEvaluated = errors.New("file is already evaluated")
)

// A Check inspects the nodes of the kinds it declares after they have been evaluated: the type of an expression
// node is stamped and the scope stack reflects the state right after the node.
type Check interface {
	Name() string
	Kinds() []ast.Kind
	Run(e *Evaluator, node ast.Node)
}

type Config struct {
	Symbols symbols.Table  //required
	Emitter report.Emitter //required
	Checks  []Check
	Logger  zerolog.Logger

	// StrictTypes is the initial value of the strict_types flag of the file scope.
	StrictTypes bool
}

// An Evaluator walks the tree of a single file and threads the scope stack through it: each node kind has
// its own evaluation logic, expression types are stamped in the side table and the checks registered
// for a node kind run when the evaluation of a node of this kind is done.
// An Evaluator is not safe for concurrent use, each worker owns its evaluators.
type Evaluator struct {
	file     *ast.File
	symbols  symbols.Table
	comparer *types.Comparer
	names    *symbols.NameContext
	inferrer *inference.Inferrer
	types    *inference.Table
	stack    *scope.Stack
	emitter  report.Emitter
	logger   zerolog.Logger
	checks   map[ast.Kind][]Check

	frames  []*frame
	returns map[ast.Node][]types.Type

	targets  *bitset.BitSet //assignment targets, by node ID
	silenced *bitset.BitSet //nodes evaluated inside isset(), empty() and the left side of ??
	quiet    int

	statics   *scope.Scope //storage of the static variables
	evaluated bool
}

// frame is the evaluation state of a function-like body.
type frame struct {
	node    ast.Node
	returns []types.Type

	// set when the body calls a function accessing the variables dynamically (compact, extract, ...)
	dynamicVars bool
}

func New(file *ast.File, config Config) *Evaluator {
	names := symbols.NewNameContext()
	table := inference.NewTable(file.NodeCount)

	global := scope.New(nil)
	global.StrictTypes = config.StrictTypes

	e := &Evaluator{
		file:     file,
		symbols:  config.Symbols,
		comparer: types.NewComparer(config.Symbols),
		names:    names,
		types:    table,
		stack:    scope.NewStack(global),
		emitter:  config.Emitter,
		logger:   config.Logger,
		checks:   map[ast.Kind][]Check{},
		returns:  map[ast.Node][]types.Type{},
		targets:  bitset.New(uint(file.NodeCount + 1)),
		silenced: bitset.New(uint(file.NodeCount + 1)),
		statics:  scope.New(nil),
	}
	e.inferrer = inference.NewInferrer(config.Symbols, names, table)

	for _, check := range config.Checks {
		for _, kind := range check.Kinds() {
			e.checks[kind] = append(e.checks[kind], check)
		}
	}
	return e
}

// Evaluate evaluates the whole file, it can only be called once. An internal invariant violation
// (unknown node kind, node stamped twice) causes a panic.
func (e *Evaluator) Evaluate() {
	if e.evaluated {
		panic(ErrAlreadyEvaluated)
	}
	e.evaluated = true

	e.stack.PushNode(e.file)
	e.evalStatements(e.file.Statements)
	e.runChecks(e.file)
	e.stack.PopNode()

	e.logger.Debug().Str("file", e.file.Path).Int("stamped", e.types.Count()).Msg("file evaluated")
}

func (e *Evaluator) runChecks(node ast.Node) {
	for _, check := range e.checks[node.Kind()] {
		check.Run(e, node)
		e.emitter.IncChecks()
	}
}

// ==================== queries ====================

func (e *Evaluator) File() *ast.File {
	return e.file
}

func (e *Evaluator) Symbols() symbols.Table {
	return e.symbols
}

func (e *Evaluator) Comparer() *types.Comparer {
	return e.comparer
}

func (e *Evaluator) Names() *symbols.NameContext {
	return e.names
}

func (e *Evaluator) Stack() *scope.Stack {
	return e.stack
}

// Types returns the side table of the inferred types.
func (e *Evaluator) Types() *inference.Table {
	return e.types
}

func (e *Evaluator) Logger() zerolog.Logger {
	return e.logger
}

// TypeOf returns the type inferred for an evaluated expression.
func (e *Evaluator) TypeOf(node ast.Node) (types.Type, bool) {
	return e.types.TypeOf(node)
}

// IsWriteContext returns true if node is an assignment target or is inside isset(), empty() or the left operand of ??.
func (e *Evaluator) IsWriteContext(node ast.Node) bool {
	id := uint(node.Base().ID)
	return e.targets.Test(id) || e.silenced.Test(id)
}

// IsAssignmentTarget returns true if node is (part of) the target of an assignment, a reference or an unset().
func (e *Evaluator) IsAssignmentTarget(node ast.Node) bool {
	return e.targets.Test(uint(node.Base().ID))
}

// IsSilenced returns true if node is inside isset(), empty() or the left operand of ??.
func (e *Evaluator) IsSilenced(node ast.Node) bool {
	return e.silenced.Test(uint(node.Base().ID))
}

// HasDynamicVariables returns true if the current function-like body accessed its variables by name
// (extract, get_defined_vars, ...) before the current node.
func (e *Evaluator) HasDynamicVariables() bool {
	frame := e.currentFrame()
	return frame != nil && frame.dynamicVars
}

// Class returns the innermost class declaration enclosing the current node.
func (e *Evaluator) Class() (scope.Class, bool) {
	return e.stack.CurrentClass()
}

func (e *Evaluator) currentClass() scope.Class {
	class, _ := e.stack.CurrentClass()
	return class
}

// ResolveClassName resolves a class name of the current file: namespaces, use aliases, self, static and parent.
func (e *Evaluator) ResolveClassName(name *ast.Name) (string, bool) {
	if name.FullyQualified {
		return name.Value, true
	}
	return e.inferrer.ResolveClassName(e.currentClass(), name.Value)
}

// ResolveHint converts a declared type of the current file to a type.
func (e *Evaluator) ResolveHint(hint ast.TypeHint) types.Type {
	return types.FromHint(hint, e.resolveHintName)
}

func (e *Evaluator) resolveHintName(name string) string {
	resolved, ok := e.inferrer.ResolveClassName(e.currentClass(), name)
	if !ok {
		return name
	}
	return resolved
}

// ReturnTypes returns the types of the values returned by an evaluated function-like node.
func (e *Evaluator) ReturnTypes(functionLike ast.Node) []types.Type {
	return e.returns[functionLike]
}

// Emit reports a diagnostic located at node.
func (e *Evaluator) Emit(check string, node ast.Node, code report.Code, format string, args ...any) {
	e.emitter.Emit(check, e.file.Path, node.Base().Line, code, fmt.Sprintf(format, args...))
}

func (e *Evaluator) currentFrame() *frame {
	if len(e.frames) == 0 {
		return nil
	}
	return e.frames[len(e.frames)-1]
}
