package scope

import (
	"errors"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/types"
)

var (
	ErrEmptyScopeStack = errors.New("scope stack is empty")
	ErrEmptyNodeStack  = errors.New("node stack is empty")
	ErrEmptyClassStack = errors.New("class stack is empty")
)

// Class is an entry of the class declaration stack.
type Class struct {
	Decl   *ast.ClassDecl //nil for an anonymous class
	Name   string         //fully qualified name
	Parent string         //fully qualified name of the parent class, can be empty
}

// A Stack is the mutable state threaded through the traversal of one file: the stack of scopes
// (the top scope is the current one, the scopes below are waiting for a merge or belong to enclosing functions),
// the chain of ancestor nodes and the stack of enclosing class declarations.
// A Stack must not be shared between goroutines.
type Stack struct {
	scopes  []*Scope
	nodes   []ast.Node
	classes []Class
}

// NewStack returns a stack whose bottom scope is global.
func NewStack(global *Scope) *Stack {
	return &Stack{scopes: []*Scope{global}}
}

// ==================== scopes ====================

func (s *Stack) Push(scope *Scope) {
	s.scopes = append(s.scopes, scope)
}

func (s *Stack) Pop() *Scope {
	if len(s.scopes) == 0 {
		panic(ErrEmptyScopeStack)
	}
	top := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return top
}

func (s *Stack) Top() *Scope {
	if len(s.scopes) == 0 {
		panic(ErrEmptyScopeStack)
	}
	return s.scopes[len(s.scopes)-1]
}

// Swap replaces the top scope with scope and returns the replaced scope.
func (s *Stack) Swap(scope *Scope) *Scope {
	if len(s.scopes) == 0 {
		panic(ErrEmptyScopeStack)
	}
	old := s.scopes[len(s.scopes)-1]
	s.scopes[len(s.scopes)-1] = scope
	return old
}

// PushClone pushes a clone of the top scope and returns it.
func (s *Stack) PushClone() *Scope {
	clone := s.Top().Clone()
	s.Push(clone)
	return clone
}

func (s *Stack) Depth() int {
	return len(s.scopes)
}

// Global returns the bottom scope.
func (s *Stack) Global() *Scope {
	if len(s.scopes) == 0 {
		panic(ErrEmptyScopeStack)
	}
	return s.scopes[0]
}

// FunctionLike returns the function-like node owning the current scope, nil at file level.
func (s *Stack) FunctionLike() ast.Node {
	return s.Top().FunctionLike
}

func (s *Stack) IsStrict() bool {
	return s.Top().StrictTypes
}

// ==================== variables ====================

func (s *Stack) Var(name string) (*Var, bool) {
	return s.Top().Get(name)
}

func (s *Stack) Exists(name string) bool {
	return s.Top().Has(name)
}

// TypeOf returns the effective type of the variable in the current scope.
func (s *Stack) TypeOf(name string) (types.Type, bool) {
	v, ok := s.Top().Get(name)
	if !ok {
		return nil, false
	}
	return v.EffectiveType(), true
}

// Assign records a write of t to the variable, the variable is created if it does not exist.
func (s *Stack) Assign(name string, t types.Type, line int) *Var {
	scope := s.Top()
	v, ok := scope.Get(name)
	if !ok {
		v = NewVar(nil, OriginLocal)
		scope.Set(name, v)
	}
	v.Write(t, line)
	return v
}

// Narrow refines the type of an existing variable, it returns false if the variable does not exist.
func (s *Stack) Narrow(name string, t types.Type) bool {
	v, ok := s.Top().Get(name)
	if !ok {
		return false
	}
	v.Narrow(t)
	return true
}

// MarkUsed marks the variable as read, it returns false if the variable does not exist.
func (s *Stack) MarkUsed(name string) bool {
	v, ok := s.Top().Get(name)
	if !ok {
		return false
	}
	v.Used = true
	return true
}

func (s *Stack) Unset(name string) {
	s.Top().Delete(name)
}

// ==================== nodes ====================

func (s *Stack) PushNode(node ast.Node) {
	s.nodes = append(s.nodes, node)
}

func (s *Stack) PopNode() ast.Node {
	if len(s.nodes) == 0 {
		panic(ErrEmptyNodeStack)
	}
	node := s.nodes[len(s.nodes)-1]
	s.nodes = s.nodes[:len(s.nodes)-1]
	return node
}

// Current returns the node being evaluated, nil if there is none.
func (s *Stack) Current() ast.Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[len(s.nodes)-1]
}

// Parent returns the parent of the node being evaluated, nil if there is none.
func (s *Stack) Parent() ast.Node {
	if len(s.nodes) < 2 {
		return nil
	}
	return s.nodes[len(s.nodes)-2]
}

// Ancestors returns the chain of ancestors of the current node, the root first. The current node is not included.
func (s *Stack) Ancestors() []ast.Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[:len(s.nodes)-1]
}

// FindAncestor returns the closest ancestor of the current node for which the predicate returns true.
func (s *Stack) FindAncestor(predicate func(node ast.Node) bool) (ast.Node, bool) {
	ancestors := s.Ancestors()
	for i := len(ancestors) - 1; i >= 0; i-- {
		if predicate(ancestors[i]) {
			return ancestors[i], true
		}
	}
	return nil, false
}

// InsideTry returns true if the current node is in the body of a try statement of the current function.
func (s *Stack) InsideTry() bool {
	for i := len(s.nodes) - 1; i >= 0; i-- {
		node := s.nodes[i]
		if ast.IsFunctionLike(node) {
			return false
		}
		if try, ok := node.(*ast.Try); ok && i+1 < len(s.nodes) && s.nodes[i+1] == ast.Node(try.Body) {
			return true
		}
	}
	return false
}

// ==================== classes ====================

func (s *Stack) PushClass(class Class) {
	s.classes = append(s.classes, class)
}

func (s *Stack) PopClass() Class {
	if len(s.classes) == 0 {
		panic(ErrEmptyClassStack)
	}
	class := s.classes[len(s.classes)-1]
	s.classes = s.classes[:len(s.classes)-1]
	return class
}

// CurrentClass returns the innermost enclosing class declaration.
func (s *Stack) CurrentClass() (Class, bool) {
	if len(s.classes) == 0 {
		return Class{}, false
	}
	return s.classes[len(s.classes)-1], true
}
