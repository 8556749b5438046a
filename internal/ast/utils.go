package ast

import (
	"strings"
)

// NameOf returns the textual name of a *Name or *Identifier node, other nodes yield ("", false).
func NameOf(node Node) (string, bool) {
	switch n := node.(type) {
	case *Name:
		return n.Value, true
	case *Identifier:
		return n.Value, true
	}
	return "", false
}

// NormalizeClassName removes the leading backslash of a fully qualified name.
func NormalizeClassName(name string) string {
	return strings.TrimPrefix(name, "\\")
}

// IsTerminatingStatement returns true if the control never reaches the statement that follows stmt.
func IsTerminatingStatement(stmt Stmt) bool {
	switch s := stmt.(type) {
	case *Return, *Throw, *Continue, *Break:
		return true
	case *ExprStmt:
		_, ok := s.Expr.(*Exit)
		return ok
	case *Block:
		return IsTerminatingBlock(s)
	}
	return false
}

// IsTerminatingBlock returns true if the last statement of the block is terminating.
func IsTerminatingBlock(block *Block) bool {
	if block == nil || len(block.Statements) == 0 {
		return false
	}
	return IsTerminatingStatement(block.Statements[len(block.Statements)-1])
}

// ReferencedVariables returns the names of the variables referenced in node, in order of first appearance.
// Variables referenced only inside nested closures are ignored, nested arrow functions are traversed
// because they capture their enclosing scope by value.
func ReferencedVariables(node Node) []string {
	var names []string
	seen := map[string]bool{}

	Walk(node, func(n, _, _ Node, _ []Node, _ bool) (TraversalAction, error) {
		switch n := n.(type) {
		case *Closure:
			if n != node {
				for _, use := range n.Uses {
					if !seen[use.Var.Name] {
						seen[use.Var.Name] = true
						names = append(names, use.Var.Name)
					}
				}
				return Prune, nil
			}
		case *Variable:
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		}
		return ContinueTraversal, nil
	}, nil)

	return names
}

// FindNode returns the first node (pre-order) for which the predicate returns true.
func FindNode[T Node](root Node, predicate func(n T) bool) (T, bool) {
	var found T
	var ok bool

	Walk(root, func(n, _, _ Node, _ []Node, _ bool) (TraversalAction, error) {
		if typed, isT := n.(T); isT && (predicate == nil || predicate(typed)) {
			found = typed
			ok = true
			return StopTraversal, nil
		}
		return ContinueTraversal, nil
	}, nil)

	return found, ok
}

// FindNodes returns all the nodes of type T in pre-order.
func FindNodes[T Node](root Node) []T {
	var nodes []T

	Walk(root, func(n, _, _ Node, _ []Node, _ bool) (TraversalAction, error) {
		if typed, ok := n.(T); ok {
			nodes = append(nodes, typed)
		}
		return ContinueTraversal, nil
	}, nil)

	return nodes
}
