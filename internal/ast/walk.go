package ast

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

type TraversalAction int

const (
	ContinueTraversal TraversalAction = iota
	Prune
	StopTraversal
)

type NodeHandler = func(node Node, parent Node, scopeNode Node, ancestorChain []Node, after bool) (TraversalAction, error)

// Walk performs a pre-order traversal on an AST (depth first).
// postHandle is called on a node after all its descendants have been visited.
// scopeNode is the closest function-like ancestor, or the root if there is none.
func Walk(node Node, handle, postHandle NodeHandler) (err error) {
	defer func() {
		v := recover()

		switch val := v.(type) {
		case error:
			err = fmt.Errorf("%s:%w", debug.Stack(), val)
		case nil:
		case TraversalAction:
		default:
			panic(v)
		}
	}()

	ancestorChain := make([]Node, 0)
	walk(node, nil, &ancestorChain, handle, postHandle)
	return
}

func walk(node, parent Node, ancestorChain *[]Node, fn, afterFn NodeHandler) {

	if node == nil || reflect.ValueOf(node).IsNil() {
		return
	}

	if parent != nil {
		*ancestorChain = append((*ancestorChain), parent)
		defer func() {
			*ancestorChain = (*ancestorChain)[:len(*ancestorChain)-1]
		}()
	}

	var scopeNode Node
	if len(*ancestorChain) > 0 {
		scopeNode = (*ancestorChain)[0]
	}
	for _, a := range *ancestorChain {
		if IsFunctionLike(a) {
			scopeNode = a
		}
	}

	if fn != nil {
		action, err := fn(node, parent, scopeNode, *ancestorChain, false)

		if err != nil {
			panic(err)
		}

		switch action {
		case StopTraversal:
			panic(StopTraversal)
		case Prune:
			return
		}
	}

	ForEachChild(node, func(child Node) {
		walk(child, node, ancestorChain, fn, afterFn)
	})

	if afterFn != nil {
		action, err := afterFn(node, parent, scopeNode, *ancestorChain, true)

		if err != nil {
			panic(err)
		}

		switch action {
		case StopTraversal:
			panic(StopTraversal)
		}
	}
}

// ForEachChild calls fn for each direct child of node in source order, nil children are skipped.
func ForEachChild(node Node, fn func(child Node)) {
	visit := func(n Node) {
		if n == nil || reflect.ValueOf(n).IsNil() {
			return
		}
		fn(n)
	}

	switch n := node.(type) {
	case *File:
		for _, stmt := range n.Statements {
			visit(stmt)
		}
	case *Namespace:
		visit(n.Name)
		for _, stmt := range n.Statements {
			visit(stmt)
		}
	case *UseStmt:
		for _, item := range n.Items {
			visit(item)
		}
	case *UseItem:
		visit(n.Name)
	case *NullableTypeHint:
		visit(n.Inner)
	case *UnionTypeHint:
		for _, t := range n.Types {
			visit(t)
		}
	case *IntersectionTypeHint:
		for _, t := range n.Types {
			visit(t)
		}
	case *ClassDecl:
		visit(n.Name)
		for _, name := range n.Extends {
			visit(name)
		}
		for _, name := range n.Implements {
			visit(name)
		}
		for _, name := range n.TraitUses {
			visit(name)
		}
		for _, c := range n.Constants {
			visit(c)
		}
		for _, p := range n.Properties {
			visit(p)
		}
		for _, m := range n.Methods {
			visit(m)
		}
	case *ClassConst:
		visit(n.Name)
		visit(n.Value)
	case *Property:
		visit(n.Type)
		visit(n.Default)
	case *Param:
		visit(n.Type)
		visit(n.Default)
	case *Method:
		visit(n.Name)
		for _, p := range n.Params {
			visit(p)
		}
		visit(n.ReturnType)
		visit(n.Body)
	case *FunctionDecl:
		visit(n.Name)
		for _, p := range n.Params {
			visit(p)
		}
		visit(n.ReturnType)
		visit(n.Body)
	case *Block:
		for _, stmt := range n.Statements {
			visit(stmt)
		}
	case *ExprStmt:
		visit(n.Expr)
	case *Echo:
		for _, e := range n.Exprs {
			visit(e)
		}
	case *If:
		visit(n.Cond)
		visit(n.Then)
		for _, elseIf := range n.ElseIfs {
			visit(elseIf)
		}
		visit(n.Else)
	case *ElseIf:
		visit(n.Cond)
		visit(n.Body)
	case *Else:
		visit(n.Body)
	case *While:
		visit(n.Cond)
		visit(n.Body)
	case *DoWhile:
		visit(n.Body)
		visit(n.Cond)
	case *For:
		for _, e := range n.Init {
			visit(e)
		}
		for _, e := range n.Cond {
			visit(e)
		}
		for _, e := range n.Loop {
			visit(e)
		}
		visit(n.Body)
	case *Foreach:
		visit(n.Expr)
		visit(n.Key)
		visit(n.Value)
		visit(n.Body)
	case *Switch:
		visit(n.Subject)
		for _, c := range n.Cases {
			visit(c)
		}
	case *Case:
		visit(n.Cond)
		for _, stmt := range n.Body {
			visit(stmt)
		}
	case *Return:
		visit(n.Expr)
	case *Throw:
		visit(n.Expr)
	case *Try:
		visit(n.Body)
		for _, c := range n.Catches {
			visit(c)
		}
		visit(n.Finally)
	case *Catch:
		for _, t := range n.Types {
			visit(t)
		}
		visit(n.Var)
		visit(n.Body)
	case *Global:
		for _, v := range n.Vars {
			visit(v)
		}
	case *StaticVars:
		for _, v := range n.Vars {
			visit(v)
		}
	case *StaticVarItem:
		visit(n.Var)
		visit(n.Default)
	case *Unset:
		for _, v := range n.Vars {
			visit(v)
		}
	case *Declare:
		for _, d := range n.Directives {
			visit(d)
		}
		visit(n.Body)
	case *DeclareDirective:
		visit(n.Value)
	case *ConstFetch:
		visit(n.Name)
	case *ClassConstFetch:
		visit(n.Class)
		visit(n.Name)
	case *ArrayLiteral:
		for _, item := range n.Items {
			visit(item)
		}
	case *ListExpr:
		for _, item := range n.Items {
			visit(item)
		}
	case *ArrayItem:
		visit(n.Key)
		visit(n.Value)
	case *ArrayDimFetch:
		visit(n.Var)
		visit(n.Dim)
	case *Assign:
		visit(n.Var)
		visit(n.Expr)
	case *AssignOp:
		visit(n.Var)
		visit(n.Expr)
	case *BinaryOp:
		visit(n.Left)
		visit(n.Right)
	case *UnaryOp:
		visit(n.Expr)
	case *IncDec:
		visit(n.Var)
	case *Instanceof:
		visit(n.Expr)
		visit(n.Class)
	case *Ternary:
		visit(n.Cond)
		visit(n.Then)
		visit(n.Else)
	case *Arg:
		visit(n.Value)
	case *New:
		visit(n.Class)
		for _, arg := range n.Args {
			visit(arg)
		}
		visit(n.AnonymousClass)
	case *Clone:
		visit(n.Expr)
	case *FuncCall:
		visit(n.Name)
		for _, arg := range n.Args {
			visit(arg)
		}
	case *MethodCall:
		visit(n.Var)
		visit(n.Name)
		for _, arg := range n.Args {
			visit(arg)
		}
	case *StaticCall:
		visit(n.Class)
		visit(n.Name)
		for _, arg := range n.Args {
			visit(arg)
		}
	case *PropertyFetch:
		visit(n.Var)
		visit(n.Name)
	case *StaticPropertyFetch:
		visit(n.Class)
	case *ClosureUse:
		visit(n.Var)
	case *Closure:
		for _, p := range n.Params {
			visit(p)
		}
		for _, use := range n.Uses {
			visit(use)
		}
		visit(n.ReturnType)
		visit(n.Body)
	case *ArrowFunction:
		for _, p := range n.Params {
			visit(p)
		}
		visit(n.ReturnType)
		visit(n.Expr)
	case *Isset:
		for _, v := range n.Vars {
			visit(v)
		}
	case *Empty:
		visit(n.Expr)
	case *Cast:
		visit(n.Expr)
	case *Print:
		visit(n.Expr)
	case *Exit:
		visit(n.Expr)
	}
}
