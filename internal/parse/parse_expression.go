package parse

import (
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
)

const (
	assignmentPrecedence = 4
	ternaryPrecedence    = 5
	instanceofPrecedence = 18
	unaryPrecedence      = 19
)

type binaryOperator struct {
	precedence int
	rightAssoc bool
}

var binaryOperators = map[string]binaryOperator{
	"or":  {precedence: 1},
	"xor": {precedence: 2},
	"and": {precedence: 3},
	"??":  {precedence: 6, rightAssoc: true},
	"||":  {precedence: 7},
	"&&":  {precedence: 8},
	"|":   {precedence: 9},
	"^":   {precedence: 10},
	"&":   {precedence: 11},
	"==":  {precedence: 12},
	"!=":  {precedence: 12},
	"<>":  {precedence: 12},
	"===": {precedence: 12},
	"!==": {precedence: 12},
	"<=>": {precedence: 12},
	"<":   {precedence: 13},
	"<=":  {precedence: 13},
	">":   {precedence: 13},
	">=":  {precedence: 13},
	".":   {precedence: 14},
	"<<":  {precedence: 15},
	">>":  {precedence: 15},
	"+":   {precedence: 16},
	"-":   {precedence: 16},
	"*":   {precedence: 17},
	"/":   {precedence: 17},
	"%":   {precedence: 17},
	"**":  {precedence: 19, rightAssoc: true},
}

var assignmentOperators = map[string]string{
	"+=":  "+",
	"-=":  "-",
	"*=":  "*",
	"/=":  "/",
	".=":  ".",
	"%=":  "%",
	"**=": "**",
	"&=":  "&",
	"|=":  "|",
	"^=":  "^",
	"<<=": "<<",
	">>=": ">>",
	"??=": "??",
}

func lookupBinaryOperator(tok Token) (string, binaryOperator, bool) {
	var op string
	switch tok.Type {
	case PUNCT:
		op = tok.Value
	case IDENT:
		op = strings.ToLower(tok.Value)
		if op != "and" && op != "or" && op != "xor" {
			return "", binaryOperator{}, false
		}
	default:
		return "", binaryOperator{}, false
	}
	info, ok := binaryOperators[op]
	if op == "<>" {
		op = "!="
	}
	return op, info, ok
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseBinary(1)
}

func (p *parser) parseBinary(minPrecedence int) ast.Expr {
	left := p.parseUnary()

	for {
		tok := p.peek()

		switch {
		case tok.is("?") && minPrecedence <= ternaryPrecedence:
			p.advance()
			ternary := &ast.Ternary{Cond: left}
			p.initAt(ternary, left)
			if !p.accept(":") {
				ternary.Then = p.parseBinary(assignmentPrecedence)
				p.expect(":")
			}
			ternary.Else = p.parseBinary(ternaryPrecedence + 1)
			p.end(ternary)
			left = ternary
			continue
		case tok.is("instanceof") && minPrecedence <= instanceofPrecedence:
			p.advance()
			instanceof := &ast.Instanceof{Expr: left}
			p.initAt(instanceof, left)
			instanceof.Class = p.parseClassReference()
			p.end(instanceof)
			left = instanceof
			continue
		}

		op, info, ok := lookupBinaryOperator(tok)
		if !ok || info.precedence < minPrecedence {
			return left
		}
		p.advance()

		nextMin := info.precedence + 1
		if info.rightAssoc {
			nextMin = info.precedence
		}

		binary := &ast.BinaryOp{Op: op, Left: left}
		p.initAt(binary, left)
		binary.Right = p.parseBinary(nextMin)
		p.end(binary)
		left = binary
	}
}

// initAt initializes node, the position of its first token is the position of first.
func (p *parser) initAt(node ast.Node, first ast.Node) {
	base := node.Base()
	firstBase := first.Base()
	base.ID = p.nextID
	base.Line = firstBase.Line
	base.Span = firstBase.Span
	p.nextID++
}

// parseClassReference parses the class operand of new, instanceof and static accesses.
func (p *parser) parseClassReference() ast.Expr {
	switch {
	case p.at(IDENT):
		return p.parseName()
	case p.at(VARIABLE):
		var expr ast.Expr = p.parseVariable()
		for p.atKw("->") || p.atKw("::") {
			expr = p.parseMemberAccess(expr, false)
		}
		return expr
	case p.atKw("("):
		return p.parseParenExpr()
	}
	tok := p.peek()
	p.fail(tok, "expected a class name but got %s", tok)
	return nil
}

func (p *parser) parseUnary() ast.Expr {
	tok := p.peek()

	switch tok.Type {
	case CAST:
		p.advance()
		cast := &ast.Cast{Type: tok.Value}
		p.init(cast, tok)
		cast.Expr = p.parseBinary(unaryPrecedence)
		p.end(cast)
		return cast
	case PUNCT:
		switch tok.Value {
		case "!":
			p.advance()
			unary := &ast.UnaryOp{Op: "!"}
			p.init(unary, tok)
			unary.Expr = p.parseBinary(instanceofPrecedence)
			p.end(unary)
			return unary
		case "-", "+", "~", "@":
			p.advance()
			unary := &ast.UnaryOp{Op: tok.Value}
			p.init(unary, tok)
			unary.Expr = p.parseBinary(unaryPrecedence)
			p.end(unary)
			return unary
		case "++", "--":
			p.advance()
			incDec := &ast.IncDec{Inc: tok.Value == "++", Prefix: true}
			p.init(incDec, tok)
			incDec.Var = p.parsePostfix(p.parsePrimary(), false)
			p.end(incDec)
			return incDec
		case "&":
			p.fail(tok, "unexpected '&'")
		}
	case IDENT:
		switch {
		case tok.is("print"):
			p.advance()
			printExpr := &ast.Print{}
			p.init(printExpr, tok)
			printExpr.Expr = p.parseBinary(assignmentPrecedence)
			p.end(printExpr)
			return printExpr
		case tok.is("clone"):
			p.advance()
			clone := &ast.Clone{}
			p.init(clone, tok)
			clone.Expr = p.parseUnary()
			p.end(clone)
			return clone
		case tok.is("include"), tok.is("include_once"), tok.is("require"), tok.is("require_once"):
			p.advance()
			call := &ast.FuncCall{}
			p.init(call, tok)
			name := &ast.Name{Value: strings.ToLower(tok.Value)}
			p.init(name, tok)
			call.Name = name
			arg := &ast.Arg{}
			p.init(arg, p.peek())
			arg.Value = p.parseBinary(assignmentPrecedence)
			call.Args = []*ast.Arg{arg}
			p.end(call)
			return call
		}
	}

	return p.parsePostfix(p.parsePrimary(), true)
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.peek()

	switch tok.Type {
	case VARIABLE:
		return p.parseVariable()
	case INT:
		p.advance()
		lit := &ast.IntLiteral{Raw: tok.Value}
		p.init(lit, tok)
		return lit
	case FLOAT:
		p.advance()
		lit := &ast.FloatLiteral{Raw: tok.Value}
		p.init(lit, tok)
		return lit
	case STRING:
		p.advance()
		lit := &ast.StringLiteral{Value: tok.Value, Interpolated: tok.Interpolated}
		p.init(lit, tok)
		return lit
	case PUNCT:
		switch tok.Value {
		case "(":
			return p.parseParenExpr()
		case "[":
			return p.parseArrayLiteral("[", "]")
		}
	case IDENT:
		return p.parseIdentStartingExpr()
	}

	p.fail(tok, "unexpected %s", tok)
	return nil
}

func (p *parser) parseIdentStartingExpr() ast.Expr {
	tok := p.peek()
	next := p.peekAt(1)

	switch {
	case tok.is("array") && next.is("("):
		p.advance()
		return p.parseArrayLiteral("(", ")")
	case tok.is("list") && next.is("("):
		p.advance()
		array := p.parseArrayLiteral("(", ")").(*ast.ArrayLiteral)
		list := &ast.ListExpr{Items: array.Items}
		p.initAt(list, array)
		p.end(list)
		return list
	case tok.is("isset") && next.is("("):
		p.advance()
		isset := &ast.Isset{}
		p.init(isset, tok)
		p.expect("(")
		isset.Vars = p.parseExprList(")")
		p.expect(")")
		p.end(isset)
		return isset
	case tok.is("empty") && next.is("("):
		p.advance()
		empty := &ast.Empty{}
		p.init(empty, tok)
		empty.Expr = p.parseParenExpr()
		p.end(empty)
		return empty
	case tok.is("exit") || tok.is("die"):
		p.advance()
		exit := &ast.Exit{}
		p.init(exit, tok)
		if p.accept("(") {
			if !p.atKw(")") {
				exit.Expr = p.parseExpr()
			}
			p.expect(")")
		}
		p.end(exit)
		return exit
	case tok.is("new"):
		return p.parseNew()
	case tok.is("function"):
		return p.parseClosure(false)
	case tok.is("fn") && (next.is("(") || next.is("&")):
		return p.parseArrowFunction(false)
	case tok.is("static") && next.is("function"):
		p.advance()
		return p.parseClosure(true)
	case tok.is("static") && next.is("fn"):
		p.advance()
		return p.parseArrowFunction(true)
	case magicConstants[strings.ToUpper(tok.Value)]:
		p.advance()
		magic := &ast.MagicConst{Name: strings.ToUpper(tok.Value)}
		p.init(magic, tok)
		return magic
	}

	name := p.parseName()
	if p.atKw("(") {
		call := &ast.FuncCall{Name: name}
		p.initAt(call, name)
		call.Args = p.parseArgs()
		p.end(call)
		return call
	}
	if p.atKw("::") {
		return name
	}

	constFetch := &ast.ConstFetch{Name: name}
	p.initAt(constFetch, name)
	return constFetch
}

func (p *parser) parseArrayLiteral(open, close string) ast.Expr {
	tok := p.expect(open)
	array := &ast.ArrayLiteral{}
	p.init(array, tok)

	for !p.atKw(close) {
		if p.accept(",") { //skipped element in a destructuring
			continue
		}

		itemTok := p.peek()
		item := &ast.ArrayItem{}
		p.init(item, itemTok)

		switch {
		case p.accept("..."):
			item.Unpack = true
			item.Value = p.parseExpr()
		case p.accept("&"):
			item.ByRef = true
			item.Value = p.parseUnary()
		default:
			value := p.parseExpr()
			if p.accept("=>") {
				item.Key = value
				item.ByRef = p.accept("&")
				if item.ByRef {
					value = p.parseUnary()
				} else {
					value = p.parseExpr()
				}
			}
			item.Value = value
		}
		p.end(item)
		array.Items = append(array.Items, item)

		if !p.accept(",") {
			break
		}
	}
	p.expect(close)
	p.end(array)
	return array
}

func (p *parser) parseArgs() []*ast.Arg {
	p.expect("(")
	var args []*ast.Arg

	//first-class callable syntax: f(...)
	if p.atKw("...") && p.peekAt(1).is(")") {
		p.advance()
		p.advance()
		return nil
	}

	for !p.atKw(")") {
		tok := p.peek()
		arg := &ast.Arg{}
		p.init(arg, tok)

		if tok.Type == IDENT && p.peekAt(1).is(":") {
			arg.Name = tok.Value
			p.advance()
			p.advance()
		}
		arg.Unpack = p.accept("...")
		arg.Value = p.parseExpr()
		p.end(arg)
		args = append(args, arg)

		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return args
}

func (p *parser) parseNew() ast.Expr {
	tok := p.advance()
	newExpr := &ast.New{}
	p.init(newExpr, tok)

	if p.atKw("class") { //anonymous class
		classTok := p.advance()
		class := &ast.ClassDecl{}
		p.init(class, classTok)
		name := &ast.Name{Value: "class@anonymous"}
		p.init(name, classTok)
		newExpr.Class = name
		if p.atKw("(") {
			newExpr.Args = p.parseArgs()
		}
		p.parseClassHeaderAndBody(class)
		p.end(class)
		newExpr.AnonymousClass = class
		p.end(newExpr)
		return newExpr
	}

	newExpr.Class = p.parseClassReference()
	if p.atKw("(") {
		newExpr.Args = p.parseArgs()
	}
	p.end(newExpr)
	return newExpr
}

func (p *parser) parseClosure(static bool) ast.Expr {
	tok := p.expect("function")
	closure := &ast.Closure{Static: static}
	p.init(closure, tok)
	closure.ByRefRet = p.accept("&")
	closure.Params = p.parseParams()

	if p.accept("use") {
		p.expect("(")
		for !p.atKw(")") {
			use := &ast.ClosureUse{}
			p.init(use, p.peek())
			use.ByRef = p.accept("&")
			use.Var = p.parseVariable()
			p.end(use)
			closure.Uses = append(closure.Uses, use)
			if !p.accept(",") {
				break
			}
		}
		p.expect(")")
	}

	if p.accept(":") {
		closure.ReturnType = p.parseTypeHint()
	}
	closure.Body = p.parseBlock()
	p.end(closure)
	return closure
}

func (p *parser) parseArrowFunction(static bool) ast.Expr {
	tok := p.expect("fn")
	arrowFn := &ast.ArrowFunction{Static: static}
	p.init(arrowFn, tok)
	p.accept("&")
	arrowFn.Params = p.parseParams()
	if p.accept(":") {
		arrowFn.ReturnType = p.parseTypeHint()
	}
	p.expect("=>")
	arrowFn.Expr = p.parseBinary(assignmentPrecedence)
	p.end(arrowFn)
	return arrowFn
}

// parsePostfix parses the accesses, calls and assignments following expr.
func (p *parser) parsePostfix(expr ast.Expr, allowAssignment bool) ast.Expr {
	for {
		tok := p.peek()
		if tok.Type != PUNCT {
			return expr
		}

		switch tok.Value {
		case "[":
			p.advance()
			fetch := &ast.ArrayDimFetch{Var: expr}
			p.initAt(fetch, expr)
			if !p.atKw("]") {
				fetch.Dim = p.parseExpr()
			}
			p.expect("]")
			p.end(fetch)
			expr = fetch
		case "->", "?->", "::":
			expr = p.parseMemberAccess(expr, true)
		case "(":
			call := &ast.FuncCall{Name: expr}
			p.initAt(call, expr)
			call.Args = p.parseArgs()
			p.end(call)
			expr = call
		case "++", "--":
			p.advance()
			incDec := &ast.IncDec{Var: expr, Inc: tok.Value == "++"}
			p.initAt(incDec, expr)
			p.end(incDec)
			expr = incDec
		case "=":
			if !allowAssignment {
				return expr
			}
			p.advance()
			assign := &ast.Assign{Var: toAssignmentTarget(expr)}
			p.initAt(assign, expr)
			if p.accept("&") {
				assign.ByRef = true
			}
			assign.Expr = p.parseBinary(assignmentPrecedence)
			p.end(assign)
			return assign
		default:
			op, ok := assignmentOperators[tok.Value]
			if !ok || !allowAssignment {
				return expr
			}
			p.advance()
			assignOp := &ast.AssignOp{Op: op, Var: expr}
			p.initAt(assignOp, expr)
			assignOp.Expr = p.parseBinary(assignmentPrecedence)
			p.end(assignOp)
			return assignOp
		}
	}
}

// toAssignmentTarget converts an array literal on the left side of an assignment into a destructuring.
func toAssignmentTarget(expr ast.Expr) ast.Expr {
	array, ok := expr.(*ast.ArrayLiteral)
	if !ok {
		return expr
	}
	list := &ast.ListExpr{Items: array.Items}
	list.NodeBase = array.NodeBase
	return list
}

// parseMemberAccess parses a single ->, ?-> or :: access, calls are only parsed if allowCalls is true.
func (p *parser) parseMemberAccess(left ast.Expr, allowCalls bool) ast.Expr {
	opTok := p.advance()

	if opTok.is("::") {
		nameTok := p.peek()

		switch {
		case nameTok.Type == VARIABLE:
			p.advance()
			fetch := &ast.StaticPropertyFetch{Class: left, Name: nameTok.Value}
			p.initAt(fetch, left)
			p.end(fetch)
			return fetch
		case nameTok.Type == IDENT:
			name := p.parseIdentifier()
			if allowCalls && p.atKw("(") {
				call := &ast.StaticCall{Class: left, Name: name}
				p.initAt(call, left)
				call.Args = p.parseArgs()
				p.end(call)
				return call
			}
			fetch := &ast.ClassConstFetch{Class: left, Name: name}
			p.initAt(fetch, left)
			p.end(fetch)
			return fetch
		}
		p.fail(nameTok, "unexpected %s after '::'", nameTok)
	}

	nullSafe := opTok.is("?->")
	var name ast.Expr
	nameTok := p.peek()

	switch {
	case nameTok.Type == IDENT:
		name = p.parseIdentifier()
	case nameTok.Type == VARIABLE:
		name = p.parseVariable()
	case nameTok.is("{"):
		p.advance()
		name = p.parseExpr()
		p.expect("}")
	default:
		p.fail(nameTok, "unexpected %s after '%s'", nameTok, opTok.Value)
	}

	if allowCalls && p.atKw("(") {
		call := &ast.MethodCall{Var: left, Name: name, NullSafe: nullSafe}
		p.initAt(call, left)
		call.Args = p.parseArgs()
		p.end(call)
		return call
	}

	fetch := &ast.PropertyFetch{Var: left, Name: name, NullSafe: nullSafe}
	p.initAt(fetch, left)
	p.end(fetch)
	return fetch
}
