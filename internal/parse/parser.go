package parse

import (
	"errors"
	"fmt"
	"os"

	"github.com/inoxlang/phpcheck/internal/ast"
)

var (
	ErrEmptyPath = errors.New("empty path")
)

// ParsingError is returned when the source cannot be parsed, parsing stops at the first error.
type ParsingError struct {
	Message string
	Line    int
	Pos     int32
}

func newParsingError(line int, pos int32, format string, args ...any) *ParsingError {
	return &ParsingError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Pos:     pos,
	}
}

func (err *ParsingError) Error() string {
	return fmt.Sprintf("line %d: %s", err.Line, err.Message)
}

type parser struct {
	path   string
	tokens []Token
	i      int
	nextID ast.NodeID
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*ast.File, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, src)
}

// Parse parses src, path is only used to fill the Path field of the returned file.
func Parse(path string, src []byte) (file *ast.File, finalErr error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{
		path:   path,
		tokens: tokens,
		nextID: 1,
	}

	defer func() {
		if v := recover(); v != nil {
			parsingErr, ok := v.(*ParsingError)
			if !ok {
				panic(v)
			}
			file = nil
			finalErr = parsingErr
		}
	}()

	file = &ast.File{Path: path}
	p.init(file, p.peek())

	for !p.at(EOF) {
		if stmt := p.parseTopStatement(); stmt != nil {
			file.Statements = append(file.Statements, stmt)
		}
	}
	file.NodeCount = int(p.nextID - 1)
	return file, nil
}

// MustParse parses src and panics on error, it is intended for tests.
func MustParse(src string) *ast.File {
	file, err := Parse("", []byte(src))
	if err != nil {
		panic(err)
	}
	return file
}

// ==================== low level ====================

func (p *parser) init(node ast.Node, tok Token) {
	base := node.Base()
	base.ID = p.nextID
	base.Line = tok.Line
	base.Span = ast.NodeSpan{Start: tok.Start, End: tok.End}
	p.nextID++
}

func (p *parser) end(node ast.Node) {
	if p.i > 0 {
		node.Base().Span.End = p.tokens[p.i-1].End
	}
}

func (p *parser) peek() Token {
	return p.tokens[p.i]
}

func (p *parser) peekAt(offset int) Token {
	if p.i+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.i+offset]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.i]
	if tok.Type != EOF {
		p.i++
	}
	return tok
}

func (p *parser) at(typ TokenType) bool {
	return p.tokens[p.i].Type == typ
}

func (p *parser) atKw(s string) bool {
	return p.tokens[p.i].is(s)
}

func (p *parser) accept(s string) bool {
	if p.tokens[p.i].is(s) {
		p.i++
		return true
	}
	return false
}

func (p *parser) expect(s string) Token {
	tok := p.peek()
	if !tok.is(s) {
		p.fail(tok, "expected '%s' but got %s", s, tok)
	}
	return p.advance()
}

func (p *parser) expectType(typ TokenType) Token {
	tok := p.peek()
	if tok.Type != typ {
		p.fail(tok, "expected %s but got %s", typ, tok)
	}
	return p.advance()
}

func (p *parser) fail(tok Token, format string, args ...any) {
	panic(newParsingError(tok.Line, tok.Start, format, args...))
}

// endStatement consumes the ';' terminating a statement, the end of file is accepted as well.
func (p *parser) endStatement() {
	if p.at(EOF) {
		return
	}
	p.expect(";")
}

// ==================== statements ====================

func (p *parser) parseTopStatement() ast.Stmt {
	tok := p.peek()

	switch {
	case tok.is("namespace") && !p.peekAt(1).is("\\"):
		return p.parseNamespace()
	case tok.is("use"):
		return p.parseUse()
	}
	return p.parseStatement()
}

func (p *parser) parseNamespace() ast.Stmt {
	tok := p.advance()
	ns := &ast.Namespace{}
	p.init(ns, tok)

	if p.at(IDENT) {
		ns.Name = p.parseName()
	}

	if p.accept("{") {
		ns.Braced = true
		for !p.atKw("}") && !p.at(EOF) {
			if stmt := p.parseTopStatement(); stmt != nil {
				ns.Statements = append(ns.Statements, stmt)
			}
		}
		p.expect("}")
	} else {
		p.endStatement()
	}
	p.end(ns)
	return ns
}

func (p *parser) parseUse() ast.Stmt {
	tok := p.advance()
	use := &ast.UseStmt{}
	p.init(use, tok)

	//use function ... / use const ...
	if (p.atKw("function") || p.atKw("const")) && p.peekAt(1).Type == IDENT {
		p.advance()
	}

	for {
		itemTok := p.peek()
		item := &ast.UseItem{}
		p.init(item, itemTok)
		item.Name = p.parseName()

		if p.accept("{") { //group use: use A\{B, C as D};
			prefix := item.Name.Value
			for !p.atKw("}") {
				groupItem := &ast.UseItem{}
				p.init(groupItem, p.peek())
				groupItem.Name = p.parseName()
				groupItem.Name.Value = prefix + groupItem.Name.Value
				if p.accept("as") {
					groupItem.Alias = p.expectType(IDENT).Value
				}
				use.Items = append(use.Items, groupItem)
				if !p.accept(",") {
					break
				}
			}
			p.expect("}")
		} else {
			if p.accept("as") {
				item.Alias = p.expectType(IDENT).Value
			}
			use.Items = append(use.Items, item)
		}

		if !p.accept(",") {
			break
		}
	}
	p.endStatement()
	p.end(use)
	return use
}

func (p *parser) parseStatement() ast.Stmt {
	tok := p.peek()

	if tok.Type == PUNCT {
		switch tok.Value {
		case "{":
			return p.parseBlock()
		case ";":
			p.advance()
			nop := &ast.Nop{}
			p.init(nop, tok)
			return nop
		}
	}

	if tok.Type == IDENT {
		next := p.peekAt(1)

		switch {
		case tok.is("if"):
			return p.parseIf()
		case tok.is("while"):
			return p.parseWhile()
		case tok.is("do"):
			return p.parseDoWhile()
		case tok.is("for"):
			return p.parseFor()
		case tok.is("foreach"):
			return p.parseForeach()
		case tok.is("switch"):
			return p.parseSwitch()
		case tok.is("break"), tok.is("continue"):
			return p.parseBreakContinue()
		case tok.is("return"):
			return p.parseReturn()
		case tok.is("throw"):
			p.advance()
			throw := &ast.Throw{}
			p.init(throw, tok)
			throw.Expr = p.parseExpr()
			p.endStatement()
			p.end(throw)
			return throw
		case tok.is("try"):
			return p.parseTry()
		case tok.is("global"):
			return p.parseGlobal()
		case tok.is("static") && next.Type == VARIABLE:
			return p.parseStaticVars()
		case tok.is("echo"):
			p.advance()
			echo := &ast.Echo{}
			p.init(echo, tok)
			for {
				echo.Exprs = append(echo.Exprs, p.parseExpr())
				if !p.accept(",") {
					break
				}
			}
			p.endStatement()
			p.end(echo)
			return echo
		case tok.is("unset") && next.is("("):
			return p.parseUnset()
		case tok.is("declare") && next.is("("):
			return p.parseDeclare()
		case tok.is("function") && (next.Type == IDENT || (next.is("&") && p.peekAt(2).Type == IDENT)):
			return p.parseFunctionDecl()
		case tok.is("abstract"), tok.is("final"), tok.is("class"), tok.is("interface"), tok.is("trait"),
			tok.is("readonly") && (next.is("class") || next.is("final") || next.is("abstract")):
			if tok.is("class") && next.Type != IDENT {
				break
			}
			return p.parseClassDecl()
		case tok.is("enum") && next.Type == IDENT:
			return p.parseClassDecl()
		case tok.is("const") && next.Type == IDENT:
			return p.parseConstStatement()
		case tok.is("namespace") && !next.is("\\"):
			return p.parseNamespace()
		case tok.is("use") && next.Type == IDENT:
			return p.parseUse()
		}
	}

	stmt := &ast.ExprStmt{}
	p.init(stmt, tok)
	stmt.Expr = p.parseExpr()
	p.endStatement()
	p.end(stmt)
	return stmt
}

func (p *parser) parseBlock() *ast.Block {
	tok := p.expect("{")
	block := &ast.Block{}
	p.init(block, tok)

	for !p.atKw("}") {
		if p.at(EOF) {
			p.fail(p.peek(), "unterminated block")
		}
		block.Statements = append(block.Statements, p.parseStatement())
	}
	p.expect("}")
	p.end(block)
	return block
}

// parseBody parses the body of a control structure, a single statement is wrapped in a block.
func (p *parser) parseBody() *ast.Block {
	if p.atKw("{") {
		return p.parseBlock()
	}
	tok := p.peek()
	block := &ast.Block{}
	p.init(block, tok)
	block.Statements = []ast.Stmt{p.parseStatement()}
	p.end(block)
	return block
}

func (p *parser) parseParenExpr() ast.Expr {
	p.expect("(")
	expr := p.parseExpr()
	p.expect(")")
	return expr
}

func (p *parser) parseIf() ast.Stmt {
	tok := p.advance()
	ifStmt := &ast.If{}
	p.init(ifStmt, tok)
	ifStmt.Cond = p.parseParenExpr()
	ifStmt.Then = p.parseBody()

	for {
		elseTok := p.peek()
		isElseIf := elseTok.is("elseif") || (elseTok.is("else") && p.peekAt(1).is("if"))
		if !isElseIf {
			break
		}
		p.advance()
		if elseTok.is("else") {
			p.advance()
		}
		elseIf := &ast.ElseIf{}
		p.init(elseIf, elseTok)
		elseIf.Cond = p.parseParenExpr()
		elseIf.Body = p.parseBody()
		p.end(elseIf)
		ifStmt.ElseIfs = append(ifStmt.ElseIfs, elseIf)
	}

	if elseTok := p.peek(); elseTok.is("else") {
		p.advance()
		elseNode := &ast.Else{}
		p.init(elseNode, elseTok)
		elseNode.Body = p.parseBody()
		p.end(elseNode)
		ifStmt.Else = elseNode
	}

	p.end(ifStmt)
	return ifStmt
}

func (p *parser) parseWhile() ast.Stmt {
	tok := p.advance()
	while := &ast.While{}
	p.init(while, tok)
	while.Cond = p.parseParenExpr()
	while.Body = p.parseBody()
	p.end(while)
	return while
}

func (p *parser) parseDoWhile() ast.Stmt {
	tok := p.advance()
	doWhile := &ast.DoWhile{}
	p.init(doWhile, tok)
	doWhile.Body = p.parseBody()
	p.expect("while")
	doWhile.Cond = p.parseParenExpr()
	p.endStatement()
	p.end(doWhile)
	return doWhile
}

func (p *parser) parseExprList(end string) []ast.Expr {
	var exprs []ast.Expr
	for !p.atKw(end) {
		exprs = append(exprs, p.parseExpr())
		if !p.accept(",") {
			break
		}
	}
	return exprs
}

func (p *parser) parseFor() ast.Stmt {
	tok := p.advance()
	forStmt := &ast.For{}
	p.init(forStmt, tok)
	p.expect("(")
	forStmt.Init = p.parseExprList(";")
	p.expect(";")
	forStmt.Cond = p.parseExprList(";")
	p.expect(";")
	forStmt.Loop = p.parseExprList(")")
	p.expect(")")
	forStmt.Body = p.parseBody()
	p.end(forStmt)
	return forStmt
}

func (p *parser) parseForeach() ast.Stmt {
	tok := p.advance()
	foreach := &ast.Foreach{}
	p.init(foreach, tok)
	p.expect("(")
	foreach.Expr = p.parseExpr()
	p.expect("as")

	first, firstByRef := p.parseForeachTarget()
	if p.accept("=>") {
		foreach.Key = first
		foreach.Value, foreach.ByRef = p.parseForeachTarget()
	} else {
		foreach.Value, foreach.ByRef = first, firstByRef
	}
	p.expect(")")
	foreach.Body = p.parseBody()
	p.end(foreach)
	return foreach
}

func (p *parser) parseForeachTarget() (ast.Expr, bool) {
	byRef := p.accept("&")
	return toAssignmentTarget(p.parseUnary()), byRef
}

func (p *parser) parseSwitch() ast.Stmt {
	tok := p.advance()
	switchStmt := &ast.Switch{}
	p.init(switchStmt, tok)
	switchStmt.Subject = p.parseParenExpr()
	p.expect("{")

	for !p.atKw("}") {
		caseTok := p.peek()
		caseNode := &ast.Case{}
		p.init(caseNode, caseTok)

		switch {
		case p.accept("case"):
			caseNode.Cond = p.parseExpr()
		case p.accept("default"):
		default:
			p.fail(caseTok, "expected 'case' or 'default' but got %s", caseTok)
		}
		if !p.accept(":") {
			p.expect(";")
		}

		for !p.atKw("case") && !p.atKw("default") && !p.atKw("}") {
			if p.at(EOF) {
				p.fail(p.peek(), "unterminated switch")
			}
			caseNode.Body = append(caseNode.Body, p.parseStatement())
		}
		p.end(caseNode)
		switchStmt.Cases = append(switchStmt.Cases, caseNode)
	}
	p.expect("}")
	p.end(switchStmt)
	return switchStmt
}

func (p *parser) parseBreakContinue() ast.Stmt {
	tok := p.advance()
	levels := 1
	if p.at(INT) {
		fmt.Sscanf(p.advance().Value, "%d", &levels)
	}
	p.endStatement()

	if tok.is("break") {
		node := &ast.Break{Levels: levels}
		p.init(node, tok)
		return node
	}
	node := &ast.Continue{Levels: levels}
	p.init(node, tok)
	return node
}

func (p *parser) parseReturn() ast.Stmt {
	tok := p.advance()
	ret := &ast.Return{}
	p.init(ret, tok)
	if !p.atKw(";") && !p.at(EOF) {
		ret.Expr = p.parseExpr()
	}
	p.endStatement()
	p.end(ret)
	return ret
}

func (p *parser) parseTry() ast.Stmt {
	tok := p.advance()
	try := &ast.Try{}
	p.init(try, tok)
	try.Body = p.parseBlock()

	for p.atKw("catch") {
		catchTok := p.advance()
		catch := &ast.Catch{}
		p.init(catch, catchTok)
		p.expect("(")
		for {
			catch.Types = append(catch.Types, p.parseName())
			if !p.accept("|") {
				break
			}
		}
		if p.at(VARIABLE) {
			catch.Var = p.parseVariable()
		}
		p.expect(")")
		catch.Body = p.parseBlock()
		p.end(catch)
		try.Catches = append(try.Catches, catch)
	}

	if p.accept("finally") {
		try.Finally = p.parseBlock()
	}
	if len(try.Catches) == 0 && try.Finally == nil {
		p.fail(tok, "try without catch or finally")
	}
	p.end(try)
	return try
}

func (p *parser) parseGlobal() ast.Stmt {
	tok := p.advance()
	global := &ast.Global{}
	p.init(global, tok)
	for {
		global.Vars = append(global.Vars, p.parseVariable())
		if !p.accept(",") {
			break
		}
	}
	p.endStatement()
	p.end(global)
	return global
}

func (p *parser) parseStaticVars() ast.Stmt {
	tok := p.advance()
	static := &ast.StaticVars{}
	p.init(static, tok)
	for {
		item := &ast.StaticVarItem{}
		p.init(item, p.peek())
		item.Var = p.parseVariable()
		if p.accept("=") {
			item.Default = p.parseExpr()
		}
		p.end(item)
		static.Vars = append(static.Vars, item)
		if !p.accept(",") {
			break
		}
	}
	p.endStatement()
	p.end(static)
	return static
}

func (p *parser) parseUnset() ast.Stmt {
	tok := p.advance()
	unset := &ast.Unset{}
	p.init(unset, tok)
	p.expect("(")
	unset.Vars = p.parseExprList(")")
	p.expect(")")
	p.endStatement()
	p.end(unset)
	return unset
}

func (p *parser) parseDeclare() ast.Stmt {
	tok := p.advance()
	declare := &ast.Declare{}
	p.init(declare, tok)
	p.expect("(")
	for !p.atKw(")") {
		directive := &ast.DeclareDirective{}
		nameTok := p.expectType(IDENT)
		p.init(directive, nameTok)
		directive.Name = nameTok.Value
		p.expect("=")
		directive.Value = p.parseExpr()
		declare.Directives = append(declare.Directives, directive)
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")

	if p.atKw("{") {
		declare.Body = p.parseBlock()
	} else {
		p.endStatement()
	}
	p.end(declare)
	return declare
}

// parseConstStatement parses a top level `const A = 1, B = 2;` statement, it is represented as an
// expression statement per constant so that the values are still evaluated.
func (p *parser) parseConstStatement() ast.Stmt {
	tok := p.advance()
	block := &ast.Block{}
	p.init(block, tok)

	for {
		nameTok := p.expectType(IDENT)
		p.expect("=")
		stmt := &ast.ExprStmt{}
		p.init(stmt, nameTok)
		stmt.Expr = p.parseExpr()
		block.Statements = append(block.Statements, stmt)
		if !p.accept(",") {
			break
		}
	}
	p.endStatement()
	p.end(block)
	return block
}

func (p *parser) parseFunctionDecl() ast.Stmt {
	tok := p.advance()
	fn := &ast.FunctionDecl{}
	p.init(fn, tok)
	fn.ByRefRet = p.accept("&")
	fn.Name = p.parseIdentifier()
	fn.Params = p.parseParams()
	if p.accept(":") {
		fn.ReturnType = p.parseTypeHint()
	}
	fn.Body = p.parseBlock()
	p.end(fn)
	return fn
}
