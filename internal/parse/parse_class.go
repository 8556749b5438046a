package parse

import (
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
)

func (p *parser) parseName() *ast.Name {
	tok := p.expectType(IDENT)
	name := &ast.Name{}
	p.init(name, tok)
	name.FullyQualified = strings.HasPrefix(tok.Value, "\\")
	name.Value = strings.TrimPrefix(tok.Value, "\\")

	//namespace\Foo (relative name)
	if strings.HasPrefix(strings.ToLower(name.Value), "namespace\\") {
		name.Value = name.Value[len("namespace\\"):]
	}

	//group use prefix: A\B\{...}
	if p.atKw("\\") && p.peekAt(1).is("{") {
		p.advance()
		name.Value += "\\"
	}
	return name
}

// parseIdentifier parses an identifier, keywords are allowed since they are valid member names.
func (p *parser) parseIdentifier() *ast.Identifier {
	tok := p.expectType(IDENT)
	ident := &ast.Identifier{Value: tok.Value}
	p.init(ident, tok)
	return ident
}

func (p *parser) parseVariable() *ast.Variable {
	tok := p.expectType(VARIABLE)
	variable := &ast.Variable{Name: tok.Value}
	p.init(variable, tok)
	return variable
}

func (p *parser) parseClassDecl() ast.Stmt {
	tok := p.peek()
	class := &ast.ClassDecl{}
	p.init(class, tok)

	for {
		switch {
		case p.accept("abstract"):
			class.Modifiers.Abstract = true
			continue
		case p.accept("final"):
			class.Modifiers.Final = true
			continue
		case p.accept("readonly"):
			class.Modifiers.Readonly = true
			continue
		}
		break
	}

	switch kindTok := p.advance(); {
	case kindTok.is("class"):
		class.ClassKind = ast.ClassKindClass
	case kindTok.is("interface"):
		class.ClassKind = ast.ClassKindInterface
	case kindTok.is("trait"):
		class.ClassKind = ast.ClassKindTrait
	case kindTok.is("enum"):
		class.ClassKind = ast.ClassKindClass
		class.Modifiers.Final = true
		class.Name = p.parseIdentifier()
		if p.accept(":") { //backed enum
			p.parseTypeHint()
		}
		p.parseClassHeaderAndBody(class)
		p.end(class)
		return class
	default:
		p.fail(kindTok, "expected 'class', 'interface' or 'trait' but got %s", kindTok)
	}

	class.Name = p.parseIdentifier()
	p.parseClassHeaderAndBody(class)
	p.end(class)
	return class
}

func (p *parser) parseClassHeaderAndBody(class *ast.ClassDecl) {
	if p.accept("extends") {
		for {
			class.Extends = append(class.Extends, p.parseName())
			if class.ClassKind != ast.ClassKindInterface || !p.accept(",") {
				break
			}
		}
	}
	if p.accept("implements") {
		for {
			class.Implements = append(class.Implements, p.parseName())
			if !p.accept(",") {
				break
			}
		}
	}

	p.expect("{")
	for !p.atKw("}") {
		if p.at(EOF) {
			p.fail(p.peek(), "unterminated class body")
		}
		p.parseClassMember(class)
	}
	p.expect("}")
}

func (p *parser) parseModifiers() (ast.Modifiers, bool) {
	var modifiers ast.Modifiers
	found := false

	for {
		tok := p.peek()
		switch {
		case tok.is("public"), tok.is("protected"), tok.is("private"):
			modifiers.Visibility = strings.ToLower(tok.Value)
		case tok.is("static"):
			modifiers.Static = true
		case tok.is("abstract"):
			modifiers.Abstract = true
		case tok.is("final"):
			modifiers.Final = true
		case tok.is("readonly"):
			modifiers.Readonly = true
		case tok.is("var"):
			modifiers.Visibility = "public"
		default:
			return modifiers, found
		}
		found = true
		p.advance()
	}
}

func (p *parser) parseClassMember(class *ast.ClassDecl) {
	tok := p.peek()

	if tok.is("use") {
		p.advance()
		for {
			class.TraitUses = append(class.TraitUses, p.parseName())
			if !p.accept(",") {
				break
			}
		}
		if p.atKw("{") { //conflict resolution block
			p.skipBalanced("{", "}")
		} else {
			p.endStatement()
		}
		return
	}

	modifiers, _ := p.parseModifiers()

	switch {
	case p.atKw("const"):
		p.advance()
		//typed constant: const string A = ''
		if p.peekAt(1).Type == IDENT {
			p.parseTypeHint()
		}
		for {
			c := &ast.ClassConst{}
			p.init(c, p.peek())
			c.Name = p.parseIdentifier()
			p.expect("=")
			c.Value = p.parseExpr()
			p.end(c)
			class.Constants = append(class.Constants, c)
			if !p.accept(",") {
				break
			}
		}
		p.endStatement()
	case p.atKw("function"):
		class.Methods = append(class.Methods, p.parseMethod(modifiers))
	case p.atKw("case"): //enum case
		p.advance()
		p.parseIdentifier()
		if p.accept("=") {
			p.parseExpr()
		}
		p.endStatement()
	default:
		var typ ast.TypeHint
		if !p.at(VARIABLE) {
			typ = p.parseTypeHint()
		}
		for {
			propTok := p.peek()
			prop := &ast.Property{Type: typ, Modifiers: modifiers}
			p.init(prop, propTok)
			prop.Name = p.expectType(VARIABLE).Value
			if p.accept("=") {
				prop.Default = p.parseExpr()
			}
			p.end(prop)
			class.Properties = append(class.Properties, prop)
			if !p.accept(",") {
				break
			}
		}
		p.endStatement()
	}
}

func (p *parser) skipBalanced(open, close string) {
	depth := 0
	for {
		tok := p.advance()
		switch {
		case tok.Type == EOF:
			p.fail(tok, "unterminated '%s'", open)
		case tok.is(open):
			depth++
		case tok.is(close):
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) parseMethod(modifiers ast.Modifiers) *ast.Method {
	tok := p.expect("function")
	method := &ast.Method{Modifiers: modifiers}
	p.init(method, tok)
	method.ByRefRet = p.accept("&")
	method.Name = p.parseIdentifier()
	method.Params = p.parseParams()
	if p.accept(":") {
		method.ReturnType = p.parseTypeHint()
	}
	if p.atKw("{") {
		method.Body = p.parseBlock()
	} else {
		p.endStatement()
	}
	p.end(method)
	return method
}

func (p *parser) parseParams() []*ast.Param {
	p.expect("(")
	var params []*ast.Param

	for !p.atKw(")") {
		tok := p.peek()
		param := &ast.Param{}
		p.init(param, tok)

		if modifiers, found := p.parseModifiers(); found {
			param.Promoted = &modifiers
		}
		if !p.at(VARIABLE) && !p.atKw("&") && !p.atKw("...") {
			param.Type = p.parseTypeHint()
		}
		param.ByRef = p.accept("&")
		param.Variadic = p.accept("...")
		param.Name = p.expectType(VARIABLE).Value
		if p.accept("=") {
			param.Default = p.parseExpr()
		}
		p.end(param)
		params = append(params, param)

		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return params
}

// parseTypeHint parses a declared type: ?T, A|B, A&B or (A&B)|null.
func (p *parser) parseTypeHint() ast.TypeHint {
	tok := p.peek()

	if p.accept("?") {
		nullable := &ast.NullableTypeHint{}
		p.init(nullable, tok)
		nullable.Inner = p.parseSimpleTypeHint()
		p.end(nullable)
		return nullable
	}

	first := p.parseIntersectionTypeHint()
	if !p.atKw("|") {
		return first
	}

	union := &ast.UnionTypeHint{Types: []ast.TypeHint{first}}
	p.init(union, tok)
	for p.accept("|") {
		union.Types = append(union.Types, p.parseIntersectionTypeHint())
	}
	p.end(union)
	return union
}

func (p *parser) parseIntersectionTypeHint() ast.TypeHint {
	tok := p.peek()

	if p.accept("(") {
		hint := p.parseIntersectionTypeHint()
		p.expect(")")
		return hint
	}

	first := p.parseSimpleTypeHint()

	//'&' followed by a variable or '...' is a by-reference parameter, not an intersection.
	isIntersection := func() bool {
		next := p.peekAt(1)
		return p.atKw("&") && next.Type == IDENT
	}
	if !isIntersection() {
		return first
	}

	intersection := &ast.IntersectionTypeHint{Types: []ast.TypeHint{first}}
	p.init(intersection, tok)
	for isIntersection() {
		p.advance()
		intersection.Types = append(intersection.Types, p.parseSimpleTypeHint())
	}
	p.end(intersection)
	return intersection
}

func (p *parser) parseSimpleTypeHint() ast.TypeHint {
	tok := p.peek()
	if tok.Type != IDENT {
		p.fail(tok, "expected a type but got %s", tok)
	}
	p.advance()

	hint := &ast.NamedTypeHint{
		Name:           strings.TrimPrefix(tok.Value, "\\"),
		FullyQualified: strings.HasPrefix(tok.Value, "\\"),
	}
	p.init(hint, tok)
	return hint
}
