package types

import (
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
)

// Parse parses the textual form of a type: Foo, ?Foo, A|B, A&B, (A&B)|null, Foo[].
// The text "unknown" yields the unknown type.
func Parse(text string) (Type, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyTypeText
	}
	if text == "unknown" {
		return nil, nil
	}

	p := &typeParser{text: text}
	t, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.i < len(p.text) {
		return nil, fmtInvalidTypeText(text, p.i, "unexpected character")
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) Type {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	text string
	i    int
}

func (p *typeParser) skipSpace() {
	for p.i < len(p.text) && p.text[p.i] == ' ' {
		p.i++
	}
}

func (p *typeParser) accept(c byte) bool {
	p.skipSpace()
	if p.i < len(p.text) && p.text[p.i] == c {
		p.i++
		return true
	}
	return false
}

func (p *typeParser) parseUnion() (Type, error) {
	first, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	members := []Type{first}

	for p.accept('|') {
		member, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if len(members) == 1 {
		return first, nil
	}
	return NewUnion(members...), nil
}

func (p *typeParser) parseIntersection() (Type, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	components := []Type{first}

	for p.accept('&') {
		component, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		components = append(components, component)
	}
	if len(components) == 1 {
		return first, nil
	}
	return NewIntersection(components...), nil
}

func (p *typeParser) parseAtom() (Type, error) {
	if p.accept('?') {
		inner, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return NewNullable(inner), nil
	}

	if p.accept('(') {
		inner, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		if !p.accept(')') {
			return nil, fmtInvalidTypeText(p.text, p.i, "missing ')'")
		}
		return inner, nil
	}

	p.skipSpace()
	start := p.i
	for p.i < len(p.text) && isTypeNameChar(p.text[p.i]) {
		p.i++
	}
	for strings.HasPrefix(p.text[p.i:], "[]") {
		p.i += 2
	}
	if start == p.i {
		return nil, fmtInvalidTypeText(p.text, p.i, "expected a type name")
	}
	return Intern(p.text[start:p.i]), nil
}

func isTypeNameChar(c byte) bool {
	return c == '_' || c == '\\' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}

// FromHint converts a declared type to a Type, builtin names are lowercased.
// resolveClass is applied to class-like names and to self, static and parent, it can be nil.
func FromHint(hint ast.TypeHint, resolveClass func(name string) string) Type {
	switch h := hint.(type) {
	case nil:
		return nil
	case *ast.NamedTypeHint:
		name := strings.TrimPrefix(h.Name, "\\")
		switch lower := strings.ToLower(name); lower {
		case "self", "static", "parent":
			if resolveClass != nil {
				return Intern(resolveClass(lower))
			}
		}
		if IsBuiltinName(name) {
			return Intern(strings.ToLower(name))
		}
		if resolveClass != nil && !h.FullyQualified {
			name = resolveClass(name)
		}
		return Intern(name)
	case *ast.NullableTypeHint:
		return NewNullable(FromHint(h.Inner, resolveClass))
	case *ast.UnionTypeHint:
		members := make([]Type, 0, len(h.Types))
		for _, member := range h.Types {
			members = append(members, FromHint(member, resolveClass))
		}
		return NewUnion(members...)
	case *ast.IntersectionTypeHint:
		components := make([]Type, 0, len(h.Types))
		for _, component := range h.Types {
			components = append(components, FromHint(component, resolveClass))
		}
		return NewIntersection(components...)
	}
	panic(fmtUnexpectedHint(hint))
}
