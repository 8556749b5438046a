package types

import (
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	_ = []Type{(*Named)(nil), (*Nullable)(nil), (*Union)(nil), (*Intersection)(nil)}

	interned = cmap.New[*Named]()

	Mixed    = Intern("mixed")
	Null     = Intern("null")
	Int      = Intern("int")
	Float    = Intern("float")
	String   = Intern("string")
	Bool     = Intern("bool")
	True     = Intern("true")
	False    = Intern("false")
	Array    = Intern("array")
	Scalar   = Intern("scalar")
	Callable = Intern("callable")
	Object   = Intern("object")
	Void     = Intern("void")
	Iterable = Intern("iterable")
	Closure  = Intern("Closure")
)

// A Type is the inferred or declared type of a value. The nil Type represents the absence of
// information (unknown) and is distinct from Mixed.
type Type interface {
	String() string
	typ()
}

// Named is a plain type name: a builtin type (int, mixed, ...), a class-like name or an
// array of a type (Foo[]).
type Named struct {
	Name string
}

// Nullable is ?Inner, Inner is never nil, null or nullable.
type Nullable struct {
	Inner Type
}

// Union is a flattened set of at least two alternatives, a union never contains a union.
type Union struct {
	Types []Type
}

// Intersection is a flattened set of at least two components that a value must all satisfy.
type Intersection struct {
	Types []Type
}

func (*Named) typ()        {}
func (*Nullable) typ()     {}
func (*Union) typ()        {}
func (*Intersection) typ() {}

func (t *Named) String() string {
	return t.Name
}

func (t *Nullable) String() string {
	if _, ok := t.Inner.(*Intersection); ok {
		return "(" + t.Inner.String() + ")|null"
	}
	return "?" + t.Inner.String()
}

func (t *Union) String() string {
	buf := strings.Builder{}
	for i, member := range t.Types {
		if i > 0 {
			buf.WriteByte('|')
		}
		if _, ok := member.(*Intersection); ok {
			buf.WriteByte('(')
			buf.WriteString(member.String())
			buf.WriteByte(')')
		} else {
			buf.WriteString(member.String())
		}
	}
	return buf.String()
}

func (t *Intersection) String() string {
	buf := strings.Builder{}
	for i, member := range t.Types {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(member.String())
	}
	return buf.String()
}

// Intern returns the canonical *Named for name, it is safe for concurrent use.
func Intern(name string) *Named {
	if t, ok := interned.Get(name); ok {
		return t
	}
	t := &Named{Name: name}
	if interned.SetIfAbsent(name, t) {
		return t
	}
	t, _ = interned.Get(name)
	return t
}

// Stringify returns the textual form of t, "unknown" for the nil type.
func Stringify(t Type) string {
	if t == nil {
		return "unknown"
	}
	return t.String()
}

// NewNullable returns ?t, the result is normalized: ?null is null, ??T is ?T and a nullable
// union becomes a union containing null.
func NewNullable(t Type) Type {
	switch t := t.(type) {
	case nil:
		return nil
	case *Nullable:
		return t
	case *Named:
		if IsNull(t) || IsMixed(t) {
			return t
		}
		return &Nullable{Inner: t}
	case *Intersection:
		return &Nullable{Inner: t}
	case *Union:
		if ContainsNull(t) {
			return t
		}
		return NewUnion(t, Null)
	}
	panic(fmtUnexpectedType(t))
}

// NewUnion returns the flattened union of the given types. Duplicates are removed, a nullable
// member is spread into its inner type and null. Nil members are ignored, the union of no type is nil.
func NewUnion(members ...Type) Type {
	var flattened []Type
	seen := map[string]bool{}

	var add func(t Type)
	add = func(t Type) {
		switch t := t.(type) {
		case nil:
			return
		case *Union:
			for _, member := range t.Types {
				add(member)
			}
			return
		case *Nullable:
			add(t.Inner)
			add(Null)
			return
		}
		key := t.String()
		if seen[key] {
			return
		}
		seen[key] = true
		flattened = append(flattened, t)
	}

	for _, member := range members {
		add(member)
	}

	switch len(flattened) {
	case 0:
		return nil
	case 1:
		return flattened[0]
	}
	return &Union{Types: flattened}
}

// NewIntersection returns the flattened intersection of the given components, nested
// intersections are spread. Nil components are ignored.
func NewIntersection(components ...Type) Type {
	var flattened []Type
	seen := map[string]bool{}

	for _, component := range components {
		var parts []Type
		switch c := component.(type) {
		case nil:
			continue
		case *Intersection:
			parts = c.Types
		default:
			parts = []Type{c}
		}
		for _, part := range parts {
			key := strings.ToLower(part.String())
			if !seen[key] {
				seen[key] = true
				flattened = append(flattened, part)
			}
		}
	}

	switch len(flattened) {
	case 0:
		return nil
	case 1:
		return flattened[0]
	}
	return &Intersection{Types: flattened}
}

// IsNamed returns true if t is the named type name (case-insensitive).
func IsNamed(t Type, name string) bool {
	named, ok := t.(*Named)
	return ok && strings.EqualFold(named.Name, name)
}

func IsNull(t Type) bool {
	return IsNamed(t, "null")
}

func IsMixed(t Type) bool {
	return IsNamed(t, "mixed")
}

// ContainsNull returns true if null is one of the alternatives of t.
func ContainsNull(t Type) bool {
	return IfAny(t, IsNull)
}

// IsArrayOf returns true if t is an array type such as Foo[].
func IsArrayOf(t Type) bool {
	named, ok := t.(*Named)
	return ok && strings.HasSuffix(named.Name, "[]")
}

// ArrayOf returns T[] for a named T, composite and unknown element types yield array.
func ArrayOf(elem Type) Type {
	named, ok := elem.(*Named)
	if !ok || IsMixed(named) {
		return Array
	}
	return Intern(named.Name + "[]")
}

// ElementType returns T for T[], nil otherwise.
func ElementType(t Type) Type {
	if !IsArrayOf(t) {
		return nil
	}
	name := t.(*Named).Name
	return Intern(name[:len(name)-2])
}

func IsScalarName(name string) bool {
	switch strings.ToLower(name) {
	case "int", "float", "string", "bool", "true", "false", "scalar":
		return true
	}
	return false
}

// IsBuiltinName returns true for the names that are not class-like names.
func IsBuiltinName(name string) bool {
	if IsScalarName(name) {
		return true
	}
	switch strings.ToLower(name) {
	case "mixed", "null", "void", "never", "array", "iterable", "callable", "object", "resource",
		"self", "static", "parent":
		return true
	}
	return strings.HasSuffix(name, "[]")
}
