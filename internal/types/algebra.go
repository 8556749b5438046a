package types

import (
	"strings"
)

// Alternatives returns the alternatives of t at the union level: a nullable is expanded into
// null and its inner type, an intersection is a single alternative. The unknown type has no alternatives.
func Alternatives(t Type) []Type {
	switch t := t.(type) {
	case nil:
		return nil
	case *Nullable:
		return append([]Type{Null}, Alternatives(t.Inner)...)
	case *Union:
		alternatives := make([]Type, 0, len(t.Types))
		for _, member := range t.Types {
			alternatives = append(alternatives, Alternatives(member)...)
		}
		return alternatives
	default:
		return []Type{t}
	}
}

// ForEach calls fn for each alternative of t.
func ForEach(t Type, fn func(alternative Type)) {
	for _, alternative := range Alternatives(t) {
		fn(alternative)
	}
}

// IfAny returns true if the predicate holds for at least one alternative of t, it returns false for the unknown type.
func IfAny(t Type, predicate func(alternative Type) bool) bool {
	for _, alternative := range Alternatives(t) {
		if predicate(alternative) {
			return true
		}
	}
	return false
}

// IfEvery returns true if the predicate holds for every alternative of t, it returns true for the unknown type.
func IfEvery(t Type, predicate func(alternative Type) bool) bool {
	for _, alternative := range Alternatives(t) {
		if !predicate(alternative) {
			return false
		}
	}
	return true
}

// IsExactMatch returns true if a and b are structurally equal. Names are compared case-insensitively,
// the members of unions and intersections are compared regardless of their order.
func IsExactMatch(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	return coversEachOther(Alternatives(a), Alternatives(b), isExactAlternativeMatch)
}

func isExactAlternativeMatch(a, b Type) bool {
	switch a := a.(type) {
	case *Named:
		other, ok := b.(*Named)
		return ok && strings.EqualFold(a.Name, other.Name)
	case *Intersection:
		other, ok := b.(*Intersection)
		return ok && coversEachOther(a.Types, other.Types, isExactAlternativeMatch)
	}
	return false
}

// coversEachOther returns true if every element of a is matched by an element of b and vice versa.
func coversEachOther(a, b []Type, match func(x, y Type) bool) bool {
	covers := func(x, y []Type) bool {
	outer:
		for _, elemX := range x {
			for _, elemY := range y {
				if match(elemX, elemY) {
					continue outer
				}
			}
			return false
		}
		return true
	}
	return covers(a, b) && covers(b, a)
}

// GetUniqueTypes returns the deduplicated union of all the alternatives of the given types.
// mixed absorbs everything, otherwise the result is unknown if any input is unknown.
// The union of no type is unknown.
func GetUniqueTypes(inputs ...Type) Type {
	hasUnknown := false

	for _, input := range inputs {
		if input == nil {
			hasUnknown = true
			continue
		}
		if IfAny(input, IsMixed) {
			return Mixed
		}
	}

	if hasUnknown {
		return nil
	}

	var unique []Type
	seen := map[string]bool{}

	for _, input := range inputs {
		for _, alternative := range Alternatives(input) {
			key := alternative.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			unique = append(unique, alternative)
		}
	}

	switch len(unique) {
	case 0:
		return nil
	case 1:
		return unique[0]
	}
	return &Union{Types: unique}
}

// RemoveNullOption returns t without its null alternative. Removing null from null yields the unknown type.
func RemoveNullOption(t Type) Type {
	switch t := t.(type) {
	case nil:
		return nil
	case *Nullable:
		return t.Inner
	case *Named:
		if IsNull(t) {
			return nil
		}
		return t
	case *Union:
		var kept []Type
		for _, member := range t.Types {
			if !IsNull(member) {
				kept = append(kept, member)
			}
		}
		if len(kept) == len(t.Types) {
			return t
		}
		return NewUnion(kept...)
	}
	return t
}

// Filter returns the union of the alternatives of t for which keep returns true, nil if there are none.
func Filter(t Type, keep func(alternative Type) bool) Type {
	var kept []Type
	ForEach(t, func(alternative Type) {
		if keep(alternative) {
			kept = append(kept, alternative)
		}
	})
	return NewUnion(kept...)
}
