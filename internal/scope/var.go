package scope

import (
	"github.com/inoxlang/phpcheck/internal/types"
)

type Nullability uint8

const (
	NullabilityUnknown Nullability = iota
	NullabilityPossible
	NullabilityNo
)

func (n Nullability) String() string {
	switch n {
	case NullabilityPossible:
		return "possible"
	case NullabilityNo:
		return "no"
	default:
		return "unknown"
	}
}

// Origin is the way a variable was introduced in its scope.
type Origin uint8

const (
	OriginLocal Origin = iota
	OriginParam
	OriginCatch
	OriginGlobal
	OriginStatic
	OriginUse
	OriginThis
)

// IsReportedWhenUnused returns true for the variables that are reported as unused on function exit.
func (o Origin) IsReportedWhenUnused() bool {
	return o == OriginLocal
}

// A Var is the symbolic state of a variable along one execution path.
// A Var is owned by a single scope unless it is aliased (by-reference capture, global, static):
// an aliased Var is the same cell in several scopes.
type Var struct {
	Type         types.Type //nil if unknown
	Nullability  Nullability
	Used         bool
	Modified     bool
	ModifiedLine int
	Origin       Origin

	writes int //number of writes along the path, narrowing is not a write
	refs   int //number of scopes holding the cell
}

// NewVar returns a var holding t, the nullability is derived from t.
func NewVar(t types.Type, origin Origin) *Var {
	return &Var{
		Type:        t,
		Nullability: NullabilityOf(t),
		Origin:      origin,
		refs:        1,
	}
}

// NullabilityOf returns Unknown for the unknown and mixed types, Possible if null is an alternative, No otherwise.
func NullabilityOf(t types.Type) Nullability {
	switch {
	case t == nil || types.IsMixed(t):
		return NullabilityUnknown
	case types.ContainsNull(t):
		return NullabilityPossible
	default:
		return NullabilityNo
	}
}

// Shared returns true if the var is aliased by more than one scope.
func (v *Var) Shared() bool {
	return v.refs > 1
}

// Writes returns the number of writes to the var along the current path.
func (v *Var) Writes() int {
	return v.writes
}

// EffectiveType returns the type of the var including its possible null value.
func (v *Var) EffectiveType() types.Type {
	if v.Nullability == NullabilityPossible && v.Type != nil && !types.ContainsNull(v.Type) {
		return types.NewNullable(v.Type)
	}
	return v.Type
}

// Write records an assignment of t at line.
func (v *Var) Write(t types.Type, line int) {
	v.Type = t
	v.Nullability = NullabilityOf(t)
	v.Modified = true
	v.ModifiedLine = max(v.ModifiedLine, line)
	v.writes++
}

// Narrow refines the type of the var without counting as a write.
func (v *Var) Narrow(t types.Type) {
	v.Type = t
	v.Nullability = NullabilityOf(t)
}

// Copy returns a private copy of the var.
func (v *Var) Copy() *Var {
	clone := *v
	clone.refs = 1
	return &clone
}

// assign sets the state of v to the state of other, the identity of the cell is preserved.
func (v *Var) assign(other *Var) {
	refs := v.refs
	*v = *other
	v.refs = refs
}

// Merge returns the combination of two alternate-path states of the same variable.
// Merge is commutative and idempotent.
func (v *Var) Merge(other *Var) *Var {
	merged := &Var{
		Type:        v.Type,
		Nullability: v.Nullability,
		Used:        v.Used || other.Used,
		Origin:      v.Origin,
		writes:      max(v.writes, other.writes),
		refs:        1,
	}

	if v.Origin != other.Origin {
		merged.Origin = min(v.Origin, other.Origin)
	}

	switch {
	case !types.IsExactMatch(v.Type, other.Type):
		switch {
		case types.IsNull(v.Type) && isNonNullableKnown(other.Type):
			merged.Type = other.Type
			merged.Nullability = NullabilityPossible
		case types.IsNull(other.Type) && isNonNullableKnown(v.Type):
			merged.Type = v.Type
			merged.Nullability = NullabilityPossible
		default:
			merged.Type = types.Mixed
			merged.Nullability = NullabilityUnknown
		}
	case v.Nullability != other.Nullability:
		if v.Nullability == NullabilityPossible || other.Nullability == NullabilityPossible {
			merged.Nullability = NullabilityPossible
		} else {
			merged.Nullability = NullabilityUnknown
		}
	}

	switch {
	case v.Modified && other.Modified:
		merged.Modified = true
		merged.ModifiedLine = max(v.ModifiedLine, other.ModifiedLine)
	case v.Modified:
		merged.Modified = true
		merged.ModifiedLine = v.ModifiedLine
	case other.Modified:
		merged.Modified = true
		merged.ModifiedLine = other.ModifiedLine
	}

	return merged
}

func isNonNullableKnown(t types.Type) bool {
	return t != nil && !types.IsMixed(t) && !types.ContainsNull(t)
}
