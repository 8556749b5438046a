package scope

import (
	"github.com/inoxlang/phpcheck/internal/ast"
)

// A Scope is the set of variables known along one execution path of a function-like body
// (or of the file body). Variables are kept in insertion order.
type Scope struct {
	names []string
	vars  map[string]*Var

	Static      bool
	Global      bool
	StrictTypes bool

	// FunctionLike is the node owning the scope, nil for the file scope.
	FunctionLike ast.Node
}

// New returns an empty scope owned by functionLike, a nil functionLike creates the global (file) scope.
func New(functionLike ast.Node) *Scope {
	return &Scope{
		vars:         map[string]*Var{},
		Global:       functionLike == nil,
		FunctionLike: functionLike,
	}
}

func (s *Scope) Get(name string) (*Var, bool) {
	v, ok := s.vars[name]
	return v, ok
}

func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Set binds name to a private var, a previously bound cell is released (it is not modified).
func (s *Scope) Set(name string, v *Var) {
	if old, ok := s.vars[name]; ok {
		old.refs--
	} else {
		s.names = append(s.names, name)
	}
	s.vars[name] = v
}

// Alias binds name to the cell v that is also held by another scope.
func (s *Scope) Alias(name string, v *Var) {
	if old, ok := s.vars[name]; ok {
		if old == v {
			return
		}
		old.refs--
	} else {
		s.names = append(s.names, name)
	}
	v.refs++
	s.vars[name] = v
}

func (s *Scope) Delete(name string) {
	v, ok := s.vars[name]
	if !ok {
		return
	}
	v.refs--
	delete(s.vars, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i:i], s.names[i+1:]...)
			break
		}
	}
}

// Names returns the names of the variables in insertion order.
func (s *Scope) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

func (s *Scope) Len() int {
	return len(s.names)
}

// ForEach calls fn for each variable in insertion order.
func (s *Scope) ForEach(fn func(name string, v *Var)) {
	for _, name := range s.names {
		fn(name, s.vars[name])
	}
}

// Clone returns a deep copy of the scope, the copy holds private copies of all the variables.
func (s *Scope) Clone() *Scope {
	clone := &Scope{
		names:        s.Names(),
		vars:         make(map[string]*Var, len(s.vars)),
		Static:       s.Static,
		Global:       s.Global,
		StrictTypes:  s.StrictTypes,
		FunctionLike: s.FunctionLike,
	}
	for name, v := range s.vars {
		clone.vars[name] = v.Copy()
	}
	return clone
}

// Adopt makes the state of s equal to the state of other (typically a clone of s). The cells of s
// are updated in place so aliases are preserved.
func (s *Scope) Adopt(other *Scope) {
	for _, name := range s.Names() {
		if !other.Has(name) {
			s.Delete(name)
		}
	}
	for _, name := range other.names {
		otherVar := other.vars[name]
		if v, ok := s.vars[name]; ok {
			v.assign(otherVar)
		} else {
			s.Set(name, otherVar.Copy())
		}
	}
	s.StrictTypes = other.StrictTypes
}

// Merge returns a new scope combining base with the scopes at the end of alternate branches starting at base.
// A variable that no branch wrote keeps its state in base (narrowings are dropped), a variable absent from
// some branches is merged from the branches defining it.
func Merge(base *Scope, branches ...*Scope) *Scope {
	merged := base.Clone()
	if len(branches) == 0 {
		return merged
	}

	var names []string
	seen := map[string]bool{}
	for _, name := range base.names {
		seen[name] = true
		names = append(names, name)
	}
	for _, branch := range branches {
		for _, name := range branch.names {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	for _, name := range names {
		baseVar, inBase := base.vars[name]

		var result *Var
		written := !inBase
		used := false

		for _, branch := range branches {
			branchVar, ok := branch.vars[name]
			if !ok {
				if inBase {
					written = true //unset
				}
				continue
			}
			used = used || branchVar.Used
			if inBase && branchVar.writes != baseVar.writes {
				written = true
			}
			if result == nil {
				result = branchVar
			} else {
				result = result.Merge(branchVar)
			}
		}

		switch {
		case result == nil:
			merged.Delete(name)
		case !written:
			v, _ := merged.Get(name)
			v.Used = v.Used || used
		default:
			result = result.Copy()
			if v, ok := merged.Get(name); ok {
				v.assign(result)
			} else {
				merged.Set(name, result)
			}
		}
	}

	return merged
}

// PropagateUsed marks as used the variables of s that are used in other, other is typically
// the scope at the end of a branch that is not merged back (terminating branch, short-circuit operand).
func (s *Scope) PropagateUsed(other *Scope) {
	for name, otherVar := range other.vars {
		if v, ok := s.vars[name]; ok && otherVar.Used {
			v.Used = true
		}
	}
}
