package types

import (
	"strings"
)

// Hierarchy answers the class hierarchy queries needed to compare types, it is implemented by the symbol tables.
type Hierarchy interface {
	IsDefinedClass(name string) bool

	// IsParentClassOrInterface returns true if ancestor is a parent class or an implemented interface of descendant.
	IsParentClassOrInterface(ancestor, descendant string) bool

	HasMethod(className, methodName string) bool
}

// A Comparer compares types, the zero value has no knowledge of the class hierarchy.
type Comparer struct {
	Hierarchy Hierarchy
}

func NewComparer(hierarchy Hierarchy) *Comparer {
	return &Comparer{Hierarchy: hierarchy}
}

// IsCompatibleWithTarget returns true if every alternative of value is accepted by at least one
// alternative of target. The unknown type is compatible with everything.
func (c *Comparer) IsCompatibleWithTarget(target, value Type, strict bool) bool {
	if target == nil || value == nil {
		return true
	}

	targetAlternatives := Alternatives(target)

	return IfEvery(value, func(valueAlternative Type) bool {
		for _, targetAlternative := range targetAlternatives {
			if c.isAlternativeCompatible(targetAlternative, valueAlternative, strict) {
				return true
			}
		}
		return false
	})
}

func (c *Comparer) isAlternativeCompatible(target, value Type, strict bool) bool {
	if targetIntersection, ok := target.(*Intersection); ok {
		for _, component := range targetIntersection.Types {
			if !c.isAlternativeCompatible(component, value, strict) {
				return false
			}
		}
		return true
	}

	if valueIntersection, ok := value.(*Intersection); ok {
		for _, component := range valueIntersection.Types {
			if c.IsSimpleCompatible(target, component, strict) {
				return true
			}
		}
		return false
	}

	return c.IsSimpleCompatible(target, value, strict)
}

// IsSimpleCompatible is the acceptance rule between two non-composite types, composite
// arguments are handled by IsCompatibleWithTarget.
func (c *Comparer) IsSimpleCompatible(target, value Type, strict bool) bool {
	if target == nil || value == nil {
		return true
	}

	targetNamed, ok1 := target.(*Named)
	valueNamed, ok2 := value.(*Named)
	if !ok1 || !ok2 {
		return c.IsCompatibleWithTarget(target, value, strict)
	}

	targetName := strings.ToLower(targetNamed.Name)
	valueName := strings.ToLower(valueNamed.Name)

	switch {
	case targetName == valueName:
		return true
	case targetName == "mixed":
		return true
	case c.isSubclass(valueNamed.Name, targetNamed.Name):
		return true
	case targetName == "string" && !IsBuiltinName(valueName) && c.hasMethod(valueNamed.Name, "__toString"):
		return true
	case (targetName == "countable" || targetName == "iterable") && (valueName == "array" || IsArrayOf(valueNamed)):
		return true
	case targetName == "array" && IsArrayOf(valueNamed):
		return true
	case targetName == "callable" && (valueName == "closure" || valueName == "array" || valueName == "string"):
		return true
	case targetName == "bool" && (valueName == "true" || valueName == "false"):
		return true
	case targetName == "float" && valueName == "int":
		return true
	}

	if strict {
		return false
	}

	return valueName == "mixed" || (isScalarOrNull(targetName) && isScalarOrNull(valueName))
}

func isScalarOrNull(lowerName string) bool {
	return lowerName == "null" || IsScalarName(lowerName)
}

func (c *Comparer) isSubclass(descendant, ancestor string) bool {
	if c.Hierarchy == nil || IsBuiltinName(descendant) || IsBuiltinName(ancestor) {
		return false
	}
	return c.Hierarchy.IsParentClassOrInterface(ancestor, descendant)
}

func (c *Comparer) hasMethod(className, methodName string) bool {
	return c.Hierarchy != nil && c.Hierarchy.HasMethod(className, methodName)
}

// IsTraversable returns true if t may be iterated with foreach. The result is false only if every
// alternative is provably not traversable.
func (c *Comparer) IsTraversable(t Type) bool {
	if t == nil {
		return true
	}
	return IfAny(t, c.isTraversableAlternative)
}

func (c *Comparer) isTraversableAlternative(t Type) bool {
	if intersection, ok := t.(*Intersection); ok {
		for _, component := range intersection.Types {
			if c.isTraversableAlternative(component) {
				return true
			}
		}
		return false
	}

	named, ok := t.(*Named)
	if !ok {
		return true
	}

	if IsArrayOf(named) {
		return true
	}

	switch strings.ToLower(named.Name) {
	case "array", "iterable", "mixed", "object", "traversable", "iterator", "iteratoraggregate", "generator":
		return true
	case "null", "void", "never", "callable", "resource":
		return false
	}

	if IsBuiltinName(named.Name) {
		return false
	}

	if c.Hierarchy == nil || !c.Hierarchy.IsDefinedClass(named.Name) {
		return true
	}
	return c.Hierarchy.IsParentClassOrInterface("Traversable", named.Name)
}
