package symbols

import (
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"
)

const maxHierarchyDepth = 50

// resolver implements the hierarchy queries of Table on top of a Source.
type resolver struct {
	src        Source
	ignored    map[string]bool
	abstracted cmap.ConcurrentMap[string, *ClassInfo]
}

func newResolver(src Source, ignoredTypes []string) resolver {
	r := resolver{
		src:        src,
		ignored:    map[string]bool{},
		abstracted: cmap.New[*ClassInfo](),
	}
	for _, name := range ignoredTypes {
		r.ignored[Key(name)] = true
	}
	return r
}

func (r *resolver) GetClass(name string) (*ClassInfo, bool) {
	return r.src.LookupClass(Key(name))
}

func (r *resolver) GetAbstractedFunction(name string) (*FunctionInfo, bool) {
	return r.src.LookupFunction(Key(name))
}

func (r *resolver) IsDefinedClass(name string) bool {
	_, ok := r.src.LookupClass(Key(name))
	return ok
}

func (r *resolver) IgnoreType(name string) bool {
	return r.ignored[Key(name)]
}

func (r *resolver) IsParentClassOrInterface(ancestor, descendant string) bool {
	ancestorKey := Key(ancestor)
	if ancestorKey == Key(descendant) {
		return false
	}

	visited := map[string]bool{}
	queue := []string{Key(descendant)}

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if visited[key] {
			continue
		}
		visited[key] = true

		class, ok := r.src.LookupClass(key)
		if !ok {
			continue
		}
		for _, super := range supertypes(class) {
			superKey := Key(super)
			if superKey == ancestorKey {
				return true
			}
			queue = append(queue, superKey)
		}
	}
	return false
}

func supertypes(class *ClassInfo) []string {
	var names []string
	if class.Parent != "" {
		names = append(names, class.Parent)
	}
	return append(names, class.Interfaces...)
}

func (r *resolver) HasMethod(className, methodName string) bool {
	class, ok := r.GetAbstractedClass(className)
	if !ok {
		return false
	}
	_, ok = class.Method(methodName)
	return ok
}

func (r *resolver) GetAbstractedClass(name string) (*ClassInfo, bool) {
	key := Key(name)
	if class, ok := r.abstracted.Get(key); ok {
		return class, true
	}

	class, ok := r.abstract(key, 0)
	if !ok {
		return nil, false
	}
	r.abstracted.SetIfAbsent(key, class)
	return class, true
}

// abstract builds the class with its inherited members. A member declared by the class wins over a member
// of a trait, which wins over a member of the parent class, which wins over a member of an interface.
func (r *resolver) abstract(key string, depth int) (*ClassInfo, bool) {
	declared, ok := r.src.LookupClass(key)
	if !ok {
		return nil, false
	}
	if depth > maxHierarchyDepth {
		return declared, true
	}

	class := *declared
	class.Methods = append([]*MethodInfo(nil), declared.Methods...)
	class.Properties = append([]*PropertyInfo(nil), declared.Properties...)
	class.Constants = append([]string(nil), declared.Constants...)

	inherit := func(superName string) {
		super, ok := r.abstract(Key(superName), depth+1)
		if !ok {
			return
		}
		for _, method := range super.Methods {
			if _, exists := class.Method(method.Name); !exists {
				class.Methods = append(class.Methods, method)
			}
		}
		for _, prop := range super.Properties {
			if _, exists := class.Property(prop.Name); !exists {
				class.Properties = append(class.Properties, prop)
			}
		}
		for _, constant := range super.Constants {
			if !class.HasConstant(constant) {
				class.Constants = append(class.Constants, constant)
			}
		}
	}

	for _, trait := range declared.Traits {
		inherit(trait)
	}
	if declared.Parent != "" {
		inherit(declared.Parent)
	}
	for _, iface := range declared.Interfaces {
		inherit(iface)
	}
	return &class, true
}

// invalidate clears the cache of abstracted classes, it should be called after the source is modified.
func (r *resolver) invalidate() {
	r.abstracted.Clear()
}

// FindMethod returns the method of the class including the inherited ones.
func FindMethod(table Table, className, methodName string) (*MethodInfo, bool) {
	class, ok := table.GetAbstractedClass(className)
	if !ok {
		return nil, false
	}
	return class.Method(methodName)
}

// FindProperty returns the property of the class including the inherited ones.
func FindProperty(table Table, className, propName string) (*PropertyInfo, bool) {
	class, ok := table.GetAbstractedClass(className)
	if !ok {
		return nil, false
	}
	return class.Property(propName)
}

// IsA returns true if name is className or one of its descendants.
func IsA(table Table, name, className string) bool {
	return strings.EqualFold(name, className) || table.IsParentClassOrInterface(className, name)
}

// MemoryTable is a Table holding its records in memory, lookups that miss fall back to the parent source.
// A MemoryTable is populated by Add before being shared between goroutines.
type MemoryTable struct {
	resolver
	classes   map[string]*ClassInfo
	functions map[string]*FunctionInfo
	parent    Source //can be nil
}

// NewMemoryTable returns an empty table, parent can be nil.
func NewMemoryTable(parent Source, ignoredTypes ...string) *MemoryTable {
	table := &MemoryTable{
		classes:   map[string]*ClassInfo{},
		functions: map[string]*FunctionInfo{},
		parent:    parent,
	}
	table.resolver = newResolver(table, ignoredTypes)
	return table
}

func (t *MemoryTable) LookupClass(key string) (*ClassInfo, bool) {
	if class, ok := t.classes[key]; ok {
		return class, true
	}
	if t.parent != nil {
		return t.parent.LookupClass(key)
	}
	return nil, false
}

func (t *MemoryTable) LookupFunction(key string) (*FunctionInfo, bool) {
	if fn, ok := t.functions[key]; ok {
		return fn, true
	}
	if t.parent != nil {
		return t.parent.LookupFunction(key)
	}
	return nil, false
}

// IgnoreType returns true if the type is ignored by the table or by its parent.
func (t *MemoryTable) IgnoreType(name string) bool {
	if t.resolver.IgnoreType(name) {
		return true
	}
	if parent, ok := t.parent.(Table); ok {
		return parent.IgnoreType(name)
	}
	return false
}

// Add adds the records of an index, a record replaces a previous record with the same name.
func (t *MemoryTable) Add(index *Index) {
	for _, class := range index.Classes {
		t.classes[Key(class.Name)] = class
	}
	for _, fn := range index.Functions {
		t.functions[Key(fn.Name)] = fn
	}
	t.invalidate()
}

// RemoveFile removes the records declared in the file.
func (t *MemoryTable) RemoveFile(path string) {
	for key, class := range t.classes {
		if class.File == path {
			delete(t.classes, key)
		}
	}
	for key, fn := range t.functions {
		if fn.File == path {
			delete(t.functions, key)
		}
	}
	t.invalidate()
}

// ClassCount returns the number of classes held by the table, the parent source is not included.
func (t *MemoryTable) ClassCount() int {
	return len(t.classes)
}

func (t *MemoryTable) FunctionCount() int {
	return len(t.functions)
}

// Snapshot returns the records held by the table, the parent source is not included.
func (t *MemoryTable) Snapshot() *Index {
	index := &Index{}
	for _, class := range t.classes {
		index.Classes = append(index.Classes, class)
	}
	for _, fn := range t.functions {
		index.Functions = append(index.Functions, fn)
	}
	return index
}
