package symbols

import (
	"strings"

	"github.com/inoxlang/phpcheck/internal/types"
)

const (
	KindClass     = "class"
	KindInterface = "interface"
	KindTrait     = "trait"
)

// Table answers the read-only symbol queries of the analysis. Names are fully qualified
// without a leading backslash and compared case-insensitively.
// Implementations must be safe for concurrent reads once indexing is done.
type Table interface {
	// GetClass returns the class, interface or trait as declared.
	GetClass(name string) (*ClassInfo, bool)

	// GetAbstractedClass returns the class with the members inherited from its parents, interfaces and traits.
	GetAbstractedClass(name string) (*ClassInfo, bool)

	GetAbstractedFunction(name string) (*FunctionInfo, bool)

	IsDefinedClass(name string) bool

	// IsParentClassOrInterface returns true if ancestor is a (transitive) parent class or implemented interface of descendant.
	IsParentClassOrInterface(ancestor, descendant string) bool

	// IgnoreType returns true for the types that are excluded from existence checks.
	IgnoreType(name string) bool

	HasMethod(className, methodName string) bool
}

// Source is a raw store of symbol records, keys are lowercase fully qualified names.
type Source interface {
	LookupClass(key string) (*ClassInfo, bool)
	LookupFunction(key string) (*FunctionInfo, bool)
}

type ClassInfo struct {
	Name       string          `json:"name" yaml:"name"`
	Kind       string          `json:"kind" yaml:"kind"`
	Parent     string          `json:"parent,omitempty" yaml:"parent"`
	Interfaces []string        `json:"interfaces,omitempty" yaml:"implements"`
	Traits     []string        `json:"traits,omitempty" yaml:"traits"`
	Abstract   bool            `json:"abstract,omitempty" yaml:"abstract"`
	Final      bool            `json:"final,omitempty" yaml:"final"`
	Methods    []*MethodInfo   `json:"methods,omitempty" yaml:"methods"`
	Properties []*PropertyInfo `json:"properties,omitempty" yaml:"properties"`
	Constants  []string        `json:"constants,omitempty" yaml:"constants"`
	File       string          `json:"file,omitempty" yaml:"-"`
	Line       int             `json:"line,omitempty" yaml:"-"`
}

func (c *ClassInfo) IsInterface() bool {
	return c.Kind == KindInterface
}

func (c *ClassInfo) IsTrait() bool {
	return c.Kind == KindTrait
}

// Method returns the method with the given name (case-insensitive).
func (c *ClassInfo) Method(name string) (*MethodInfo, bool) {
	for _, m := range c.Methods {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return nil, false
}

// Property returns the property with the given name (case-sensitive).
func (c *ClassInfo) Property(name string) (*PropertyInfo, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (c *ClassInfo) HasConstant(name string) bool {
	for _, constant := range c.Constants {
		if constant == name {
			return true
		}
	}
	return false
}

type ParamInfo struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type,omitempty" yaml:"type"`
	Optional bool   `json:"optional,omitempty" yaml:"optional"`
	Variadic bool   `json:"variadic,omitempty" yaml:"variadic"`
	ByRef    bool   `json:"byRef,omitempty" yaml:"byRef"`
}

// TypeOf returns the declared type of the parameter, nil if it has no (valid) declared type.
func (p ParamInfo) TypeOf() types.Type {
	return parseDeclared(p.Type)
}

type MethodInfo struct {
	Name       string      `json:"name" yaml:"name"`
	Class      string      `json:"class,omitempty" yaml:"-"` //declaring class
	Params     []ParamInfo `json:"params,omitempty" yaml:"params"`
	ReturnType string      `json:"returnType,omitempty" yaml:"return"`
	Visibility string      `json:"visibility,omitempty" yaml:"visibility"`
	Static     bool        `json:"static,omitempty" yaml:"static"`
	Abstract   bool        `json:"abstract,omitempty" yaml:"abstract"`
	Line       int         `json:"line,omitempty" yaml:"-"`
}

// Return returns the declared return type, nil if the method has no (valid) declared return type.
func (m *MethodInfo) Return() types.Type {
	return parseDeclared(m.ReturnType)
}

// RequiredParamCount returns the minimum number of arguments.
func (m *MethodInfo) RequiredParamCount() int {
	return requiredParamCount(m.Params)
}

type PropertyInfo struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type,omitempty" yaml:"type"`
	Visibility string `json:"visibility,omitempty" yaml:"visibility"`
	Static     bool   `json:"static,omitempty" yaml:"static"`
	Readonly   bool   `json:"readonly,omitempty" yaml:"readonly"`
}

func (p *PropertyInfo) TypeOf() types.Type {
	return parseDeclared(p.Type)
}

type FunctionInfo struct {
	Name       string      `json:"name" yaml:"name"`
	Params     []ParamInfo `json:"params,omitempty" yaml:"params"`
	ReturnType string      `json:"returnType,omitempty" yaml:"return"`
	File       string      `json:"file,omitempty" yaml:"-"`
	Line       int         `json:"line,omitempty" yaml:"-"`
}

func (f *FunctionInfo) Return() types.Type {
	return parseDeclared(f.ReturnType)
}

func (f *FunctionInfo) RequiredParamCount() int {
	return requiredParamCount(f.Params)
}

func requiredParamCount(params []ParamInfo) int {
	count := 0
	for _, p := range params {
		if p.Optional || p.Variadic {
			break
		}
		count++
	}
	return count
}

func parseDeclared(text string) types.Type {
	if text == "" {
		return nil
	}
	t, err := types.Parse(text)
	if err != nil {
		return nil
	}
	return t
}

// Key returns the lookup key of a name.
func Key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "\\"))
}
