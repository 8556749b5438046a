package symbols

import (
	"strings"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/types"
)

// NameContext resolves the names of a file according to the current namespace and use statements.
type NameContext struct {
	Namespace string
	uses      map[string]string //lowercase alias -> fully qualified name
}

func NewNameContext() *NameContext {
	return &NameContext{uses: map[string]string{}}
}

// EnterNamespace sets the current namespace, the imported names are forgotten.
func (c *NameContext) EnterNamespace(name string) {
	c.Namespace = strings.Trim(name, "\\")
	c.uses = map[string]string{}
}

// AddUse records the imported names of a use statement.
func (c *NameContext) AddUse(stmt *ast.UseStmt) {
	for _, item := range stmt.Items {
		fqn := strings.Trim(item.Name.Value, "\\")
		alias := item.Alias
		if alias == "" {
			alias = fqn
			if i := strings.LastIndexByte(fqn, '\\'); i >= 0 {
				alias = fqn[i+1:]
			}
		}
		c.uses[strings.ToLower(alias)] = fqn
	}
}

// Update updates the context with a top-level statement, it returns the namespace statement if stmt is one.
func (c *NameContext) Update(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Namespace:
		name := ""
		if s.Name != nil {
			name = s.Name.Value
		}
		c.EnterNamespace(name)
	case *ast.UseStmt:
		c.AddUse(s)
	}
}

// ResolveClass returns the fully qualified form of a class name. Builtin type names and
// the special names self, static and parent are returned unchanged.
func (c *NameContext) ResolveClass(name string) string {
	if strings.HasPrefix(name, "\\") {
		return name[1:]
	}
	if types.IsBuiltinName(name) || name == "" {
		return name
	}

	first, rest, qualified := strings.Cut(name, "\\")
	if fqn, ok := c.uses[strings.ToLower(first)]; ok {
		if qualified {
			return fqn + "\\" + rest
		}
		return fqn
	}
	return c.qualify(name)
}

// ResolveName resolves a class name node.
func (c *NameContext) ResolveName(name *ast.Name) string {
	if name.FullyQualified {
		return name.Value
	}
	return c.ResolveClass(name.Value)
}

// QualifyDeclared returns the fully qualified name of a class or function declared in the current namespace.
func (c *NameContext) QualifyDeclared(name string) string {
	return c.qualify(name)
}

func (c *NameContext) qualify(name string) string {
	if c.Namespace == "" {
		return name
	}
	return c.Namespace + "\\" + name
}

// LookupFunction resolves a function name the way the language does: an unqualified name is
// looked up in the current namespace, then in the global namespace.
func (c *NameContext) LookupFunction(table Table, name *ast.Name) (*FunctionInfo, bool) {
	if name.FullyQualified {
		return table.GetAbstractedFunction(name.Value)
	}

	if first, rest, qualified := strings.Cut(name.Value, "\\"); qualified {
		if fqn, ok := c.uses[strings.ToLower(first)]; ok {
			return table.GetAbstractedFunction(fqn + "\\" + rest)
		}
		return table.GetAbstractedFunction(c.qualify(name.Value))
	}

	if c.Namespace != "" {
		if fn, ok := table.GetAbstractedFunction(c.qualify(name.Value)); ok {
			return fn, true
		}
	}
	return table.GetAbstractedFunction(name.Value)
}
