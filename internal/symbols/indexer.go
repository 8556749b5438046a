package symbols

import (
	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/types"
)

// Index is the set of symbols declared by one or more files.
type Index struct {
	Classes   []*ClassInfo    `json:"classes,omitempty" yaml:"classes"`
	Functions []*FunctionInfo `json:"functions,omitempty" yaml:"functions"`
	Ignored   []string        `json:"-" yaml:"ignored"`
}

// IndexFile collects the classes, interfaces, traits and functions declared in a file.
// Anonymous classes are not indexed.
func IndexFile(file *ast.File) *Index {
	index := &Index{}
	names := NewNameContext()

	ast.Walk(file, func(node, _, _ ast.Node, _ []ast.Node, _ bool) (ast.TraversalAction, error) {
		switch n := node.(type) {
		case *ast.Namespace:
			names.Update(n)
		case *ast.UseStmt:
			names.Update(n)
		case *ast.ClassDecl:
			if n.Name != nil {
				index.Classes = append(index.Classes, indexClass(n, names, file.Path))
			}
		case *ast.FunctionDecl:
			index.Functions = append(index.Functions, indexFunction(n, names, file.Path))
		}
		return ast.ContinueTraversal, nil
	}, nil)

	return index
}

// Merge appends the records of other to the index.
func (index *Index) Merge(other *Index) {
	index.Classes = append(index.Classes, other.Classes...)
	index.Functions = append(index.Functions, other.Functions...)
	index.Ignored = append(index.Ignored, other.Ignored...)
}

func indexClass(decl *ast.ClassDecl, names *NameContext, path string) *ClassInfo {
	class := &ClassInfo{
		Name:     names.QualifyDeclared(decl.Name.Value),
		Abstract: decl.Modifiers.Abstract,
		Final:    decl.Modifiers.Final,
		File:     path,
		Line:     decl.Line,
	}

	switch decl.ClassKind {
	case ast.ClassKindInterface:
		class.Kind = KindInterface
		for _, name := range decl.Extends {
			class.Interfaces = append(class.Interfaces, names.ResolveName(name))
		}
	case ast.ClassKindTrait:
		class.Kind = KindTrait
	default:
		class.Kind = KindClass
		if len(decl.Extends) > 0 {
			class.Parent = names.ResolveName(decl.Extends[0])
		}
	}

	for _, name := range decl.Implements {
		class.Interfaces = append(class.Interfaces, names.ResolveName(name))
	}
	for _, name := range decl.TraitUses {
		class.Traits = append(class.Traits, names.ResolveName(name))
	}

	resolve := hintResolver(names, class.Name, class.Parent)

	for _, constant := range decl.Constants {
		class.Constants = append(class.Constants, constant.Name.Value)
	}

	for _, prop := range decl.Properties {
		class.Properties = append(class.Properties, &PropertyInfo{
			Name:       prop.Name,
			Type:       hintText(prop.Type, resolve),
			Visibility: visibilityOf(prop.Modifiers),
			Static:     prop.Modifiers.Static,
			Readonly:   prop.Modifiers.Readonly || decl.Modifiers.Readonly,
		})
	}

	for _, method := range decl.Methods {
		info := &MethodInfo{
			Name:       method.Name.Value,
			Class:      class.Name,
			Params:     paramInfos(method.Params, resolve),
			ReturnType: hintText(method.ReturnType, resolve),
			Visibility: visibilityOf(method.Modifiers),
			Static:     method.Modifiers.Static,
			Abstract:   method.Modifiers.Abstract || decl.ClassKind == ast.ClassKindInterface,
			Line:       method.Line,
		}
		class.Methods = append(class.Methods, info)

		//promoted constructor parameters
		for _, param := range method.Params {
			if param.Promoted == nil {
				continue
			}
			class.Properties = append(class.Properties, &PropertyInfo{
				Name:       param.Name,
				Type:       hintText(param.Type, resolve),
				Visibility: visibilityOf(*param.Promoted),
				Readonly:   param.Promoted.Readonly || decl.Modifiers.Readonly,
			})
		}
	}

	return class
}

func indexFunction(decl *ast.FunctionDecl, names *NameContext, path string) *FunctionInfo {
	resolve := hintResolver(names, "", "")
	return &FunctionInfo{
		Name:       names.QualifyDeclared(decl.Name.Value),
		Params:     paramInfos(decl.Params, resolve),
		ReturnType: hintText(decl.ReturnType, resolve),
		File:       path,
		Line:       decl.Line,
	}
}

func paramInfos(params []*ast.Param, resolve func(string) string) []ParamInfo {
	infos := make([]ParamInfo, 0, len(params))
	for _, param := range params {
		infos = append(infos, ParamInfo{
			Name:     param.Name,
			Type:     hintText(param.Type, resolve),
			Optional: param.Default != nil,
			Variadic: param.Variadic,
			ByRef:    param.ByRef,
		})
	}
	return infos
}

// hintResolver returns a class name resolver for the type hints of a declaration,
// self and static are resolved to className, parent to parentName.
func hintResolver(names *NameContext, className, parentName string) func(string) string {
	return func(name string) string {
		switch name {
		case "self", "static":
			if className != "" {
				return className
			}
		case "parent":
			if parentName != "" {
				return parentName
			}
		}
		return names.ResolveClass(name)
	}
}

func hintText(hint ast.TypeHint, resolve func(string) string) string {
	if hint == nil {
		return ""
	}
	return types.Stringify(types.FromHint(hint, resolve))
}

func visibilityOf(modifiers ast.Modifiers) string {
	if modifiers.Visibility == "" {
		return "public"
	}
	return modifiers.Visibility
}
