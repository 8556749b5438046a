package symbols

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed stubs.yaml
var stubsYAML []byte

var (
	builtins     *MemoryTable
	builtinsErr  error
	builtinsOnce sync.Once
)

// Builtins returns the table of the builtin classes and functions, it is shared and must not be modified.
func Builtins() *MemoryTable {
	builtinsOnce.Do(func() {
		builtins, builtinsErr = LoadStubs(stubsYAML)
	})
	if builtinsErr != nil {
		panic(builtinsErr)
	}
	return builtins
}

// LoadStubs parses a YAML stub file into a new table. The ignored types listed by the file are
// excluded from existence checks.
func LoadStubs(content []byte) (*MemoryTable, error) {
	var index Index
	if err := yaml.Unmarshal(content, &index); err != nil {
		return nil, fmt.Errorf("invalid stubs: %w", err)
	}

	for _, class := range index.Classes {
		if class.Name == "" {
			return nil, fmt.Errorf("invalid stubs: class without a name")
		}
		if class.Kind == "" {
			class.Kind = KindClass
		}
		for _, method := range class.Methods {
			method.Class = class.Name
			if method.Visibility == "" {
				method.Visibility = "public"
			}
		}
	}

	table := NewMemoryTable(nil, index.Ignored...)
	table.Add(&index)
	return table, nil
}
