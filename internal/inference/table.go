package inference

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/types"
)

var ErrAlreadyStamped = errors.New("node type is already set")

// Lookup gives access to the types inferred for already evaluated nodes.
type Lookup interface {
	TypeOf(node ast.Node) (types.Type, bool)
}

// Table is the side table holding the inferred type of each expression node of a file.
// Each node is stamped at most once, a nil type is a valid stamp (unknown).
type Table struct {
	types   []types.Type //indexed by node ID
	stamped *bitset.BitSet
}

// NewTable returns a table sized for a file with nodeCount nodes, the table grows if needed.
func NewTable(nodeCount int) *Table {
	return &Table{
		types:   make([]types.Type, nodeCount+1),
		stamped: bitset.New(uint(nodeCount + 1)),
	}
}

// Stamp records the type inferred for node, stamping a node twice is an internal error and causes a panic.
func (t *Table) Stamp(node ast.Node, typ types.Type) {
	id := uint(node.Base().ID)
	if id == 0 {
		panic(fmt.Errorf("cannot stamp a %s node without an ID", node.Kind()))
	}
	if t.stamped.Test(id) {
		panic(fmt.Errorf("%w: %s node at line %d", ErrAlreadyStamped, node.Kind(), node.Base().Line))
	}

	if int(id) >= len(t.types) {
		grown := make([]types.Type, 2*int(id)+1)
		copy(grown, t.types)
		t.types = grown
	}

	t.types[id] = typ
	t.stamped.Set(id)
}

// TypeOf returns the type stamped on node, the boolean result is false if the node is not stamped.
func (t *Table) TypeOf(node ast.Node) (types.Type, bool) {
	id := uint(node.Base().ID)
	if !t.stamped.Test(id) {
		return nil, false
	}
	return t.types[id], true
}

func (t *Table) IsStamped(node ast.Node) bool {
	return t.stamped.Test(uint(node.Base().ID))
}

// Count returns the number of stamped nodes.
func (t *Table) Count() int {
	return int(t.stamped.Count())
}

// Reset removes all the stamps, the table can then be reused for another evaluation of the same file.
func (t *Table) Reset() {
	t.stamped.ClearAll()
	clear(t.types)
}
