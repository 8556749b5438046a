package scope

import (
	"testing"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSameState(t *testing.T, expected, actual *Var) {
	t.Helper()
	assert.True(t, types.IsExactMatch(expected.Type, actual.Type), "%s != %s", types.Stringify(expected.Type), types.Stringify(actual.Type))
	assert.Equal(t, expected.Nullability, actual.Nullability)
	assert.Equal(t, expected.Used, actual.Used)
	assert.Equal(t, expected.Modified, actual.Modified)
	assert.Equal(t, expected.ModifiedLine, actual.ModifiedLine)
	assert.Equal(t, expected.Origin, actual.Origin)
}

func TestVarMerge(t *testing.T) {
	foo := types.Intern("Foo")
	bar := types.Intern("Bar")

	vars := []*Var{
		NewVar(nil, OriginLocal),
		NewVar(foo, OriginLocal),
		NewVar(bar, OriginLocal),
		NewVar(types.Null, OriginLocal),
		NewVar(types.MustParse("?Foo"), OriginLocal),
		NewVar(types.Mixed, OriginLocal),
		{Type: foo, Nullability: NullabilityPossible, Used: true, Modified: true, ModifiedLine: 3},
		{Type: foo, Nullability: NullabilityUnknown, Modified: true, ModifiedLine: 7},
		{Type: types.MustParse("A|B"), Nullability: NullabilityNo, Origin: OriginParam},
		{Type: types.MustParse("B|A"), Nullability: NullabilityNo, Used: true},
	}

	t.Run("idempotent", func(t *testing.T) {
		for _, v := range vars {
			assertSameState(t, v, v.Merge(v))
		}
	})

	t.Run("commutative", func(t *testing.T) {
		for _, a := range vars {
			for _, b := range vars {
				assertSameState(t, a.Merge(b), b.Merge(a))
			}
		}
	})

	t.Run("divergent types collapse to mixed", func(t *testing.T) {
		merged := NewVar(foo, OriginLocal).Merge(NewVar(bar, OriginLocal))
		assert.Same(t, types.Mixed, merged.Type)
		assert.Equal(t, NullabilityUnknown, merged.Nullability)
	})

	t.Run("null and a non nullable type", func(t *testing.T) {
		merged := NewVar(types.Null, OriginLocal).Merge(NewVar(foo, OriginLocal))
		assert.Same(t, foo, merged.Type)
		assert.Equal(t, NullabilityPossible, merged.Nullability)
		assert.True(t, types.IsExactMatch(types.MustParse("?Foo"), merged.EffectiveType()))
	})

	t.Run("null and unknown", func(t *testing.T) {
		merged := NewVar(types.Null, OriginLocal).Merge(NewVar(nil, OriginLocal))
		assert.Same(t, types.Mixed, merged.Type)
	})

	t.Run("same type and different nullability", func(t *testing.T) {
		a := &Var{Type: foo, Nullability: NullabilityPossible}
		b := &Var{Type: foo, Nullability: NullabilityNo}
		assert.Equal(t, NullabilityPossible, a.Merge(b).Nullability)

		c := &Var{Type: foo, Nullability: NullabilityUnknown}
		assert.Equal(t, NullabilityUnknown, b.Merge(c).Nullability)
	})

	t.Run("used and modified", func(t *testing.T) {
		a := &Var{Type: foo, Used: true}
		b := &Var{Type: foo, Modified: true, ModifiedLine: 5}
		merged := a.Merge(b)
		assert.True(t, merged.Used)
		assert.True(t, merged.Modified)
		assert.Equal(t, 5, merged.ModifiedLine)
	})
}

func TestScope(t *testing.T) {
	t.Run("insertion order", func(t *testing.T) {
		s := New(nil)
		s.Set("b", NewVar(nil, OriginLocal))
		s.Set("a", NewVar(nil, OriginLocal))
		s.Set("c", NewVar(nil, OriginLocal))
		s.Delete("a")
		s.Set("a", NewVar(nil, OriginLocal))
		assert.Equal(t, []string{"b", "c", "a"}, s.Names())
		assert.True(t, s.Global)
	})

	t.Run("clone is private", func(t *testing.T) {
		s := New(nil)
		s.Set("a", NewVar(types.Int, OriginLocal))

		clone := s.Clone()
		v, _ := clone.Get("a")
		v.Write(types.String, 2)

		original, _ := s.Get("a")
		assert.Same(t, types.Int, original.Type)
	})

	t.Run("alias", func(t *testing.T) {
		outer := New(nil)
		cell := NewVar(types.Int, OriginLocal)
		outer.Set("a", cell)

		inner := New(&ast.Closure{})
		inner.Alias("a", cell)
		assert.True(t, cell.Shared())

		v, _ := inner.Get("a")
		v.Write(types.String, 3)

		fromOuter, _ := outer.Get("a")
		assert.Same(t, types.String, fromOuter.Type)

		inner.Delete("a")
		assert.False(t, cell.Shared())
	})

	t.Run("adopt preserves aliases", func(t *testing.T) {
		outer := New(nil)
		cell := NewVar(types.Int, OriginLocal)
		outer.Set("a", cell)

		inner := New(&ast.Closure{})
		inner.Alias("a", cell)

		branch := inner.Clone()
		branchVar, _ := branch.Get("a")
		branchVar.Write(types.Float, 4)
		branch.Set("b", NewVar(types.Int, OriginLocal))

		inner.Adopt(branch)

		v, _ := inner.Get("a")
		assert.Same(t, cell, v)
		assert.Same(t, types.Float, cell.Type)
		assert.True(t, inner.Has("b"))
	})

	t.Run("propagate used", func(t *testing.T) {
		s := New(nil)
		s.Set("a", NewVar(types.Int, OriginLocal))
		s.Set("b", NewVar(types.Int, OriginLocal))

		branch := s.Clone()
		v, _ := branch.Get("a")
		v.Used = true
		branch.Set("c", &Var{Used: true})

		s.PropagateUsed(branch)

		a, _ := s.Get("a")
		b, _ := s.Get("b")
		assert.True(t, a.Used)
		assert.False(t, b.Used)
		assert.False(t, s.Has("c"))
	})
}

func TestMerge(t *testing.T) {
	foo := types.Intern("Foo")
	bar := types.Intern("Bar")

	newBase := func() *Scope {
		base := New(nil)
		base.Set("x", NewVar(types.MustParse("?Foo"), OriginLocal))
		return base
	}

	t.Run("divergent writes", func(t *testing.T) {
		base := newBase()
		a, b := base.Clone(), base.Clone()

		va, _ := a.Get("x")
		va.Write(foo, 2)
		vb, _ := b.Get("x")
		vb.Write(bar, 3)

		merged := Merge(base, a, b)
		v, _ := merged.Get("x")
		assert.Same(t, types.Mixed, v.Type)
		assert.Equal(t, NullabilityUnknown, v.Nullability)
		assert.True(t, v.Modified)
		assert.Equal(t, 3, v.ModifiedLine)
	})

	t.Run("narrowings without writes are dropped", func(t *testing.T) {
		base := newBase()
		a, b := base.Clone(), base.Clone()

		va, _ := a.Get("x")
		va.Narrow(foo)
		va.Used = true
		vb, _ := b.Get("x")
		vb.Narrow(types.Null)

		merged := Merge(base, a, b)
		v, _ := merged.Get("x")
		assert.True(t, types.IsExactMatch(types.MustParse("?Foo"), v.Type))
		assert.True(t, v.Used)
	})

	t.Run("variable defined in a single branch", func(t *testing.T) {
		base := newBase()
		a, b := base.Clone(), base.Clone()
		a.Set("y", NewVar(types.Int, OriginLocal))

		merged := Merge(base, a, b)
		v, ok := merged.Get("y")
		require.True(t, ok)
		assert.Same(t, types.Int, v.Type)
		assert.Equal(t, []string{"x", "y"}, merged.Names())
	})

	t.Run("commutative", func(t *testing.T) {
		base := newBase()
		a, b := base.Clone(), base.Clone()
		va, _ := a.Get("x")
		va.Write(types.Null, 2)
		vb, _ := b.Get("x")
		vb.Write(foo, 3)

		ab, _ := Merge(base, a, b).Get("x")
		ba, _ := Merge(base, b, a).Get("x")
		assertSameState(t, ab, ba)
		assert.Same(t, foo, ab.Type)
		assert.Equal(t, NullabilityPossible, ab.Nullability)
	})

	t.Run("idempotent", func(t *testing.T) {
		base := newBase()
		a := base.Clone()
		va, _ := a.Get("x")
		va.Write(foo, 2)

		once, _ := Merge(base, a).Get("x")
		twice, _ := Merge(base, a, a).Get("x")
		assertSameState(t, once, twice)
	})

	t.Run("unset in every branch", func(t *testing.T) {
		base := newBase()
		a, b := base.Clone(), base.Clone()
		a.Delete("x")
		b.Delete("x")

		merged := Merge(base, a, b)
		assert.False(t, merged.Has("x"))
	})
}

func TestStack(t *testing.T) {
	t.Run("push clone swap pop", func(t *testing.T) {
		global := New(nil)
		stack := NewStack(global)
		stack.Assign("a", types.Int, 1)

		clone := stack.PushClone()
		assert.Equal(t, 2, stack.Depth())
		stack.Assign("a", types.String, 2)

		other := global.Clone()
		assert.Same(t, clone, stack.Swap(other))
		typ, ok := stack.TypeOf("a")
		require.True(t, ok)
		assert.Same(t, types.Int, typ)

		assert.Same(t, other, stack.Pop())
		assert.Same(t, global, stack.Top())
	})

	t.Run("narrow is not a write", func(t *testing.T) {
		stack := NewStack(New(nil))
		v := stack.Assign("a", types.MustParse("?Foo"), 1)
		require.True(t, stack.Narrow("a", types.Intern("Foo")))
		assert.Equal(t, 1, v.Writes())
		assert.False(t, stack.Narrow("b", types.Int))
	})

	t.Run("mark used", func(t *testing.T) {
		stack := NewStack(New(nil))
		assert.False(t, stack.MarkUsed("a"))
		stack.Assign("a", types.Int, 1)
		assert.True(t, stack.MarkUsed("a"))
		v, _ := stack.Var("a")
		assert.True(t, v.Used)
	})

	t.Run("inside try", func(t *testing.T) {
		try := &ast.Try{Body: &ast.Block{}, Finally: &ast.Block{}}
		stack := NewStack(New(nil))

		stack.PushNode(try)
		stack.PushNode(try.Body)
		stack.PushNode(&ast.ExprStmt{})
		assert.True(t, stack.InsideTry())
		stack.PopNode()
		stack.PopNode()

		stack.PushNode(try.Finally)
		assert.False(t, stack.InsideTry())
		stack.PopNode()

		stack.PushNode(try.Body)
		stack.PushNode(&ast.Closure{})
		stack.PushNode(&ast.Block{})
		assert.False(t, stack.InsideTry())
	})

	t.Run("ancestors", func(t *testing.T) {
		stack := NewStack(New(nil))
		file := &ast.File{}
		ifStmt := &ast.If{}
		variable := &ast.Variable{Name: "a"}
		stack.PushNode(file)
		stack.PushNode(ifStmt)
		stack.PushNode(variable)

		assert.Same(t, variable, stack.Current())
		assert.Same(t, ifStmt, stack.Parent())
		assert.Equal(t, []ast.Node{file, ifStmt}, stack.Ancestors())

		found, ok := stack.FindAncestor(func(node ast.Node) bool {
			_, isFile := node.(*ast.File)
			return isFile
		})
		assert.True(t, ok)
		assert.Same(t, file, found)
	})

	t.Run("classes", func(t *testing.T) {
		stack := NewStack(New(nil))
		_, ok := stack.CurrentClass()
		assert.False(t, ok)

		stack.PushClass(Class{Name: "App\\A"})
		stack.PushClass(Class{Name: "App\\B", Parent: "App\\A"})
		current, ok := stack.CurrentClass()
		require.True(t, ok)
		assert.Equal(t, "App\\B", current.Name)
		stack.PopClass()
		current, _ = stack.CurrentClass()
		assert.Equal(t, "App\\A", current.Name)
	})
}
