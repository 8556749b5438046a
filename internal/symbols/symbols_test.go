package symbols

import (
	"path/filepath"
	"testing"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `<?php
namespace App\Model;

use App\Contracts\HasName as Named;

interface Entity {
	public function id(): int;
}

trait Timestamps {
	protected ?\DateTime $createdAt = null;
	public function touch(): static { return $this; }
}

abstract class Base implements Entity {
	const VERSION = 1;
	public function id(): int { return 1; }
	public function name(): string { return ""; }
}

final class User extends Base implements Named, \Countable {
	use Timestamps;

	public function __construct(private string $email, public readonly ?User $manager = null) {}

	public function name(): string { return $this->email; }
	public function count(): int { return 0; }
	public static function find(int $id, ...$rest): ?self { return null; }
}

function helper(User $user, $options = []): User|false { return $user; }
`

func indexSample(t *testing.T) *MemoryTable {
	t.Helper()
	file, err := parse.Parse("/src/User.php", []byte(sampleSource))
	require.NoError(t, err)

	table := NewMemoryTable(Builtins())
	table.Add(IndexFile(file))
	return table
}

func TestBuiltins(t *testing.T) {
	table := Builtins()

	assert.True(t, table.IsDefinedClass("Exception"))
	assert.True(t, table.IsDefinedClass("\\exception"))
	assert.True(t, table.IsParentClassOrInterface("Throwable", "InvalidArgumentException"))
	assert.True(t, table.IsParentClassOrInterface("Traversable", "ArrayIterator"))
	assert.False(t, table.IsParentClassOrInterface("Exception", "Exception"))
	assert.False(t, table.IsParentClassOrInterface("Error", "RuntimeException"))

	assert.True(t, table.HasMethod("RuntimeException", "getmessage"))
	assert.True(t, table.HasMethod("Exception", "__toString"))
	assert.True(t, table.IgnoreType("resource"))

	fn, ok := table.GetAbstractedFunction("strlen")
	require.True(t, ok)
	assert.Equal(t, "int", fn.Return().String())
	assert.Equal(t, 1, fn.RequiredParamCount())

	method, ok := FindMethod(table, "Exception", "getPrevious")
	require.True(t, ok)
	assert.Equal(t, "?Throwable", method.Return().String())
	assert.Equal(t, "Exception", method.Class)
}

func TestLoadStubs(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		_, err := LoadStubs([]byte("classes: [{kind: class}]"))
		assert.Error(t, err)
	})

	t.Run("default kind", func(t *testing.T) {
		table, err := LoadStubs([]byte("classes: [{name: Foo}]\nignored: [Bar]"))
		require.NoError(t, err)
		class, ok := table.GetClass("foo")
		require.True(t, ok)
		assert.Equal(t, KindClass, class.Kind)
		assert.True(t, table.IgnoreType("bar"))
	})
}

func TestIndexFile(t *testing.T) {
	table := indexSample(t)

	t.Run("classes", func(t *testing.T) {
		user, ok := table.GetClass("App\\Model\\User")
		require.True(t, ok)
		assert.Equal(t, KindClass, user.Kind)
		assert.True(t, user.Final)
		assert.Equal(t, "App\\Model\\Base", user.Parent)
		assert.Equal(t, []string{"App\\Contracts\\HasName", "Countable"}, user.Interfaces)
		assert.Equal(t, []string{"App\\Model\\Timestamps"}, user.Traits)
		assert.Equal(t, "/src/User.php", user.File)

		find, ok := user.Method("FIND")
		require.True(t, ok)
		assert.True(t, find.Static)
		assert.Equal(t, "?App\\Model\\User", find.ReturnType)
		assert.Equal(t, 1, find.RequiredParamCount())
		assert.True(t, find.Params[1].Variadic)

		entity, ok := table.GetClass("app\\model\\entity")
		require.True(t, ok)
		assert.True(t, entity.IsInterface())
		method, _ := entity.Method("id")
		assert.True(t, method.Abstract)
	})

	t.Run("promoted properties", func(t *testing.T) {
		user, _ := table.GetClass("App\\Model\\User")

		email, ok := user.Property("email")
		require.True(t, ok)
		assert.Equal(t, "private", email.Visibility)
		assert.Equal(t, "string", email.Type)

		manager, ok := user.Property("manager")
		require.True(t, ok)
		assert.True(t, manager.Readonly)
		assert.Equal(t, "?App\\Model\\User", manager.Type)
	})

	t.Run("functions", func(t *testing.T) {
		fn, ok := table.GetAbstractedFunction("app\\model\\helper")
		require.True(t, ok)
		assert.Equal(t, "App\\Model\\User|false", fn.ReturnType)
		assert.Equal(t, 1, fn.RequiredParamCount())
	})

	t.Run("hierarchy", func(t *testing.T) {
		assert.True(t, table.IsParentClassOrInterface("App\\Model\\Entity", "App\\Model\\User"))
		assert.True(t, table.IsParentClassOrInterface("Countable", "App\\Model\\User"))
		assert.False(t, table.IsParentClassOrInterface("App\\Model\\User", "App\\Model\\Base"))
		assert.True(t, IsA(table, "App\\Model\\User", "app\\model\\user"))
	})

	t.Run("abstracted class", func(t *testing.T) {
		user, ok := table.GetAbstractedClass("App\\Model\\User")
		require.True(t, ok)

		name, ok := user.Method("name")
		require.True(t, ok)
		assert.Equal(t, "App\\Model\\User", name.Class)

		id, ok := user.Method("id")
		require.True(t, ok)
		assert.Equal(t, "App\\Model\\Base", id.Class)

		touch, ok := user.Method("touch")
		require.True(t, ok)
		assert.Equal(t, "App\\Model\\Timestamps", touch.ReturnType)

		_, ok = user.Property("createdAt")
		assert.True(t, ok)
		assert.True(t, user.HasConstant("VERSION"))

		declared, _ := table.GetClass("App\\Model\\User")
		_, ok = declared.Method("id")
		assert.False(t, ok, "the declared class should not be modified")
	})

	t.Run("remove file", func(t *testing.T) {
		table := indexSample(t)
		table.RemoveFile("/src/User.php")
		assert.False(t, table.IsDefinedClass("App\\Model\\User"))
		assert.True(t, table.IsDefinedClass("Exception"))
	})
}

func TestNameContext(t *testing.T) {
	file := parse.MustParse(`<?php
namespace App;
use Lib\Http\Client;
use Lib\Models as M;
use Other\Thing as Alias;
`)

	names := NewNameContext()
	for _, stmt := range file.Statements {
		names.Update(stmt)
	}

	assert.Equal(t, "App", names.Namespace)
	assert.Equal(t, "Lib\\Http\\Client", names.ResolveClass("Client"))
	assert.Equal(t, "Lib\\Http\\Client", names.ResolveClass("client"))
	assert.Equal(t, "Lib\\Models\\User", names.ResolveClass("M\\User"))
	assert.Equal(t, "Other\\Thing", names.ResolveClass("Alias"))
	assert.Equal(t, "App\\Local", names.ResolveClass("Local"))
	assert.Equal(t, "Global", names.ResolveClass("\\Global"))
	assert.Equal(t, "self", names.ResolveClass("self"))
	assert.Equal(t, "int", names.ResolveClass("int"))

	t.Run("function fallback", func(t *testing.T) {
		table := NewMemoryTable(Builtins())
		table.Add(&Index{Functions: []*FunctionInfo{{Name: "App\\strlen", ReturnType: "string"}}})

		fn, ok := names.LookupFunction(table, &ast.Name{Value: "strlen"})
		require.True(t, ok)
		assert.Equal(t, "App\\strlen", fn.Name)

		fn, ok = names.LookupFunction(table, &ast.Name{Value: "strlen", FullyQualified: true})
		require.True(t, ok)
		assert.Equal(t, "strlen", fn.Name)

		fn, ok = names.LookupFunction(table, &ast.Name{Value: "count"})
		require.True(t, ok)
		assert.Equal(t, "count", fn.Name)
	})
}

func TestBoltTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bbolt")

	memory := indexSample(t)

	table, err := OpenBoltTable(path, Builtins(), "Vendor\\Ignored")
	require.NoError(t, err)

	require.NoError(t, table.Store(memory.Snapshot(), 1))

	classes, functions, err := table.Stats()
	require.NoError(t, err)
	assert.Equal(t, memory.ClassCount(), classes)
	assert.Equal(t, memory.FunctionCount(), functions)

	user, ok := table.GetClass("app\\model\\user")
	require.True(t, ok)
	assert.Equal(t, "App\\Model\\User", user.Name)

	cached, ok := table.GetClass("App\\Model\\User")
	require.True(t, ok)
	assert.Same(t, user, cached)

	assert.True(t, table.IsParentClassOrInterface("App\\Model\\Entity", "App\\Model\\User"))
	assert.True(t, table.HasMethod("App\\Model\\User", "touch"))
	assert.True(t, table.IsDefinedClass("Exception"), "lookups should fall back to the builtins")
	assert.True(t, table.IgnoreType("vendor\\ignored"))
	assert.True(t, table.IgnoreType("resource"))

	var names []string
	require.NoError(t, table.ForEachClass(func(class *ClassInfo) error {
		names = append(names, class.Name)
		return nil
	}))
	assert.Len(t, names, classes)

	require.NoError(t, table.Close())

	t.Run("reopen", func(t *testing.T) {
		reopened, err := OpenBoltTable(path, nil)
		require.NoError(t, err)
		defer reopened.Close()

		fn, ok := reopened.GetAbstractedFunction("App\\Model\\helper")
		require.True(t, ok)
		assert.Equal(t, "App\\Model\\User|false", fn.ReturnType)
		assert.False(t, reopened.IsDefinedClass("Exception"))
	})
}
