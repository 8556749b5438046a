package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileCache(t *testing.T) {

	cache := NewFileCache()

	sourceCodeA := []byte("<?php $a = 1;")
	sourceCodeB := []byte("<?php $a = 1;\n$b = 2;")
	fileA := MustParse(string(sourceCodeA))

	//Add and retrieve an entry.

	cache.Put(sourceCodeA, fileA)
	cached, ok := cache.Get(sourceCodeA)
	if !assert.True(t, ok) {
		return
	}
	assert.Same(t, fileA, cached)

	//Add and retrieve another entry.

	fileB := MustParse(string(sourceCodeB))

	cache.Put(sourceCodeB, fileB)
	cached, ok = cache.Get(sourceCodeB)
	if !assert.True(t, ok) {
		return
	}
	assert.Same(t, fileB, cached)

	//Invalidate the cache.

	cache.InvalidateAllEntries()

	_, ok = cache.Get(sourceCodeA)
	assert.False(t, ok)

	_, ok = cache.Get(sourceCodeB)
	assert.False(t, ok)

	t.Run("ParseCached", func(t *testing.T) {
		cache := NewFileCache()

		first, err := cache.ParseCached("a.php", sourceCodeA)
		if !assert.NoError(t, err) {
			return
		}
		second, err := cache.ParseCached("a.php", sourceCodeA)
		if !assert.NoError(t, err) {
			return
		}
		assert.Same(t, first, second)

		other, err := cache.ParseCached("b.php", sourceCodeA)
		if !assert.NoError(t, err) {
			return
		}
		assert.NotSame(t, first, other)
		assert.Equal(t, "b.php", other.Path)
	})
}
