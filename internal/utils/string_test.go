package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindClosestString(t *testing.T) {
	subcommands := []string{"check", "index", "watch", "help"}

	t.Run("typo", func(t *testing.T) {
		closest, distance, ok := FindClosestString(context.Background(), subcommands, "chekc", 2)
		require.True(t, ok)
		assert.Equal(t, "check", closest)
		assert.Equal(t, 2, distance)
	})

	t.Run("closest of several candidates", func(t *testing.T) {
		closest, distance, ok := FindClosestString(context.Background(), []string{"aaa", "bba", "cca"}, "aa", 2)
		require.True(t, ok)
		assert.Equal(t, "aaa", closest)
		assert.Equal(t, 1, distance)
	})

	t.Run("too many differences", func(t *testing.T) {
		_, _, ok := FindClosestString(context.Background(), subcommands, "analyze", 2)
		assert.False(t, ok)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, ok := FindClosestString(ctx, subcommands, "chek", 2)
		assert.False(t, ok)
	})
}
