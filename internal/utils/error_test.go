package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")

	assert.NoError(t, CombineErrors(nil, nil))

	err := CombineErrorsWithPrefixMessage("invalid configuration", errA, nil, errB)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, "invalid configuration: a\nb", err.Error())

	assert.NoError(t, CombineErrorsWithPrefixMessage("invalid configuration"))
}

func TestConvertPanicValueToError(t *testing.T) {
	err := errors.New("x")
	assert.Same(t, err, ConvertPanicValueToError(err))
	assert.EqualError(t, ConvertPanicValueToError("x"), `"x"`)
}
