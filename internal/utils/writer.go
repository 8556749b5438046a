package utils

import (
	"testing"
)

// TestWriter writes to the log of a test.
type TestWriter struct {
	T *testing.T
}

func (w *TestWriter) Write(p []byte) (n int, err error) {
	w.T.Log(string(p))
	return len(p), nil
}
