package utils

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	DEFAULT_SETTLE_DURATION = 20 * time.Millisecond
	GOROUTINE_EXIT_TIMEOUT  = time.Second
)

type AssertNoMemoryLeakOptions struct {
	// wait before the memory stats are collected, defaults to DEFAULT_SETTLE_DURATION.
	SettleDuration time.Duration

	// number of goroutines before the test, if set the goroutines started since then
	// are given GOROUTINE_EXIT_TIMEOUT to exit.
	GoroutineCount int

	MaxGoroutineCountDelta int
}

// AssertNoMemoryLeak fails the test if more than maxAllocDelta bytes are still allocated compared to startStats,
// it is called at the end of a test that runs many analyses.
func AssertNoMemoryLeak(t *testing.T, startStats *runtime.MemStats, maxAllocDelta uint64, opts ...AssertNoMemoryLeakOptions) {
	t.Helper()

	var options AssertNoMemoryLeakOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	if options.SettleDuration <= 0 {
		options.SettleDuration = DEFAULT_SETTLE_DURATION
	}

	if options.GoroutineCount > 0 {
		deadline := time.Now().Add(GOROUTINE_EXIT_TIMEOUT)
		delta := runtime.NumGoroutine() - options.GoroutineCount
		for delta > options.MaxGoroutineCountDelta && time.Now().Before(deadline) {
			time.Sleep(options.SettleDuration)
			delta = runtime.NumGoroutine() - options.GoroutineCount
		}
		if delta > options.MaxGoroutineCountDelta {
			assert.FailNowf(t, "goroutine leak", "%d goroutines still running", delta)
		}
	}

	runtime.GC()
	time.Sleep(options.SettleDuration)
	runtime.GC()

	memStats := new(runtime.MemStats)
	runtime.ReadMemStats(memStats)

	if startStats.Alloc >= memStats.Alloc {
		return
	}

	if delta := memStats.Alloc - startStats.Alloc; delta > maxAllocDelta {
		assert.FailNowf(t, "memory leak", "%s still allocated (max %s)", formatByteCount(delta), formatByteCount(maxAllocDelta))
	}
}

func formatByteCount(n uint64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%d MB", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%d kB", n/1_000)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
