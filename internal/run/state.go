package run

import (
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// State is the state of a single run shared by the workers, nothing outlives the run.
type State struct {
	ID ulid.ULID

	emitted   cmap.ConcurrentMap[string, struct{}]
	evaluated atomic.Int64
	crashed   atomic.Int64
}

func NewState(id ulid.ULID) *State {
	return &State{
		ID:      id,
		emitted: cmap.New[struct{}](),
	}
}

// FirstTime returns true the first time it is called with key during the run.
func (s *State) FirstTime(key string) bool {
	return s.emitted.SetIfAbsent(key, struct{}{})
}

// EvaluatedFiles returns the number of files whose evaluation completed.
func (s *State) EvaluatedFiles() int64 {
	return s.evaluated.Load()
}

// CrashedFiles returns the number of files whose evaluation panicked.
func (s *State) CrashedFiles() int64 {
	return s.crashed.Load()
}
