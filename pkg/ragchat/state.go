package ragchat

import "sync/atomic"

// State holds the current live index. Ingestions publish a fully built index
// with one atomic pointer swap; queries load the pointer on every read so a
// replacement is visible to the next request. Nothing may cache the index
// across an ingestion boundary.
type State struct {
	idx atomic.Pointer[Index]
}

// NewState starts with no index.
func NewState() *State {
	return &State{}
}

// Current returns the live index, or nil before the first ingestion.
func (s *State) Current() *Index {
	return s.idx.Load()
}

// Replace atomically installs ix as the live index, discarding any prior
// one. Readers see either the old complete index or the new complete index,
// never a partially populated one.
func (s *State) Replace(ix *Index) {
	s.idx.Store(ix)
}

// Size reports the entry count of the live index, 0 when absent.
func (s *State) Size() int {
	return s.idx.Load().Size()
}
