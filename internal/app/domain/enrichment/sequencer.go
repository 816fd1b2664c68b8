package enrichment

import "sync"

// Sequencer orders responses of concurrent lookups per key. Every request takes a
// ticket from Next; a response is applied only when its ticket is newer than the
// last one applied for the same key, so a slow early response never overwrites a
// later one.
type Sequencer struct {
	mu      sync.Mutex
	issued  map[string]uint64
	applied map[string]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{
		issued:  make(map[string]uint64),
		applied: make(map[string]uint64),
	}
}

// Next issues the next ticket for key. Tickets start at 1.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[key]++
	return s.issued[key]
}

// Apply runs fn and records seq when seq is newer than the last applied ticket
// for key. It reports whether fn ran. fn runs under the sequencer lock, so
// applies for the same sequencer never interleave.
func (s *Sequencer) Apply(key string, seq uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied[key] {
		return false
	}
	s.applied[key] = seq
	if fn != nil {
		fn()
	}
	return true
}

// Latest reports whether seq is the most recently issued ticket for key.
func (s *Sequencer) Latest(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued[key] == seq
}
