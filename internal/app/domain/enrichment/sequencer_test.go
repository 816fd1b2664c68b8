package enrichment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencer_LastRequestedWins(t *testing.T) {
	s := NewSequencer()

	first := s.Next("carthage")
	second := s.Next("carthage")
	assert.True(t, s.Latest("carthage", second))
	assert.False(t, s.Latest("carthage", first))

	var applied []uint64
	assert.True(t, s.Apply("carthage", second, func() { applied = append(applied, second) }))
	// The earlier request resolves late and is discarded.
	assert.False(t, s.Apply("carthage", first, func() { applied = append(applied, first) }))
	assert.Equal(t, []uint64{second}, applied)
}

func TestSequencer_InOrderResponsesAllApply(t *testing.T) {
	s := NewSequencer()
	a, b := s.Next("k"), s.Next("k")
	assert.True(t, s.Apply("k", a, nil))
	assert.True(t, s.Apply("k", b, nil))
	assert.False(t, s.Apply("k", b, nil), "same ticket twice")
}

func TestSequencer_KeysAreIndependent(t *testing.T) {
	s := NewSequencer()
	a := s.Next("a")
	s.Next("b")
	s.Next("b")
	assert.Equal(t, uint64(1), a)
	assert.True(t, s.Apply("a", a, nil))
}

func TestSequencer_Concurrent(t *testing.T) {
	s := NewSequencer()
	var wg sync.WaitGroup
	tickets := make(chan uint64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets <- s.Next("k")
		}()
	}
	wg.Wait()
	close(tickets)

	seen := make(map[uint64]bool)
	for tk := range tickets {
		assert.False(t, seen[tk], "duplicate ticket %d", tk)
		seen[tk] = true
	}
	assert.Len(t, seen, 100)
	assert.True(t, s.Latest("k", 100))
}
