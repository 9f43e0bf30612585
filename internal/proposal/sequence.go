package proposal

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Sequencer hands out draft numbers for journals and stock moves. Draft
// numbers only need to be unique enough for human review; the ledger
// assigns the real identifiers on posting.
type Sequencer interface {
	Next(kind string) string
}

type clockSequencer struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewSequencer() Sequencer {
	return &clockSequencer{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Next yields numbers like JRN-20240305-482913.
func (s *clockSequencer) Next(kind string) string {
	s.mu.Lock()
	n := s.rand.Intn(1_000_000)
	s.mu.Unlock()
	return fmt.Sprintf("%s-%s-%06d", kind, time.Now().UTC().Format("20060102"), n)
}
