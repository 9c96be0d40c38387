package library

import (
	"sync"
	"time"
)

// IDSource hands out item ids from a millisecond clock, never repeating and
// never going backwards even when the clock does or a batch lands in one tick.
type IDSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDSource builds a source; now defaults to time.Now.
func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

// Next returns a fresh id.
func (s *IDSource) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe raises the floor so later ids stay above existing ones.
func (s *IDSource) Observe(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if it.ID > s.last {
			s.last = it.ID
		}
	}
}
