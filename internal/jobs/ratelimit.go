package jobs

import (
	"sync"
	"time"
)

// SlidingWindow admits at most limit events per key within window.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  max(1, limit),
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records an event for key and reports whether it fits in the window.
// Rejected attempts are not recorded.
func (s *SlidingWindow) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	recent := s.hits[key][:0]
	for _, ts := range s.hits[key] {
		if now.Sub(ts) < s.window {
			recent = append(recent, ts)
		}
	}
	if len(recent) >= s.limit {
		s.hits[key] = recent
		return false
	}
	s.hits[key] = append(recent, now)
	return true
}

func (s *SlidingWindow) Limit() int            { return s.limit }
func (s *SlidingWindow) Window() time.Duration { return s.window }
