package market

import (
	"sync"

	"TokenWatch/internal/domain/models"
)

// DefaultCapacity bounds the per-asset candle window.
const DefaultCapacity = 300

// Store keeps a bounded rolling candle window per asset. Appends beyond the
// capacity evict the oldest candle first.
type Store struct {
	mu  sync.RWMutex
	cap int
	buf map[string][]models.Candle
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		cap: capacity,
		buf: make(map[string][]models.Candle),
	}
}

// Append adds a candle to the asset's window, evicting from the front when
// the window is full.
func (s *Store) Append(asset string, c models.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.buf[asset]
	if len(w) >= s.cap {
		copy(w, w[1:])
		w = w[:len(w)-1]
	}
	s.buf[asset] = append(w, c)
}

// Window returns a copy of the asset's current candle window, oldest first.
func (s *Store) Window(asset string) []models.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := s.buf[asset]
	if len(w) == 0 {
		return nil
	}
	out := make([]models.Candle, len(w))
	copy(out, w)
	return out
}

// Len reports the number of candles held for the asset.
func (s *Store) Len(asset string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf[asset])
}

// Assets lists every asset with at least one candle.
func (s *Store) Assets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.buf))
	for a := range s.buf {
		out = append(out, a)
	}
	return out
}

// Counts reports per-asset window sizes.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.buf))
	for a, w := range s.buf {
		out[a] = len(w)
	}
	return out
}
