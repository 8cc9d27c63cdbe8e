package alerts

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"TokenWatch/internal/domain/models"
)

// DefaultCapacity bounds the in-memory alert history.
const DefaultCapacity = 500

var ErrNotFound = errors.New("alert not found")

// Store is a bounded in-memory alert registry. The oldest alerts are
// evicted once the capacity is reached.
type Store struct {
	mu    sync.RWMutex
	cap   int
	items []models.Alert
	now   func() time.Time
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{cap: capacity, now: time.Now}
}

// Create registers a new alert and returns it with its assigned ID.
func (s *Store) Create(title, severity, source, message string, payload interface{}) models.Alert {
	if severity == "" {
		severity = models.SeverityInfo
	}
	a := models.Alert{
		ID:        uuid.NewString(),
		Title:     title,
		Severity:  severity,
		Source:    source,
		Message:   message,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) >= s.cap {
		copy(s.items, s.items[1:])
		s.items = s.items[:len(s.items)-1]
	}
	s.items = append(s.items, a)
	return a
}

// List returns alerts newest first, up to limit. A non-positive limit
// returns everything.
func (s *Store) List(limit int) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Alert, 0, n)
	for i := len(s.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.items[i])
	}
	return out
}

// Ack marks the alert as acknowledged.
func (s *Store) Ack(id string) (models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Acked = true
			return s.items[i], nil
		}
	}
	return models.Alert{}, ErrNotFound
}

// Len reports the number of stored alerts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
