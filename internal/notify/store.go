package notify

import (
	"sync"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

const (
	_limitDefault = 50
)

// Store keeps the most recent alerts, newest first, with a read flag each.
type Store struct {
	mu     sync.RWMutex
	alerts []model.Alert
	limit  int
	clock  clock.Clock
	hook   func(model.Alert)
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithHook calls fn with every stored alert, outside the store lock.
func WithHook(fn func(model.Alert)) Option {
	return func(s *Store) {
		s.hook = fn
	}
}

func NewStore(limit int, opts ...Option) *Store {
	if limit <= 0 {
		limit = _limitDefault
	}
	s := &Store{
		limit: limit,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add stores a as unread. Missing id and timestamp are filled in.
func (s *Store) Add(a model.Alert) model.Alert {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = s.clock.Now().UTC()
	}
	a.Read = false

	s.mu.Lock()
	s.alerts = append([]model.Alert{a}, s.alerts...)
	if len(s.alerts) > s.limit {
		s.alerts = s.alerts[:s.limit]
	}
	s.mu.Unlock()

	if s.hook != nil {
		s.hook(a)
	}
	return a
}

func (s *Store) List() []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Alert(nil), s.alerts...)
}

func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Read = true
			return true
		}
	}
	return false
}

func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		s.alerts[i].Read = true
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = nil
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.alerts {
		if !a.Read {
			n++
		}
	}
	return n
}
