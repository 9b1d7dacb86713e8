package clock

import (
	"sync"
	"time"
)

// System — часы на основе time.Now (UTC).
type System struct{}

// NewSystem — конструктор System.
func NewSystem() System { return System{} }

// Now — текущее время в UTC.
func (System) Now() time.Time { return time.Now().UTC() }

// Manual — управляемые часы для тестов: время меняется только через Set/Advance.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual — часы, стоящие на t.
func NewManual(t time.Time) *Manual { return &Manual{now: t.UTC()} }

// Now — текущее показание.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set — переставить часы (в том числе назад).
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t.UTC()
	m.mu.Unlock()
}

// Advance — сдвинуть часы на d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
