package testutil

import (
	"sort"
	"sync"
	"time"
)

// MockClock implements the limiter Clock interface with controllable time.
// It lets window tests compute waits without real delays.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []mockTimer
}

type mockTimer struct {
	at time.Time
	f  func()
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc calls f once the mock clock has been moved at least d forward.
// A non-positive d calls f right away. Callbacks run on the goroutine that
// moves the clock.
func (m *MockClock) AfterFunc(d time.Duration, f func()) {
	if d <= 0 {
		f()
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timers = append(m.timers, mockTimer{at: m.now.Add(d), f: f})
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	due := m.dueLocked()
	m.mu.Unlock()

	fire(due)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	due := m.dueLocked()
	m.mu.Unlock()

	fire(due)
}

// dueLocked removes and returns the timers due at m.now, earliest first.
func (m *MockClock) dueLocked() []mockTimer {
	var due, pending []mockTimer
	for _, t := range m.timers {
		if t.at.After(m.now) {
			pending = append(pending, t)
		} else {
			due = append(due, t)
		}
	}
	m.timers = pending
	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	return due
}

func fire(timers []mockTimer) {
	for _, t := range timers {
		t.f()
	}
}
