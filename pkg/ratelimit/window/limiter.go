package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vnykmshr/slidegate/pkg/common/validation"
)

// Limiter admits at most Capacity operations inside any rolling interval of
// length Window. It never sleeps on the caller's behalf: Acquire and Reserve
// return how long the caller has to wait, and the caller blocks outside the
// limiter's lock.
type Limiter interface {
	// Acquire records a new admission and returns how long the caller must
	// wait before starting the operation. It does not block.
	Acquire() time.Duration

	// Release forgets the oldest tracked admission. It must be called exactly
	// once per Acquire, after the operation finished, and assumes operations
	// finish in admission order. It panics if nothing is tracked.
	Release()

	// Reserve is Acquire returning a Reservation that releases exactly its own
	// admission, for callers whose operations may finish out of order.
	Reserve() *Reservation

	// Wait reserves an admission and blocks for its delay. If ctx is done
	// before the delay elapses the reservation is rolled back and ctx.Err()
	// is returned.
	Wait(ctx context.Context) (*Reservation, error)

	// Do waits for admission, runs fn and releases the admission once the
	// window that started with it has passed. The admission is released on
	// every path, including a failing or panicking fn.
	Do(ctx context.Context, fn func(ctx context.Context) error) error

	// Window returns the length of the sliding interval.
	Window() time.Duration

	// Capacity returns the maximum number of admissions per window.
	Capacity() int

	// Tracked returns the number of admissions not yet released.
	Tracked() int
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// TimerClock is a Clock that can also run a callback once d has passed on
// its own time line. When the configured Clock implements it, the release
// scheduled by Do and ReleaseAfterWindow follows that clock instead of
// wall-clock time.
type TimerClock interface {
	Clock
	AfterFunc(d time.Duration, f func())
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Window is the length of the sliding interval. Must be positive.
	Window time.Duration

	// Capacity is the maximum number of admissions inside any Window. Must be positive.
	Capacity int

	// Clock provides the current time. If nil, SystemClock is used.
	// Delayed releases use time.AfterFunc unless Clock is a TimerClock.
	Clock Clock
}

// record is one admitted operation that has not been released yet.
type record struct {
	id        uint64
	createdAt time.Time

	// residual is the wait credit still attributable to this record. It starts
	// at the wait computed for the record and is spent by every later
	// admission that looks back at it.
	residual time.Duration

	// startAt is createdAt plus the wait handed out for this record.
	startAt time.Time

	// consulted is the record this admission looked back at, and spent is the
	// credit it took from consulted's residual. Both are nil/zero on the fast
	// path.
	consulted *record
	spent     time.Duration
}

// slidingWindow implements Limiter with a sliding-window log.
type slidingWindow struct {
	mu       sync.Mutex
	window   time.Duration
	capacity int
	clock    Clock
	records  []*record // admission order
	nextID   uint64
}

// New creates a new sliding window limiter.
// It panics on invalid arguments; use NewSafe to get an error instead.
func New(window time.Duration, capacity int) Limiter {
	l, err := NewSafe(window, capacity)
	if err != nil {
		panic(fmt.Sprintf("window: %v", err))
	}
	return l
}

// NewSafe creates a new sliding window limiter with validation that returns an error instead of panicking.
// This is the recommended way to create limiters for production use.
func NewSafe(window time.Duration, capacity int) (Limiter, error) {
	return NewWithConfigSafe(Config{
		Window:   window,
		Capacity: capacity,
		Clock:    SystemClock{},
	})
}

// NewWithConfigSafe creates a new sliding window limiter with validation that returns an error instead of panicking.
// The returned error wraps errors.ErrInvalidConfiguration.
func NewWithConfigSafe(config Config) (Limiter, error) {
	l, err := newSlidingWindow(config)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func newSlidingWindow(config Config) (*slidingWindow, error) {
	if err := validation.ValidatePositiveDuration("window", "window", config.Window); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("window", "capacity", config.Capacity); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	return &slidingWindow{
		window:   config.Window,
		capacity: config.Capacity,
		clock:    config.Clock,
		records:  make([]*record, 0, config.Capacity),
	}, nil
}
