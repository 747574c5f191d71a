package window

import (
	"sync"
	"time"
)

// Reservation is one admission handed out by Reserve or Wait. Releasing it
// removes exactly this admission from the limiter, whatever its position.
type Reservation struct {
	id      uint64
	delay   time.Duration
	startAt time.Time
	lim     *slidingWindow

	once      sync.Once
	onRelease func(removed bool)
}

// Delay returns how long the holder had to wait after reserving.
func (r *Reservation) Delay() time.Duration {
	return r.delay
}

// StartAt returns the earliest time the operation may start.
func (r *Reservation) StartAt() time.Time {
	return r.startAt
}

// Release removes the admission from the limiter. Calling it more than once
// is a no-op.
func (r *Reservation) Release() {
	r.once.Do(func() {
		removed := r.lim.remove(r.id)
		if r.onRelease != nil {
			r.onRelease(removed)
		}
	})
}

// ReleaseAfterWindow releases the admission once a full window has passed
// since StartAt, so the operation keeps occupying its slot for the whole
// interval it started. It returns immediately; the release happens on a timer.
func (r *Reservation) ReleaseAfterWindow() {
	hold := r.lim.holdUntil(r.startAt.Add(r.lim.window))
	if hold <= 0 {
		r.Release()
		return
	}
	r.lim.afterFunc(hold, r.Release)
}
