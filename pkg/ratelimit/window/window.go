package window

import (
	"context"
	"time"

	sgctx "github.com/vnykmshr/slidegate/pkg/common/context"
)

// Acquire records a new admission and returns how long the caller must wait.
func (sw *slidingWindow) Acquire() time.Duration {
	_, wait := sw.admit()
	return wait
}

// Release forgets the oldest tracked admission.
func (sw *slidingWindow) Release() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if len(sw.records) == 0 {
		panic("window: release without matching acquire")
	}
	sw.removeAt(0)
}

// Reserve records a new admission and returns a Reservation for it.
func (sw *slidingWindow) Reserve() *Reservation {
	rec, wait := sw.admit()
	return &Reservation{
		id:      rec.id,
		delay:   wait,
		startAt: rec.startAt,
		lim:     sw,
	}
}

// Wait reserves an admission and blocks until it may start.
func (sw *slidingWindow) Wait(ctx context.Context) (*Reservation, error) {
	return waitFor(ctx, sw.Reserve)
}

// Do waits for admission, runs fn and schedules the release.
func (sw *slidingWindow) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return runScoped(ctx, sw.Wait, fn)
}

// Window returns the length of the sliding interval.
func (sw *slidingWindow) Window() time.Duration {
	return sw.window
}

// Capacity returns the maximum number of admissions per window.
func (sw *slidingWindow) Capacity() int {
	return sw.capacity
}

// Tracked returns the number of admissions not yet released.
func (sw *slidingWindow) Tracked() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return len(sw.records)
}

// admit appends a record for a new admission and returns it with its wait.
// Everything between reading the log and appending to it happens under sw.mu.
func (sw *slidingWindow) admit() (*record, time.Duration) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.clock.Now()

	sw.nextID++
	rec := &record{
		id:        sw.nextID,
		createdAt: now,
	}

	var wait time.Duration
	if n := len(sw.records); n >= sw.capacity {
		candidate := sw.records[n-sw.capacity]
		before := candidate.residual
		wait = candidate.consult(now, sw.window)
		rec.consulted = candidate
		rec.spent = before - candidate.residual
	}

	rec.residual = wait
	rec.startAt = now.Add(wait)
	sw.records = append(sw.records, rec)

	return rec, wait
}

// consult returns the wait for an admission at now when r is the record
// capacity positions back, and spends the elapsed time against r's residual
// budget so a later look at r does not count the same wait again.
// Must be called with sw.mu held.
func (r *record) consult(now time.Time, window time.Duration) time.Duration {
	elapsed := now.Sub(r.createdAt)
	wait := window - elapsed + r.residual

	r.residual -= elapsed
	if r.residual < 0 {
		r.residual = 0
	}

	if wait < 0 {
		return 0
	}
	return wait
}

// remove drops the record with the given id. It reports whether the record
// was still tracked.
func (sw *slidingWindow) remove(id uint64) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	for i, rec := range sw.records {
		if rec.id == id {
			sw.removeAt(i)
			return true
		}
	}
	return false
}

// removeAt drops the record at index i keeping admission order.
// Must be called with sw.mu held.
func (sw *slidingWindow) removeAt(i int) {
	rec := sw.records[i]

	n := len(sw.records)
	copy(sw.records[i:], sw.records[i+1:])
	sw.records[n-1] = nil
	sw.records = sw.records[:n-1]

	sw.refund(rec)
}

// refund returns the credit rec took from the record it consulted, if rec is
// removed before its start time and that record is still tracked.
// Must be called with sw.mu held.
func (sw *slidingWindow) refund(rec *record) {
	if rec.consulted == nil || rec.spent == 0 {
		return
	}
	if !sw.clock.Now().Before(rec.startAt) {
		return
	}
	for _, r := range sw.records {
		if r == rec.consulted {
			r.residual += rec.spent
			return
		}
	}
}

// holdUntil returns how long is left before t according to the limiter clock.
func (sw *slidingWindow) holdUntil(t time.Time) time.Duration {
	return t.Sub(sw.clock.Now())
}

// afterFunc runs f once d has passed on the limiter clock.
func (sw *slidingWindow) afterFunc(d time.Duration, f func()) {
	if tc, ok := sw.clock.(TimerClock); ok {
		tc.AfterFunc(d, f)
		return
	}
	time.AfterFunc(d, f)
}

func waitFor(ctx context.Context, reserve func() *Reservation) (*Reservation, error) {
	// Check if context is already canceled
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := reserve()
	if err := sgctx.Sleep(ctx, r.Delay()); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func runScoped(ctx context.Context, waitFn func(context.Context) (*Reservation, error), fn func(ctx context.Context) error) error {
	r, err := waitFn(ctx)
	if err != nil {
		return err
	}
	defer r.ReleaseAfterWindow()

	return fn(ctx)
}
