/*
Package window provides a sliding-window log rate limiter for client-side
admission control.

A window limiter guarantees that no more than Capacity operations start
inside any rolling interval of length Window, no matter how many goroutines
ask for admission at once. It is meant to sit in front of calls to a remote
service that enforces its own rate limit and penalizes callers that exceed it.

Basic usage:

	limiter, err := window.NewSafe(5*time.Second, 10) // 10 calls per 5s
	if err != nil {
		log.Fatal(err)
	}

	err = limiter.Do(ctx, func(ctx context.Context) error {
		return callRemote(ctx)
	})

Algorithm:

The limiter keeps the admissions that have not been released yet, in the
order they were granted. When fewer than Capacity admissions are tracked a
new one starts immediately. Otherwise the record Capacity positions back is
the one whose slot the new admission inherits, and the new admission waits
until a full Window has passed since that record started:

	wait = max(Window - elapsed + residual, 0)

where elapsed is the time since the record was admitted and residual is the
wait credit the record still carries. Each look at a record spends the
elapsed time against its residual, so two admissions that consult the same
record (possible after a rollback or an out-of-order release) do not both
count its wait in full. An admission removed before its start time gives the
credit it spent back to the record it consulted, so a rolled back Wait leaves
the schedule of the remaining admissions unchanged.

Acquire and Release:

The low level API mirrors a counting semaphore whose permits are time gated.
Acquire never blocks; it returns the wait and the caller sleeps outside the
limiter:

	d := limiter.Acquire()
	time.Sleep(d)
	callRemote()
	limiter.Release()

Release removes the oldest tracked admission, so it assumes operations finish
in the order they were admitted. Releasing more than was acquired panics.

Reservations:

Reserve, Wait and Do hand out a Reservation bound to one admission.
Reservation.Release removes exactly that admission, which keeps bookkeeping
correct when operations finish out of order. Wait rolls the reservation back
if the context is canceled during the delay:

	r, err := limiter.Wait(ctx)
	if err != nil {
		return err // nothing left tracked
	}
	defer r.ReleaseAfterWindow()

Do combines the steps and keeps the admission tracked until a full window has
passed since it started, releasing it on a timer so the caller is not held up.
This is the usage that preserves the Capacity-per-Window guarantee for
operations of any duration.

Metrics:

NewWithMetrics and NewWithConfigAndMetrics wrap the limiter with Prometheus
counters for admissions, delayed admissions and releases, a histogram of
computed waits and a gauge of tracked admissions. See package metrics.

Thread Safety:

All methods are safe for concurrent use. Bookkeeping runs under a single
mutex; sleeping and the guarded operation never hold it.

Bounds:

When admissions are released only after their window has passed, as Do
does, a computed wait never exceeds Window while fewer than 2*Capacity
admissions are tracked. Larger bursts queue behind each other in
Window-sized steps.
*/
package window
