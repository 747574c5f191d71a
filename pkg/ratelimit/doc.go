/*
Package ratelimit groups the rate limiting primitives of slidegate.

The window subpackage implements a sliding-window log limiter: it admits at
most Capacity operations inside any rolling interval of length Window and
tells each caller how long to wait instead of rejecting it.

	limiter := window.New(5*time.Second, 10)

	wait := limiter.Acquire()
	time.Sleep(wait)
	callRemoteAPI()
	limiter.Release()

Do wraps that protocol with context cancellation and keeps each admission
tracked until a full window has passed since it started:

	err := limiter.Do(ctx, func(ctx context.Context) error {
		return callRemoteAPI(ctx)
	})

All limiters are safe for concurrent use.
*/
package ratelimit
