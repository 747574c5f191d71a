/*
Package slidegate throttles concurrent callers of a rate-limited remote API
with a sliding window log.

Rate Limiting (pkg/ratelimit):
  - window: at most Capacity admissions in any rolling Window; callers are told
    how long to wait instead of being rejected

Remote API (pkg/document):
  - Client: document creation, one limiter admission per call

Supporting packages:
  - pkg/config: YAML, .env and SLIDEGATE_* environment configuration
  - pkg/logging: zerolog setup
  - pkg/metrics: Prometheus collectors for the limiter and the client

Example usage:

	import (
		"github.com/vnykmshr/slidegate/pkg/document"
		"github.com/vnykmshr/slidegate/pkg/ratelimit/window"
	)

	limiter, _ := window.NewSafe(5*time.Second, 10) // 10 calls per 5s
	client, _ := document.NewClient(document.Config{Limiter: limiter})

	res, err := client.Create(ctx, document.Sample(1), document.SampleSignature(1))
*/
package slidegate
