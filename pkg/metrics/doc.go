// Package metrics provides Prometheus instrumentation for slidegate components.
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	limiter := window.NewWithMetrics(5*time.Second, 10, "crpt")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":9090", nil))
//
// # Available Metrics
//
// Sliding window limiter, labelled by limiter_name:
//
//   - slidegate_window_admissions_total: admissions granted
//   - slidegate_window_delayed_total: admissions that had to wait
//   - slidegate_window_releases_total: admissions released
//   - slidegate_window_wait_duration_seconds: computed wait per admission
//   - slidegate_window_tracked: admissions currently tracked
//
// Document client, labelled by outcome ("created", "rejected", "error", "canceled"):
//
//   - slidegate_document_requests_total
//   - slidegate_document_request_duration_seconds
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation, which is what tests do:
//
//	reg := prometheus.NewRegistry()
//	limiter := window.NewWithConfigAndMetrics(
//		window.Config{Window: time.Second, Capacity: 5},
//		"custom",
//		metrics.Config{Enabled: true, Registry: reg},
//	)
package metrics
