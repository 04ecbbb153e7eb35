// Package metrics exposes Prometheus instrumentation for Pool Watch Core.
//
// Collectors are registered with the default registry at init via promauto
// and served by the API's /metrics endpoint. Packages record through the
// Record* helpers rather than touching collectors directly.
//
// Instrumented areas:
//   - HTTP request latency per route and status
//   - check-user outcomes (found, not_found, error)
//   - Session lifecycle events and the active session gauge
//   - Data source acquisition latency and failures per driver
//   - Snapshot export failures per sink
package metrics
