// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Open, idle, acquired and constructing connections
//   - Checkout counts, including empty and canceled checkouts
//   - Connections evicted as broken or invalid
package metrics
