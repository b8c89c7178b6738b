// Package metrics defines the Prometheus collectors of the archive service.
package metrics

// Namespace prefixes every metric name.
const Namespace = "tosarchive"
