// Package metrics defines the Prometheus collectors of a securelink node.
//
// A nil *Metrics is valid and records nothing.
package metrics
