// Package metrics exports the summary of a run in the Prometheus text format
// for the node_exporter textfile collector.
//
// A one-shot CLI has no scrape endpoint, so each run builds a private registry
// and writes it atomically to the configured textfile path. Dashboards can
// then alert on failed files or stale runs.
package metrics
