// Package prometheus exposes authcore engine metrics through prometheus/client_golang.
//
// [NewCollector] returns a prometheus.Collector that reads
// authcore.Engine.MetricsSnapshot on every scrape. Counter names are
// authcore_*_total; the single histogram is authcore_validate_latency_seconds.
//
// The collector is never registered globally. Use [Handler] for a ready registry, or
// register the collector on your own.
package prometheus
