// Package otel publishes authcore engine metrics through the OpenTelemetry metric API.
//
// [New] registers one Int64ObservableCounter per engine counter and one
// Int64ObservableGauge per latency bucket, all fed by a single callback that reads
// authcore.Engine.MetricsSnapshot once per collection. The caller owns the
// MeterProvider.
package otel
