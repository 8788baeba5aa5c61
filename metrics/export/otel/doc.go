// Package otel publishes credauth engine metrics through an OpenTelemetry
// Meter. Counters become Int64ObservableCounter instruments; the validation
// latency histogram becomes one gauge per cumulative bucket plus a count.
// The caller owns the MeterProvider.
package otel
