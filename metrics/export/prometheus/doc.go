// Package prometheus renders credauth engine metrics in the Prometheus text
// exposition format. Nothing is registered globally; callers mount Handler.
package prometheus
