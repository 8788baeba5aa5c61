// Package internaldefs holds the metric names and bucket bounds shared by
// the exporters, so every backend publishes the same series.
package internaldefs
