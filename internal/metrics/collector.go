// Package metrics exposes the attempt log as Prometheus gauges.
//
// Values are recomputed from the store on every scrape; there are no
// counters to keep in sync with the log.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/daydemir/ci-recovery/internal/history"
)

const namespace = "ci_recovery"

// listTimeout bounds how long a scrape waits on the store
const listTimeout = 5 * time.Second

var (
	attemptsDesc = prom.NewDesc(
		prom.BuildFQName(namespace, "", "attempts_total"),
		"Number of recorded recovery attempts",
		nil, nil,
	)
	successRatioDesc = prom.NewDesc(
		prom.BuildFQName(namespace, "", "success_ratio"),
		"Share of recorded attempts that succeeded (0 when none)",
		nil, nil,
	)
	durationDesc = prom.NewDesc(
		prom.BuildFQName(namespace, "", "attempt_duration_avg_ms"),
		"Average attempt duration in milliseconds",
		nil, nil,
	)
	commonErrorDesc = prom.NewDesc(
		prom.BuildFQName(namespace, "", "common_error_occurrences"),
		"Occurrences of the most frequent error messages",
		[]string{"message"}, nil,
	)
)

// Collector computes recovery gauges from a history store
type Collector struct {
	store history.Store
}

// NewCollector creates a collector over store
func NewCollector(store history.Store) *Collector {
	return &Collector{store: store}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prom.Desc) {
	ch <- attemptsDesc
	ch <- successRatioDesc
	ch <- durationDesc
	ch <- commonErrorDesc
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prom.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
	defer cancel()

	attempts, err := c.store.List(ctx)
	if err != nil {
		ch <- prom.NewInvalidMetric(attemptsDesc, fmt.Errorf("list attempts: %w", err))
		return
	}

	stats := history.ComputeStats(attempts)
	counts := history.ErrorCounts(attempts)

	ch <- prom.MustNewConstMetric(attemptsDesc, prom.GaugeValue, float64(stats.TotalAttempts))
	ch <- prom.MustNewConstMetric(successRatioDesc, prom.GaugeValue, stats.SuccessRate)
	ch <- prom.MustNewConstMetric(durationDesc, prom.GaugeValue, stats.AverageDuration)

	// Label values must be valid UTF-8; stores filled outside the parsers
	// may hold raw bytes, and distinct raw messages can share a label
	var labels []string
	occurrences := make(map[string]float64)
	for _, message := range stats.CommonErrors {
		label := strings.ToValidUTF8(message, "\uFFFD")
		if _, seen := occurrences[label]; !seen {
			labels = append(labels, label)
		}
		occurrences[label] += float64(counts[message])
	}
	for _, label := range labels {
		m, err := prom.NewConstMetric(commonErrorDesc, prom.GaugeValue, occurrences[label], label)
		if err != nil {
			continue
		}
		ch <- m
	}
}

// NewRegistry returns a registry holding only the recovery collector
func NewRegistry(store history.Store) (*prom.Registry, error) {
	reg := prom.NewRegistry()
	if err := reg.Register(NewCollector(store)); err != nil {
		return nil, fmt.Errorf("register collector: %w", err)
	}
	return reg, nil
}

// WriteTextfile writes the current gauges to path in the text exposition
// format read by node_exporter's textfile collector
func WriteTextfile(path string, store history.Store) error {
	reg, err := NewRegistry(store)
	if err != nil {
		return err
	}
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
