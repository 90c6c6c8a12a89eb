// Package stats provides a minimal scoped stats interface backed by
// go-metrics. A StatsReceiver can be passed down a call tree and scoped at
// each level; instruments are registered lazily under their scoped names.
package stats

import (
	"io"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"
)

// Stats users can either reference this global receiver or construct their own.
var CurrentStatsReceiver StatsReceiver = NilStatsReceiver()

type StatsReceiver interface {
	// Scope returns a receiver recording under this receiver's scope
	// extended by the given path segments.
	Scope(scope ...string) StatsReceiver

	Counter(name string) metrics.Counter
	Gauge(name string) metrics.Gauge
	Latency(name string) *Latency
}

// DefaultStatsReceiver returns a receiver recording to a fresh registry.
func DefaultStatsReceiver() StatsReceiver {
	return &defaultStatsReceiver{registry: metrics.NewRegistry()}
}

// NilStatsReceiver returns a receiver that records to a registry nobody
// reads. Useful as a default when callers don't care about stats.
func NilStatsReceiver(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{registry: metrics.NewRegistry(), scope: scope}
}

type defaultStatsReceiver struct {
	registry metrics.Registry
	scope    []string
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{
		registry: s.registry,
		scope:    append(append([]string{}, s.scope...), scope...),
	}
}

func (s *defaultStatsReceiver) scoped(name string) string {
	return strings.Join(append(append([]string{}, s.scope...), name), "/")
}

func (s *defaultStatsReceiver) Counter(name string) metrics.Counter {
	return metrics.GetOrRegisterCounter(s.scoped(name), s.registry)
}

func (s *defaultStatsReceiver) Gauge(name string) metrics.Gauge {
	return metrics.GetOrRegisterGauge(s.scoped(name), s.registry)
}

func (s *defaultStatsReceiver) Latency(name string) *Latency {
	return &Latency{timer: metrics.GetOrRegisterTimer(s.scoped(name), s.registry)}
}

// WriteJSONOnce renders the receiver's registry as JSON, for admin endpoints.
// Receivers not created by this package render nothing.
func WriteJSONOnce(s StatsReceiver, w io.Writer) {
	if ds, ok := s.(*defaultStatsReceiver); ok {
		metrics.WriteJSONOnce(ds.registry, w)
	}
}

// Latency records callsite latency into a go-metrics timer:
//
//	defer stat.Latency("submitLatency_ms").Time().Stop()
type Latency struct {
	timer metrics.Timer
	start time.Time
}

func (l *Latency) Time() *Latency {
	l.start = time.Now()
	return l
}

func (l *Latency) Stop() {
	l.timer.Update(time.Since(l.start))
}
