// Package stats keeps rolling latency and outcome figures for edit operations.
package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	at     time.Time
	micros int64
	failed bool
}

// Snapshot aggregates the samples of one operation kind still inside the window.
type Snapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinUs  int64   `json:"min_us"`
	MaxUs  int64   `json:"max_us"`
	AvgUs  float64 `json:"avg_us"`
	P50Us  float64 `json:"p50_us"`
	P95Us  float64 `json:"p95_us"`
	P99Us  float64 `json:"p99_us"`
}

// Ops tracks recent operation latencies per kind within a rolling window.
type Ops struct {
	mu      sync.Mutex
	samples map[string][]sample
	window  time.Duration
	now     func() time.Time
}

// NewOps returns a tracker keeping samples for window. A non-positive window
// means one hour.
func NewOps(window time.Duration) *Ops {
	if window <= 0 {
		window = time.Hour
	}
	return &Ops{
		samples: make(map[string][]sample),
		window:  window,
		now:     time.Now,
	}
}

// Record adds one sample for kind. err only marks the sample as failed.
func (o *Ops) Record(kind string, d time.Duration, err error) {
	us := d.Microseconds()
	if us < 0 {
		us = 0
	}
	now := o.now()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.samples[kind] = append(prune(o.samples[kind], now.Add(-o.window)), sample{
		at:     now,
		micros: us,
		failed: err != nil,
	})
}

// Time runs fn and records how long it took under kind.
func (o *Ops) Time(kind string, fn func() error) error {
	start := o.now()
	err := fn()
	o.Record(kind, o.now().Sub(start), err)
	return err
}

// Snapshot returns the aggregates for every kind that still has samples.
func (o *Ops) Snapshot() map[string]Snapshot {
	cutoff := o.now().Add(-o.window)

	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]Snapshot, len(o.samples))
	for kind, ss := range o.samples {
		ss = prune(ss, cutoff)
		if len(ss) == 0 {
			delete(o.samples, kind)
			continue
		}
		o.samples[kind] = ss
		out[kind] = summarize(ss)
	}
	return out
}

func summarize(ss []sample) Snapshot {
	values := make([]int64, 0, len(ss))
	var (
		sum    int64
		errors int
	)
	for _, s := range ss {
		values = append(values, s.micros)
		sum += s.micros
		if s.failed {
			errors++
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return Snapshot{
		Count:  len(values),
		Errors: errors,
		MinUs:  values[0],
		MaxUs:  values[len(values)-1],
		AvgUs:  float64(sum) / float64(len(values)),
		P50Us:  percentile(values, 50),
		P95Us:  percentile(values, 95),
		P99Us:  percentile(values, 99),
	}
}

// prune drops samples older than cutoff in place.
func prune(ss []sample, cutoff time.Time) []sample {
	keep := ss[:0]
	for _, s := range ss {
		if !s.at.Before(cutoff) {
			keep = append(keep, s)
		}
	}
	return keep
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
