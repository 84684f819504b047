package generate

import (
	"sort"
	"sync"
	"time"
)

// StatsSnapshot aggregates the LLM calls observed inside the rolling
// window. Latency figures cover successful calls only; failed calls
// are counted but their durations say more about timeouts than about
// the backend, so they stay out of the percentiles.
type StatsSnapshot struct {
	WindowSeconds int   `json:"window_seconds"`
	Calls         int   `json:"calls"`
	Failures      int   `json:"failures"`
	MinMs         int64 `json:"min_ms"`
	MaxMs         int64 `json:"max_ms"`
	AvgMs         int64 `json:"avg_ms"`
	P50Ms         int64 `json:"p50_ms"`
	P95Ms         int64 `json:"p95_ms"`
	P99Ms         int64 `json:"p99_ms"`
}

type callSample struct {
	at time.Time
	d  time.Duration
	ok bool
}

// Stats tracks completion call outcomes within a rolling window.
type Stats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []callSample
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		window:  window,
		samples: make([]callSample, 0, 256),
	}
}

// Observe records one completion call: its duration and whether it
// succeeded.
func (s *Stats) Observe(d time.Duration, err error) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, callSample{at: now, d: d, ok: err == nil})
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{
		WindowSeconds: int(s.window.Seconds()),
		Calls:         len(s.samples),
	}

	var durs []time.Duration
	var sum time.Duration
	for _, c := range s.samples {
		if !c.ok {
			snap.Failures++
			continue
		}
		durs = append(durs, c.d)
		sum += c.d
	}
	if len(durs) == 0 {
		return snap
	}
	sort.Slice(durs, func(i, j int) bool { return durs[i] < durs[j] })

	snap.MinMs = durs[0].Milliseconds()
	snap.MaxMs = durs[len(durs)-1].Milliseconds()
	snap.AvgMs = (sum / time.Duration(len(durs))).Milliseconds()
	snap.P50Ms = quantileMs(durs, 50)
	snap.P95Ms = quantileMs(durs, 95)
	snap.P99Ms = quantileMs(durs, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	keep := s.samples[:0]
	for _, c := range s.samples {
		if !c.at.Before(cutoff) {
			keep = append(keep, c)
		}
	}
	s.samples = keep
}

// quantileMs is the nearest-rank quantile of the sorted durations.
func quantileMs(sorted []time.Duration, pct int) int64 {
	rank := (pct*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1].Milliseconds()
}
