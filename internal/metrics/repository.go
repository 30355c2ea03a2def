package metrics

import (
	"sync/atomic"
	"time"
)

// Counter is a process-local monotonic counter safe for concurrent use.
type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// RequestStats aggregates request outcomes for the admin stats
// endpoint. The zero value is ready to use.
type RequestStats struct {
	Total        Counter
	ClientErrors Counter
	ServerErrors Counter

	// LatencyMS accumulates handler time; divide by Total for the mean
	// since process start.
	LatencyMS Counter
}

func (s *RequestStats) Observe(status int, elapsed time.Duration) {
	s.Total.Inc()
	switch {
	case status >= 500:
		s.ServerErrors.Inc()
	case status >= 400:
		s.ClientErrors.Inc()
	}
	s.LatencyMS.Add(uint64(elapsed.Milliseconds()))
}

func (s *RequestStats) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"requests_total": s.Total.Load(),
		"client_errors":  s.ClientErrors.Load(),
		"server_errors":  s.ServerErrors.Load(),
		"latency_ms_sum": s.LatencyMS.Load(),
	}
}
