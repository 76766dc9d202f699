package adapter

import "sync/atomic"

// Counters tracks upstream request activity across a scan run.
// All fields are safe for concurrent use.
type Counters struct {
	APICalls  atomic.Int64
	Retries   atomic.Int64
	Errors    atomic.Int64
	CacheHits atomic.Int64
	Skipped   atomic.Int64
	Trades    atomic.Int64
}

// Snapshot returns a plain copy of the current counter values
func (c *Counters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		APICalls:  c.APICalls.Load(),
		Retries:   c.Retries.Load(),
		Errors:    c.Errors.Load(),
		CacheHits: c.CacheHits.Load(),
		Skipped:   c.Skipped.Load(),
		Trades:    c.Trades.Load(),
	}
}

// CountersSnapshot is a point-in-time copy of run counters
type CountersSnapshot struct {
	APICalls  int64 `json:"apiCalls"`
	Retries   int64 `json:"retries"`
	Errors    int64 `json:"errors"`
	CacheHits int64 `json:"cacheHits"`
	Skipped   int64 `json:"skipped"`
	Trades    int64 `json:"trades"`
}
