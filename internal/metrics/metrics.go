// Package metrics holds lock-free counters for in-process instrumentation.
package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value atomic.Uint64
}

func (c *Counter) Inc() {
	c.value.Add(1)
}

func (c *Counter) Add(n uint64) {
	c.value.Add(n)
}

func (c *Counter) Load() uint64 {
	return c.value.Load()
}

// Gauge holds the most recent duration observed.
type Gauge struct {
	nanos atomic.Int64
}

func (g *Gauge) Set(d time.Duration) {
	g.nanos.Store(int64(d))
}

func (g *Gauge) Load() time.Duration {
	return time.Duration(g.nanos.Load())
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
