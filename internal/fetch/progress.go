package fetch

import (
	"io"
	"sync"
	"sync/atomic"
)

// Counter aggregates bytes received across concurrent segment workers.
type Counter struct {
	n atomic.Int64
}

// Add records delta bytes and returns the new total. Negative deltas are
// ignored so the total never decreases.
func (c *Counter) Add(delta int64) int64 {
	if delta <= 0 {
		return c.n.Load()
	}
	return c.n.Add(delta)
}

// Load returns the current total.
func (c *Counter) Load() int64 {
	return c.n.Load()
}

// reporter forwards aggregate totals to a callback, dropping any value that
// is not larger than the last one delivered.
type reporter struct {
	mu   sync.Mutex
	last int64
	fn   func(received, total int64)
}

func (r *reporter) report(received, total int64) {
	if r == nil || r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if received <= r.last {
		return
	}
	r.last = received
	r.fn(received, total)
}

// countingWriter forwards writes and credits the shared counter only for
// bytes past the segment's high-water mark, so a retried segment is not
// counted twice.
type countingWriter struct {
	w         io.Writer
	counter   *Counter
	highWater *int64
	limit     int64
	total     int64
	written   int64
	progress  *reporter
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		cw.written += int64(n)
		reached := min(cw.written, cw.limit)
		if reached > *cw.highWater {
			delta := reached - *cw.highWater
			*cw.highWater = reached
			cw.progress.report(cw.counter.Add(delta), cw.total)
		}
	}
	return n, err
}
