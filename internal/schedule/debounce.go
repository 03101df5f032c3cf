package schedule

import (
	"sync"
	"time"
)

// Debouncer timing
const (
	// MinInterval is the hard throttle: events arriving sooner than this
	// after the last accepted event are dropped.
	MinInterval = 100 * time.Millisecond

	// QuietPeriod is the additional quiescence an accepted event waits for
	// before the handler runs.
	QuietPeriod = 150 * time.Millisecond
)

// Debouncer wraps a raw selection-change handler with throttle-then-debounce
// rate limiting. A newer accepted event supersedes a pending one: the stale
// deferred callback is cancelled outright.
type Debouncer struct {
	mu           sync.Mutex
	minInterval  time.Duration
	quiet        time.Duration
	fn           func()
	timer        *time.Timer
	lastAccepted time.Time
	now          func() time.Time
}

// NewDebouncer wraps fn. Zero durations take the package defaults.
func NewDebouncer(fn func(), minInterval, quiet time.Duration) *Debouncer {
	if minInterval <= 0 {
		minInterval = MinInterval
	}
	if quiet <= 0 {
		quiet = QuietPeriod
	}
	return &Debouncer{
		minInterval: minInterval,
		quiet:       quiet,
		fn:          fn,
		now:         time.Now,
	}
}

// Trigger records a raw event. Dropped while inside the throttle window;
// otherwise the quiescence timer is (re)started and the handler runs once
// it expires undisturbed.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if !d.lastAccepted.IsZero() && now.Sub(d.lastAccepted) < d.minInterval {
		return
	}
	d.lastAccepted = now
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.fn)
}

// Cancel drops any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
