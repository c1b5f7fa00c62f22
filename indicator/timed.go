package indicator

import (
	"sync"
	"time"
)

// Timed wraps an Indicator so that Accepted and Rejected fall back to Idle
// after a delay, unless another state was shown in the meantime.
type Timed struct {
	Indicator
	delay time.Duration

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	dismiss func()
}

// SetDismiss replaces the fall back to Idle with fn, which should repaint
// whatever state the station is in by then.
func (t *Timed) SetDismiss(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dismiss = fn
}

// NewTimed wraps ind. A zero delay defaults to 3 seconds.
func NewTimed(ind Indicator, delay time.Duration) *Timed {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Timed{Indicator: ind, delay: delay}
}

// bump invalidates any pending dismissal.
func (t *Timed) bump() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return t.gen
}

func (t *Timed) dismissLater(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		current := t.gen == gen
		fn := t.dismiss
		t.mu.Unlock()
		if !current {
			return
		}
		if fn != nil {
			fn()
			return
		}
		t.Indicator.Idle()
	})
}

func (t *Timed) Idle()             { t.bump(); t.Indicator.Idle() }
func (t *Timed) Scanning()         { t.bump(); t.Indicator.Scanning() }
func (t *Timed) Validating()       { t.bump(); t.Indicator.Validating() }
func (t *Timed) PermissionDenied() { t.bump(); t.Indicator.PermissionDenied() }
func (t *Timed) ConnectionLost()   { t.bump(); t.Indicator.ConnectionLost() }
func (t *Timed) Shutdown()         { t.bump(); t.Indicator.Shutdown() }

// Accepted implements Indicator.Accepted and schedules the return to idle.
func (t *Timed) Accepted(info *TicketInfo) {
	gen := t.bump()
	t.Indicator.Accepted(info)
	t.dismissLater(gen)
}

// Rejected implements Indicator.Rejected and schedules the return to idle.
func (t *Timed) Rejected(info *TicketInfo) {
	gen := t.bump()
	t.Indicator.Rejected(info)
	t.dismissLater(gen)
}

// ScanPosition forwards animation frames to the wrapped indicator.
func (t *Timed) ScanPosition(pos float64) {
	if s := Sink(t.Indicator); s != nil {
		s.ScanPosition(pos)
	}
}

// SetConnected forwards the connection state to the wrapped indicator.
func (t *Timed) SetConnected() {
	SetConnected(t.Indicator)
}
