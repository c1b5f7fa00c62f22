// Package overlay drives the scan line animation shown while scanning is on.
package overlay

import (
	"math"
	"sync"
	"time"
)

// Sink receives animation frames. pos is 0 at rest and Travel at full offset.
type Sink interface {
	ScanPosition(pos float64)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(pos float64)

// ScanPosition implements Sink.
func (f SinkFunc) ScanPosition(pos float64) { f(pos) }

// Config holds animation timing.
type Config struct {
	PeriodMs int     `yaml:"period_ms"` // round trip, rest -> travel -> rest
	ReturnMs int     `yaml:"return_ms"` // duration of the return to rest on stop
	FrameMs  int     `yaml:"frame_ms"`  // frame interval
	Travel   float64 `yaml:"travel"`    // full offset
}

func (c Config) withDefaults() Config {
	if c.PeriodMs <= 0 {
		c.PeriodMs = 1000
	}
	if c.ReturnMs <= 0 {
		c.ReturnMs = 200
	}
	if c.FrameMs <= 0 {
		c.FrameMs = 33
	}
	if c.Travel <= 0 {
		c.Travel = 1
	}
	return c
}

// PingPong returns the looping position after elapsed: linear from 0 to travel
// over half a period and back over the other half.
func PingPong(elapsed, period time.Duration, travel float64) float64 {
	if period <= 0 {
		return 0
	}
	phase := math.Mod(float64(elapsed)/float64(period), 1)
	if phase < 0 {
		phase += 1
	}
	return travel * (1 - math.Abs(1-2*phase))
}

// Return returns the position while easing linearly from `from` to rest over d.
func Return(from float64, elapsed, d time.Duration) float64 {
	if d <= 0 || elapsed >= d {
		return 0
	}
	if elapsed <= 0 {
		return from
	}
	return from * (1 - float64(elapsed)/float64(d))
}

// Animator runs the scan overlay animation. Start and Stop are cheap and
// never block on the sink.
type Animator struct {
	cfg  Config
	sink Sink

	mu      sync.Mutex
	running bool
	pos     float64
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New creates an Animator pushing frames to sink.
func New(cfg Config, sink Sink) *Animator {
	return &Animator{cfg: cfg.withDefaults(), sink: sink}
}

// Start begins the unbounded back-and-forth loop. No-op if already running.
func (a *Animator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.switchPhaseLocked(a.loop)
}

// Stop ends the loop and animates back to rest. No-op if not running.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	a.running = false
	a.switchPhaseLocked(a.rewind)
}

// Running reports whether the loop is active.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Position returns the last rendered position.
func (a *Animator) Position() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

// Close stops any animation without the return phase and waits for it to end.
func (a *Animator) Close() {
	a.mu.Lock()
	a.running = false
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	a.mu.Unlock()
	a.wg.Wait()
}

// switchPhaseLocked cancels the current phase and starts fn from the current position.
// Must be called with a.mu held.
func (a *Animator) switchPhaseLocked(fn func(stop <-chan struct{}, from float64)) {
	if a.stop != nil {
		close(a.stop)
	}
	stop := make(chan struct{})
	a.stop = stop
	from := a.pos

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(stop, from)
	}()
}

func (a *Animator) loop(stop <-chan struct{}, from float64) {
	period := time.Duration(a.cfg.PeriodMs) * time.Millisecond
	// Resume from the current position on the rising half of the cycle.
	offset := time.Duration(from / a.cfg.Travel / 2 * float64(period))
	start := time.Now().Add(-offset)

	ticker := time.NewTicker(time.Duration(a.cfg.FrameMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		if !a.frame(stop, PingPong(time.Since(start), period, a.cfg.Travel)) {
			return
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (a *Animator) rewind(stop <-chan struct{}, from float64) {
	d := time.Duration(a.cfg.ReturnMs) * time.Millisecond
	start := time.Now()

	ticker := time.NewTicker(time.Duration(a.cfg.FrameMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		elapsed := time.Since(start)
		if !a.frame(stop, Return(from, elapsed, d)) || elapsed >= d {
			return
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// frame records pos and pushes it to the sink unless the phase was cancelled.
func (a *Animator) frame(stop <-chan struct{}, pos float64) bool {
	a.mu.Lock()
	select {
	case <-stop:
		a.mu.Unlock()
		return false
	default:
	}
	a.pos = pos
	a.mu.Unlock()

	if a.sink != nil {
		a.sink.ScanPosition(pos)
	}
	return true
}
