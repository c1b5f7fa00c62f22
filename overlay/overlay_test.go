package overlay

import (
	"math"
	"sync"
	"testing"
	"time"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPingPong(t *testing.T) {
	period := time.Second
	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 10},
		{750 * time.Millisecond, 5},
		{time.Second, 0},
		{1250 * time.Millisecond, 5},
		{10*time.Second + 500*time.Millisecond, 10},
	}
	for _, tt := range tests {
		if got := PingPong(tt.elapsed, period, 10); !near(got, tt.want) {
			t.Fatalf("PingPong(%v) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
	if got := PingPong(time.Second, 0, 10); got != 0 {
		t.Fatalf("zero period should rest, got %v", got)
	}
}

func TestReturn(t *testing.T) {
	d := 200 * time.Millisecond
	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0.8},
		{50 * time.Millisecond, 0.6},
		{100 * time.Millisecond, 0.4},
		{200 * time.Millisecond, 0},
		{time.Second, 0},
	}
	for _, tt := range tests {
		if got := Return(0.8, tt.elapsed, d); !near(got, tt.want) {
			t.Fatalf("Return(%v) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}

type recorder struct {
	mu     sync.Mutex
	frames []float64
}

func (r *recorder) ScanPosition(pos float64) {
	r.mu.Lock()
	r.frames = append(r.frames, pos)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) last() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return -1
	}
	return r.frames[len(r.frames)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAnimatorStartStop(t *testing.T) {
	rec := &recorder{}
	a := New(Config{PeriodMs: 40, ReturnMs: 20, FrameMs: 1}, rec)
	defer a.Close()

	if a.Running() {
		t.Fatal("new animator should not be running")
	}

	a.Start()
	if !a.Running() {
		t.Fatal("expected running after Start")
	}
	a.Start() // no-op
	waitFor(t, func() bool { return rec.count() > 5 })

	a.Stop()
	if a.Running() {
		t.Fatal("expected stopped after Stop")
	}
	a.Stop() // no-op

	// The return phase ends exactly at rest.
	waitFor(t, func() bool { return rec.last() == 0 && a.Position() == 0 })
}

func TestAnimatorFramesStayInRange(t *testing.T) {
	rec := &recorder{}
	a := New(Config{PeriodMs: 30, FrameMs: 1, Travel: 2}, rec)
	a.Start()
	waitFor(t, func() bool { return rec.count() > 20 })
	a.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, pos := range rec.frames {
		if pos < 0 || pos > 2 {
			t.Fatalf("frame %v out of range", pos)
		}
	}
}

func TestAnimatorCloseStopsFrames(t *testing.T) {
	rec := &recorder{}
	a := New(Config{FrameMs: 1}, rec)
	a.Start()
	waitFor(t, func() bool { return rec.count() > 0 })
	a.Close()

	n := rec.count()
	time.Sleep(20 * time.Millisecond)
	if rec.count() != n {
		t.Fatalf("frames delivered after Close: %d -> %d", n, rec.count())
	}
	if a.Running() {
		t.Fatal("closed animator should not be running")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.PeriodMs != 1000 || cfg.ReturnMs != 200 || cfg.FrameMs != 33 || cfg.Travel != 1 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
