package button

import (
	"testing"
	"time"
)

func TestHoldoff(t *testing.T) {
	h := holdoff{min: 250 * time.Millisecond}
	t0 := time.Unix(1000, 0)

	steps := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{10 * time.Millisecond, false},
		{249 * time.Millisecond, false},
		{250 * time.Millisecond, true},
		{400 * time.Millisecond, false},
		{time.Second, true},
	}
	for _, s := range steps {
		if got := h.accept(t0.Add(s.at)); got != s.want {
			t.Fatalf("accept at %v = %v, want %v", s.at, got, s.want)
		}
	}
}

func TestDefaults(t *testing.T) {
	c := Config{Pin: 17}.withDefaults()
	if c.Chip != "gpiochip0" || c.DebounceMs != 2 || c.HoldoffMs != 250 {
		t.Fatalf("defaults %+v", c)
	}
}

func TestNewDisabled(t *testing.T) {
	b, err := New(Config{}, func() {})
	if err != nil || b != nil {
		t.Fatalf("expected disabled button, got %v %v", b, err)
	}
	if err := b.Release(); err != nil {
		t.Fatalf("release nil: %v", err)
	}
}
