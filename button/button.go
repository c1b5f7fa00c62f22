// Package button reads the single scan toggle control.
package button

import (
	"sync"
	"time"
)

// Config holds configuration for the toggle button.
type Config struct {
	Chip       string `yaml:"chip"`
	Pin        int    `yaml:"pin"`
	DebounceMs int    `yaml:"debounce_ms"`
	HoldoffMs  int    `yaml:"holdoff_ms"` // presses closer together than this are one press
}

func (c Config) withDefaults() Config {
	if c.Chip == "" {
		c.Chip = "gpiochip0"
	}
	if c.DebounceMs <= 0 {
		c.DebounceMs = 2
	}
	if c.HoldoffMs <= 0 {
		c.HoldoffMs = 250
	}
	return c
}

// holdoff collapses bounces the line debouncer lets through. A toggle that
// fires twice turns scanning straight back off.
type holdoff struct {
	mu   sync.Mutex
	min  time.Duration
	last time.Time
}

func (h *holdoff) accept(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.last.IsZero() && now.Sub(h.last) < h.min {
		return false
	}
	h.last = now
	return true
}
