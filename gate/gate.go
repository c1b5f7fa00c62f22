// Package gate controls the turnstile released after an admitted ticket.
package gate

import (
	"fmt"
	"time"

	"github.com/hjkoskel/govattu"
)

// Opener is the interface for turnstile and gate control implementations.
type Opener interface {
	// Open releases the gate so one visitor can pass.
	Open() error

	// Close locks the gate again.
	Close() error

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for gate opener implementations.
type Config struct {
	Type       string `yaml:"type"`        // "servo", "gpio_high", "gpio_low", "none"
	Pin        *int   `yaml:"pin"`         // GPIO pin number
	ServoOpen  int    `yaml:"servo_open"`  // PWM value for open position
	ServoClose int    `yaml:"servo_close"` // PWM value for closed position
	OpenSecs   int    `yaml:"open_secs"`   // how long the gate stays released
}

// OpenDuration returns how long the gate stays released after an admission.
func (c Config) OpenDuration() time.Duration {
	if c.OpenSecs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.OpenSecs) * time.Second
}

// New creates an Opener based on the provided configuration.
func New(cfg Config) (Opener, error) {
	if cfg.Pin == nil {
		return &Noop{}, nil
	}

	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	switch cfg.Type {
	case "servo":
		return NewServo(hw, uint8(*cfg.Pin), cfg.ServoOpen, cfg.ServoClose)
	case "gpio_high", "openhigh":
		return NewGPIO(hw, uint8(*cfg.Pin), true)
	case "gpio_low", "openlow":
		return NewGPIO(hw, uint8(*cfg.Pin), false)
	default:
		hw.Close()
		return &Noop{}, nil
	}
}
