package indicator

import (
	"tixscan/overlay"
	"tixscan/video"
)

// TicketInfo describes a scanned ticket for display purposes.
type TicketInfo struct {
	Ticket string
	Holder string
	Detail string
	Reason string // rejection reason, empty when accepted
}

// Indicator is the interface for status indicator implementations (LEDs, neopixels, etc).
type Indicator interface {
	// Idle sets the indicator to ready, scan mode off.
	Idle()

	// Scanning sets the indicator to scan mode on.
	Scanning()

	// Validating shows that a ticket is being checked.
	Validating()

	// Accepted shows an admitted ticket.
	// info may be nil if no ticket information is available.
	Accepted(info *TicketInfo)

	// Rejected shows a refused ticket or a validation error.
	// info may be nil if no ticket information is available.
	Rejected(info *TicketInfo)

	// PermissionDenied shows that the scanner device cannot be used.
	PermissionDenied()

	// ConnectionLost sets the indicator to connection lost state.
	ConnectionLost()

	// Shutdown sets the indicator to shutdown state.
	Shutdown()

	// Release releases any hardware resources.
	Release() error
}

// connectable is implemented by indicators whose idle look depends on the broker connection.
type connectable interface {
	SetConnected()
}

// SetConnected tells ind that the broker connection is up.
func SetConnected(ind Indicator) {
	if c, ok := ind.(connectable); ok {
		c.SetConnected()
	}
}

// Sink returns the overlay sink of ind, or nil if it cannot show the scan animation.
func Sink(ind Indicator) overlay.Sink {
	if s, ok := ind.(overlay.Sink); ok {
		return s
	}
	return nil
}

// Config holds configuration for indicator implementations.
type Config struct {
	// GPIO LED pins (nil = not configured)
	GreenPin  *uint8 `yaml:"green_pin"`
	YellowPin *uint8 `yaml:"yellow_pin"`
	RedPin    *uint8 `yaml:"red_pin"`

	// Neopixel pipe path (empty = not configured)
	NeopixelPipe string `yaml:"neopixel_pipe"`

	// Video framebuffer display
	VideoEnabled bool         `yaml:"video_enabled"`
	Video        video.Config `yaml:"video"`

	// How long accepted/rejected is shown before returning to idle
	DismissSecs int `yaml:"dismiss_secs"`
}

// New creates an Indicator based on the provided configuration.
// Returns a Multi indicator if more than one output is configured.
func New(cfg Config) (Indicator, error) {
	var indicators []Indicator

	// Add GPIO indicator if any pins configured
	if cfg.GreenPin != nil || cfg.YellowPin != nil || cfg.RedPin != nil {
		gpio, err := NewGPIO(cfg.GreenPin, cfg.YellowPin, cfg.RedPin)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, gpio)
	}

	// Add Neopixel indicator if pipe configured
	if cfg.NeopixelPipe != "" {
		neo, err := NewNeopixel(cfg.NeopixelPipe)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, neo)
	}

	// Add Video indicator if enabled
	if cfg.VideoEnabled {
		if !video.ScreenSupported() {
			return nil, video.ErrScreenNotCompiled
		}
		vid, err := NewVideo(cfg.Video)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, vid)
	}

	if len(indicators) == 0 {
		return &Noop{}, nil
	}
	if len(indicators) == 1 {
		return indicators[0], nil
	}
	return NewMulti(indicators...), nil
}
