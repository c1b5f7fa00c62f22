// Package video renders the station state on a framebuffer display.
package video

import "errors"

// ErrScreenNotCompiled is returned by New in builds without the screen tag.
var ErrScreenNotCompiled = errors.New("framebuffer display not compiled in (build with -tags=screen)")

// Config holds video display configuration.
type Config struct {
	Device string `yaml:"device"` // framebuffer device, default /dev/fb0
	Font   string `yaml:"font"`   // TrueType font path
}

const (
	defaultDevice = "/dev/fb0"
	defaultFont   = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
)

func (c Config) withDefaults() Config {
	if c.Device == "" {
		c.Device = defaultDevice
	}
	if c.Font == "" {
		c.Font = defaultFont
	}
	return c
}

// displayName returns the line shown under a ticket headline.
func displayName(ticket, holder string) string {
	if holder != "" {
		return holder
	}
	return ticket
}
