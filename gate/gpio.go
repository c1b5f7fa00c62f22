package gate

import (
	"github.com/hjkoskel/govattu"
)

// GPIO implements Opener for a turnstile release relay on a single pin.
type GPIO struct {
	hw       govattu.Vattu
	pin      uint8
	openHigh bool // true = drive pin high to release, false = drive low
}

// NewGPIO creates a new relay-based gate opener.
func NewGPIO(hw govattu.Vattu, pin uint8, openHigh bool) (*GPIO, error) {
	hw.PinMode(pin, govattu.ALToutput)

	g := &GPIO{
		hw:       hw,
		pin:      pin,
		openHigh: openHigh,
	}

	// Start locked
	g.Close()
	return g, nil
}

// Open implements Opener.Open.
func (g *GPIO) Open() error {
	g.drive(g.openHigh)
	return nil
}

// Close implements Opener.Close.
func (g *GPIO) Close() error {
	g.drive(!g.openHigh)
	return nil
}

// Release implements Opener.Release. The relay is locked before the pin is let go.
func (g *GPIO) Release() error {
	g.Close()
	return g.hw.Close()
}

func (g *GPIO) drive(high bool) {
	if high {
		g.hw.PinSet(g.pin)
	} else {
		g.hw.PinClear(g.pin)
	}
}
