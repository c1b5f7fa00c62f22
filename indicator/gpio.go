package indicator

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// GPIO implements Indicator using discrete GPIO LED pins.
type GPIO struct {
	hw        govattu.Vattu
	greenPin  *uint8
	yellowPin *uint8
	redPin    *uint8
}

// NewGPIO creates a new GPIO-based indicator.
func NewGPIO(greenPin, yellowPin, redPin *uint8) (*GPIO, error) {
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	g := &GPIO{
		hw:        hw,
		greenPin:  greenPin,
		yellowPin: yellowPin,
		redPin:    redPin,
	}

	// Initialize all pins as outputs, start off
	for _, pin := range g.pins() {
		hw.PinMode(*pin, govattu.ALToutput)
		hw.PinClear(*pin)
	}

	return g, nil
}

// Idle implements Indicator.Idle.
func (g *GPIO) Idle() {
	g.show(g.greenPin)
}

// Scanning implements Indicator.Scanning.
func (g *GPIO) Scanning() {
	g.show(g.yellowPin)
}

// Validating implements Indicator.Validating.
func (g *GPIO) Validating() {
	g.show(g.yellowPin, g.greenPin)
}

// Accepted implements Indicator.Accepted.
func (g *GPIO) Accepted(info *TicketInfo) {
	g.show(g.greenPin)
}

// Rejected implements Indicator.Rejected.
func (g *GPIO) Rejected(info *TicketInfo) {
	g.show(g.redPin)
}

// PermissionDenied implements Indicator.PermissionDenied.
func (g *GPIO) PermissionDenied() {
	g.show(g.redPin, g.yellowPin)
}

// ConnectionLost implements Indicator.ConnectionLost.
func (g *GPIO) ConnectionLost() {
	g.show(g.yellowPin, g.redPin)
}

// Shutdown implements Indicator.Shutdown.
func (g *GPIO) Shutdown() {
	g.show()
}

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	g.show()
	return g.hw.Close()
}

func (g *GPIO) pins() []*uint8 {
	var pins []*uint8
	for _, pin := range []*uint8{g.greenPin, g.yellowPin, g.redPin} {
		if pin != nil {
			pins = append(pins, pin)
		}
	}
	return pins
}

// show lights exactly the given pins.
func (g *GPIO) show(on ...*uint8) {
	for _, pin := range g.pins() {
		g.hw.PinClear(*pin)
	}
	for _, pin := range on {
		if pin != nil {
			g.hw.PinSet(*pin)
		}
	}
}
