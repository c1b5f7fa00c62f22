//go:build linux

package button

import (
	"fmt"
	"log"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Button handles the toggle push button.
type Button struct {
	line    *gpiocdev.Line
	onPress func()
	hold    holdoff
}

// New requests the button line. Returns nil if no pin is configured.
func New(cfg Config, onPress func()) (*Button, error) {
	if cfg.Pin == 0 {
		return nil, nil
	}
	cfg = cfg.withDefaults()

	b := &Button{
		onPress: onPress,
		hold:    holdoff{min: time.Duration(cfg.HoldoffMs) * time.Millisecond},
	}

	var err error
	b.line, err = gpiocdev.RequestLine(cfg.Chip, cfg.Pin,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(time.Duration(cfg.DebounceMs)*time.Millisecond),
		gpiocdev.WithEventHandler(b.handleEvent))
	if err != nil {
		return nil, fmt.Errorf("request button line %s/%d: %w", cfg.Chip, cfg.Pin, err)
	}
	return b, nil
}

func (b *Button) handleEvent(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge {
		return
	}
	if !b.hold.accept(time.Now()) {
		return
	}
	log.Println("Button pressed")
	if b.onPress != nil {
		b.onPress()
	}
}

// Release releases GPIO resources.
func (b *Button) Release() error {
	if b == nil || b.line == nil {
		return nil
	}
	return b.line.Close()
}
