package gate

import (
	"sync"
	"time"

	"github.com/hjkoskel/govattu"
)

// Servo implements Opener for a servo-driven turnstile arm.
type Servo struct {
	mu       sync.Mutex
	hw       govattu.Vattu
	pin      uint8
	openPos  int
	closePos int
	isOpen   bool
}

// NewServo creates a new servo-based gate opener on PWM0.
func NewServo(hw govattu.Vattu, pin uint8, openPos, closePos int) (*Servo, error) {
	hw.PinMode(pin, govattu.ALT5) // ALT5 for PWM0
	hw.PwmSetMode(true, true, false, false)
	hw.PwmSetClock(19)
	hw.Pwm0SetRange(20000)

	s := &Servo{
		hw:       hw,
		pin:      pin,
		openPos:  openPos,
		closePos: closePos,
	}

	// Start locked
	s.hw.Pwm0Set(uint32(closePos))
	return s, nil
}

// Open implements Opener.Open. Opening an open arm does nothing.
func (s *Servo) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isOpen {
		return nil
	}
	s.sweep(s.closePos, s.openPos)
	s.isOpen = true
	return nil
}

// Close implements Opener.Close. Closing a closed arm does nothing.
func (s *Servo) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isOpen {
		return nil
	}
	s.sweep(s.openPos, s.closePos)
	s.isOpen = false
	return nil
}

// Release implements Opener.Release.
func (s *Servo) Release() error {
	return s.hw.Close()
}

// sweep moves the arm one PWM step at a time so it doesn't slam.
func (s *Servo) sweep(from, to int) {
	inc := 1
	if to < from {
		inc = -1
	}
	for i := from; i != to; i += inc {
		s.hw.Pwm0Set(uint32(i))
		time.Sleep(2 * time.Millisecond)
	}
	s.hw.Pwm0Set(uint32(to))
}
