package gate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Admitter releases the gate for one visitor at a time. Admissions that
// arrive while the gate is open extend the open period instead of cycling it.
type Admitter struct {
	opener Opener
	hold   time.Duration

	mu      sync.Mutex
	closeAt time.Time
	open    bool
}

// NewAdmitter wraps o, keeping the gate open for hold after each admission.
func NewAdmitter(o Opener, hold time.Duration) *Admitter {
	return &Admitter{opener: o, hold: hold}
}

// Admit opens the gate and blocks until it has been closed again or ctx ends.
// The gate is always closed before Admit returns from the call that opened it.
func (a *Admitter) Admit(ctx context.Context) error {
	a.mu.Lock()
	a.closeAt = time.Now().Add(a.hold)
	if a.open {
		a.mu.Unlock()
		return nil
	}
	a.open = true
	a.mu.Unlock()

	if err := a.opener.Open(); err != nil {
		a.mu.Lock()
		a.open = false
		a.mu.Unlock()
		return fmt.Errorf("gate open: %w", err)
	}

	for {
		a.mu.Lock()
		wait := time.Until(a.closeAt)
		if wait <= 0 {
			// Close under the lock so a late Admit either extends the hold above
			// or reopens the gate once it is shut.
			defer a.mu.Unlock()
			return a.closeLocked()
		}
		a.mu.Unlock()
		select {
		case <-ctx.Done():
			a.mu.Lock()
			defer a.mu.Unlock()
			if err := a.closeLocked(); err != nil {
				return err
			}
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (a *Admitter) closeLocked() error {
	a.open = false
	if err := a.opener.Close(); err != nil {
		return fmt.Errorf("gate close: %w", err)
	}
	return nil
}

// IsOpen reports whether the gate is currently released.
func (a *Admitter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}
