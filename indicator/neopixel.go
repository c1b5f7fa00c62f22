package indicator

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

// Neopixel command strings for the external neopixel tool.
const (
	neoConnectionLost   = "@2 !150000 001010"
	neoNormalIdle       = "@3 !150000 400000"
	neoScanning         = "@3 !30000 004000"
	neoValidating       = "@1 !20000 404000"
	neoAccepted         = "@1 !50000 8000"
	neoRejected         = "@2 !10000 ff"
	neoPermissionDenied = "@2 !50000 ff2000"
	neoTerminated       = "@0 010101"

	// neoSweep lights one pixel of the strip; the argument is the position in percent.
	neoSweep = "@5 %d 00ff40"
)

// Neopixel implements Indicator using an external neopixel tool via named pipe.
type Neopixel struct {
	mu         sync.Mutex
	pipe       io.WriteCloser
	idleString string
	lastSweep  int
	sweeping   bool // sweep frames are shown only in the scanning pattern
}

// NewNeopixel creates a new Neopixel indicator.
func NewNeopixel(pipePath string) (*Neopixel, error) {
	f, err := os.OpenFile(pipePath, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", pipePath, err)
	}
	return newNeopixel(f), nil
}

func newNeopixel(w io.WriteCloser) *Neopixel {
	return &Neopixel{
		pipe:       w,
		idleString: neoConnectionLost, // Start with connection lost until connected
		lastSweep:  -1,
	}
}

// show writes a state pattern and ends any sweep.
func (n *Neopixel) show(s string) {
	n.mu.Lock()
	n.sweeping = false
	n.mu.Unlock()
	n.write(s)
}

// Idle implements Indicator.Idle.
func (n *Neopixel) Idle() {
	n.mu.Lock()
	s := n.idleString
	n.mu.Unlock()
	n.show(s)
}

// Scanning implements Indicator.Scanning.
func (n *Neopixel) Scanning() {
	n.mu.Lock()
	n.sweeping = true
	n.lastSweep = -1
	n.mu.Unlock()
	n.write(neoScanning)
}

// Validating implements Indicator.Validating.
func (n *Neopixel) Validating() {
	n.show(neoValidating)
}

// Accepted implements Indicator.Accepted.
func (n *Neopixel) Accepted(info *TicketInfo) {
	n.show(neoAccepted)
}

// Rejected implements Indicator.Rejected.
func (n *Neopixel) Rejected(info *TicketInfo) {
	n.show(neoRejected)
}

// PermissionDenied implements Indicator.PermissionDenied.
func (n *Neopixel) PermissionDenied() {
	n.show(neoPermissionDenied)
}

// ConnectionLost implements Indicator.ConnectionLost.
func (n *Neopixel) ConnectionLost() {
	n.mu.Lock()
	n.idleString = neoConnectionLost
	n.mu.Unlock()
	n.show(neoConnectionLost)
}

// SetConnected updates the idle string to normal when connected.
func (n *Neopixel) SetConnected() {
	n.mu.Lock()
	n.idleString = neoNormalIdle
	n.mu.Unlock()
}

// ScanPosition implements overlay.Sink. Only changed pixel positions are sent.
func (n *Neopixel) ScanPosition(pos float64) {
	pct := int(math.Round(math.Max(0, math.Min(1, pos)) * 100))
	n.mu.Lock()
	if !n.sweeping || pct == n.lastSweep {
		n.mu.Unlock()
		return
	}
	n.lastSweep = pct
	n.mu.Unlock()
	n.write(fmt.Sprintf(neoSweep, pct))
}

// Shutdown implements Indicator.Shutdown.
func (n *Neopixel) Shutdown() {
	n.write(neoTerminated)
}

// Release implements Indicator.Release.
func (n *Neopixel) Release() error {
	if n.pipe == nil {
		return nil
	}
	return n.pipe.Close()
}

func (n *Neopixel) write(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pipe != nil {
		n.pipe.Write([]byte(s))
	}
}
