//go:build screen

package indicator

import (
	"tixscan/video"
)

// VideoIndicator wraps the video.Display type to implement Indicator.
type VideoIndicator struct {
	d *video.Display
}

// NewVideo creates a new video-based indicator.
func NewVideo(cfg video.Config) (*VideoIndicator, error) {
	d, err := video.New(cfg)
	if err != nil {
		return nil, err
	}
	return &VideoIndicator{d: d}, nil
}

// Idle implements Indicator.Idle.
func (vi *VideoIndicator) Idle() {
	vi.d.Idle()
}

// Scanning implements Indicator.Scanning.
func (vi *VideoIndicator) Scanning() {
	vi.d.Scanning()
}

// Validating implements Indicator.Validating.
func (vi *VideoIndicator) Validating() {
	vi.d.Validating()
}

// Accepted implements Indicator.Accepted.
func (vi *VideoIndicator) Accepted(info *TicketInfo) {
	var ticket, holder, detail string
	if info != nil {
		ticket, holder, detail = info.Ticket, info.Holder, info.Detail
	}
	vi.d.Accepted(ticket, holder, detail)
}

// Rejected implements Indicator.Rejected.
func (vi *VideoIndicator) Rejected(info *TicketInfo) {
	var ticket, reason string
	if info != nil {
		ticket, reason = info.Ticket, info.Reason
	}
	vi.d.Rejected(ticket, reason)
}

// PermissionDenied implements Indicator.PermissionDenied.
func (vi *VideoIndicator) PermissionDenied() {
	vi.d.PermissionDenied()
}

// ConnectionLost implements Indicator.ConnectionLost.
func (vi *VideoIndicator) ConnectionLost() {
	vi.d.ConnectionLost()
}

// Shutdown implements Indicator.Shutdown.
func (vi *VideoIndicator) Shutdown() {
	vi.d.Shutdown()
}

// ScanPosition implements overlay.Sink.
func (vi *VideoIndicator) ScanPosition(pos float64) {
	vi.d.ScanLine(pos)
}

// Release implements Indicator.Release.
func (vi *VideoIndicator) Release() error {
	return vi.d.Release()
}
