//go:build !screen

package indicator

import (
	"tixscan/video"
)

// NewVideo returns an error when screen support is not compiled in.
func NewVideo(cfg video.Config) (*VideoIndicator, error) {
	return nil, video.ErrScreenNotCompiled
}

// VideoIndicator is a stub when screen support is not compiled in.
type VideoIndicator struct{}

func (vi *VideoIndicator) Idle()                     {}
func (vi *VideoIndicator) Scanning()                 {}
func (vi *VideoIndicator) Validating()               {}
func (vi *VideoIndicator) Accepted(info *TicketInfo) {}
func (vi *VideoIndicator) Rejected(info *TicketInfo) {}
func (vi *VideoIndicator) PermissionDenied()         {}
func (vi *VideoIndicator) ConnectionLost()           {}
func (vi *VideoIndicator) Shutdown()                 {}
func (vi *VideoIndicator) ScanPosition(pos float64)  {}
func (vi *VideoIndicator) Release() error            { return nil }
