package indicator

// Noop implements Indicator but does nothing.
// Used when no indicators are configured.
type Noop struct{}

func (n *Noop) Idle()                     {}
func (n *Noop) Scanning()                 {}
func (n *Noop) Validating()               {}
func (n *Noop) Accepted(info *TicketInfo) {}
func (n *Noop) Rejected(info *TicketInfo) {}
func (n *Noop) PermissionDenied()         {}
func (n *Noop) ConnectionLost()           {}
func (n *Noop) Shutdown()                 {}
func (n *Noop) Release() error            { return nil }
