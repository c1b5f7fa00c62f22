package indicator

// Multi combines multiple Indicator implementations.
type Multi struct {
	indicators []Indicator
}

// NewMulti returns an Indicator that forwards every call to all of inds.
func NewMulti(inds ...Indicator) *Multi {
	return &Multi{indicators: inds}
}

// Idle implements Indicator.Idle.
func (m *Multi) Idle() {
	for _, ind := range m.indicators {
		ind.Idle()
	}
}

// Scanning implements Indicator.Scanning.
func (m *Multi) Scanning() {
	for _, ind := range m.indicators {
		ind.Scanning()
	}
}

// Validating implements Indicator.Validating.
func (m *Multi) Validating() {
	for _, ind := range m.indicators {
		ind.Validating()
	}
}

// Accepted implements Indicator.Accepted.
func (m *Multi) Accepted(info *TicketInfo) {
	for _, ind := range m.indicators {
		ind.Accepted(info)
	}
}

// Rejected implements Indicator.Rejected.
func (m *Multi) Rejected(info *TicketInfo) {
	for _, ind := range m.indicators {
		ind.Rejected(info)
	}
}

// PermissionDenied implements Indicator.PermissionDenied.
func (m *Multi) PermissionDenied() {
	for _, ind := range m.indicators {
		ind.PermissionDenied()
	}
}

// ConnectionLost implements Indicator.ConnectionLost.
func (m *Multi) ConnectionLost() {
	for _, ind := range m.indicators {
		ind.ConnectionLost()
	}
}

// Shutdown implements Indicator.Shutdown.
func (m *Multi) Shutdown() {
	for _, ind := range m.indicators {
		ind.Shutdown()
	}
}

// ScanPosition forwards animation frames to the indicators that can show them.
func (m *Multi) ScanPosition(pos float64) {
	for _, ind := range m.indicators {
		if s := Sink(ind); s != nil {
			s.ScanPosition(pos)
		}
	}
}

// SetConnected forwards the connection state to the indicators that track it.
func (m *Multi) SetConnected() {
	for _, ind := range m.indicators {
		SetConnected(ind)
	}
}

// Release implements Indicator.Release.
func (m *Multi) Release() error {
	var lastErr error
	for _, ind := range m.indicators {
		if err := ind.Release(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
