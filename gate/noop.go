package gate

// Noop implements Opener for stations without a turnstile.
type Noop struct{}

func (n *Noop) Open() error    { return nil }
func (n *Noop) Close() error   { return nil }
func (n *Noop) Release() error { return nil }
