package mqtt

import (
	"fmt"
	"strings"
)

const (
	// TopicTicketsUpdate is broadcast when the ticket list changed upstream.
	TopicTicketsUpdate = "tixscan/control/broadcast/tickets/update"
)

// Topics builds the per-station topic names.
type Topics struct {
	Node string
}

func (t Topics) status(kind string) string {
	return fmt.Sprintf("tixscan/status/node/%s/%s", t.Node, kind)
}

// Scan is where scan reports are published.
func (t Topics) Scan() string { return t.status("scan") }

// State is where lifecycle state changes are published.
func (t Topics) State() string { return t.status("state") }

// Tickets reports ticket list downloads.
func (t Topics) Tickets() string { return t.status("tickets/update") }

// Ping carries the periodic keepalive.
func (t Topics) Ping() string { return t.status("ping") }

// Toggle is the remote scan mode toggle for this station.
func (t Topics) Toggle() string {
	return fmt.Sprintf("tixscan/control/node/%s/toggle", t.Node)
}

// Router dispatches incoming messages by exact topic. Unknown topics are dropped.
type Router struct {
	routes map[string]func(payload []byte)
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]func([]byte))}
}

// Handle registers fn for topic.
func (r *Router) Handle(topic string, fn func(payload []byte)) {
	r.routes[topic] = fn
}

// Topics lists the registered topics in no particular order.
func (r *Router) Topics() []string {
	out := make([]string, 0, len(r.routes))
	for t := range r.routes {
		out = append(out, t)
	}
	return out
}

// Dispatch runs the handler for topic. It reports whether one matched.
func (r *Router) Dispatch(topic string, payload []byte) bool {
	fn, ok := r.routes[strings.TrimSpace(topic)]
	if !ok {
		return false
	}
	fn(payload)
	return true
}
