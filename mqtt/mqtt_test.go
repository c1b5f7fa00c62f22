package mqtt

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTopics(t *testing.T) {
	tp := Topics{Node: "gate-3"}
	cases := map[string]string{
		tp.Scan():    "tixscan/status/node/gate-3/scan",
		tp.State():   "tixscan/status/node/gate-3/state",
		tp.Ping():    "tixscan/status/node/gate-3/ping",
		tp.Tickets(): "tixscan/status/node/gate-3/tickets/update",
		tp.Toggle():  "tixscan/control/node/gate-3/toggle",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestRouter(t *testing.T) {
	r := NewRouter()
	var got []byte
	r.Handle(TopicTicketsUpdate, func(p []byte) { got = p })

	if !r.Dispatch(TopicTicketsUpdate, []byte("now")) {
		t.Fatal("expected match")
	}
	if string(got) != "now" {
		t.Fatalf("payload %q", got)
	}
	if r.Dispatch("tixscan/other", nil) {
		t.Fatal("unexpected match")
	}
	if n := len(r.Topics()); n != 1 {
		t.Fatalf("topics %d", n)
	}
}

func TestDisabledClient(t *testing.T) {
	connected := false
	c, err := New(Config{}, "station", Handlers{OnConnect: func() { connected = true }})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.IsEnabled() {
		t.Fatal("expected disabled client")
	}
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !connected {
		t.Fatal("disabled connect should report connected")
	}
	if err := c.PublishJSON("x", map[string]string{"a": "b"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	c.Publish("x", "y")
	c.Disconnect()
}

func TestBadCACert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, []byte("not a cert"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{Host: "broker", CACert: path}, "station", Handlers{}); err == nil {
		t.Fatal("expected TLS error")
	}
}
