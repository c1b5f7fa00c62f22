package indicator

import (
	"strings"
	"sync"
	"testing"
	"time"
)

type pipeBuffer struct {
	mu     sync.Mutex
	writes []string
	closed bool
}

func (p *pipeBuffer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, string(b))
	return len(b), nil
}

func (p *pipeBuffer) Close() error {
	p.closed = true
	return nil
}

func (p *pipeBuffer) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.writes) == 0 {
		return ""
	}
	return p.writes[len(p.writes)-1]
}

func TestNeopixelIdleFollowsConnection(t *testing.T) {
	buf := &pipeBuffer{}
	n := newNeopixel(buf)

	n.Idle()
	if buf.last() != neoConnectionLost {
		t.Fatalf("idle before connect = %q", buf.last())
	}
	n.SetConnected()
	n.Idle()
	if buf.last() != neoNormalIdle {
		t.Fatalf("idle after connect = %q", buf.last())
	}
	n.ConnectionLost()
	n.Idle()
	if buf.last() != neoConnectionLost {
		t.Fatalf("idle after connection lost = %q", buf.last())
	}
}

func TestNeopixelScanPosition(t *testing.T) {
	buf := &pipeBuffer{}
	n := newNeopixel(buf)

	n.ScanPosition(0.3) // not scanning, dropped
	n.Scanning()
	n.ScanPosition(0.5)
	n.ScanPosition(0.501) // same pixel, not resent
	n.ScanPosition(2)     // clamped
	n.ScanPosition(-1)
	n.Validating()
	n.ScanPosition(0.2) // sweep ended

	want := []string{neoScanning, "@5 50 00ff40", "@5 100 00ff40", "@5 0 00ff40", neoValidating}
	if strings.Join(buf.writes, ",") != strings.Join(want, ",") {
		t.Fatalf("writes %q, want %q", buf.writes, want)
	}

	if err := n.Release(); err != nil || !buf.closed {
		t.Fatalf("release: %v closed=%v", err, buf.closed)
	}
}

type recordingIndicator struct {
	Noop
	mu        sync.Mutex
	calls     []string
	positions []float64
}

func (r *recordingIndicator) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recordingIndicator) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recordingIndicator) Idle()                     { r.record("idle") }
func (r *recordingIndicator) Scanning()                 { r.record("scanning") }
func (r *recordingIndicator) Accepted(info *TicketInfo) { r.record("accepted") }
func (r *recordingIndicator) Rejected(info *TicketInfo) { r.record("rejected:" + info.Reason) }

func (r *recordingIndicator) ScanPosition(pos float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = append(r.positions, pos)
}

func TestMultiFanOut(t *testing.T) {
	a, b := &recordingIndicator{}, &recordingIndicator{}
	m := NewMulti(a, &Noop{}, b)

	m.Rejected(&TicketInfo{Reason: "Already used"})
	m.ScanPosition(0.25)

	for _, r := range []*recordingIndicator{a, b} {
		if got := r.Calls(); len(got) != 1 || got[0] != "rejected:Already used" {
			t.Fatalf("calls %v", got)
		}
		if len(r.positions) != 1 || r.positions[0] != 0.25 {
			t.Fatalf("positions %v", r.positions)
		}
	}
	if Sink(&Noop{}) != nil {
		t.Fatal("noop must not be an overlay sink")
	}
}

func TestTimedDismissesToIdle(t *testing.T) {
	r := &recordingIndicator{}
	tm := NewTimed(r, 10*time.Millisecond)

	tm.Accepted(&TicketInfo{Ticket: "TICKET-123"})
	deadline := time.Now().Add(time.Second)
	for {
		calls := r.Calls()
		if len(calls) == 2 {
			if calls[1] != "idle" {
				t.Fatalf("calls %v", calls)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no dismissal, calls %v", calls)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTimedNewerStateWins(t *testing.T) {
	r := &recordingIndicator{}
	tm := NewTimed(r, 20*time.Millisecond)

	tm.Rejected(&TicketInfo{Reason: "Forged ticket"})
	tm.Scanning()
	time.Sleep(60 * time.Millisecond)

	calls := r.Calls()
	if len(calls) != 2 || calls[1] != "scanning" {
		t.Fatalf("pending dismissal overrode newer state: %v", calls)
	}
}

func TestTimedCustomDismiss(t *testing.T) {
	r := &recordingIndicator{}
	tm := NewTimed(r, 5*time.Millisecond)
	restored := make(chan struct{})
	tm.SetDismiss(func() {
		tm.Scanning()
		close(restored)
	})

	tm.Accepted(&TicketInfo{Ticket: "TICKET-1"})
	select {
	case <-restored:
	case <-time.After(time.Second):
		t.Fatal("dismiss not called")
	}

	calls := r.Calls()
	if len(calls) != 2 || calls[0] != "accepted" || calls[1] != "scanning" {
		t.Fatalf("calls %v", calls)
	}
}
