package scan

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSymbology(t *testing.T) {
	tests := []struct {
		name string
		want Symbology
		ok   bool
	}{
		{"qr", QR, true},
		{"QR", QR, true},
		{"EAN-13", EAN13, true},
		{"ean_8", EAN8, true},
		{"upc_e", UPCE, true},
		{"UPC-A", UPCA, true},
		{"ITF-14", ITF14, true},
		{"DataMatrix", DataMatrix, true},
		{"code128", Code128, true},
		{"maxicode", Unknown, false},
	}
	for _, tt := range tests {
		got, ok := ParseSymbology(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseSymbology(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSymbologyNamesRoundTrip(t *testing.T) {
	for sym := range DefaultSet() {
		got, ok := ParseSymbology(sym.String())
		if !ok || got != sym {
			t.Fatalf("ParseSymbology(%q) = %v, %v", sym.String(), got, ok)
		}
	}
}

func TestDefaultSetHasTicketSymbologies(t *testing.T) {
	set := DefaultSet()
	if len(set) != 13 {
		t.Fatalf("expected 13 symbologies, got %d (%v)", len(set), set.Names())
	}
	if set.Contains(Unknown) {
		t.Fatal("default set must not contain unknown")
	}
}

func TestParseSet(t *testing.T) {
	set, err := ParseSet([]string{"qr", "aztec"})
	if err != nil {
		t.Fatalf("parse set: %v", err)
	}
	if !set.Contains(QR) || !set.Contains(Aztec) || set.Contains(EAN13) {
		t.Fatalf("unexpected set %v", set.Names())
	}

	_, err = ParseSet([]string{"qr", "bogus"})
	var unk *UnknownSymbologyError
	if !errors.As(err, &unk) || unk.Name != "bogus" {
		t.Fatalf("expected unknown symbology error, got %v", err)
	}

	set, err = ParseSet(nil)
	if err != nil || len(set) != 13 {
		t.Fatalf("empty list should yield default set, got %v, %v", set.Names(), err)
	}
}

func TestParseAIM(t *testing.T) {
	tests := []struct {
		line     string
		wantSym  Symbology
		wantData string
	}{
		{"]Q1TICKET-123", QR, "TICKET-123"},
		{"]z0ABC", Aztec, "ABC"},
		{"]L2PDF", PDF417, "PDF"},
		{"]d2DM", DataMatrix, "DM"},
		{"]A0CODE39", Code39, "CODE39"},
		{"]G0CODE93", Code93, "CODE93"},
		{"]F0A123B", Codabar, "A123B"},
		{"]C0C128", Code128, "C128"},
		{"]E04006381333931", EAN13, "4006381333931"},
		{"]E40123456", EAN8, "0123456"},
		{"]E0036000291452", UPCA, "036000291452"},
		{"]E00012345678905", UPCA, "012345678905"},
		{"]E001234565", UPCE, "01234565"},
		{"]I000012345678905", ITF14, "00012345678905"},
		{"TICKET-123", Unknown, "TICKET-123"},
		{"]X0foo", Unknown, "]X0foo"},
	}
	for _, tt := range tests {
		sym, data := ParseAIM(tt.line)
		if sym != tt.wantSym || data != tt.wantData {
			t.Fatalf("ParseAIM(%q) = %v, %q; want %v, %q", tt.line, sym, data, tt.wantSym, tt.wantData)
		}
	}
}

func TestLineBuffer(t *testing.T) {
	var l lineBuffer
	events := []struct {
		code  uint16
		value int32
	}{
		{27, 1}, {27, 0}, // ]
		{keyLeftShift, 1}, {16, 1}, {16, 0}, {keyLeftShift, 0}, // Q
		{2, 1}, {2, 0}, // 1
		{keyRightShift, 1}, {30, 1}, {30, 2}, {30, 0}, {keyRightShift, 0}, // A (repeat ignored)
		{48, 1}, // b
		{12, 1}, // -
		{2, 1},  // 1
	}
	for _, ev := range events {
		if _, done := l.feed(ev.code, ev.value); done {
			t.Fatal("line completed early")
		}
	}
	line, done := l.feed(keyEnter, 1)
	if !done || line != "]Q1Ab-1" {
		t.Fatalf("got %q, %v", line, done)
	}

	if _, done := l.feed(keyEnter, 1); done {
		t.Fatal("empty line should not complete")
	}
}

func TestDecodeLineFallback(t *testing.T) {
	d := decodeLine("  TICKET-9 ", QR)
	if d.Symbology != QR || d.Data != "TICKET-9" {
		t.Fatalf("unexpected decode %v", d)
	}
	d = decodeLine("]C0X", QR)
	if d.Symbology != Code128 || d.Data != "X" {
		t.Fatalf("AIM prefix should win over fallback, got %v", d)
	}
}

func TestReadTerminated(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\r\nfirst\r\nsec"))
	var partial strings.Builder

	line, err := readTerminated(r, &partial)
	if err != nil || line != "first" {
		t.Fatalf("got %q, %v", line, err)
	}
	line, err = readTerminated(r, &partial)
	if err != nil || line != "" {
		t.Fatalf("timeout should return empty line, got %q, %v", line, err)
	}
	if partial.String() != "sec" {
		t.Fatalf("partial input lost: %q", partial.String())
	}
}

type fakeReader struct {
	decodes []Decode
}

func (f *fakeReader) Read(ctx context.Context) (Decode, error) {
	if len(f.decodes) == 0 {
		return Decode{}, context.Canceled
	}
	d := f.decodes[0]
	f.decodes = f.decodes[1:]
	return d, nil
}

func (f *fakeReader) Close() error { return nil }

func TestFilter(t *testing.T) {
	r := Filter(&fakeReader{decodes: []Decode{
		{Symbology: Unknown, Data: "junk"},
		{Symbology: EAN13, Data: "4006381333931"},
		{Symbology: QR, Data: "TICKET-123"},
	}}, NewSet(QR))

	d, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if d.Symbology != QR || d.Data != "TICKET-123" {
		t.Fatalf("unexpected decode %v", d)
	}
	if _, err := r.Read(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected reader error to pass through, got %v", err)
	}
}

func TestRequestPermission(t *testing.T) {
	dir := t.TempDir()
	dev := filepath.Join(dir, "event0")
	if err := os.WriteFile(dev, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewCapability(Config{Device: dev})
	if err != nil {
		t.Fatalf("new capability: %v", err)
	}
	p, err := c.RequestPermission(context.Background())
	if err != nil || p != PermissionGranted {
		t.Fatalf("got %v, %v; want granted", p, err)
	}

	c, _ = NewCapability(Config{Device: filepath.Join(dir, "missing")})
	p, err = c.RequestPermission(context.Background())
	if err != nil || p != PermissionDenied {
		t.Fatalf("got %v, %v; want denied", p, err)
	}

	c, _ = NewCapability(Config{})
	p, err = c.RequestPermission(context.Background())
	if !errors.Is(err, ErrNoDevice) || p != PermissionDenied {
		t.Fatalf("got %v, %v; want denied with ErrNoDevice", p, err)
	}
}

func TestNewCapabilityRejectsBadSymbology(t *testing.T) {
	if _, err := NewCapability(Config{DefaultSymbology: "nope"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewCapability(Config{Symbologies: []string{"nope"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewCapabilityWarnsWithoutDefaultSymbology(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	if _, err := NewCapability(Config{}); err != nil {
		t.Fatalf("new: %v", err)
	}
	if !strings.Contains(buf.String(), "default_symbology") {
		t.Fatalf("expected warning, got %q", buf.String())
	}

	buf.Reset()
	if _, err := NewCapability(Config{DefaultSymbology: "qr"}); err != nil {
		t.Fatalf("new: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected warning %q", buf.String())
	}
}
