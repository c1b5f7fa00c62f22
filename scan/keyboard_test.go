package scan

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"testing"
	"time"

	"github.com/kenshaw/evdev"
)

func keyEvents(codes ...uint16) []evdev.Event {
	var out []evdev.Event
	for _, c := range codes {
		out = append(out,
			evdev.Event{Type: evdev.EventKey, Code: c, Value: 1},
			evdev.Event{Type: evdev.EventKey, Code: c, Value: 0},
		)
	}
	return out
}

func TestKeyboardKeepsBatchedLines(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	k := newKeyboard(evdev.Open(r), QR)
	defer k.Close()

	// "1\n2\n" delivered in a single write, as a fast scanner produces it.
	var buf bytes.Buffer
	for _, ev := range keyEvents(2, keyEnter, 3, keyEnter) {
		if err := binary.Write(&buf, binary.NativeEndian, ev); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"1", "2"} {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		d, err := k.Read(ctx)
		cancel()
		if err != nil {
			t.Fatalf("read %q: %v", want, err)
		}
		if d.Symbology != QR || d.Data != want {
			t.Fatalf("got %s, want qr:%s", d, want)
		}
	}
}

func TestKeyboardReadCancelled(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	k := newKeyboard(evdev.Open(r), QR)
	defer k.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := k.Read(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline, got %v", err)
	}
}
