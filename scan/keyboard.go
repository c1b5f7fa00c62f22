package scan

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kenshaw/evdev"
)

// Linux input key codes used by keyboard-wedge scanners.
const (
	keyEnter      = 28
	keyKPEnter    = 96
	keyLeftShift  = 42
	keyRightShift = 54
)

// keymap maps a key code to its unshifted and shifted characters (US layout).
var keymap = map[uint16][2]byte{
	2: {'1', '!'}, 3: {'2', '@'}, 4: {'3', '#'}, 5: {'4', '$'}, 6: {'5', '%'},
	7: {'6', '^'}, 8: {'7', '&'}, 9: {'8', '*'}, 10: {'9', '('}, 11: {'0', ')'},
	12: {'-', '_'}, 13: {'=', '+'},
	16: {'q', 'Q'}, 17: {'w', 'W'}, 18: {'e', 'E'}, 19: {'r', 'R'}, 20: {'t', 'T'},
	21: {'y', 'Y'}, 22: {'u', 'U'}, 23: {'i', 'I'}, 24: {'o', 'O'}, 25: {'p', 'P'},
	26: {'[', '{'}, 27: {']', '}'},
	30: {'a', 'A'}, 31: {'s', 'S'}, 32: {'d', 'D'}, 33: {'f', 'F'}, 34: {'g', 'G'},
	35: {'h', 'H'}, 36: {'j', 'J'}, 37: {'k', 'K'}, 38: {'l', 'L'},
	39: {';', ':'}, 40: {'\'', '"'}, 41: {'`', '~'}, 43: {'\\', '|'},
	44: {'z', 'Z'}, 45: {'x', 'X'}, 46: {'c', 'C'}, 47: {'v', 'V'}, 48: {'b', 'B'},
	49: {'n', 'N'}, 50: {'m', 'M'}, 51: {',', '<'}, 52: {'.', '>'}, 53: {'/', '?'},
	57: {' ', ' '},
}

// lineBuffer assembles key events into a scanned line.
type lineBuffer struct {
	buf   strings.Builder
	shift bool
}

// feed processes one key event. It returns the completed line when Enter is pressed.
func (l *lineBuffer) feed(code uint16, value int32) (string, bool) {
	if code == keyLeftShift || code == keyRightShift {
		l.shift = value != 0
		return "", false
	}
	if value != 1 {
		return "", false
	}
	if code == keyEnter || code == keyKPEnter {
		line := l.buf.String()
		l.buf.Reset()
		if line == "" {
			return "", false
		}
		return line, true
	}
	if chars, ok := keymap[code]; ok {
		if l.shift {
			l.buf.WriteByte(chars[1])
		} else {
			l.buf.WriteByte(chars[0])
		}
	}
	return "", false
}

// Keyboard implements Reader for USB keyboard-wedge barcode scanners.
// A single poller feeds all reads, so keystrokes that arrive in the same batch
// as an Enter carry over to the next Read. Read must not be called concurrently.
type Keyboard struct {
	device   *evdev.Evdev
	fallback Symbology
	events   <-chan *evdev.EventEnvelope
	cancel   context.CancelFunc
	line     lineBuffer
}

// NewKeyboard opens a keyboard-wedge scanner on the specified input device.
// Lines without an AIM prefix are reported with the fallback symbology.
func NewKeyboard(device string, fallback Symbology) (*Keyboard, error) {
	dev, err := evdev.OpenFile(device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", device, err)
	}

	log.Printf("Opened scanner device: %s", dev.Name())
	log.Printf("Vendor: 0x%04x, Product: 0x%04x", dev.ID().Vendor, dev.ID().Product)

	return newKeyboard(dev, fallback), nil
}

func newKeyboard(dev *evdev.Evdev, fallback Symbology) *Keyboard {
	ctx, cancel := context.WithCancel(context.Background())
	return &Keyboard{
		device:   dev,
		fallback: fallback,
		events:   dev.Poll(ctx),
		cancel:   cancel,
	}
}

// Read implements Reader.Read for keyboard-wedge scanners.
func (k *Keyboard) Read(ctx context.Context) (Decode, error) {
	for {
		select {
		case <-ctx.Done():
			return Decode{}, ctx.Err()
		case event, ok := <-k.events:
			if !ok || event == nil {
				return Decode{}, fmt.Errorf("scanner device closed")
			}
			if _, ok := event.Type.(evdev.KeyType); !ok {
				continue
			}
			if s, done := k.line.feed(event.Code, event.Value); done {
				return decodeLine(s, k.fallback), nil
			}
		}
	}
}

// Close implements Reader.Close. The poller exits once the device is closed.
func (k *Keyboard) Close() error {
	k.cancel()
	err := k.device.Close()
	go func() {
		for range k.events {
		}
	}()
	return err
}

func decodeLine(line string, fallback Symbology) Decode {
	sym, data := ParseAIM(strings.TrimSpace(line))
	if sym == Unknown {
		sym = fallback
	}
	return Decode{Symbology: sym, Data: data}
}
