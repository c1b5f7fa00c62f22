package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// Serial implements Reader for serial (USB CDC / RS-232) barcode scanners
// that send one CR or LF terminated line per decode.
type Serial struct {
	port     *serial.Port
	device   string
	fallback Symbology
	lines    *bufio.Reader
	partial  strings.Builder
}

// NewSerial opens a serial scanner. A zero baud rate defaults to 9600.
func NewSerial(device string, baud int, fallback Symbology) (*Serial, error) {
	if baud == 0 {
		baud = 9600
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	return &Serial{
		port:     port,
		device:   device,
		fallback: fallback,
		lines:    bufio.NewReader(port),
	}, nil
}

// Read implements Reader.Read for serial scanners.
func (s *Serial) Read(ctx context.Context) (Decode, error) {
	for {
		select {
		case <-ctx.Done():
			return Decode{}, ctx.Err()
		default:
		}

		line, err := s.readLine()
		if err != nil {
			return Decode{}, err
		}
		if line != "" {
			return decodeLine(line, s.fallback), nil
		}
	}
}

// readLine returns a complete line, or "" when the read timed out first.
// Partial input is kept across timeouts.
func (s *Serial) readLine() (string, error) {
	return readTerminated(s.lines, &s.partial)
}

func readTerminated(r *bufio.Reader, partial *strings.Builder) (string, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// tarm/serial reports a read timeout as EOF
				return "", nil
			}
			return "", fmt.Errorf("read scanner: %w", err)
		}
		if b == '\r' || b == '\n' {
			if partial.Len() == 0 {
				continue
			}
			line := partial.String()
			partial.Reset()
			return line, nil
		}
		partial.WriteByte(b)
	}
}

// Close implements Reader.Close.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
