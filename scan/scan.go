package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
)

// Decode is a single decoded barcode delivered by a scanner.
type Decode struct {
	Symbology Symbology
	Data      string
}

func (d Decode) String() string {
	return fmt.Sprintf("%s:%s", d.Symbology, d.Data)
}

// Reader is the interface for all barcode scanner implementations.
type Reader interface {
	// Read blocks until a barcode is decoded or ctx is cancelled.
	Read(ctx context.Context) (Decode, error)

	// Close releases any resources held by the reader.
	Close() error
}

// Permission is the result of a device access query.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// ErrNoDevice is returned when no scanner device is configured.
var ErrNoDevice = errors.New("no scanner device configured")

// Config holds scanner configuration.
type Config struct {
	Type             string   `yaml:"type"`                // "keyboard", "serial"
	Device           string   `yaml:"device" env:"DEVICE"` // e.g. "/dev/input/event0", "/dev/ttyACM0"
	Baud             int      `yaml:"baud"`                // serial only
	Symbologies      []string `yaml:"symbologies"`         // empty = all ticket symbologies
	DefaultSymbology string   `yaml:"default_symbology"`   // used when the scanner sends no AIM prefix
}

// Capability is the scanning device as seen by the lifecycle: a permission
// probe plus a decode stream restricted to the recognized symbologies.
type Capability struct {
	cfg      Config
	set      Set
	fallback Symbology
}

// NewCapability validates cfg and returns a Capability.
func NewCapability(cfg Config) (*Capability, error) {
	set, err := ParseSet(cfg.Symbologies)
	if err != nil {
		return nil, err
	}
	fallback := Unknown
	if cfg.DefaultSymbology != "" {
		sym, ok := ParseSymbology(cfg.DefaultSymbology)
		if !ok {
			return nil, &UnknownSymbologyError{Name: cfg.DefaultSymbology}
		}
		fallback = sym
	} else {
		log.Printf("Warning: no default_symbology set; scans without an AIM prefix will be ignored")
	}
	return &Capability{cfg: cfg, set: set, fallback: fallback}, nil
}

// Symbologies returns the recognized symbology set.
func (c *Capability) Symbologies() Set {
	return c.set
}

// RequestPermission checks whether this process may read the scanner device.
// A missing device or a permission error is reported as denied; any other
// failure is returned as an error.
func (c *Capability) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionUnknown, err
	}
	if c.cfg.Device == "" {
		return PermissionDenied, ErrNoDevice
	}

	f, err := os.OpenFile(c.cfg.Device, os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist) {
			log.Printf("Scanner %s: %v", c.cfg.Device, err)
			return PermissionDenied, nil
		}
		return PermissionUnknown, fmt.Errorf("probe %s: %w", c.cfg.Device, err)
	}
	f.Close()
	return PermissionGranted, nil
}

// Open opens the configured scanner wrapped in a symbology filter.
func (c *Capability) Open() (Reader, error) {
	var r Reader
	var err error
	switch c.cfg.Type {
	case "serial":
		r, err = NewSerial(c.cfg.Device, c.cfg.Baud, c.fallback)
	case "keyboard", "":
		r, err = NewKeyboard(c.cfg.Device, c.fallback)
	default:
		return nil, fmt.Errorf("unknown scanner type %q", c.cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return Filter(r, c.set), nil
}

// filtered drops decodes outside the recognized set.
type filtered struct {
	Reader
	set Set
}

// Filter wraps r so that Read only returns decodes whose symbology is in set.
func Filter(r Reader, set Set) Reader {
	return &filtered{Reader: r, set: set}
}

func (f *filtered) Read(ctx context.Context) (Decode, error) {
	for {
		d, err := f.Reader.Read(ctx)
		if err != nil {
			return d, err
		}
		if f.set.Contains(d.Symbology) {
			return d, nil
		}
		log.Printf("Ignoring %s barcode %q (symbology not recognized)", d.Symbology, d.Data)
	}
}
