// Package eventpipe accepts bench-test commands on a named pipe, standing in
// for the toggle button and the scanner.
package eventpipe

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"tixscan/scan"
)

// Config holds configuration for the event pipe.
type Config struct {
	Path string `yaml:"path"` // Path to named pipe (e.g., "/tmp/tixscan-events")
}

// Kind identifies a pipe command.
type Kind int

const (
	KindToggle Kind = iota
	KindScan
	KindPermission
)

// Command is one parsed pipe line.
type Command struct {
	Kind   Kind
	Decode scan.Decode // set for KindScan
}

// Handler receives parsed commands. Nil fields are skipped.
type Handler struct {
	OnToggle     func()
	OnScan       func(scan.Decode)
	OnPermission func()
}

func (h Handler) dispatch(c Command) {
	switch c.Kind {
	case KindToggle:
		if h.OnToggle != nil {
			h.OnToggle()
		}
	case KindScan:
		if h.OnScan != nil {
			h.OnScan(c.Decode)
		}
	case KindPermission:
		if h.OnPermission != nil {
			h.OnPermission()
		}
	}
}

// EventPipe listens for commands on a named pipe.
type EventPipe struct {
	path    string
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new EventPipe. Returns nil if path is empty.
func New(cfg Config, handler Handler) (*EventPipe, error) {
	if cfg.Path == "" {
		return nil, nil
	}

	// Remove existing pipe if it exists
	os.Remove(cfg.Path)

	if err := syscall.Mkfifo(cfg.Path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", cfg.Path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &EventPipe{
		path:    cfg.Path,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins listening for commands on the pipe.
// This should be called as a goroutine.
func (ep *EventPipe) Start() {
	log.Printf("Event pipe listening on %s", ep.path)

	for {
		if ep.ctx.Err() != nil {
			return
		}

		// Blocks until a writer connects
		file, err := os.OpenFile(ep.path, os.O_RDONLY, 0)
		if err != nil {
			if ep.ctx.Err() != nil {
				return
			}
			log.Printf("Event pipe open error: %v", err)
			continue
		}

		ep.consume(bufio.NewScanner(file))
		file.Close()
		// Writer closed the pipe, loop back to wait for next writer
	}
}

func (ep *EventPipe) consume(scanner *bufio.Scanner) {
	for scanner.Scan() {
		if ep.ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cmd, err := parseLine(line)
		if err != nil {
			log.Printf("Event pipe parse error: %v", err)
			continue
		}
		ep.handler.dispatch(cmd)
	}
}

// Close stops the event pipe listener and removes the pipe.
func (ep *EventPipe) Close() error {
	ep.cancel()
	return os.Remove(ep.path)
}

// parseLine parses a command line.
// Command format:
//
//	toggle                      - Press the scan toggle
//	scan <symbology> <data>     - Deliver a decode of the given symbology
//	scan <]Xn-prefixed data>    - Deliver a decode identified by its AIM prefix
//	permission                  - Re-query scanner permission
func parseLine(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "toggle", "button":
		return Command{Kind: KindToggle}, nil

	case "permission", "perm":
		return Command{Kind: KindPermission}, nil

	case "scan":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("scan requires data")
		}
		if len(parts) == 2 {
			sym, data := scan.ParseAIM(parts[1])
			if sym == scan.Unknown {
				return Command{}, fmt.Errorf("scan needs a symbology or AIM prefix: %s", parts[1])
			}
			return Command{Kind: KindScan, Decode: scan.Decode{Symbology: sym, Data: data}}, nil
		}
		sym, ok := scan.ParseSymbology(parts[1])
		if !ok {
			return Command{}, fmt.Errorf("unknown symbology: %s", parts[1])
		}
		data := strings.Join(parts[2:], " ")
		return Command{Kind: KindScan, Decode: scan.Decode{Symbology: sym, Data: data}}, nil

	default:
		return Command{}, fmt.Errorf("unknown command: %s", cmd)
	}
}
