package main

import (
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"

	"tixscan/button"
	"tixscan/eventpipe"
	"tixscan/gate"
	"tixscan/indicator"
	"tixscan/mqtt"
	"tixscan/overlay"
	"tixscan/printer"
	"tixscan/scan"
	"tixscan/validate"
)

// envPrefix prefixes every environment override, e.g. TIXSCAN_MQTT_HOST.
const envPrefix = "TIXSCAN_"

// Config is the main configuration structure for tixscan.
type Config struct {
	// Station identity, used as MQTT client ID and in validation requests
	ClientID string `yaml:"client_id" env:"CLIENT_ID"`

	// Scanner device and recognized symbologies
	Scanner scan.Config `yaml:"scanner" envPrefix:"SCANNER_"`

	// Ticket validation backend
	Validator validate.Config `yaml:"validator" envPrefix:"VALIDATOR_"`

	// Scan line animation
	Overlay overlay.Config `yaml:"overlay"`

	// Indicator configuration (LEDs, neopixels, display)
	Indicator indicator.Config `yaml:"indicator"`

	// Turnstile released after an accepted ticket
	Gate gate.Config `yaml:"gate"`

	// Scan toggle push button
	Button button.Config `yaml:"button"`

	// Admission label printer
	Printer printer.Config `yaml:"printer"`

	// MQTT connection settings
	MQTT mqtt.Config `yaml:"mqtt" envPrefix:"MQTT_"`

	// Bench-test command pipe
	EventPipe eventpipe.Config `yaml:"event_pipe"`

	// Base64 HMAC secret for remote toggle requests. Remote toggle is
	// disabled without it.
	ToggleSecret string `yaml:"toggle_secret" env:"TOGGLE_SECRET"`

	PingSecs int `yaml:"ping_secs"`
}

func (c *Config) applyDefaults() {
	if c.PingSecs <= 0 {
		c.PingSecs = 120
	}
	if c.Scanner.Type == "" {
		c.Scanner.Type = "keyboard"
	}
	if c.Validator.TicketFile == "" && c.Validator.Type == "list" {
		c.Validator.TicketFile = "tickets.txt"
	}
}

// loadConfig reads the YAML file at path and applies environment overrides.
func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return parseConfig(f)
}

func parseConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()

	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client_id missing in config file")
	}
	return &cfg, nil
}
