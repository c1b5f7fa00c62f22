package main

import (
	"strings"
	"testing"
)

const sampleConfig = `
client_id: gate-1
scanner:
  type: serial
  device: /dev/ttyACM0
  symbologies: [qr, aztec]
validator:
  type: list
  url: https://tickets.example.org
  event: spring-gala
  refresh: "@every 10m"
gate:
  type: servo
  pin: 18
  open_secs: 4
mqtt:
  host: broker.example.org
  port: 8883
indicator:
  dismiss_secs: 2
`

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.ClientID != "gate-1" {
		t.Fatalf("client id %q", cfg.ClientID)
	}
	if cfg.Scanner.Type != "serial" || len(cfg.Scanner.Symbologies) != 2 {
		t.Fatalf("scanner %+v", cfg.Scanner)
	}
	if cfg.Gate.Pin == nil || *cfg.Gate.Pin != 18 || cfg.Gate.OpenSecs != 4 {
		t.Fatalf("gate %+v", cfg.Gate)
	}
	if cfg.Validator.TicketFile != "tickets.txt" {
		t.Fatalf("ticket file default %q", cfg.Validator.TicketFile)
	}
	if cfg.PingSecs != 120 {
		t.Fatalf("ping default %d", cfg.PingSecs)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	t.Setenv("TIXSCAN_MQTT_HOST", "localhost")
	t.Setenv("TIXSCAN_VALIDATOR_PASSWORD", "hunter2")
	t.Setenv("TIXSCAN_SCANNER_DEVICE", "/dev/input/event3")

	cfg, err := parseConfig(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.MQTT.Host != "localhost" || cfg.MQTT.Port != 8883 {
		t.Fatalf("mqtt %+v", cfg.MQTT)
	}
	if cfg.Validator.Password != "hunter2" {
		t.Fatalf("password not overridden")
	}
	if cfg.Scanner.Device != "/dev/input/event3" {
		t.Fatalf("device %q", cfg.Scanner.Device)
	}
}

func TestParseConfigClientIDFromEnv(t *testing.T) {
	t.Setenv("TIXSCAN_CLIENT_ID", "gate-9")
	cfg, err := parseConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.ClientID != "gate-9" || cfg.Scanner.Type != "keyboard" {
		t.Fatalf("cfg %+v", cfg)
	}
}

func TestParseConfigMissingClientID(t *testing.T) {
	if _, err := parseConfig(strings.NewReader("scanner:\n  type: keyboard\n")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseConfigBadYAML(t *testing.T) {
	if _, err := parseConfig(strings.NewReader("client_id: [")); err == nil {
		t.Fatal("expected error")
	}
}
