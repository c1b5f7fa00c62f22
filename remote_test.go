package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("toggle-secret"))

func togglePayload(t *testing.T, station string, ts time.Time, encode func([]byte) string) []byte {
	t.Helper()
	sig, err := signToggle(testSecret, station, "ops", uint64(ts.Unix()))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	b, err := json.Marshal(ToggleRequest{
		Station:   station,
		Operator:  "ops",
		Timestamp: uint64(ts.Unix()),
		Signature: encode(sig),
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestVerifyToggle(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	for name, enc := range map[string]func([]byte) string{
		"hex":    hex.EncodeToString,
		"base64": base64.StdEncoding.EncodeToString,
	} {
		req, err := verifyToggle(testSecret, "gate-1", togglePayload(t, "gate-1", now, enc), now)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if req.Operator != "ops" {
			t.Fatalf("%s: operator %q", name, req.Operator)
		}
	}
}

func TestVerifyToggleRejects(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := map[string][]byte{
		"other station": togglePayload(t, "gate-2", now, hex.EncodeToString),
		"stale":         togglePayload(t, "gate-1", now.Add(-10*time.Minute), hex.EncodeToString),
		"future":        togglePayload(t, "gate-1", now.Add(10*time.Minute), hex.EncodeToString),
		"bad signature": []byte(`{"station":"gate-1","timestamp":1700000000,"signature":"00"}`),
		"not json":      []byte(`toggle`),
	}
	for name, payload := range tests {
		if _, err := verifyToggle(testSecret, "gate-1", payload, now); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func TestSignToggleBadSecret(t *testing.T) {
	if _, err := signToggle("", "gate-1", "ops", 1); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := signToggle("%%%", "gate-1", "ops", 1); err == nil {
		t.Fatal("expected error for bad base64")
	}
}
