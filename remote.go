package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// toggleWindow bounds the clock skew accepted on remote toggle requests.
const toggleWindow = 5 * time.Minute

// ToggleRequest is a signed remote scan mode toggle.
type ToggleRequest struct {
	Station   string `json:"station"`
	Operator  string `json:"operator"`
	Timestamp uint64 `json:"timestamp"`
	Signature string `json:"signature"`
}

var errBadSignature = errors.New("signature verification failed")

// signToggle returns the HMAC-SHA256 over station, operator and the
// big-endian timestamp.
func signToggle(base64Secret, station, operator string, ts uint64) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret cannot be empty")
	}

	msg := make([]byte, 0, len(station)+len(operator)+8)
	msg = append(msg, station...)
	msg = append(msg, operator...)
	msg = binary.BigEndian.AppendUint64(msg, ts)

	mac := hmac.New(sha256.New, secret)
	mac.Write(msg)
	return mac.Sum(nil), nil
}

// verifyToggle decodes payload and checks it is a fresh request for station
// signed with base64Secret. The signature may be hex or base64.
func verifyToggle(base64Secret, station string, payload []byte, now time.Time) (*ToggleRequest, error) {
	var req ToggleRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode toggle request: %w", err)
	}

	expected, err := signToggle(base64Secret, req.Station, req.Operator, req.Timestamp)
	if err != nil {
		return nil, err
	}

	provided, err := hex.DecodeString(req.Signature)
	if err != nil {
		provided, err = base64.StdEncoding.DecodeString(req.Signature)
		if err != nil {
			return nil, errBadSignature
		}
	}
	if subtle.ConstantTimeCompare(provided, expected) != 1 {
		return nil, errBadSignature
	}

	if req.Station != station {
		return nil, fmt.Errorf("toggle for station %q, this is %q", req.Station, station)
	}

	ts := time.Unix(int64(req.Timestamp), 0)
	if now.Before(ts.Add(-toggleWindow)) || now.After(ts.Add(toggleWindow)) {
		return nil, fmt.Errorf("toggle request timestamp out of range")
	}
	return &req, nil
}
