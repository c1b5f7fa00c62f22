package validate

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tixscan/scan"
)

// Signed validates self-contained tickets of the form "<id>|<expires>|<sig>"
// where sig is an HMAC-SHA256 over id, event and the big-endian expiry.
type Signed struct {
	secret []byte
	event  string
	now    func() time.Time
}

// NewSigned creates a Signed validator from a base64 secret.
func NewSigned(base64Secret, event string) (*Signed, error) {
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, errors.New("secret cannot be empty")
	}
	return &Signed{secret: secret, event: event, now: time.Now}, nil
}

// Sign returns the hex signature for a ticket.
func (s *Signed) Sign(id string, expires uint64) string {
	return hex.EncodeToString(s.mac(id, expires))
}

// Encode returns the full ticket payload for id.
func (s *Signed) Encode(id string, expires uint64) string {
	return fmt.Sprintf("%s|%d|%s", id, expires, s.Sign(id, expires))
}

func (s *Signed) mac(id string, expires uint64) []byte {
	msg := make([]byte, 0, len(id)+len(s.event)+8)
	msg = append(msg, id...)
	msg = append(msg, s.event...)

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], expires)
	msg = append(msg, tsBuf[:]...)

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(msg)
	return mac.Sum(nil)
}

// Validate implements Validator.
func (s *Signed) Validate(ctx context.Context, d scan.Decode) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	parts := strings.Split(d.Data, "|")
	if len(parts) != 3 {
		return Result{}, &Rejection{Reason: "Unreadable ticket"}
	}
	id, sig := parts[0], parts[2]
	expires, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Result{}, &Rejection{Reason: "Unreadable ticket"}
	}

	if !s.verify(id, expires, sig) {
		return Result{}, &Rejection{Reason: "Forged ticket"}
	}
	if s.now().After(time.Unix(int64(expires), 0)) {
		return Result{}, &Rejection{Reason: "Ticket expired"}
	}
	return Result{Ticket: id}, nil
}

func (s *Signed) verify(id string, expires uint64, provided string) bool {
	expected := s.mac(id, expires)

	// Try hex
	if decoded, err := hex.DecodeString(provided); err == nil {
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return true
		}
	}

	// Try base64
	if decoded, err := base64.StdEncoding.DecodeString(provided); err == nil {
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return true
		}
	}
	return false
}
