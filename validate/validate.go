// Package validate checks decoded tickets against a backend before the
// station confirms admission.
package validate

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"tixscan/scan"
)

// Validator checks a decoded ticket.
// A ticket that is well-formed but not admissible is reported as a *Rejection error;
// any other error means the check itself failed.
type Validator interface {
	Validate(ctx context.Context, d scan.Decode) (Result, error)
}

// Result describes an admitted ticket.
type Result struct {
	Ticket string
	Holder string
	Detail string
}

// Rejection is returned when the backend refuses a ticket.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return "ticket rejected: " + r.Reason
}

// IsRejection reports whether err is a ticket rejection and returns it.
func IsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// Config holds validation backend settings.
type Config struct {
	Type       string `yaml:"type" env:"TYPE"` // "accept", "remote", "list", "signed"
	URL        string `yaml:"url" env:"URL"`
	CAFile     string `yaml:"ca_file"`
	Username   string `yaml:"username" env:"USERNAME"`
	Password   string `yaml:"password" env:"PASSWORD"`
	Event      string `yaml:"event" env:"EVENT"`
	Secret     string `yaml:"secret" env:"SECRET"` // base64 HMAC secret for signed tickets
	TicketFile string `yaml:"ticket_file"`
	Refresh    string `yaml:"refresh"` // cron schedule for ticket list refresh
	TimeoutSec int    `yaml:"timeout_secs"`
}

// Timeout returns the per-validation timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// New creates a Validator based on the provided configuration.
// station identifies this scanner in remote requests.
func New(cfg Config, station string) (Validator, error) {
	var v Validator
	switch cfg.Type {
	case "", "accept":
		v = Accept{}
	case "remote":
		client, err := httpClient(cfg.CAFile)
		if err != nil {
			return nil, err
		}
		v = NewRemote(cfg, station, client)
	case "list":
		client, err := httpClient(cfg.CAFile)
		if err != nil {
			return nil, err
		}
		v = NewList(cfg, client)
	case "signed":
		s, err := NewSigned(cfg.Secret, cfg.Event)
		if err != nil {
			return nil, err
		}
		v = s
	default:
		return nil, fmt.Errorf("unknown validator type %q", cfg.Type)
	}
	return WithTimeout(v, cfg.Timeout()), nil
}

// Accept admits every ticket.
type Accept struct{}

// Validate implements Validator.
func (Accept) Validate(ctx context.Context, d scan.Decode) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{Ticket: d.Data}, nil
}

type timeoutValidator struct {
	next    Validator
	timeout time.Duration
}

// WithTimeout bounds every validation by d.
func WithTimeout(v Validator, d time.Duration) Validator {
	return &timeoutValidator{next: v, timeout: d}
}

func (t *timeoutValidator) Validate(ctx context.Context, d scan.Decode) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Validate(ctx, d)
}

// Unwrap returns the wrapped validator.
func (t *timeoutValidator) Unwrap() Validator {
	return t.next
}

// AsList returns the ticket List behind v, if v is or wraps one.
func AsList(v Validator) (*List, bool) {
	for v != nil {
		switch t := v.(type) {
		case *List:
			return t, true
		case interface{ Unwrap() Validator }:
			v = t.Unwrap()
		default:
			return nil, false
		}
	}
	return nil, false
}

func httpClient(caFile string) (*http.Client, error) {
	if caFile == "" {
		return &http.Client{}, nil
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}

	caCertPool := x509.NewCertPool()
	caCertPool.AppendCertsFromPEM(caCert)

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs: caCertPool,
		},
	}
	return &http.Client{Transport: transport}, nil
}
