package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"tixscan/scan"
)

// Remote validates each ticket with a backend request.
type Remote struct {
	client   *http.Client
	endpoint string
	username string
	password string
	station  string
}

type remoteRequest struct {
	Ticket    string `json:"ticket"`
	Symbology string `json:"symbology"`
	Station   string `json:"station"`
}

type remoteResponse struct {
	Valid  bool   `json:"valid"`
	Holder string `json:"holder"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// NewRemote creates a Remote validator.
func NewRemote(cfg Config, station string, client *http.Client) *Remote {
	return &Remote{
		client:   client,
		endpoint: fmt.Sprintf("%s/api/v1/events/%s/validate", cfg.URL, url.PathEscape(cfg.Event)),
		username: cfg.Username,
		password: cfg.Password,
		station:  station,
	}
}

// Validate implements Validator.
func (r *Remote) Validate(ctx context.Context, d scan.Decode) (Result, error) {
	body, err := json.Marshal(remoteRequest{
		Ticket:    d.Data,
		Symbology: d.Symbology.String(),
		Station:   r.station,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.username != "" {
		req.SetBasicAuth(r.username, r.password)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Result{}, &Rejection{Reason: "Unknown ticket"}
	default:
		return Result{}, fmt.Errorf("validate: unexpected status %s", resp.Status)
	}

	var out remoteResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("decode JSON: %w", err)
	}
	if !out.Valid {
		reason := out.Reason
		if reason == "" {
			reason = "Invalid ticket"
		}
		return Result{}, &Rejection{Reason: reason}
	}
	return Result{Ticket: d.Data, Holder: out.Holder, Detail: out.Detail}, nil
}
