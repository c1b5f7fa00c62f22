package validate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tixscan/scan"
)

// TicketEntry is a single ticket as returned by the ticket list API.
type TicketEntry struct {
	Ticket string `json:"ticket"`
	Status string `json:"status"` // "valid", "void", "refunded", ...
	Holder string `json:"holder"`
	Note   string `json:"note"`
}

// TicketRecord is the in-memory representation of a ticket.
type TicketRecord struct {
	Ticket string
	Valid  bool
	Status string
	Holder string
	Note   string
}

// List validates tickets against a downloaded ticket list.
// Admitted tickets are remembered and rejected if scanned again.
type List struct {
	mu       sync.RWMutex
	tickets  map[string]TicketRecord
	redeemed map[string]bool

	// fetchMu serializes downloads so the file on disk and the
	// in-memory list always come from the same response.
	fetchMu sync.Mutex

	client     *http.Client
	endpoint   string
	username   string
	password   string
	ticketFile string
	onUpdate   func(count int)
}

// NewList creates a List validator. The list is empty until LoadFromFile or
// FetchFromAPI is called.
func NewList(cfg Config, client *http.Client) *List {
	return &List{
		tickets:    make(map[string]TicketRecord),
		redeemed:   make(map[string]bool),
		client:     client,
		endpoint:   fmt.Sprintf("%s/api/v1/events/%s/tickets", cfg.URL, url.PathEscape(cfg.Event)),
		username:   cfg.Username,
		password:   cfg.Password,
		ticketFile: cfg.TicketFile,
	}
}

// SetUpdateCallback sets a callback to be called after a successful download.
func (l *List) SetUpdateCallback(fn func(count int)) {
	l.onUpdate = fn
}

// lookup finds a ticket in the list.
func (l *List) lookup(ticket string) (TicketRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.tickets[ticket]
	return rec, ok
}

// Len returns the number of tickets in the list.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tickets)
}

// Validate implements Validator.
func (l *List) Validate(ctx context.Context, d scan.Decode) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.tickets[d.Data]
	if !ok {
		return Result{}, &Rejection{Reason: "Unknown ticket"}
	}
	if !rec.Valid {
		return Result{}, &Rejection{Reason: "Ticket " + rec.Status}
	}
	if l.redeemed[d.Data] {
		return Result{}, &Rejection{Reason: "Already used"}
	}
	l.redeemed[d.Data] = true
	return Result{Ticket: rec.Ticket, Holder: rec.Holder, Detail: rec.Note}, nil
}

// FetchFromAPI downloads the ticket list and rewrites the ticket file.
func (l *List) FetchFromAPI(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if l.username != "" {
		req.SetBasicAuth(l.username, l.password)
	}

	response, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("make request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch tickets: unexpected status %s", response.Status)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var items []TicketEntry
	if err := json.Unmarshal(body, &items); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}

	tickets := make(map[string]TicketRecord, len(items))
	for _, item := range items {
		if item.Ticket == "" {
			continue
		}
		tickets[item.Ticket] = TicketRecord{
			Ticket: item.Ticket,
			Valid:  item.Status == "valid",
			Status: item.Status,
			Holder: clean(item.Holder),
			Note:   clean(item.Note),
		}
	}

	l.fetchMu.Lock()
	defer l.fetchMu.Unlock()

	if l.ticketFile != "" {
		if err := writeTicketFile(l.ticketFile, tickets); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.tickets = tickets
	l.mu.Unlock()

	if l.onUpdate != nil {
		l.onUpdate(len(tickets))
	}
	return nil
}

// LoadFromFile loads the ticket list from the ticket file.
// Creates the file if it doesn't exist.
func (l *List) LoadFromFile() error {
	if l.ticketFile == "" {
		return nil
	}

	dir := filepath.Dir(l.ticketFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create ticket file directory: %w", err)
	}

	file, err := os.OpenFile(l.ticketFile, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("open ticket file: %w", err)
	}
	defer file.Close()

	tickets := make(map[string]TicketRecord)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		// Format: ticket status holder note (tab-separated)
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		rec := TicketRecord{
			Ticket: parts[0],
			Status: parts[1],
			Valid:  parts[1] == "valid",
		}
		if len(parts) > 2 {
			rec.Holder = parts[2]
		}
		if len(parts) > 3 {
			rec.Note = parts[3]
		}
		tickets[rec.Ticket] = rec
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Warning reading ticket file: %v", err)
	}

	l.mu.Lock()
	l.tickets = tickets
	l.mu.Unlock()
	return nil
}

func writeTicketFile(path string, tickets map[string]TicketRecord) error {
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := file.Name()

	w := bufio.NewWriter(file)
	for _, rec := range tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.Ticket, rec.Status, rec.Holder, rec.Note)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		log.Printf("Warning: chmod ticket file: %v", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename ticket file: %w", err)
	}
	return nil
}

// clean strips characters that would break the tab-separated file.
func clean(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
