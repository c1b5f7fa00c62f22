package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"tixscan/button"
	"tixscan/eventpipe"
	"tixscan/gate"
	"tixscan/indicator"
	"tixscan/lifecycle"
	"tixscan/mqtt"
	"tixscan/overlay"
	"tixscan/printer"
	"tixscan/scan"
	"tixscan/validate"
)

var myBuild string

// App holds the application state and dependencies.
type App struct {
	cfg        *Config
	topics     mqtt.Topics
	mqtt       *mqtt.Client
	capability *scan.Capability
	scanner    *lifecycle.Scanner
	animator   *overlay.Animator
	indicator  indicator.Indicator
	opener     gate.Opener
	gate       *gate.Admitter
	printer    *printer.Printer
	list       *validate.List
	button     *button.Button
	pipe       *eventpipe.EventPipe
	ctx        context.Context
	cancel     context.CancelFunc

	readerMu sync.Mutex
	reader   scan.Reader

	// admissions tracks gate and printer work started by Confirmed.
	admissions sync.WaitGroup
}

// scanReport is published for every validated scan.
type scanReport struct {
	ID        string `json:"id"`
	Ticket    string `json:"ticket"`
	Symbology string `json:"symbology"`
	Accepted  bool   `json:"accepted"`
	Holder    string `json:"holder,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type stateReport struct {
	State string `json:"state"`
	From  string `json:"from"`
}

func main() {
	fmt.Printf("tixscan build %s\n", myBuild)

	cfgfile := flag.String("cfg", "tixscan.cfg", "Config file")
	listSyms := flag.Bool("symbologies", false, "List supported symbologies and exit")
	signTicket := flag.String("sign", "", "Print a signed ticket with this ID and exit")
	signTTL := flag.Duration("ttl", 24*time.Hour, "Validity of a ticket printed with -sign")
	flag.Parse()

	if *listSyms {
		fmt.Println(strings.Join(scan.DefaultSet().Names(), "\n"))
		return
	}

	cfg, err := loadConfig(*cfgfile)
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	if *signTicket != "" {
		s, err := validate.NewSigned(cfg.Validator.Secret, cfg.Validator.Event)
		if err != nil {
			log.Fatalf("Sign ticket: %v", err)
		}
		fmt.Println(s.Encode(*signTicket, uint64(time.Now().Add(*signTTL).Unix())))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		cfg:    cfg,
		topics: mqtt.Topics{Node: cfg.ClientID},
		ctx:    ctx,
		cancel: cancel,
	}

	// Initialize indicator (LEDs, neopixels, display)
	ind, err := indicator.New(cfg.Indicator)
	if err != nil {
		log.Fatalf("Init indicator: %v", err)
	}
	app.wrapIndicator(ind, time.Duration(cfg.Indicator.DismissSecs)*time.Second)
	app.indicator.ConnectionLost() // Start with connection lost state

	app.animator = overlay.New(cfg.Overlay, indicator.Sink(app.indicator))

	// Initialize validation backend
	validator, err := validate.New(cfg.Validator, cfg.ClientID)
	if err != nil {
		log.Fatalf("Init validator: %v", err)
	}
	stopRefresh := func() {}
	if list, ok := validate.AsList(validator); ok {
		app.list = list
		list.SetUpdateCallback(func(count int) {
			app.publishJSON(app.topics.Tickets(), map[string]any{"status": "downloaded", "count": count})
		})
		if err := list.LoadFromFile(); err != nil {
			log.Printf("Warning: could not load ticket file: %v", err)
		} else {
			log.Printf("Loaded %d tickets from %s", list.Len(), cfg.Validator.TicketFile)
		}
		if err := list.FetchFromAPI(ctx); err != nil {
			log.Printf("Warning: could not fetch tickets from API: %v", err)
		}
		if cfg.Validator.Refresh != "" {
			stopRefresh, err = list.ScheduleRefresh(ctx, cfg.Validator.Refresh)
			if err != nil {
				log.Fatalf("Init ticket refresh: %v", err)
			}
		}
	}

	// Initialize gate opener
	app.opener, err = gate.New(cfg.Gate)
	if err != nil {
		log.Fatalf("Init gate: %v", err)
	}
	app.gate = gate.NewAdmitter(app.opener, cfg.Gate.OpenDuration())

	app.printer = printer.New(cfg.Printer)

	// Initialize scanner capability and lifecycle
	app.capability, err = scan.NewCapability(cfg.Scanner)
	if err != nil {
		log.Fatalf("Init scanner: %v", err)
	}
	log.Printf("Recognized symbologies: %s", strings.Join(app.capability.Symbologies().Names(), ", "))

	app.scanner = lifecycle.New(lifecycle.Options{
		Permission:    app.capability,
		Validator:     validator,
		Animator:      app.animator,
		Notifier:      app,
		OnStateChange: app.onStateChange,
	})

	// Initialize MQTT
	router := mqtt.NewRouter()
	router.Handle(mqtt.TopicTicketsUpdate, app.onTicketsUpdate)
	router.Handle(app.topics.Toggle(), app.onRemoteToggle)
	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.onMQTTDisconnect,
		Router:       router,
	})
	if err != nil {
		log.Fatalf("Init MQTT: %v", err)
	}

	// Initialize toggle button if configured
	app.button, err = button.New(cfg.Button, app.toggle)
	if err != nil {
		log.Fatalf("Init button: %v", err)
	}
	if app.button != nil {
		log.Printf("Toggle button initialized (%s/%d)", cfg.Button.Chip, cfg.Button.Pin)
	}

	// Initialize event pipe if configured
	app.pipe, err = eventpipe.New(cfg.EventPipe, eventpipe.Handler{
		OnToggle:     app.toggle,
		OnScan:       app.onPipeScan,
		OnPermission: func() { go app.requestPermission() },
	})
	if err != nil {
		log.Fatalf("Init event pipe: %v", err)
	}

	// Start background goroutines
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Printf("MQTT connect: %v", err)
		}
	}()
	go app.requestPermission()
	go app.pingSender()
	if app.pipe != nil {
		go app.pipe.Start()
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	app.shutdown(stopRefresh)
	fmt.Println("Shutdown complete")
}

// wrapIndicator installs ind so that outcomes are dismissed back to the
// lifecycle state current at dismissal time.
func (app *App) wrapIndicator(ind indicator.Indicator, dismiss time.Duration) {
	timed := indicator.NewTimed(ind, dismiss)
	timed.SetDismiss(func() { app.showState(app.scanner.State()) })
	app.indicator = timed
}

func (app *App) shutdown(stopRefresh func()) {
	app.scanner.Close()
	app.cancel()
	app.scanner.Wait()
	app.admissions.Wait()
	app.animator.Close()
	stopRefresh()

	app.mqtt.Disconnect()
	app.readerMu.Lock()
	if app.reader != nil {
		app.reader.Close()
	}
	app.readerMu.Unlock()
	if app.pipe != nil {
		app.pipe.Close()
	}
	app.button.Release()
	app.opener.Release()
	app.indicator.Shutdown()
	app.indicator.Release()
}

// requestPermission queries scanner access and opens the reader once granted.
func (app *App) requestPermission() {
	st, err := app.scanner.RequestPermission(app.ctx)
	if err != nil {
		log.Printf("Scanner permission: %v", err)
	}
	log.Printf("Scanner state after permission query: %s", st)
	if st == lifecycle.PermissionDenied || st == lifecycle.AwaitingPermission {
		return
	}
	app.openReader()
}

func (app *App) openReader() {
	app.readerMu.Lock()
	defer app.readerMu.Unlock()
	if app.reader != nil {
		return
	}
	r, err := app.capability.Open()
	if err != nil {
		log.Printf("Open scanner: %v", err)
		return
	}
	app.reader = r
	go app.scanListener(r)
}

func (app *App) scanListener(r scan.Reader) {
	for {
		d, err := r.Read(app.ctx)
		if err != nil {
			if app.ctx.Err() != nil {
				return
			}
			log.Printf("Read scan: %v", err)
			time.Sleep(time.Second)
			continue
		}
		app.onDecode(d)
	}
}

func (app *App) onDecode(d scan.Decode) {
	if d.Data == "" {
		return
	}
	if !app.scanner.OnDecode(d) {
		log.Printf("Scan %s ignored (%s)", d, app.scanner.State())
		return
	}
	log.Printf("Scan %s accepted for validation", d)
}

func (app *App) onPipeScan(d scan.Decode) {
	if !app.capability.Symbologies().Contains(d.Symbology) {
		log.Printf("Ignoring %s barcode %q (symbology not recognized)", d.Symbology, d.Data)
		return
	}
	app.onDecode(d)
}

func (app *App) toggle() {
	if !app.scanner.Toggle() {
		log.Printf("Toggle ignored (%s)", app.scanner.State())
	}
}

// onStateChange runs with the lifecycle lock held.
func (app *App) onStateChange(from, to lifecycle.State) {
	switch to {
	case lifecycle.Idle:
		// After validation the outcome is shown and dismissed to idle by the indicator.
		if from != lifecycle.Validating {
			app.indicator.Idle()
		}
	case lifecycle.Scanning:
		app.indicator.Scanning()
	case lifecycle.Validating:
		app.indicator.Validating()
	}
	app.publishJSON(app.topics.State(), stateReport{State: to.String(), From: from.String()})
}

// showState repaints the indicator for st.
func (app *App) showState(st lifecycle.State) {
	switch st {
	case lifecycle.Idle:
		app.indicator.Idle()
	case lifecycle.Scanning:
		app.indicator.Scanning()
		// Put the scan line back where the animation is instead of waiting for the next frame.
		if sink := indicator.Sink(app.indicator); sink != nil {
			sink.ScanPosition(app.animator.Position())
		}
	case lifecycle.Validating:
		app.indicator.Validating()
	case lifecycle.PermissionDenied:
		app.indicator.PermissionDenied()
	}
}

// PermissionDenied implements lifecycle.Notifier.
func (app *App) PermissionDenied() {
	fmt.Println("Scanner permission denied")
	app.indicator.PermissionDenied()
}

// Confirmed implements lifecycle.Notifier.
func (app *App) Confirmed(d scan.Decode, res validate.Result) {
	ticket := res.Ticket
	if ticket == "" {
		ticket = d.Data
	}
	fmt.Printf("Ticket %s admitted (%s)\n", ticket, res.Holder)

	app.indicator.Accepted(&indicator.TicketInfo{
		Ticket: ticket,
		Holder: res.Holder,
		Detail: res.Detail,
	})
	app.publishScan(d, ticket, true, res.Holder, "")

	app.admissions.Add(1)
	go func() {
		defer app.admissions.Done()
		if err := app.gate.Admit(app.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Gate: %v", err)
		}
	}()

	if app.printer != nil {
		app.admissions.Add(1)
		go func() {
			defer app.admissions.Done()
			err := app.printer.Print(printer.Label{
				Event:   app.cfg.Validator.Event,
				Ticket:  ticket,
				Holder:  res.Holder,
				Detail:  res.Detail,
				Station: app.cfg.ClientID,
				Time:    time.Now(),
			})
			if err != nil {
				log.Printf("Print label: %v", err)
			}
		}()
	}
}

// Failed implements lifecycle.Notifier.
func (app *App) Failed(d scan.Decode, err error) {
	reason := failureReason(err)
	fmt.Printf("Ticket %s refused: %s\n", d.Data, reason)

	app.indicator.Rejected(&indicator.TicketInfo{
		Ticket: d.Data,
		Reason: reason,
	})
	app.publishScan(d, d.Data, false, "", reason)
}

// failureReason is the text shown to the visitor for a failed validation.
func failureReason(err error) string {
	if rej, ok := validate.IsRejection(err); ok {
		return rej.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Validation timed out"
	}
	return "Validation unavailable"
}

func (app *App) publishScan(d scan.Decode, ticket string, accepted bool, holder, reason string) {
	app.publishJSON(app.topics.Scan(), scanReport{
		ID:        uuid.NewString(),
		Ticket:    ticket,
		Symbology: d.Symbology.String(),
		Accepted:  accepted,
		Holder:    holder,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	})
}

func (app *App) publishJSON(topic string, v any) {
	if err := app.mqtt.PublishJSON(topic, v); err != nil {
		log.Printf("Publish %s: %v", topic, err)
	}
}

func (app *App) onMQTTConnect() {
	indicator.SetConnected(app.indicator)
	app.showState(app.scanner.State())
}

func (app *App) onMQTTDisconnect() {
	app.indicator.ConnectionLost()
}

func (app *App) onTicketsUpdate(payload []byte) {
	fmt.Println("Received ticket list update message")
	if app.list == nil {
		return
	}
	go func() {
		if err := app.list.FetchFromAPI(app.ctx); err != nil {
			log.Printf("Fetch tickets: %v", err)
		}
	}()
}

func (app *App) onRemoteToggle(payload []byte) {
	if app.cfg.ToggleSecret == "" {
		fmt.Println("Remote toggle disabled (no toggle_secret configured)")
		return
	}
	req, err := verifyToggle(app.cfg.ToggleSecret, app.cfg.ClientID, payload, time.Now())
	if err != nil {
		log.Printf("Remote toggle rejected: %v", err)
		return
	}
	fmt.Printf("Remote toggle from %s\n", req.Operator)
	app.toggle()
}

func (app *App) pingSender() {
	ticker := time.NewTicker(time.Duration(app.cfg.PingSecs) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.publishJSON(app.topics.Ping(), map[string]string{
				"status": "ok",
				"state":  app.scanner.State().String(),
			})
		}
	}
}
