// Package lifecycle implements the scan lifecycle of a ticket station:
// device permission, the operator-controlled scan mode and ticket validation.
//
// The station is always in exactly one State. Transitions are guarded inside
// the Scanner itself, so callers may invoke Toggle and OnDecode from any
// goroutine at any time and invalid requests are simply ignored.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"sync"

	"tixscan/scan"
	"tixscan/validate"
)

// State is the scan lifecycle state.
type State int

const (
	AwaitingPermission State = iota
	PermissionDenied
	Idle
	Scanning
	Validating
)

func (s State) String() string {
	switch s {
	case AwaitingPermission:
		return "awaiting_permission"
	case PermissionDenied:
		return "permission_denied"
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Validating:
		return "validating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ScanMode reports whether decodes are being accepted in this state.
func (s State) ScanMode() bool {
	return s == Scanning
}

// Permission is the scanner device permission query.
type Permission interface {
	RequestPermission(ctx context.Context) (scan.Permission, error)
}

// Animator is the scan overlay animation.
type Animator interface {
	Start()
	Stop()
}

// Notifier surfaces outcomes to the user.
type Notifier interface {
	// PermissionDenied is shown in place of the scanner view.
	PermissionDenied()

	// Confirmed is called after a ticket validated successfully.
	Confirmed(d scan.Decode, res validate.Result)

	// Failed is called after a ticket was rejected or could not be validated.
	Failed(d scan.Decode, err error)
}

// Options configures a Scanner.
type Options struct {
	Permission Permission
	Validator  validate.Validator
	Animator   Animator // optional
	Notifier   Notifier // optional

	// OnStateChange is called with the scanner lock held after every transition.
	// It must not call back into the Scanner.
	OnStateChange func(from, to State)
}

// Scanner is the scan lifecycle of one mounted station.
type Scanner struct {
	permission Permission
	validator  validate.Validator
	animator   Animator
	notifier   Notifier
	onChange   func(from, to State)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	closed bool
	wg     sync.WaitGroup
}

// New mounts a Scanner in AwaitingPermission.
func New(opts Options) *Scanner {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scanner{
		permission: opts.Permission,
		validator:  opts.Validator,
		animator:   opts.Animator,
		notifier:   opts.Notifier,
		onChange:   opts.OnStateChange,
		ctx:        ctx,
		cancel:     cancel,
		state:      AwaitingPermission,
	}
	if s.validator == nil {
		s.validator = validate.Accept{}
	}
	return s
}

// State returns the current state.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RequestPermission queries the device permission and moves to Idle or
// PermissionDenied. It may be called again from PermissionDenied to re-query;
// in any other state it returns the current state unchanged.
func (s *Scanner) RequestPermission(ctx context.Context) (State, error) {
	s.mu.Lock()
	st := s.state
	if s.closed || (st != AwaitingPermission && st != PermissionDenied) {
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	p := scan.PermissionDenied
	var err error
	if s.permission != nil {
		p, err = s.permission.RequestPermission(ctx)
	}
	if err != nil {
		log.Printf("Scanner permission query: %v", err)
		p = scan.PermissionDenied
	}

	next := Idle
	if p != scan.PermissionGranted {
		next = PermissionDenied
	}

	s.mu.Lock()
	if s.closed || (s.state != AwaitingPermission && s.state != PermissionDenied) {
		st := s.state
		s.mu.Unlock()
		return st, err
	}
	s.setLocked(next)
	s.mu.Unlock()

	if next == PermissionDenied && s.notifier != nil {
		s.notifier.PermissionDenied()
	}
	return next, err
}

// Toggle flips scan mode between Idle and Scanning and starts or stops the
// overlay animation. It reports whether the toggle took effect; it does nothing
// while validating or without permission.
func (s *Scanner) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	switch s.state {
	case Idle:
		s.setLocked(Scanning)
		if s.animator != nil {
			s.animator.Start()
		}
		return true
	case Scanning:
		s.setLocked(Idle)
		if s.animator != nil {
			s.animator.Stop()
		}
		return true
	default:
		return false
	}
}

// OnDecode handles a decode event from the scanner. Unless scanning it is
// ignored, which also drops duplicate decodes that arrive while a ticket is
// being validated. An accepted decode moves to Validating before OnDecode
// returns; validation runs in the background and always ends back in Idle.
func (s *Scanner) OnDecode(d scan.Decode) bool {
	s.mu.Lock()
	if s.closed || s.state != Scanning {
		s.mu.Unlock()
		return false
	}
	s.setLocked(Validating)
	if s.animator != nil {
		s.animator.Stop()
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.process(d)
	}()
	return true
}

func (s *Scanner) process(d scan.Decode) {
	res, err := s.validate(d)

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed || s.notifier == nil {
		return
	}

	if err != nil {
		log.Printf("Ticket %s failed validation: %v", d, err)
		s.notifier.Failed(d, err)
		return
	}
	log.Printf("Ticket %s validated", d)
	s.notifier.Confirmed(d, res)
}

// validate runs the validator. Whatever happens, including a panic in the
// validator, the scanner leaves Validating before validate returns.
func (s *Scanner) validate(d scan.Decode) (res validate.Result, err error) {
	defer s.finishValidation()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()
	return s.validator.Validate(s.ctx, d)
}

func (s *Scanner) finishValidation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != Validating {
		return
	}
	s.setLocked(Idle)
}

// Wait blocks until all in-flight validations have finished.
func (s *Scanner) Wait() {
	s.wg.Wait()
}

// Close unmounts the scanner. In-flight validations are cancelled and their
// results discarded; all further calls are no-ops.
func (s *Scanner) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.state == Scanning && s.animator != nil {
		s.animator.Stop()
	}
	s.mu.Unlock()
	s.cancel()
}

// setLocked records a transition. Must be called with s.mu held.
func (s *Scanner) setLocked(next State) {
	prev := s.state
	s.state = next
	if prev != next && s.onChange != nil {
		s.onChange(prev, next)
	}
}
