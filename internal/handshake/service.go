package handshake

import (
	"context"
	"errors"
	"fmt"

	"wscheck/internal/ast"
	"wscheck/internal/contract"
	"wscheck/internal/diag"
)

var (
	// ErrRejected is returned by Bind for a service whose validation
	// outcome carries errors.
	ErrRejected = errors.New("service failed validation")
	// ErrNotAccepted is returned by Bind when a declared event has no handler.
	ErrNotAccepted = errors.New("event handler not provided")

	errNoService = errors.New("no service declaration to bind")
)

// Message is one event delivered to a handler.
type Message struct {
	Kind contract.EventKind
	Data []byte // text, binary, ping and pong payloads
	// CloseCode and CloseText are set for EventClose.
	CloseCode int
	CloseText string
	Err       error // EventError only
}

// Handler receives one event for the connection of c.
type Handler func(ctx context.Context, c *Client, msg Message) error

// Handlers maps event kinds to their Go implementation.
type Handlers map[contract.EventKind]Handler

// Service is a validated service declaration with its handlers bound.
type Service struct {
	Name     string
	events   []contract.EventKind
	handlers Handlers
}

// Bind accepts svc only when outcome has no errors and every recognised
// remote event it declares has a handler. Handlers for events the service
// does not declare are ignored.
func Bind(svc *ast.Service, outcome *diag.Bag, handlers Handlers) (*Service, error) {
	if svc == nil {
		return nil, errNoService
	}
	if outcome != nil && outcome.HasErrors() {
		return nil, fmt.Errorf("service '%s': %w", svc.DisplayName(), ErrRejected)
	}
	out := &Service{Name: svc.DisplayName(), handlers: make(Handlers)}
	for i := range svc.Functions {
		fn := &svc.Functions[i]
		if fn.Qualifier != ast.QualRemote {
			continue
		}
		kind, ok := contract.LookupEvent(fn.Name)
		if !ok {
			continue
		}
		h := handlers[kind]
		if h == nil {
			return nil, fmt.Errorf("service '%s', function '%s': %w", out.Name, fn.Name, ErrNotAccepted)
		}
		if _, dup := out.handlers[kind]; !dup {
			out.events = append(out.events, kind)
		}
		out.handlers[kind] = h
	}
	return out, nil
}

// Events returns the bound event kinds in declaration order.
func (s *Service) Events() []contract.EventKind {
	return append([]contract.EventKind(nil), s.events...)
}

// Handles reports whether the service has a handler for k.
func (s *Service) Handles(k contract.EventKind) bool {
	_, ok := s.handlers[k]
	return ok
}

func (s *Service) dispatch(ctx context.Context, c *Client, msg Message) error {
	h, ok := s.handlers[msg.Kind]
	if !ok {
		return nil
	}
	return h(ctx, c, msg)
}
