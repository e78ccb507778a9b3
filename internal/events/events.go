package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mesa-pos/api/internal/enum"
)

const (
	OrderCreated   = "order.created"
	OrderUpdated   = "order.updated"
	OrderDeleted   = "order.deleted"
	InvoiceCreated = "invoice.created"
	InvoiceDeleted = "invoice.deleted"
)

// Event is a domain change pushed to staff screens and the message broker.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// New marshals payload into an Event of the given type.
func New(typ string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Event{Type: typ, Payload: data}, nil
}

// Topic is the room an event belongs to: "order.*" goes to orders,
// "invoice.*" to invoices. Anything else has no topic.
func Topic(typ string) string {
	prefix, _, _ := strings.Cut(typ, ".")
	switch prefix {
	case "order":
		return enum.TopicOrders
	case "invoice":
		return enum.TopicInvoices
	default:
		return ""
	}
}

func IsTopic(topic string) bool {
	return topic == enum.TopicOrders || topic == enum.TopicInvoices
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout publishes every event to all of its publishers and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Emit builds and publishes an event after a committed change. Failures are
// logged and never returned, so a broker outage cannot fail the request.
func Emit(ctx context.Context, p Publisher, typ string, payload any) {
	if p == nil {
		return
	}
	e, err := New(typ, payload)
	if err != nil {
		log.Error().Err(err).Str("event", typ).Msg("build event")
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("event", typ).Msg("publish event")
	}
}
