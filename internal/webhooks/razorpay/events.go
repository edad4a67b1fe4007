package razorpay

import (
	"encoding/json"
	"fmt"

	"github.com/univlive/univlive-backend/internal/subscriptions"
)

// Event is one decoded gateway webhook. Entities keep their raw bytes next to
// the parsed form so the audit trail stores exactly what the gateway sent.
type Event struct {
	Name      string
	CreatedAt int64

	Subscription    *subscriptions.RazorpaySubscription
	SubscriptionRaw json.RawMessage
	Invoice         *subscriptions.RazorpayInvoice
	InvoiceRaw      json.RawMessage
	Payment         *subscriptions.RazorpayPayment
	PaymentRaw      json.RawMessage
}

type eventEnvelope struct {
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Subscription *entityWrapper `json:"subscription"`
		Invoice      *entityWrapper `json:"invoice"`
		Payment      *entityWrapper `json:"payment"`
	} `json:"payload"`
}

type entityWrapper struct {
	Entity json.RawMessage `json:"entity"`
}

// ParseEvent decodes a webhook body. Entities the event does not carry stay
// nil; an event with a name but no entities is still valid (the gateway ships
// a few of those).
func ParseEvent(body []byte) (*Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding webhook envelope: %w", err)
	}
	if envelope.Event == "" {
		return nil, fmt.Errorf("webhook envelope has no event name")
	}

	event := &Event{
		Name:      envelope.Event,
		CreatedAt: envelope.CreatedAt,
	}

	if raw := entityBytes(envelope.Payload.Subscription); raw != nil {
		var entity subscriptions.RazorpaySubscription
		if err := json.Unmarshal(raw, &entity); err != nil {
			return nil, fmt.Errorf("decoding subscription entity: %w", err)
		}
		event.Subscription = &entity
		event.SubscriptionRaw = raw
	}
	if raw := entityBytes(envelope.Payload.Invoice); raw != nil {
		var entity subscriptions.RazorpayInvoice
		if err := json.Unmarshal(raw, &entity); err != nil {
			return nil, fmt.Errorf("decoding invoice entity: %w", err)
		}
		event.Invoice = &entity
		event.InvoiceRaw = raw
	}
	if raw := entityBytes(envelope.Payload.Payment); raw != nil {
		var entity subscriptions.RazorpayPayment
		if err := json.Unmarshal(raw, &entity); err != nil {
			return nil, fmt.Errorf("decoding payment entity: %w", err)
		}
		event.Payment = &entity
		event.PaymentRaw = raw
	}

	return event, nil
}

func entityBytes(wrapper *entityWrapper) json.RawMessage {
	if wrapper == nil || len(wrapper.Entity) == 0 {
		return nil
	}
	if string(wrapper.Entity) == "null" {
		return nil
	}
	return wrapper.Entity
}
