package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType is the closed set of domain events on the broadcast channel.
type EventType string

const (
	EventOrderCreated         EventType = "OrderCreated"
	EventOrderPendingApproval EventType = "OrderPendingApproval"
	EventOrderApproved        EventType = "OrderApproved"
	EventReceptionConfirmed   EventType = "ReceptionConfirmed"
	EventDispatchConfirmed    EventType = "DispatchConfirmed"
)

func (t EventType) Known() bool {
	switch t {
	case EventOrderCreated, EventOrderPendingApproval, EventOrderApproved,
		EventReceptionConfirmed, EventDispatchConfirmed:
		return true
	}
	return false
}

// Envelope is the wire form of a domain event. Source names the producing
// handler. Events are facts about a committed transition and are never
// retracted; consumers must skip types they do not recognize.
type Envelope struct {
	Type       EventType       `json:"type"`
	Source     string          `json:"source"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type OrderCreated struct {
	OrderID string      `json:"order_id"`
	Items   []OrderItem `json:"items"`
	Origin  string      `json:"origin"`
}

type OrderPendingApproval struct {
	OrderID       string   `json:"order_id"`
	CreatorRole   string   `json:"creator_role"`
	AudienceRoles []string `json:"audience_roles"`
}

type OrderApproved struct {
	OrderID    string    `json:"order_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

type ReceptionConfirmed struct {
	OrderID    string    `json:"order_id"`
	ReceivedAt time.Time `json:"received_at"`
}

type DispatchConfirmed struct {
	OrderID      string    `json:"order_id"`
	ShipmentID   string    `json:"shipment_id"`
	DispatchedAt time.Time `json:"dispatched_at"`
	Branches     []string  `json:"branches"`
}

// NewEnvelope wraps a typed payload for publishing.
func NewEnvelope(t EventType, source string, at time.Time, payload any) (Envelope, error) {
	if !t.Known() {
		return Envelope{}, fmt.Errorf("unknown event type %q", t)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Envelope{Type: t, Source: source, OccurredAt: at, Payload: data}, nil
}

// ParseEnvelope is the deserialization boundary for inbound events.
// Malformed envelopes and unknown types are rejected here so handler logic
// only ever sees well-formed events.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse event envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, errors.New("event envelope missing type")
	}
	return env, nil
}

// DecodePayload unmarshals the payload into dst. Unrecognized payload
// fields are ignored so producers can grow events without breaking
// consumers.
func (e Envelope) DecodePayload(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
