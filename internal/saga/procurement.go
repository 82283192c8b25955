package saga

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/procureflow/procureflow/internal/domain"
)

const procurementSource = "procurement"

// DefaultOrigin tags orders created without an explicit requesting party.
const DefaultOrigin = "head-office"

// Procurement handles order intake and the approve/reject decision.
type Procurement struct {
	orders OrderStore
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

func NewProcurement(orders OrderStore, events EventPublisher, logger *slog.Logger) *Procurement {
	return &Procurement{
		orders: orders,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateOrderInput struct {
	OrderID string             `json:"order_id,omitempty"`
	Items   []domain.OrderItem `json:"items"`
	Origin  string             `json:"origin,omitempty"`
}

// CreateOrder creates the aggregate in CREATED and emits OrderCreated.
// Creation is guarded by "must not already exist": a retry with the same id
// returns domain.ErrAlreadyExists and writes nothing.
func (s *Procurement) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Reason: "must not be empty"}
	}
	for i, it := range in.Items {
		if it.SKU == "" {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d].sku", i), Reason: "required"}
		}
		if it.Qty <= 0 {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d].qty", i), Reason: "must be positive"}
		}
	}

	id := in.OrderID
	if id == "" {
		id = NewOrderID()
	}
	origin := in.Origin
	if origin == "" {
		origin = DefaultOrigin
	}

	now := s.now()
	order := &domain.Order{
		ID:        id,
		Status:    domain.OrderStatusCreated,
		Items:     in.Items,
		Origin:    origin,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order %s: %w", id, err)
	}

	publish(ctx, s.events, s.logger, domain.EventOrderCreated, procurementSource, id, now, domain.OrderCreated{
		OrderID: id,
		Items:   order.Items,
		Origin:  origin,
	})

	s.logger.Info("order created", "order_id", id, "origin", origin, "items", len(order.Items))
	return order, nil
}

func (s *Procurement) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, &domain.ValidationError{Field: "order_id", Reason: "required"}
	}
	return s.orders.Get(ctx, orderID)
}

// Approve moves PENDING_APPROVAL -> APPROVED and emits OrderApproved.
// Approve and Reject are mutually exclusive: whichever conditional write
// lands first wins and the loser sees domain.ErrStateConflict.
func (s *Procurement) Approve(ctx context.Context, orderID string) (time.Time, error) {
	if orderID == "" {
		return time.Time{}, &domain.ValidationError{Field: "order_id", Reason: "required"}
	}

	now := s.now()
	err := s.orders.Apply(ctx, orderID, domain.Transition{
		From: domain.OrderStatusPendingApproval,
		To:   domain.OrderStatusApproved,
		At:   now,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("approve order %s: %w", orderID, err)
	}

	publish(ctx, s.events, s.logger, domain.EventOrderApproved, procurementSource, orderID, now, domain.OrderApproved{
		OrderID:    orderID,
		ApprovedAt: now,
	})

	s.logger.Info("order approved", "order_id", orderID)
	return now, nil
}

// Reject moves PENDING_APPROVAL -> REJECTED. Terminal, no event.
func (s *Procurement) Reject(ctx context.Context, orderID, reason string) error {
	if orderID == "" {
		return &domain.ValidationError{Field: "order_id", Reason: "required"}
	}

	err := s.orders.Apply(ctx, orderID, domain.Transition{
		From:   domain.OrderStatusPendingApproval,
		To:     domain.OrderStatusRejected,
		At:     s.now(),
		Reason: reason,
	})
	if err != nil {
		return fmt.Errorf("reject order %s: %w", orderID, err)
	}

	s.logger.Info("order rejected", "order_id", orderID, "reason", reason)
	return nil
}
