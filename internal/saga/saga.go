// Package saga implements the purchase-order fulfillment handlers. Each
// handler performs at most one guarded order transition, at most one stock
// batch update, and emits at most one event, always after the authoritative
// write. Handlers are stateless and safe under concurrent and duplicate
// invocation: all coordination lives in the stores' conditional writes.
package saga

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/procureflow/internal/domain"
)

// OrderStore is the order aggregate store.
type OrderStore interface {
	// Create inserts the order only if the id is absent, otherwise it
	// returns domain.ErrAlreadyExists.
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	// Apply performs the transition as a single conditional write. It
	// returns domain.ErrStateConflict when the current status differs from
	// tr.From and domain.ErrNotFound when the order is missing.
	Apply(ctx context.Context, orderID string, tr domain.Transition) error
}

// StockLedger is the per-SKU quantity counter.
type StockLedger interface {
	Increase(ctx context.Context, sku string, amount int, orderID string, at time.Time) error
	// Decrease subtracts amount if the balance covers it, otherwise floors
	// the row at zero and reports the adjustment as clamped.
	Decrease(ctx context.Context, sku string, amount int, orderID string, at time.Time) (domain.StockAdjustment, error)
}

// ShipmentStore persists dispatch confirmations, idempotently per order.
type ShipmentStore interface {
	Upsert(ctx context.Context, shipment *domain.Shipment) error
}

// EventPublisher puts an event on the broadcast channel. Delivery is
// at-least-once; the transport owns retries.
type EventPublisher interface {
	Publish(ctx context.Context, key string, env domain.Envelope) error
}

// NewOrderID generates ids in the OC-XXXXXXXXXX form used when the caller
// does not supply one.
func NewOrderID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "OC-" + strings.ToUpper(hex[:10])
}

// publish emits an event after a committed write. Emission is best effort:
// failures are logged and never unwind the transition that already landed.
func publish(ctx context.Context, events EventPublisher, logger *slog.Logger, t domain.EventType, source, orderID string, at time.Time, payload any) {
	if events == nil {
		return
	}
	env, err := domain.NewEnvelope(t, source, at, payload)
	if err != nil {
		logger.Error("failed to build event", "error", err, "type", t, "order_id", orderID)
		return
	}
	if err := events.Publish(ctx, orderID, env); err != nil {
		logger.Error("failed to publish event", "error", err, "type", t, "order_id", orderID)
	}
}
