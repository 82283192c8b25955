package saga

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/procureflow/procureflow/internal/domain"
)

const warehouseSource = "warehouse"

// Warehouse handles goods reception.
type Warehouse struct {
	orders     OrderStore
	stock      StockLedger
	events     EventPublisher
	receivedBy string
	logger     *slog.Logger
	now        func() time.Time
}

func NewWarehouse(orders OrderStore, stock StockLedger, events EventPublisher, receivedBy string, logger *slog.Logger) *Warehouse {
	return &Warehouse{
		orders:     orders,
		stock:      stock,
		events:     events,
		receivedBy: receivedBy,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AcceptReception moves APPROVED -> RECEIVED and credits the stock ledger
// once per line item. A duplicate delivery conflicts on the transition
// before any ledger write, so stock is never credited twice.
func (s *Warehouse) AcceptReception(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, &domain.ValidationError{Field: "order_id", Reason: "required"}
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("accept reception for %s: %w", orderID, err)
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("accept reception for %s: %w", orderID, domain.ErrNoItems)
	}

	now := s.now()
	err = s.orders.Apply(ctx, orderID, domain.Transition{
		From:       domain.OrderStatusApproved,
		To:         domain.OrderStatusReceived,
		At:         now,
		ReceivedBy: s.receivedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("accept reception for %s: %w", orderID, err)
	}

	for _, it := range order.Items {
		if err := s.stock.Increase(ctx, it.SKU, it.Qty, orderID, now); err != nil {
			return nil, fmt.Errorf("increase stock %s for %s: %w", it.SKU, orderID, err)
		}
	}

	publish(ctx, s.events, s.logger, domain.EventReceptionConfirmed, warehouseSource, orderID, now, domain.ReceptionConfirmed{
		OrderID:    orderID,
		ReceivedAt: now,
	})

	order.Status = domain.OrderStatusReceived
	order.UpdatedAt = now
	order.ReceivedAt = &now
	order.ReceivedBy = s.receivedBy

	s.logger.Info("reception accepted", "order_id", orderID, "items", len(order.Items))
	return order, nil
}
