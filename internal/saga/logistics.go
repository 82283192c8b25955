package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/procureflow/procureflow/internal/domain"
)

const logisticsSource = "logistics"

// Logistics handles dispatch confirmation.
type Logistics struct {
	orders      OrderStore
	stock       StockLedger
	shipments   ShipmentStore
	events      EventPublisher
	branches    BranchSelector
	confirmedBy string
	logger      *slog.Logger
	now         func() time.Time
}

func NewLogistics(orders OrderStore, stock StockLedger, shipments ShipmentStore, events EventPublisher, branches BranchSelector, logger *slog.Logger) *Logistics {
	return &Logistics{
		orders:      orders,
		stock:       stock,
		shipments:   shipments,
		events:      events,
		branches:    branches,
		confirmedBy: "logistics",
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type DispatchResult struct {
	Shipment    *domain.Shipment         `json:"shipment"`
	Adjustments []domain.StockAdjustment `json:"adjustments"`
}

// ConfirmDispatch upserts the shipment, debits the stock ledger once per
// SKU (quantities aggregated across line items, decrements saturating at
// zero) and emits DispatchConfirmed. Reconfirming the same order updates
// the existing shipment instead of duplicating it.
func (s *Logistics) ConfirmDispatch(ctx context.Context, orderID string) (*DispatchResult, error) {
	if orderID == "" {
		return nil, &domain.ValidationError{Field: "order_id", Reason: "required"}
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("confirm dispatch for %s: %w", orderID, err)
	}

	now := s.now()
	shipment := &domain.Shipment{
		ID:           orderID,
		OrderID:      orderID,
		Status:       domain.ShipmentStatusDispatchConfirmed,
		DispatchedAt: now,
		UpdatedAt:    now,
		ConfirmedBy:  s.confirmedBy,
		Branches:     s.branches.Select(orderID),
	}
	if err := s.shipments.Upsert(ctx, shipment); err != nil {
		return nil, fmt.Errorf("upsert shipment %s: %w", orderID, err)
	}

	// Reception is not strictly enforced: the order only advances when it
	// actually is in RECEIVED, and a conflict does not block the dispatch.
	err = s.orders.Apply(ctx, orderID, domain.Transition{
		From: domain.OrderStatusReceived,
		To:   domain.OrderStatusDispatchConfirmed,
		At:   now,
	})
	if err != nil && !errors.Is(err, domain.ErrStateConflict) {
		return nil, fmt.Errorf("confirm dispatch for %s: %w", orderID, err)
	}
	if err != nil {
		s.logger.Info("order not in RECEIVED, dispatching anyway", "order_id", orderID, "status", order.Status)
	}

	adjustments := make([]domain.StockAdjustment, 0, len(order.Items))
	for _, sku := range sortedSKUs(order.Items) {
		adj, err := s.stock.Decrease(ctx, sku, totalQty(order.Items, sku), orderID, now)
		if err != nil {
			return nil, fmt.Errorf("decrease stock %s for %s: %w", sku, orderID, err)
		}
		if adj.Clamped {
			s.logger.Info("stock clamped to zero", "sku", sku, "order_id", orderID, "deficit", adj.Deficit)
		}
		adjustments = append(adjustments, adj)
	}

	publish(ctx, s.events, s.logger, domain.EventDispatchConfirmed, logisticsSource, orderID, now, domain.DispatchConfirmed{
		OrderID:      orderID,
		ShipmentID:   shipment.ID,
		DispatchedAt: now,
		Branches:     shipment.Branches,
	})

	s.logger.Info("dispatch confirmed", "order_id", orderID, "branches", shipment.Branches)
	return &DispatchResult{Shipment: shipment, Adjustments: adjustments}, nil
}

// sortedSKUs returns the distinct SKUs of the order in stable order, so a
// SKU appearing in several line items is debited exactly once.
func sortedSKUs(items []domain.OrderItem) []string {
	seen := make(map[string]bool, len(items))
	var skus []string
	for _, it := range items {
		if it.SKU == "" || it.Qty <= 0 || seen[it.SKU] {
			continue
		}
		seen[it.SKU] = true
		skus = append(skus, it.SKU)
	}
	sort.Strings(skus)
	return skus
}

func totalQty(items []domain.OrderItem, sku string) int {
	var total int
	for _, it := range items {
		if it.SKU == sku && it.Qty > 0 {
			total += it.Qty
		}
	}
	return total
}
