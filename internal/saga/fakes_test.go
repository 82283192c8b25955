package saga

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/procureflow/procureflow/internal/domain"
)

// fakeOrderStore mirrors the repository's conditional-write semantics in
// memory so handler behavior under duplicates and races is testable without
// a database.
type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*domain.Order)}
}

func (s *fakeOrderStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; ok {
		return fmt.Errorf("order %s: %w", order.ID, domain.ErrAlreadyExists)
	}
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *fakeOrderStore) Get(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	cp := *order
	return &cp, nil
}

func (s *fakeOrderStore) Apply(_ context.Context, orderID string, tr domain.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	if order.Status != tr.From {
		return fmt.Errorf("order %s is %s, not %s: %w", orderID, order.Status, tr.From, domain.ErrStateConflict)
	}
	order.Status = tr.To
	order.UpdatedAt = tr.At
	switch tr.To {
	case domain.OrderStatusApproved:
		at := tr.At
		order.ApprovedAt = &at
	case domain.OrderStatusRejected:
		at := tr.At
		order.RejectedAt = &at
	case domain.OrderStatusReceived:
		at := tr.At
		order.ReceivedAt = &at
	}
	if tr.ReceivedBy != "" {
		order.ReceivedBy = tr.ReceivedBy
	}
	if tr.Reason != "" {
		order.RejectionReason = tr.Reason
	}
	return nil
}

// fakeStockLedger applies the same saturating-decrement rule as the
// Postgres ledger.
type fakeStockLedger struct {
	mu  sync.Mutex
	qty map[string]int
}

func newFakeStockLedger() *fakeStockLedger {
	return &fakeStockLedger{qty: make(map[string]int)}
}

func (s *fakeStockLedger) Increase(_ context.Context, sku string, amount int, _ string, _ time.Time) error {
	if amount <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qty[sku] += amount
	return nil
}

func (s *fakeStockLedger) Decrease(_ context.Context, sku string, amount int, _ string, _ time.Time) (domain.StockAdjustment, error) {
	adj := domain.StockAdjustment{SKU: sku, Requested: amount}
	if amount <= 0 {
		return adj, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prior := s.qty[sku]
	if prior >= amount {
		s.qty[sku] = prior - amount
		return adj, nil
	}
	s.qty[sku] = 0
	adj.Clamped = true
	adj.Deficit = amount - prior
	return adj, nil
}

func (s *fakeStockLedger) Qty(sku string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qty[sku]
}

type fakeShipmentStore struct {
	mu        sync.Mutex
	shipments map[string]*domain.Shipment
	upserts   int
}

func newFakeShipmentStore() *fakeShipmentStore {
	return &fakeShipmentStore{shipments: make(map[string]*domain.Shipment)}
}

func (s *fakeShipmentStore) Upsert(_ context.Context, shipment *domain.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *shipment
	s.shipments[shipment.ID] = &cp
	s.upserts++
	return nil
}

// eventRecorder captures published envelopes in order.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Envelope
	keys   []string
	err    error
}

func (r *eventRecorder) Publish(_ context.Context, key string, env domain.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, env)
	r.keys = append(r.keys, key)
	return nil
}

func (r *eventRecorder) Types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]domain.EventType, len(r.events))
	for i, env := range r.events {
		types[i] = env.Type
	}
	return types
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
