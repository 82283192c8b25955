// Package shipments persists dispatch confirmations, one row per order.
package shipments

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/procureflow/procureflow/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert creates the shipment or refreshes the existing one. Reconfirming
// a dispatch is idempotent at the row level: same key, updated stamps.
func (r *Repository) Upsert(ctx context.Context, shipment *domain.Shipment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shipments (id, order_id, status, dispatched_at, updated_at, confirmed_by, branches)
		VALUES ($1, $2, $3, $4, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    dispatched_at = EXCLUDED.dispatched_at,
		    updated_at = EXCLUDED.updated_at,
		    confirmed_by = EXCLUDED.confirmed_by,
		    branches = EXCLUDED.branches
	`, shipment.ID, shipment.OrderID, shipment.Status, shipment.DispatchedAt,
		shipment.ConfirmedBy, pq.Array(shipment.Branches))
	return err
}

func (r *Repository) Get(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	shipment := &domain.Shipment{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, status, dispatched_at, updated_at, confirmed_by, branches
		FROM shipments
		WHERE id = $1
	`, shipmentID).Scan(&shipment.ID, &shipment.OrderID, &shipment.Status,
		&shipment.DispatchedAt, &shipment.UpdatedAt, &shipment.ConfirmedBy,
		pq.Array(&shipment.Branches))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("shipment %s: %w", shipmentID, domain.ErrNotFound)
		}
		return nil, err
	}

	return shipment, nil
}
