// Package stock persists the per-SKU quantity ledger. Both operations are
// single atomic statements keyed by SKU, so concurrent writers for
// different orders never lose updates and the balance never goes negative.
package stock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/procureflow/procureflow/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Increase credits the SKU unconditionally, creating the row on first use.
func (r *Repository) Increase(ctx context.Context, sku string, amount int, orderID string, at time.Time) error {
	if sku == "" {
		return fmt.Errorf("increase stock: %w", &domain.ValidationError{Field: "sku", Reason: "required"})
	}
	if amount <= 0 {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock (sku, qty, updated_at, last_order_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sku) DO UPDATE
		SET qty = stock.qty + EXCLUDED.qty,
		    updated_at = EXCLUDED.updated_at,
		    last_order_id = EXCLUDED.last_order_id
	`, sku, amount, at, orderID)
	return err
}

// Decrease debits the SKU when the balance covers the amount. Otherwise it
// floors the row at zero (creating it if absent) and reports the clamp with
// the uncovered deficit. The floor keeps qty >= 0 under any interleaving at
// the cost of exact shortage accounting.
func (r *Repository) Decrease(ctx context.Context, sku string, amount int, orderID string, at time.Time) (domain.StockAdjustment, error) {
	adj := domain.StockAdjustment{SKU: sku, Requested: amount}
	if amount <= 0 {
		return adj, nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE stock
		SET qty = qty - $2, updated_at = $3, last_order_id = $4
		WHERE sku = $1 AND qty >= $2
	`, sku, amount, at, orderID)
	if err != nil {
		return adj, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return adj, err
	}
	if rowsAffected > 0 {
		return adj, nil
	}

	// Insufficient balance, or no row yet. The sub-select in RETURNING
	// reads the pre-statement snapshot, which is the balance the clamp
	// discarded.
	var prior sql.NullInt64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO stock (sku, qty, updated_at, last_order_id)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (sku) DO UPDATE
		SET qty = 0,
		    updated_at = EXCLUDED.updated_at,
		    last_order_id = EXCLUDED.last_order_id
		RETURNING (SELECT qty FROM stock WHERE sku = $1)
	`, sku, at, orderID).Scan(&prior)
	if err != nil {
		return adj, err
	}

	adj.Clamped = true
	adj.Deficit = amount - int(prior.Int64)
	return adj, nil
}

func (r *Repository) Get(ctx context.Context, sku string) (*domain.StockEntry, error) {
	entry := &domain.StockEntry{}
	var lastOrderID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT sku, qty, updated_at, last_order_id
		FROM stock
		WHERE sku = $1
	`, sku).Scan(&entry.SKU, &entry.Qty, &entry.UpdatedAt, &lastOrderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("stock %s: %w", sku, domain.ErrNotFound)
		}
		return nil, err
	}

	entry.LastOrderID = lastOrderID.String
	return entry, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.StockEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sku, qty, updated_at, last_order_id
		FROM stock
		ORDER BY sku
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := []domain.StockEntry{}
	for rows.Next() {
		var entry domain.StockEntry
		var lastOrderID sql.NullString
		if err := rows.Scan(&entry.SKU, &entry.Qty, &entry.UpdatedAt, &lastOrderID); err != nil {
			return nil, err
		}
		entry.LastOrderID = lastOrderID.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
