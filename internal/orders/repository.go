// Package orders persists the order aggregate. All mutations are single
// conditional statements so that concurrent handlers and duplicate
// deliveries cannot corrupt an order or lose an update.
package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/procureflow/procureflow/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the order only if the id is absent.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, status, items, origin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO NOTHING
	`, order.ID, order.Status, items, order.Origin, order.CreatedAt)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrAlreadyExists
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	order := &domain.Order{}
	var (
		items           []byte
		approvedAt      sql.NullTime
		rejectedAt      sql.NullTime
		receivedAt      sql.NullTime
		receivedBy      sql.NullString
		rejectionReason sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, status, items, origin, created_at, updated_at,
		       approved_at, rejected_at, received_at, received_by, rejection_reason
		FROM orders
		WHERE id = $1
	`, orderID).Scan(&order.ID, &order.Status, &items, &order.Origin,
		&order.CreatedAt, &order.UpdatedAt,
		&approvedAt, &rejectedAt, &receivedAt, &receivedBy, &rejectionReason)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
		}
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items of %s: %w", orderID, err)
	}
	if approvedAt.Valid {
		order.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		order.RejectedAt = &rejectedAt.Time
	}
	if receivedAt.Valid {
		order.ReceivedAt = &receivedAt.Time
	}
	order.ReceivedBy = receivedBy.String
	order.RejectionReason = rejectionReason.String

	return order, nil
}

// Apply is the guarded transition primitive every status change goes
// through: one UPDATE conditioned on the expected prior status. Zero rows
// affected means either the order is missing or another writer got there
// first; the two are told apart with a follow-up existence check.
func (r *Repository) Apply(ctx context.Context, orderID string, tr domain.Transition) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    updated_at = $3,
		    approved_at = CASE WHEN $2 = 'APPROVED' THEN $3 ELSE approved_at END,
		    rejected_at = CASE WHEN $2 = 'REJECTED' THEN $3 ELSE rejected_at END,
		    received_at = CASE WHEN $2 = 'RECEIVED' THEN $3 ELSE received_at END,
		    received_by = CASE WHEN $5 <> '' THEN $5 ELSE received_by END,
		    rejection_reason = CASE WHEN $6 <> '' THEN $6 ELSE rejection_reason END
		WHERE id = $1 AND status = $4
	`, orderID, tr.To, tr.At, tr.From, tr.ReceivedBy, tr.Reason)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)
	`, orderID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return fmt.Errorf("order %s: expected status %s: %w", orderID, tr.From, domain.ErrStateConflict)
}

func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, items, origin, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	for rows.Next() {
		var order domain.Order
		var items []byte
		if err := rows.Scan(&order.ID, &order.Status, &items, &order.Origin, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items of %s: %w", order.ID, err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
