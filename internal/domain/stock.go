package domain

import "time"

// StockEntry is the per-SKU ledger row. Qty never goes below zero: the
// ledger's decrement is guarded and floors at zero when the balance is
// insufficient.
type StockEntry struct {
	SKU         string    `json:"sku"`
	Qty         int       `json:"qty"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastOrderID string    `json:"last_order_id,omitempty"`
}

// StockAdjustment reports the outcome of one ledger decrement. A clamped
// adjustment means the balance was insufficient and the row was floored at
// zero; Deficit carries the shortage for reconciliation.
type StockAdjustment struct {
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Clamped   bool   `json:"clamped"`
	Deficit   int    `json:"deficit,omitempty"`
}
