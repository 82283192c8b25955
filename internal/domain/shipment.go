package domain

import "time"

type ShipmentStatus string

const ShipmentStatusDispatchConfirmed ShipmentStatus = "DISPATCH_CONFIRMED"

// Shipment records a confirmed dispatch. There is one shipment per order,
// keyed by the originating order id, and repeated confirmations update the
// same row instead of duplicating it.
type Shipment struct {
	ID           string         `json:"shipment_id"`
	OrderID      string         `json:"order_id"`
	Status       ShipmentStatus `json:"status"`
	DispatchedAt time.Time      `json:"dispatched_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	ConfirmedBy  string         `json:"confirmed_by"`
	Branches     []string       `json:"branches"`
}
