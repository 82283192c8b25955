package domain

import "time"

type OrderStatus string

const (
	OrderStatusCreated           OrderStatus = "CREATED"
	OrderStatusPendingApproval   OrderStatus = "PENDING_APPROVAL"
	OrderStatusApproved          OrderStatus = "APPROVED"
	OrderStatusRejected          OrderStatus = "REJECTED"
	OrderStatusReceived          OrderStatus = "RECEIVED"
	OrderStatusDispatchConfirmed OrderStatus = "DISPATCH_CONFIRMED"
)

// Terminal reports whether no further transition can leave the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusRejected || s == OrderStatusDispatchConfirmed
}

type OrderItem struct {
	SKU         string `json:"sku"`
	Qty         int    `json:"qty"`
	Description string `json:"description,omitempty"`
}

// Order is the purchase-order aggregate. Items are fixed at creation;
// everything else changes only through guarded status transitions.
type Order struct {
	ID              string      `json:"order_id"`
	Status          OrderStatus `json:"status"`
	Items           []OrderItem `json:"items"`
	Origin          string      `json:"origin"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	ApprovedAt      *time.Time  `json:"approved_at,omitempty"`
	RejectedAt      *time.Time  `json:"rejected_at,omitempty"`
	ReceivedAt      *time.Time  `json:"received_at,omitempty"`
	ReceivedBy      string      `json:"received_by,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
}

// Transition describes one guarded status change. The store applies it as a
// single conditional write: it succeeds only if the order's current status
// equals From, otherwise nothing is written.
type Transition struct {
	From OrderStatus
	To   OrderStatus
	At   time.Time

	// ReceivedBy and Reason are stamped only when non-empty.
	ReceivedBy string
	Reason     string
}
