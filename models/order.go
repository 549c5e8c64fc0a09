package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusOpen      OrderStatus = "open"
	StatusSubmitted OrderStatus = "submitted"
	StatusCompleted OrderStatus = "completed"
)

// Order accumulates one table visit's purchase. The two flags encode the
// lifecycle: neither set is open, submitted set is waiting on the kitchen,
// both set is done. Completion without submission never happens; the only
// write path for completed is conditional on submitted.
type Order struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TableID      *uuid.UUID `db:"table_id" json:"table_id,omitempty"`
	RestaurantID uuid.UUID  `db:"restaurant_id" json:"restaurant_id"`
	Submitted    bool       `db:"submitted" json:"submitted"`
	Completed    bool       `db:"completed" json:"completed"`
	Total        float64    `db:"total" json:"total"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

func (o Order) Status() OrderStatus {
	switch {
	case o.Completed:
		return StatusCompleted
	case o.Submitted:
		return StatusSubmitted
	default:
		return StatusOpen
	}
}

// OrderItem is one line of an order. UnitPrice is snapshotted from the menu
// item at first add, so later menu edits do not rewrite existing orders.
// (order_id, item_id) is unique; repeated adds merge into Quantity.
type OrderItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	ItemID    uuid.UUID `db:"item_id" json:"item_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UnitPrice float64   `db:"unit_price" json:"unit_price"`
}

// CartLine is the customer-facing view of an OrderItem.
type CartLine struct {
	ItemID    uuid.UUID `json:"item_id"`
	ItemName  string    `json:"item_name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	LineTotal float64   `json:"line_total"`
}
