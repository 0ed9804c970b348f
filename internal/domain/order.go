package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
)

var orderStatusNext = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusInProgress,
	OrderStatusInProgress: OrderStatusCompleted,
}

// CanProgressTo reports whether an order may advance to the given status.
// Fulfilment only moves forward: pending, in progress, completed.
func (s OrderStatus) CanProgressTo(next OrderStatus) bool {
	return orderStatusNext[s] == next
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted:
		return true
	}
	return false
}

// Order is created exactly once per paid checkout session. TotalPrice is
// the amount the payment processor actually charged, never a client figure.
type Order struct {
	ID              uuid.UUID
	UserID          string
	Status          OrderStatus
	TotalPrice      float64
	StripeSessionID string
	CreatedAt       time.Time
}

// Booking is one rented product within an order. Bookings are inserted as a
// batch alongside their order and never exist without one.
type Booking struct {
	OrderID   uuid.UUID
	RentalID  int64
	Quantity  int
	Price     float64
	StartDate time.Time
	EndDate   time.Time
	UserID    string
}
