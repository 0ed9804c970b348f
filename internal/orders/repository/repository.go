package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bcasadei/rental-website/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateSession = errors.New("order for this payment session already exists")
	ErrFlowNotFound     = errors.New("checkout flow not found")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// CheckoutFlow is the durable record of one checkout attempt. Together with
// the session id in the return URL it is all the state needed to resume
// after the payment-page redirect.
type CheckoutFlow struct {
	ID              uuid.UUID
	UserID          string
	Status          domain.FlowStatus
	StripeSessionID string
	Snapshot        *domain.CartSnapshot
	TotalAmount     float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OutboxEvent struct {
	ID        int64
	Payload   []byte
	CreatedAt time.Time
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	CreateBookings(ctx context.Context, bookings []domain.Booking) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderBySessionID(ctx context.Context, stripeSessionID string) (*domain.Order, error)
	ListBookingsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Booking, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)

	CreateCheckoutFlow(ctx context.Context, flow *CheckoutFlow) error
	GetCheckoutFlowBySessionID(ctx context.Context, stripeSessionID string) (*CheckoutFlow, error)
	UpdateCheckoutFlowStatus(ctx context.Context, id uuid.UUID, status domain.FlowStatus) error
	AbandonStaleFlows(ctx context.Context, olderThan time.Time) (int64, error)

	AppendOutboxEvent(ctx context.Context, payload []byte) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error

	RunMigrations(*Credentials) error
	Close() error
}
