package checkout

import (
	"context"
	"time"

	"github.com/bcasadei/rental-website/internal/domain"
	r "github.com/bcasadei/rental-website/internal/orders/repository"
	"github.com/bcasadei/rental-website/internal/payment"
	"github.com/google/uuid"
)

// MockRepository implements r.OrderRepository for testing
type MockRepository struct {
	CreatedOrder    *domain.Order
	CreatedBookings []domain.Booking
	CreatedFlow     *r.CheckoutFlow
	FlowStatuses    []domain.FlowStatus
	OutboxPayloads  [][]byte

	ExistingFlow  *r.CheckoutFlow
	ExistingOrder *domain.Order

	CreateOrderErr    error
	CreateBookingsErr error
	CreateFlowErr     error
	GetFlowErr        error
}

func (m *MockRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.CreateOrderErr != nil {
		return m.CreateOrderErr
	}
	m.CreatedOrder = order
	return nil
}

func (m *MockRepository) CreateBookings(_ context.Context, bookings []domain.Booking) error {
	if m.CreateBookingsErr != nil {
		return m.CreateBookingsErr
	}
	m.CreatedBookings = bookings
	return nil
}

func (m *MockRepository) GetOrderByID(_ context.Context, _ uuid.UUID) (*domain.Order, error) {
	return m.ExistingOrder, nil
}

func (m *MockRepository) GetOrderBySessionID(_ context.Context, _ string) (*domain.Order, error) {
	if m.ExistingOrder == nil {
		return nil, r.ErrOrderNotFound
	}
	return m.ExistingOrder, nil
}

func (m *MockRepository) ListBookingsByOrderID(_ context.Context, _ uuid.UUID) ([]domain.Booking, error) {
	return m.CreatedBookings, nil
}

func (m *MockRepository) ListOrdersByUserID(_ context.Context, _ string) ([]*domain.Order, error) {
	if m.ExistingOrder == nil {
		return nil, nil
	}
	return []*domain.Order{m.ExistingOrder}, nil
}

func (m *MockRepository) CreateCheckoutFlow(_ context.Context, flow *r.CheckoutFlow) error {
	if m.CreateFlowErr != nil {
		return m.CreateFlowErr
	}
	m.CreatedFlow = flow
	return nil
}

func (m *MockRepository) GetCheckoutFlowBySessionID(_ context.Context, _ string) (*r.CheckoutFlow, error) {
	if m.GetFlowErr != nil {
		return nil, m.GetFlowErr
	}
	if m.ExistingFlow == nil {
		return nil, r.ErrFlowNotFound
	}
	return m.ExistingFlow, nil
}

func (m *MockRepository) UpdateCheckoutFlowStatus(_ context.Context, _ uuid.UUID, status domain.FlowStatus) error {
	m.FlowStatuses = append(m.FlowStatuses, status)
	return nil
}

func (m *MockRepository) AbandonStaleFlows(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (m *MockRepository) AppendOutboxEvent(_ context.Context, payload []byte) error {
	m.OutboxPayloads = append(m.OutboxPayloads, payload)
	return nil
}

func (m *MockRepository) GetUnprocessedEvents(_ context.Context, _ int) ([]r.OutboxEvent, error) {
	return nil, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, _ int64) error {
	return nil
}

func (m *MockRepository) RunMigrations(*r.Credentials) error {
	return nil
}

func (m *MockRepository) Close() error {
	return nil
}

// MockCartStore implements CartStore for testing
type MockCartStore struct {
	Cart    *domain.Cart
	GetErr  error
	Cleared bool
}

func (m *MockCartStore) Get(_ context.Context, userID string) (*domain.Cart, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Cart == nil {
		return &domain.Cart{UserID: userID}, nil
	}
	return m.Cart, nil
}

func (m *MockCartStore) Clear(context.Context, string) error {
	m.Cleared = true
	return nil
}

// MockGateway implements PaymentGateway for testing
type MockGateway struct {
	Session      *payment.Session
	Verification *payment.Verification
	CreateErr    error
	VerifyErr    error

	CreateCalls int
	LastRequest *payment.SessionRequest
	VerifiedID  string
}

func (m *MockGateway) CreateSession(_ context.Context, req *payment.SessionRequest) (*payment.Session, error) {
	m.CreateCalls++
	m.LastRequest = req
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.Session, nil
}

func (m *MockGateway) VerifySession(_ context.Context, sessionID string) (*payment.Verification, error) {
	m.VerifiedID = sessionID
	if m.VerifyErr != nil {
		return nil, m.VerifyErr
	}
	return m.Verification, nil
}
