package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bcasadei/rental-website/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestOrder(sessionID string) *domain.Order {
	return &domain.Order{
		ID:              uuid.New(),
		UserID:          "user-42",
		Status:          domain.OrderStatusPending,
		TotalPrice:      65,
		StripeSessionID: sessionID,
	}
}

func newTestBookings(orderID uuid.UUID) []domain.Booking {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Booking{
		{OrderID: orderID, RentalID: 1, Quantity: 2, Price: 10, StartDate: start, EndDate: start, UserID: "user-42"},
		{OrderID: orderID, RentalID: 2, Quantity: 1, Price: 15, StartDate: start, EndDate: start.AddDate(0, 0, 2), UserID: "user-42"},
	}
}

func TestCreateOrder_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cs_test_1")

	err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.UserID, fetched.UserID)
	assert.Equal(t, domain.OrderStatusPending, fetched.Status)
	assert.Equal(t, 65.0, fetched.TotalPrice)
	assert.Equal(t, "cs_test_1", fetched.StripeSessionID)
}

func TestCreateOrder_DuplicateSessionRejected(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("cs_dup")))

	err := repo.CreateOrder(ctx, newTestOrder("cs_dup"))
	assert.ErrorIs(t, err, ErrDuplicateSession)
}

func TestCreateBookings_BatchWithParentOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cs_test_2")
	require.NoError(t, repo.CreateOrder(ctx, order))

	err := repo.CreateBookings(ctx, newTestBookings(order.ID))
	require.NoError(t, err)

	bookings, err := repo.ListBookingsByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
	for _, b := range bookings {
		assert.Equal(t, order.ID, b.OrderID)
	}
}

func TestCreateBookings_WithoutParentOrderFails(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.CreateBookings(context.Background(), newTestBookings(uuid.New()))
	assert.Error(t, err)
}

func TestGetOrderBySessionID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cs_lookup")
	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderBySessionID(ctx, "cs_lookup")
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)

	_, err = repo.GetOrderBySessionID(ctx, "cs_missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersByUserID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("cs_a")))
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("cs_b")))

	other := newTestOrder("cs_c")
	other.UserID = "someone-else"
	require.NoError(t, repo.CreateOrder(ctx, other))

	orders, err := repo.ListOrdersByUserID(ctx, "user-42")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestCheckoutFlow_RoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	flow := &CheckoutFlow{
		ID:              uuid.New(),
		UserID:          "user-42",
		Status:          domain.FlowStatusAwaitingPayment,
		StripeSessionID: "cs_flow_1",
		Snapshot: &domain.CartSnapshot{
			Items: []domain.CartSnapshotItem{
				{ProductID: 1, Title: "Hydro Cannon XL", DailyRate: 15, Quantity: 1, RentalDays: 3, UnitPrice: 45, Subtotal: 45},
			},
			TotalAmount: 45,
			Currency:    "USD",
			CapturedAt:  time.Now().UTC(),
		},
		TotalAmount: 45,
	}

	require.NoError(t, repo.CreateCheckoutFlow(ctx, flow))

	fetched, err := repo.GetCheckoutFlowBySessionID(ctx, "cs_flow_1")
	require.NoError(t, err)
	assert.Equal(t, flow.ID, fetched.ID)
	assert.Equal(t, domain.FlowStatusAwaitingPayment, fetched.Status)
	require.NotNil(t, fetched.Snapshot)
	assert.Len(t, fetched.Snapshot.Items, 1)
	assert.Equal(t, 45.0, fetched.Snapshot.TotalAmount)

	require.NoError(t, repo.UpdateCheckoutFlowStatus(ctx, flow.ID, domain.FlowStatusOrderMaterialized))
	fetched, err = repo.GetCheckoutFlowBySessionID(ctx, "cs_flow_1")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowStatusOrderMaterialized, fetched.Status)
}

func TestUpdateCheckoutFlowStatus_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.UpdateCheckoutFlowStatus(context.Background(), uuid.New(), domain.FlowStatusFailed)
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestAbandonStaleFlows(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	flow := &CheckoutFlow{
		ID:              uuid.New(),
		UserID:          "user-42",
		Status:          domain.FlowStatusAwaitingPayment,
		StripeSessionID: "cs_stale",
		Snapshot:        &domain.CartSnapshot{Currency: "USD"},
	}
	require.NoError(t, repo.CreateCheckoutFlow(ctx, flow))

	// cutoff in the future, so the row just written is already stale
	affected, err := repo.AbandonStaleFlows(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	fetched, err := repo.GetCheckoutFlowBySessionID(ctx, "cs_stale")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowStatusAbandoned, fetched.Status)
}

func TestOutboxEvents_Lifecycle(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AppendOutboxEvent(ctx, []byte(`{"order_id":"abc"}`)))
	require.NoError(t, repo.AppendOutboxEvent(ctx, []byte(`{"order_id":"def"}`)))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestListOrders_AllBuyers(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("cs_one")))

	other := newTestOrder("cs_two")
	other.UserID = "someone-else"
	require.NoError(t, repo.CreateOrder(ctx, other))

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestUpdateOrderStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("cs_progress")
	require.NoError(t, repo.CreateOrder(ctx, order))

	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusInProgress))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInProgress, fetched.Status)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.UpdateOrderStatus(context.Background(), uuid.New(), domain.OrderStatusInProgress)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
