package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bcasadei/rental-website/internal/domain"
	"github.com/bcasadei/rental-website/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		SuccessURL:       "https://shop.example.com/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        "https://shop.example.com/checkout",
		AllowedCountries: []string{"US"},
	}
}

func validContact() ContactInfo {
	return ContactInfo{
		FullName:      "Sam Soaker",
		Email:         "sam@example.com",
		Phone:         "555-0100",
		StreetAddress: "1 Beach Ave",
		City:          "Splashville",
		State:         "CA",
		Zip:           "90001",
	}
}

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func twoItemCart() *domain.Cart {
	return &domain.Cart{
		UserID: "42",
		Items: []domain.LineItem{
			// 10 * 2 * 1 day = 20
			{ProductID: 1, Title: "Soaker Mini", DailyRate: 10, Quantity: 2, StartDate: day(1), EndDate: day(1)},
			// 15 * 1 * 3 days = 45
			{ProductID: 2, Title: "Hydro Cannon XL", DailyRate: 15, Quantity: 1, StartDate: day(1), EndDate: day(3)},
		},
	}
}

func TestBeginCheckout_AnonymousRejected(t *testing.T) {
	gateway := &MockGateway{}
	svc := NewService(&MockRepository{}, &MockCartStore{}, gateway, testConfig())

	_, err := svc.BeginCheckout(context.Background(), "", validContact())

	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, gateway.CreateCalls)
}

func TestBeginCheckout_InvalidContactRejected(t *testing.T) {
	gateway := &MockGateway{}
	svc := NewService(&MockRepository{}, &MockCartStore{Cart: twoItemCart()}, gateway, testConfig())

	contact := validContact()
	contact.Email = "not-an-email"

	_, err := svc.BeginCheckout(context.Background(), "42", contact)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "email", verrs[0].Field)
	assert.Zero(t, gateway.CreateCalls)
}

func TestBeginCheckout_EmptyCartRejectedBeforeAnyOutboundCall(t *testing.T) {
	gateway := &MockGateway{}
	svc := NewService(&MockRepository{}, &MockCartStore{}, gateway, testConfig())

	_, err := svc.BeginCheckout(context.Background(), "42", validContact())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, gateway.CreateCalls)
}

func TestBeginCheckout_Success(t *testing.T) {
	repo := &MockRepository{}
	gateway := &MockGateway{Session: &payment.Session{
		ID:  "cs_test_abc",
		URL: "https://checkout.example.com/cs_test_abc",
	}}
	svc := NewService(repo, &MockCartStore{Cart: twoItemCart()}, gateway, testConfig())

	result, err := svc.BeginCheckout(context.Background(), "42", validContact())
	require.NoError(t, err)

	assert.Equal(t, "cs_test_abc", result.SessionID)
	assert.Equal(t, "https://checkout.example.com/cs_test_abc", result.RedirectURL)
	assert.Equal(t, 65.0, result.Total)

	// the flow record is what materialization resumes from
	require.NotNil(t, repo.CreatedFlow)
	assert.Equal(t, domain.FlowStatusAwaitingPayment, repo.CreatedFlow.Status)
	assert.Equal(t, "cs_test_abc", repo.CreatedFlow.StripeSessionID)
	assert.Equal(t, 65.0, repo.CreatedFlow.TotalAmount)
	require.NotNil(t, repo.CreatedFlow.Snapshot)
	assert.Len(t, repo.CreatedFlow.Snapshot.Items, 2)
}

func TestBeginCheckout_SessionRequestPricing(t *testing.T) {
	gateway := &MockGateway{Session: &payment.Session{ID: "cs_1", URL: "u"}}
	svc := NewService(&MockRepository{}, &MockCartStore{Cart: twoItemCart()}, gateway, testConfig())

	_, err := svc.BeginCheckout(context.Background(), "42", validContact())
	require.NoError(t, err)

	req := gateway.LastRequest
	require.NotNil(t, req)
	require.Len(t, req.Lines, 2)

	// unit price folds the rental days in, so unit * quantity is the line total
	assert.Equal(t, int64(1000), req.Lines[0].UnitAmountCents)
	assert.Equal(t, 2, req.Lines[0].Quantity)
	assert.Equal(t, "Rental for 1 days", req.Lines[0].Description)
	assert.Equal(t, int64(4500), req.Lines[1].UnitAmountCents)
	assert.Equal(t, 1, req.Lines[1].Quantity)
	assert.Equal(t, "Rental for 3 days", req.Lines[1].Description)

	assert.Equal(t, "sam@example.com", req.CustomerEmail)
	assert.Equal(t, []string{"US"}, req.AllowedCountries)
	assert.Equal(t, "42", req.Metadata["user_id"])
	assert.Equal(t, "65.00", req.Metadata["total_amount"])
	assert.Equal(t, "Sam Soaker", req.Metadata["customer_name"])
	assert.NotEmpty(t, req.Metadata["order_summary"])
}

func TestBeginCheckout_GatewayFailureLeavesNoLocalState(t *testing.T) {
	repo := &MockRepository{}
	gateway := &MockGateway{CreateErr: errors.New("stripe is down")}
	svc := NewService(repo, &MockCartStore{Cart: twoItemCart()}, gateway, testConfig())

	_, err := svc.BeginCheckout(context.Background(), "42", validContact())

	assert.ErrorContains(t, err, "failed to create checkout session")
	assert.Nil(t, repo.CreatedFlow)
}
