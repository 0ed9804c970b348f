package checkout

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/bcasadei/rental-website/internal/domain"
	r "github.com/bcasadei/rental-website/internal/orders/repository"
	"github.com/bcasadei/rental-website/internal/payment"
	"github.com/google/uuid"
)

type BeginResult struct {
	SessionID   string
	RedirectURL string
	Total       float64
}

// BeginCheckout validates the buyer and the cart, prices a snapshot,
// opens a hosted payment session, and records the flow so materialization
// can resume from durable state after the redirect. Nothing is persisted
// locally when the collaborator call fails.
func (s *Service) BeginCheckout(ctx context.Context, userID string, contact ContactInfo) (*BeginResult, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}
	if err := s.validator.Validate(contact); err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	snapshot := buildCartSnapshot(cart)

	session, err := s.gateway.CreateSession(ctx, s.sessionRequest(userID, contact, snapshot))
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	flow := &r.CheckoutFlow{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          domain.FlowStatusAwaitingPayment,
		StripeSessionID: session.ID,
		Snapshot:        snapshot,
		TotalAmount:     snapshot.TotalAmount,
	}
	if err := s.repo.CreateCheckoutFlow(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to record checkout flow: %w", err)
	}

	return &BeginResult{
		SessionID:   session.ID,
		RedirectURL: session.URL,
		Total:       snapshot.TotalAmount,
	}, nil
}

func (s *Service) sessionRequest(userID string, contact ContactInfo, snapshot *domain.CartSnapshot) *payment.SessionRequest {
	lines := make([]payment.SessionLine, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		lines = append(lines, payment.SessionLine{
			Name:            item.Title,
			Description:     fmt.Sprintf("Rental for %d days", item.RentalDays),
			ImageURL:        item.ImageURL,
			UnitAmountCents: int64(math.Round(item.UnitPrice * 100)),
			Quantity:        item.Quantity,
		})
	}

	metadata := map[string]string{
		"user_id":        userID,
		"total_amount":   strconv.FormatFloat(snapshot.TotalAmount, 'f', 2, 64),
		"customer_name":  contact.FullName,
		"customer_phone": contact.Phone,
	}
	if summary := orderSummaryJSON(snapshot); summary != "" {
		metadata["order_summary"] = summary
	}

	return &payment.SessionRequest{
		Lines:            lines,
		CustomerEmail:    contact.Email,
		SuccessURL:       s.cfg.SuccessURL,
		CancelURL:        s.cfg.CancelURL,
		AllowedCountries: s.cfg.AllowedCountries,
		Metadata:         metadata,
	}
}
