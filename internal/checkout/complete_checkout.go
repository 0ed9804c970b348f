package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bcasadei/rental-website/internal/domain"
	r "github.com/bcasadei/rental-website/internal/orders/repository"
	"github.com/google/uuid"
)

// CompleteCheckout verifies payment for the session named in the success
// callback and materializes the cart snapshot into an order with its
// bookings. The verifier's answer is the only gate: an unpaid session never
// produces an order, and the recorded total is the amount the processor
// charged, not anything the client sent. Redelivery of the callback for an
// already materialized session returns the existing order.
func (s *Service) CompleteCheckout(ctx context.Context, sessionID string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	verification, err := s.gateway.VerifySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if !verification.Paid {
		return nil, ErrNotPaid
	}

	flow, err := s.repo.GetCheckoutFlowBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, r.ErrFlowNotFound) {
		return nil, fmt.Errorf("failed to load checkout flow: %w", err)
	}

	userID := verification.BuyerID
	if userID == "" && flow != nil {
		userID = flow.UserID
	}
	if userID == "" {
		return nil, ErrAuthRequired
	}

	snapshot, err := s.resolveSnapshot(ctx, flow, userID)
	if err != nil {
		return nil, err
	}

	if flow != nil {
		switch {
		case flow.Status == domain.FlowStatusOrderMaterialized:
			return s.repo.GetOrderBySessionID(ctx, sessionID)
		case flow.Status == domain.FlowStatusPaymentVerified:
			// A previous delivery stopped between verification and
			// materialization; resume from here.
		case !domain.CanTransitionTo(flow.Status, domain.FlowStatusPaymentVerified):
			return nil, IllegalTransitionError
		default:
			if err := s.repo.UpdateCheckoutFlowStatus(ctx, flow.ID, domain.FlowStatusPaymentVerified); err != nil {
				return nil, fmt.Errorf("failed to update checkout flow: %w", err)
			}
		}
	}

	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		TotalPrice:      verification.Total,
		StripeSessionID: sessionID,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		if !errors.Is(err, r.ErrDuplicateSession) {
			// Transient failure: mark the flow FAILED and keep the cart so
			// a later delivery of the callback retries materialization.
			s.failFlow(ctx, flow)
			return nil, fmt.Errorf("order creation failed: %w", err)
		}
		// Another delivery already created the order. Keep going: it may
		// still be missing its bookings if that delivery died halfway.
		log.Printf("order for session %s already exists, reusing it", sessionID)
		existing, err := s.repo.GetOrderBySessionID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing order: %w", err)
		}
		order = existing
	}

	existingBookings, err := s.repo.ListBookingsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check bookings for order %s: %w", order.ID, err)
	}
	if len(existingBookings) == 0 {
		bookings := make([]domain.Booking, 0, len(snapshot.Items))
		for _, item := range snapshot.Items {
			bookings = append(bookings, domain.Booking{
				OrderID:   order.ID,
				RentalID:  item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.DailyRate,
				StartDate: item.StartDate,
				EndDate:   item.EndDate,
				UserID:    userID,
			})
		}

		if err := s.repo.CreateBookings(ctx, bookings); err != nil {
			// The order row exists without bookings. Mark the flow FAILED
			// so redelivery retries the insert; do not roll back the paid
			// order.
			s.failFlow(ctx, flow)
			log.Printf("bookings insert failed for order %s: %v", order.ID, err)
			return nil, fmt.Errorf("%w: %v", ErrOrderIntegrity, err)
		}

		s.publishOrderConfirmed(ctx, order, snapshot)
	}

	if flow != nil {
		if err := s.repo.UpdateCheckoutFlowStatus(ctx, flow.ID, domain.FlowStatusOrderMaterialized); err != nil {
			log.Printf("failed to mark flow %s materialized: %v", flow.ID, err)
		}
	}

	// Clearing the cart is the last step: a failure anywhere above leaves
	// the cart intact so the buyer can retry.
	if err := s.carts.Clear(ctx, userID); err != nil {
		log.Printf("failed to clear cart for user %s: %v", userID, err)
	}

	return order, nil
}

// resolveSnapshot prefers the snapshot frozen when checkout began; the
// buyer's live cart is the fallback when no flow record survived.
func (s *Service) resolveSnapshot(ctx context.Context, flow *r.CheckoutFlow, userID string) (*domain.CartSnapshot, error) {
	if flow != nil && flow.Snapshot != nil && len(flow.Snapshot.Items) > 0 {
		return flow.Snapshot, nil
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to recover cart snapshot: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}
	return buildCartSnapshot(cart), nil
}

func (s *Service) failFlow(ctx context.Context, flow *r.CheckoutFlow) {
	if flow == nil {
		return
	}
	if err := s.repo.UpdateCheckoutFlowStatus(ctx, flow.ID, domain.FlowStatusFailed); err != nil {
		log.Printf("failed to mark flow %s failed: %v", flow.ID, err)
	}
}

type orderConfirmedEvent struct {
	OrderID         string                    `json:"order_id"`
	UserID          string                    `json:"user_id"`
	StripeSessionID string                    `json:"stripe_session_id"`
	TotalPrice      float64                   `json:"total_price"`
	Items           []domain.CartSnapshotItem `json:"items"`
	ConfirmedAt     time.Time                 `json:"confirmed_at"`
}

// publishOrderConfirmed appends the event to the outbox; the poller ships
// it to Kafka. Losing the event does not undo the order.
func (s *Service) publishOrderConfirmed(ctx context.Context, order *domain.Order, snapshot *domain.CartSnapshot) {
	event := orderConfirmedEvent{
		OrderID:         order.ID.String(),
		UserID:          order.UserID,
		StripeSessionID: order.StripeSessionID,
		TotalPrice:      order.TotalPrice,
		Items:           snapshot.Items,
		ConfirmedAt:     time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal order-confirmed event failed: %v", err)
		return
	}
	if err := s.repo.AppendOutboxEvent(ctx, payload); err != nil {
		log.Printf("append order-confirmed event failed: %v", err)
	}
}
