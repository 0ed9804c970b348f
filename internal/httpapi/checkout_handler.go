package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/bcasadei/rental-website/internal/checkout"
	"github.com/bcasadei/rental-website/internal/domain"
	"github.com/bcasadei/rental-website/internal/payment"
)

// CheckoutService is the slice of the checkout flow the HTTP surface uses.
type CheckoutService interface {
	BeginCheckout(ctx context.Context, userID string, contact checkout.ContactInfo) (*checkout.BeginResult, error)
	CompleteCheckout(ctx context.Context, sessionID string) (*domain.Order, error)
}

type CheckoutHandler struct {
	service CheckoutService
	timeout time.Duration
}

func NewCheckoutHandler(service CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		timeout: timeout,
	}
}

type CheckoutSessionResponseDTO struct {
	SessionID   string  `json:"session_id"`
	URL         string  `json:"url"`
	TotalAmount float64 `json:"total_amount"`
}

type OrderResponseDTO struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	Status     string  `json:"status"`
	TotalPrice float64 `json:"total_price"`
	SessionID  string  `json:"session_id"`
	CreatedAt  string  `json:"created_at"`
}

// POST /api/v1/checkout/session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())

	var contact checkout.ContactInfo
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.service.BeginCheckout(ctx, userID, contact)
	if err != nil {
		handleCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutSessionResponseDTO{
		SessionID:   result.SessionID,
		URL:         result.RedirectURL,
		TotalAmount: result.Total,
	})
}

// GET /api/v1/checkout/success?session_id=...
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}

	order, err := h.service.CompleteCheckout(ctx, sessionID)
	if err != nil {
		handleCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		ID:         o.ID.String(),
		UserID:     o.UserID,
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice,
		SessionID:  o.StripeSessionID,
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
	}
}

func handleCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var vErrs checkout.ValidationErrors
	if errors.As(err, &vErrs) {
		details, _ := json.Marshal(vErrs)
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "contact information is invalid",
			Code:    "invalid_contact",
			Details: string(details),
		})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrAuthRequired):
		respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to check out")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart has no items")
	case errors.Is(err, checkout.ErrNotPaid):
		respondError(w, http.StatusPaymentRequired, "not_paid", "payment has not completed for this session")
	case errors.Is(err, payment.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", "unknown payment session")
	case errors.Is(err, payment.ErrGatewayUnavailable):
		respondError(w, http.StatusBadGateway, "payment_unavailable", "payment processor is unavailable")
	case errors.Is(err, checkout.ErrOrderIntegrity):
		respondError(w, http.StatusInternalServerError, "order_integrity",
			"payment succeeded but the order could not be fully recorded; contact support")
	default:
		log.Printf("checkout error (request %s): %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
