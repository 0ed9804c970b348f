package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bcasadei/rental-website/internal/domain"
	r "github.com/bcasadei/rental-website/internal/orders/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OrdersStore is the slice of the order store the HTTP surface uses:
// buyer-scoped reads plus the admin list and fulfilment-status update.
type OrdersStore interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	ListBookingsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Booking, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

type OrdersHandler struct {
	orders  OrdersStore
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersStore, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type BookingDTO struct {
	RentalID  int64   `json:"rental_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

type OrderWithBookingsDTO struct {
	OrderResponseDTO
	Bookings []BookingDTO `json:"bookings"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(req.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrdersByUserID(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	dtos := make([]OrderWithBookingsDTO, 0, len(orders))
	for _, o := range orders {
		dto, err := h.convertOrderWithBookings(ctx, o)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to load bookings")
			return
		}
		dtos = append(dtos, dto)
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(req.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(req, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	order, err := h.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, r.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	// Buyers only see their own orders
	if order.UserID != userID {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	dto, err := h.convertOrderWithBookings(ctx, order)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load bookings")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

type UpdateOrderStatusDTO struct {
	Status string `json:"status"`
}

// GET /api/v1/admin/orders
func (h *OrdersHandler) AdminListOrders(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), h.timeout)
	defer cancel()

	if getUserIDFromContext(req.Context()) == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	dtos := make([]OrderWithBookingsDTO, 0, len(orders))
	for _, o := range orders {
		dto, err := h.convertOrderWithBookings(ctx, o)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to load bookings")
			return
		}
		dtos = append(dtos, dto)
	}

	respondJSON(w, http.StatusOK, dtos)
}

// PATCH /api/v1/admin/orders/{order_id}/status
func (h *OrdersHandler) UpdateOrderStatus(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), h.timeout)
	defer cancel()

	if getUserIDFromContext(req.Context()) == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(req, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	var body UpdateOrderStatusDTO
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	next := domain.OrderStatus(body.Status)
	if !next.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid_status",
			"status must be one of pending, in_progress, completed")
		return
	}

	order, err := h.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, r.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	if !order.Status.CanProgressTo(next) {
		respondError(w, http.StatusConflict, "invalid_progression",
			fmt.Sprintf("order cannot move from %s to %s", order.Status, next))
		return
	}

	if err := h.orders.UpdateOrderStatus(ctx, orderID, next); err != nil {
		if errors.Is(err, r.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update order status")
		return
	}

	order.Status = next
	respondJSON(w, http.StatusOK, convertOrder(order))
}

func (h *OrdersHandler) convertOrderWithBookings(ctx context.Context, o *domain.Order) (OrderWithBookingsDTO, error) {
	bookings, err := h.orders.ListBookingsByOrderID(ctx, o.ID)
	if err != nil {
		return OrderWithBookingsDTO{}, err
	}

	dtoBookings := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtoBookings = append(dtoBookings, BookingDTO{
			RentalID:  b.RentalID,
			Quantity:  b.Quantity,
			Price:     b.Price,
			StartDate: b.StartDate.Format("2006-01-02"),
			EndDate:   b.EndDate.Format("2006-01-02"),
		})
	}

	return OrderWithBookingsDTO{
		OrderResponseDTO: convertOrder(o),
		Bookings:         dtoBookings,
	}, nil
}
