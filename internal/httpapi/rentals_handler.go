package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	catalog "github.com/bcasadei/rental-website/internal/catalog/repository"
	"github.com/bcasadei/rental-website/internal/domain"
	"github.com/go-chi/chi/v5"
)

const featuredLimit = 4

type RentalsHandler struct {
	rentals catalog.RentalRepository
	timeout time.Duration
}

func NewRentalsHandler(rentals catalog.RentalRepository, timeout time.Duration) *RentalsHandler {
	return &RentalsHandler{
		rentals: rentals,
		timeout: timeout,
	}
}

type RentalDTO struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PricePerDay float64 `json:"price_per_day"`
	ImageURL    string  `json:"image_url"`
	Featured    bool    `json:"featured"`
	CreatedAt   string  `json:"created_at"`
}

type UpsertRentalDTO struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PricePerDay float64 `json:"price_per_day"`
	ImageURL    string  `json:"image_url"`
	Featured    bool    `json:"featured"`
}

// GET /api/v1/rentals?featured=true
func (h *RentalsHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		rentals []*domain.Rental
		err     error
	)
	if r.URL.Query().Get("featured") == "true" {
		rentals, err = h.rentals.ListFeaturedRentals(ctx, featuredLimit)
	} else {
		rentals, err = h.rentals.ListRentals(ctx)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list rentals")
		return
	}

	dtos := make([]RentalDTO, 0, len(rentals))
	for _, rental := range rentals {
		dtos = append(dtos, convertRental(rental))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/rentals/{rental_id}
func (h *RentalsHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "rental_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_rental_id", "rental_id must be a positive integer")
		return
	}

	rental, err := h.rentals.GetRental(ctx, id)
	if errors.Is(err, catalog.ErrRentalNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "rental not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load rental")
		return
	}

	respondJSON(w, http.StatusOK, convertRental(rental))
}

// POST /api/v1/rentals
func (h *RentalsHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpsertRentalDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Title == "" || req.PricePerDay <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_rental", "title and a positive price_per_day are required")
		return
	}

	rental := &domain.Rental{
		Title:       req.Title,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		ImageURL:    req.ImageURL,
		Featured:    req.Featured,
	}
	if err := h.rentals.CreateRental(ctx, rental); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create rental")
		return
	}

	respondJSON(w, http.StatusCreated, convertRental(rental))
}

// PUT /api/v1/rentals/{rental_id}
func (h *RentalsHandler) UpdateRental(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "rental_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_rental_id", "rental_id must be a positive integer")
		return
	}

	var req UpsertRentalDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Title == "" || req.PricePerDay <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_rental", "title and a positive price_per_day are required")
		return
	}

	rental := &domain.Rental{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		ImageURL:    req.ImageURL,
		Featured:    req.Featured,
	}
	if err := h.rentals.UpdateRental(ctx, rental); err != nil {
		if errors.Is(err, catalog.ErrRentalNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "rental not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update rental")
		return
	}

	respondJSON(w, http.StatusOK, convertRental(rental))
}

func convertRental(r *domain.Rental) RentalDTO {
	return RentalDTO{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		PricePerDay: r.PricePerDay,
		ImageURL:    r.ImageURL,
		Featured:    r.Featured,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}
