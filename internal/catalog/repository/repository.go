package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bcasadei/rental-website/internal/domain"
)

var ErrRentalNotFound = errors.New("rental not found")

// RentalRepository is the catalog read/write surface. Writes are only
// reachable through the admin endpoints.
type RentalRepository interface {
	ListRentals(ctx context.Context) ([]*domain.Rental, error)
	ListFeaturedRentals(ctx context.Context, limit int) ([]*domain.Rental, error)
	GetRental(ctx context.Context, id int64) (*domain.Rental, error)
	CreateRental(ctx context.Context, rental *domain.Rental) error
	UpdateRental(ctx context.Context, rental *domain.Rental) error
}

type Repository struct {
	db *sql.DB
}

// NewRepository shares the storefront's postgres pool; the catalog has no
// connection lifecycle of its own.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const rentalColumns = `id, title, description, price_per_day, image_url, featured, created_at`

func (r *Repository) ListRentals(ctx context.Context) ([]*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals ORDER BY id`

	return r.queryRentals(ctx, query)
}

func (r *Repository) ListFeaturedRentals(ctx context.Context, limit int) ([]*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE featured ORDER BY id LIMIT $1`

	return r.queryRentals(ctx, query, limit)
}

func (r *Repository) queryRentals(ctx context.Context, query string, args ...interface{}) ([]*domain.Rental, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rentals: %w", err)
	}
	defer rows.Close()

	var rentals []*domain.Rental
	for rows.Next() {
		rental := &domain.Rental{}
		if err := rows.Scan(
			&rental.ID,
			&rental.Title,
			&rental.Description,
			&rental.PricePerDay,
			&rental.ImageURL,
			&rental.Featured,
			&rental.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		rentals = append(rentals, rental)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return rentals, nil
}

func (r *Repository) GetRental(ctx context.Context, id int64) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`

	rental := &domain.Rental{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rental.ID,
		&rental.Title,
		&rental.Description,
		&rental.PricePerDay,
		&rental.ImageURL,
		&rental.Featured,
		&rental.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRentalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rental: %w", err)
	}

	return rental, nil
}

func (r *Repository) CreateRental(ctx context.Context, rental *domain.Rental) error {
	query := `INSERT INTO rentals (title, description, price_per_day, image_url, featured, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW())
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		rental.Title,
		rental.Description,
		rental.PricePerDay,
		rental.ImageURL,
		rental.Featured,
	).Scan(&rental.ID, &rental.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rental: %w", err)
	}
	return nil
}

func (r *Repository) UpdateRental(ctx context.Context, rental *domain.Rental) error {
	query := `UPDATE rentals SET title = $2, description = $3, price_per_day = $4, image_url = $5, featured = $6
	          WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		rental.ID,
		rental.Title,
		rental.Description,
		rental.PricePerDay,
		rental.ImageURL,
		rental.Featured,
	)
	if err != nil {
		return fmt.Errorf("update rental: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rental: %w", err)
	}
	if affected == 0 {
		return ErrRentalNotFound
	}
	return nil
}
