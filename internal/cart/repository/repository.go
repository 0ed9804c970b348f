package repository

import (
	"context"

	"github.com/bcasadei/rental-website/internal/domain"
)

// CartRepository defines the interface for the durable cart mirror.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.LineItem) error
	RemoveItem(ctx context.Context, userID string, productID int64) error
	DeleteCart(ctx context.Context, userID string) error
}
