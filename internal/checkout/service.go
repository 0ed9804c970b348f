// Package checkout turns a buyer's cart into a hosted payment session and,
// once the processor confirms payment, materializes the cart into durable
// order and booking records exactly once per session.
package checkout

import (
	"context"

	"github.com/bcasadei/rental-website/internal/domain"
	r "github.com/bcasadei/rental-website/internal/orders/repository"
	"github.com/bcasadei/rental-website/internal/payment"
)

// CartStore is the slice of the cart service this flow needs: the durable
// snapshot source before checkout and the clear after materialization.
type CartStore interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// PaymentGateway is the payment collaborator: create a session, and later
// ask whether it was paid.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req *payment.SessionRequest) (*payment.Session, error)
	VerifySession(ctx context.Context, sessionID string) (*payment.Verification, error)
}

type Config struct {
	// SuccessURL must carry the {CHECKOUT_SESSION_ID} placeholder; the
	// processor substitutes the session id before redirecting back.
	SuccessURL       string
	CancelURL        string
	AllowedCountries []string
}

type Service struct {
	repo      r.OrderRepository
	carts     CartStore
	gateway   PaymentGateway
	cfg       Config
	validator *ContactValidator
}

func NewService(repo r.OrderRepository, carts CartStore, gateway PaymentGateway, cfg Config) *Service {
	return &Service{
		repo:      repo,
		carts:     carts,
		gateway:   gateway,
		cfg:       cfg,
		validator: NewContactValidator(),
	}
}
