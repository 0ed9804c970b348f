package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bcasadei/rental-website/internal/cart/cache"
	"github.com/bcasadei/rental-website/internal/cart/repository"
	"github.com/bcasadei/rental-website/internal/domain"
	"github.com/bcasadei/rental-website/internal/pricing"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo repository.CartRepository, cache cache.CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) { // not found cart return empty cart
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet // err from repo is not cache miss, return it
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *Service) AddItem(ctx context.Context, userID string, item domain.LineItem) error {
	errAdd := s.repo.AddItem(ctx, userID, item)
	if errAdd != nil {
		log.Printf("repo add item error: %v \n", errAdd)
		return errAdd
	}

	invalidateCache(s, userID)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, userID string, productID int64) error {
	errRemove := s.repo.RemoveItem(ctx, userID, productID)
	if errRemove != nil {
		log.Printf("repo remove item error: %v \n", errRemove)
		return errRemove
	}

	invalidateCache(s, userID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil {
		log.Printf("repo delete cart error: %v \n", errDelete)
		return errDelete
	}

	invalidateCache(s, userID)
	return nil
}

// Total sums the line totals of the buyer's current cart.
func (s *Service) Total(ctx context.Context, userID string) (float64, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, item := range cart.Items {
		total += pricing.LineTotal(item)
	}
	return total, nil
}

func invalidateCache(s *Service, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}
