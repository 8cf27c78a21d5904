package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/cache"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
	"golang.org/x/sync/singleflight"
)

// CartLoader reads carts through the cache. A burst of checkout submissions
// for one user collapses into a single store read.
type CartLoader struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group
}

func NewCartLoader(repo repository.CartRepository, cartCache cache.CartCache) *CartLoader {
	return &CartLoader{
		repo:  repo,
		cache: cartCache,
	}
}

func (l *CartLoader) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := l.sfg.Do(userID, func() (interface{}, error) {
		cart, err := l.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := l.repo.GetCart(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := l.cache.Set(context.Background(), userID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// ClearCart deletes the stored cart and invalidates the cached copy. It is
// the cart-clear side effect the reconciliation engine fires.
func (l *CartLoader) ClearCart(ctx context.Context, userID string) error {
	if err := l.repo.ClearCart(ctx, userID); err != nil {
		return err
	}

	if err := l.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache delete error: %v", err)
	}
	return nil
}
