package repository

import (
	"context"
	"errors"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository defines the cart operations the checkout core needs.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// ClearCart removes the user's cart document. Clearing a cart that does
	// not exist returns ErrCartNotFound; callers that need idempotency treat
	// that as a no-op.
	ClearCart(ctx context.Context, userID string) error
}
