package repository

import (
	"context"
	"errors"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrPaymentRefNotFound means the order references a transaction that
	// does not exist in the ledger.
	ErrPaymentRefNotFound = errors.New("order payment ref does not resolve to a transaction")
	// ErrOrderTotalMismatch means the order total disagrees with the ledger
	// amount it claims to be backed by.
	ErrOrderTotalMismatch = errors.New("order total does not match transaction amount")
	ErrInvalidOrderStatus = errors.New("invalid order status transition")
)

type OrderRepository interface {
	// Create persists the order after verifying its PaymentRef resolves to
	// an existing transaction whose ledger total matches the order total.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.Order, error)
	ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	// UpdateStatus drives the fulfillment state machine, which is independent
	// of the payment state machine.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
}
