package repository

import (
	"context"
	"errors"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransition means the requested status change violates the
	// ledger state machine. With the compare-and-swap discipline below this
	// indicates a logic bug, not a race.
	ErrInvalidTransition = errors.New("invalid transaction status transition")
	// ErrTransitionConflict means another writer moved the transaction out of
	// the expected status first. The caller re-reads and takes the idempotent
	// path.
	ErrTransitionConflict = errors.New("transaction status changed concurrently")
)

// TransactionRepository is the persisted ledger of payment attempts.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	FindByCorrelationID(ctx context.Context, correlationID string) (*domain.Transaction, error)
	// Transition atomically moves the transaction from the given status to
	// the target status. Exactly one concurrent caller wins; the rest get
	// ErrTransitionConflict.
	Transition(ctx context.Context, correlationID string, from, to domain.TransactionStatus) (*domain.Transaction, error)
	// SetProviderRef records the provider-side transaction code once known.
	SetProviderRef(ctx context.Context, correlationID, providerRef string) error
}
