// Package reconcile matches a provider's asynchronous status signal back to
// the transaction ledger and applies the resulting transition exactly once.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/gateway"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
	"github.com/aakashdhakal/HaatBazar-sub000/pkg/metrics"
)

const (
	EventPaymentConfirmed = "payment.confirmed"
	EventPaymentFailed    = "payment.failed"
)

// CartClearer is the slice of the cart collaborator the engine needs.
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

type Engine struct {
	transactions repository.TransactionRepository
	orders       repository.OrderRepository
	carts        CartClearer
	outbox       repository.PaymentEventRepository
	metrics      *metrics.CheckoutMetrics
}

func NewEngine(
	transactions repository.TransactionRepository,
	orders repository.OrderRepository,
	carts CartClearer,
	outbox repository.PaymentEventRepository,
	m *metrics.CheckoutMetrics,
) *Engine {
	return &Engine{
		transactions: transactions,
		orders:       orders,
		carts:        carts,
		outbox:       outbox,
		metrics:      m,
	}
}

// Apply reconciles a normalized callback against the ledger.
func (e *Engine) Apply(ctx context.Context, cb gateway.Callback) error {
	if cb.Status == gateway.CallbackSuccess {
		if cb.ProviderRef != "" {
			if err := e.transactions.SetProviderRef(ctx, cb.CorrelationID, cb.ProviderRef); err != nil &&
				!errors.Is(err, repository.ErrTransactionNotFound) {
				log.Printf("failed to record provider ref for %s: %v", cb.CorrelationID, err)
			}
		}
		return e.Confirm(ctx, cb.CorrelationID)
	}
	return e.Fail(ctx, cb.CorrelationID, cb.Reason)
}

// Confirm transitions the transaction to paid and fires the cart-clear side
// effect. The same callback may legitimately arrive more than once (browser
// refresh on the return page, provider retry); every path after the first
// successful transition is a no-op.
func (e *Engine) Confirm(ctx context.Context, correlationID string) error {
	tx, err := e.transactions.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			log.Printf("callback for unknown correlation id %s dropped", correlationID)
			e.metrics.Reconciliations.WithLabelValues("not_found").Inc()
		}
		return err
	}

	switch tx.Status {
	case domain.TransactionStatusPaid:
		log.Printf("transaction %s already paid, duplicate callback ignored", correlationID)
		e.metrics.DuplicateCallbacks.Inc()
		return nil

	case domain.TransactionStatusPending:
		updated, err := e.transactions.Transition(ctx, correlationID,
			domain.TransactionStatusPending, domain.TransactionStatusPaid)
		if errors.Is(err, repository.ErrTransitionConflict) {
			// Lost the race. If the winner marked it paid the side effects
			// are theirs; anything else means the payment failed meanwhile.
			if updated != nil && updated.Status == domain.TransactionStatusPaid {
				e.metrics.DuplicateCallbacks.Inc()
				return nil
			}
			return fmt.Errorf("transaction %s no longer pending: %w", correlationID, repository.ErrInvalidTransition)
		}
		if err != nil {
			return fmt.Errorf("failed to mark transaction paid: %w", err)
		}
		e.metrics.Reconciliations.WithLabelValues("paid").Inc()

		// The paid transition is durable; only now is it safe to clear the
		// cart. The clear is idempotent, a crash here is recovered by
		// replaying the callback against the already-paid transaction.
		e.clearCart(ctx, updated.UserID)
		e.publishOutcome(ctx, EventPaymentConfirmed, updated)
		return nil

	default:
		// A success signal for a failed or refunded transaction is a logic
		// or provider bug; leave the ledger untouched.
		e.metrics.Reconciliations.WithLabelValues("invalid").Inc()
		return fmt.Errorf("transaction %s is %s: %w", correlationID, tx.Status, repository.ErrInvalidTransition)
	}
}

// Fail transitions a pending transaction to failed. The cart is never
// touched on this path.
func (e *Engine) Fail(ctx context.Context, correlationID, reason string) error {
	tx, err := e.transactions.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			log.Printf("failure callback for unknown correlation id %s dropped", correlationID)
			e.metrics.Reconciliations.WithLabelValues("not_found").Inc()
		}
		return err
	}

	if tx.Status != domain.TransactionStatusPending {
		// Paid is immutable except by refund, and a repeated failure signal
		// carries no new information.
		log.Printf("failure callback for %s transaction %s ignored: %s", tx.Status, correlationID, reason)
		return nil
	}

	updated, err := e.transactions.Transition(ctx, correlationID,
		domain.TransactionStatusPending, domain.TransactionStatusFailed)
	if errors.Is(err, repository.ErrTransitionConflict) {
		log.Printf("transaction %s moved to %s before failure applied", correlationID, updated.Status)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}

	log.Printf("transaction %s marked failed: %s", correlationID, reason)
	e.metrics.Reconciliations.WithLabelValues("failed").Inc()
	e.publishOutcome(ctx, EventPaymentFailed, updated)
	return nil
}

func (e *Engine) clearCart(ctx context.Context, userID string) {
	err := e.carts.ClearCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		// The payment is recorded; a failed clear is retried by the next
		// duplicate callback or surfaces as a stale cart, never as money loss.
		log.Printf("failed to clear cart for user %s: %v", userID, err)
		return
	}
	if err == nil {
		e.metrics.CartClears.Inc()
	}
}

// publishOutcome records the reconciliation result in the outbox so the
// fulfillment side can update the order's derived view asynchronously.
func (e *Engine) publishOutcome(ctx context.Context, eventType string, tx *domain.Transaction) {
	payload := map[string]any{
		"correlation_id": tx.CorrelationID,
		"user_id":        tx.UserID,
		"method":         tx.Method,
		"amount":         tx.Amount,
		"status":         tx.Status,
	}

	order, err := e.orders.GetByPaymentRef(ctx, tx.CorrelationID)
	if err == nil {
		payload["order_id"] = order.ID
	} else if !errors.Is(err, repository.ErrOrderNotFound) {
		log.Printf("failed to resolve order for %s: %v", tx.CorrelationID, err)
	}

	if err := e.outbox.Insert(ctx, eventType, tx.CorrelationID, payload); err != nil {
		log.Printf("failed to enqueue %s event for %s: %v", eventType, tx.CorrelationID, err)
	}
}

// PaymentStatusFor is the explicit read-side projection joining the two
// otherwise independent state machines.
func (e *Engine) PaymentStatusFor(ctx context.Context, order *domain.Order) (domain.TransactionStatus, error) {
	tx, err := e.transactions.FindByCorrelationID(ctx, order.PaymentRef)
	if err != nil {
		return "", err
	}
	return tx.Status, nil
}
