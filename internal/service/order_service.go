package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/reconcile"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
)

// OrderService serves the order-history surface and the fulfillment status
// updates, which run on their own state machine independent of payment.
type OrderService struct {
	orders       repository.OrderRepository
	transactions repository.TransactionRepository
	engine       *reconcile.Engine
}

func NewOrderService(
	orders repository.OrderRepository,
	transactions repository.TransactionRepository,
	engine *reconcile.Engine,
) *OrderService {
	return &OrderService{
		orders:       orders,
		transactions: transactions,
		engine:       engine,
	}
}

// OrderView joins an order with the payment status of its backing
// transaction. The join is a read-side projection only.
type OrderView struct {
	Order         *domain.Order
	PaymentStatus domain.TransactionStatus
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*OrderView, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		// Do not leak other users' orders through id guessing.
		return nil, repository.ErrOrderNotFound
	}

	status, err := s.engine.PaymentStatusFor(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment status: %w", err)
	}

	return &OrderView{Order: order, PaymentStatus: status}, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListByUserID(ctx, userID)
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, to domain.OrderStatus) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, to); err != nil {
		return err
	}
	log.Printf("order %s moved from %s to %s", orderID, order.Status, to)
	return nil
}

// RefundTransaction flips a paid transaction to refunded. Status flag only;
// moving money back is handled outside this core.
func (s *OrderService) RefundTransaction(ctx context.Context, correlationID string) error {
	_, err := s.transactions.Transition(ctx, correlationID,
		domain.TransactionStatusPaid, domain.TransactionStatusRefunded)
	if err != nil {
		return fmt.Errorf("failed to refund transaction %s: %w", correlationID, err)
	}
	log.Printf("transaction %s refunded", correlationID)
	return nil
}
