package service

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/gateway"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/pricing"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/reconcile"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
	"github.com/aakashdhakal/HaatBazar-sub000/pkg/metrics"
	"github.com/google/uuid"
)

type CheckoutRequest struct {
	UserID          string
	Method          domain.PaymentMethod
	ShippingAddress string
	BillingAddress  string
	Buyer           gateway.BuyerInfo
}

type CheckoutResponse struct {
	OrderID       string
	CorrelationID string
	Amount        domain.Amount
	Redirect      *gateway.RedirectInstruction
}

// PaymentOutcome is what the return handler renders after reconciliation.
type PaymentOutcome struct {
	Succeeded     bool
	OrderID       string
	CorrelationID string
}

type CheckoutService interface {
	InitiateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error)
	HandlePaymentReturn(ctx context.Context, method domain.PaymentMethod, params url.Values) (*PaymentOutcome, error)
}

type CheckoutServiceImpl struct {
	carts        *CartLoader
	catalog      repository.ProductCatalog
	transactions repository.TransactionRepository
	orders       repository.OrderRepository
	gateways     map[domain.PaymentMethod]gateway.Gateway
	engine       *reconcile.Engine
	deduper      CheckoutDeduper
	metrics      *metrics.CheckoutMetrics
}

// CheckoutDeduper mirrors cache.CheckoutDeduper; declared here so tests can
// substitute it without touching redis.
type CheckoutDeduper interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

func NewCheckoutService(
	carts *CartLoader,
	catalog repository.ProductCatalog,
	transactions repository.TransactionRepository,
	orders repository.OrderRepository,
	gateways []gateway.Gateway,
	engine *reconcile.Engine,
	deduper CheckoutDeduper,
	m *metrics.CheckoutMetrics,
) *CheckoutServiceImpl {
	byMethod := make(map[domain.PaymentMethod]gateway.Gateway, len(gateways))
	for _, g := range gateways {
		byMethod[g.Method()] = g
	}
	return &CheckoutServiceImpl{
		carts:        carts,
		catalog:      catalog,
		transactions: transactions,
		orders:       orders,
		gateways:     byMethod,
		engine:       engine,
		deduper:      deduper,
		metrics:      m,
	}
}

func (s *CheckoutServiceImpl) InitiateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	gw, ok := s.gateways[req.Method]
	if !ok {
		return nil, ErrUnsupportedMethod
	}

	cart, err := s.carts.Load(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items, lines, err := s.snapshotItems(ctx, cart)
	if err != nil {
		return nil, err
	}

	summary, err := pricing.Compute(lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Guard against the same cart being submitted twice before the first
	// attempt resolves.
	dedupKey := DedupKey(req.UserID, req.Method, cart.Items)
	acquired, err := s.deduper.Acquire(ctx, dedupKey)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire checkout guard: %w", err)
	}
	if !acquired {
		return nil, ErrCheckoutInProgress
	}

	amount := domain.Amount{
		Product:  summary.Subtotal,
		Shipping: summary.Shipping,
		Total:    summary.Total,
	}

	// Ledger entry first: an order cannot exist without its transaction.
	tx := &domain.Transaction{
		CorrelationID: uuid.New().String(),
		UserID:        req.UserID,
		Method:        req.Method,
		Amount:        amount,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		s.releaseGuard(ctx, dedupKey)
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	order := &domain.Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		TotalAmount:     summary.Total,
		PaymentRef:      tx.CorrelationID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseGuard(ctx, dedupKey)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	redirect, err := gw.Dispatch(ctx, gateway.DispatchRequest{
		CorrelationID:   tx.CorrelationID,
		Amount:          amount,
		Buyer:           req.Buyer,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		// The transaction stays pending and the cart is untouched, so the
		// user can simply retry checkout.
		s.metrics.Dispatches.WithLabelValues(string(req.Method), "error").Inc()
		s.releaseGuard(ctx, dedupKey)
		return nil, fmt.Errorf("failed to dispatch payment: %w", err)
	}
	s.metrics.Dispatches.WithLabelValues(string(req.Method), "ok").Inc()

	log.Printf("checkout dispatched: order %s transaction %s method %s total %d",
		order.ID, tx.CorrelationID, req.Method, summary.Total)

	return &CheckoutResponse{
		OrderID:       order.ID,
		CorrelationID: tx.CorrelationID,
		Amount:        amount,
		Redirect:      redirect,
	}, nil
}

func (s *CheckoutServiceImpl) HandlePaymentReturn(ctx context.Context, method domain.PaymentMethod, params url.Values) (*PaymentOutcome, error) {
	var cb gateway.Callback
	var err error

	switch method {
	case domain.PaymentMethodEsewa:
		cb, err = gateway.NormalizeEsewa(params.Get("data"))
	case domain.PaymentMethodKhalti:
		cb, err = gateway.NormalizeKhalti(params)
	default:
		return nil, ErrUnsupportedMethod
	}

	if err != nil {
		if cb.CorrelationID == "" {
			// Nothing to reconcile against; log and drop.
			log.Printf("dropping unattributable %s callback: %v", method, err)
			return nil, err
		}
		log.Printf("malformed %s callback for %s treated as failure: %v", method, cb.CorrelationID, err)
	}

	if applyErr := s.engine.Apply(ctx, cb); applyErr != nil {
		return nil, applyErr
	}

	outcome := &PaymentOutcome{
		Succeeded:     cb.Status == gateway.CallbackSuccess,
		CorrelationID: cb.CorrelationID,
	}
	if order, findErr := s.orders.GetByPaymentRef(ctx, cb.CorrelationID); findErr == nil {
		outcome.OrderID = order.ID
	}
	return outcome, nil
}

func (s *CheckoutServiceImpl) snapshotItems(ctx context.Context, cart *domain.Cart) ([]domain.OrderItem, []pricing.Line, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	lines := make([]pricing.Line, 0, len(cart.Items))
	for _, ci := range cart.Items {
		p, ok := products[ci.ProductID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: product %s no longer in catalog", ErrValidation, ci.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  ci.Quantity,
			UnitPrice: p.Price,
		})
		lines = append(lines, pricing.Line{UnitPrice: p.Price, Quantity: ci.Quantity})
	}
	return items, lines, nil
}

func (s *CheckoutServiceImpl) releaseGuard(ctx context.Context, key string) {
	if err := s.deduper.Release(ctx, key); err != nil {
		log.Printf("failed to release checkout guard: %v", err)
	}
}

func validateRequest(req *CheckoutRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: missing user", ErrValidation)
	}
	if !req.Method.Valid() {
		return ErrUnsupportedMethod
	}
	if req.ShippingAddress == "" || req.BillingAddress == "" {
		return fmt.Errorf("%w: missing addresses", ErrValidation)
	}
	return nil
}
