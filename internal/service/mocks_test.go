package service

import (
	"context"
	"sync"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/cache"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/gateway"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
)

// in-memory ledger with the same compare-and-swap semantics as mongo
type memLedger struct {
	mu  sync.Mutex
	txs map[string]*domain.Transaction
}

func newMemLedger() *memLedger {
	return &memLedger{txs: make(map[string]*domain.Transaction)}
}

func (m *memLedger) Create(_ context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.Status = domain.TransactionStatusPending
	cp := *tx
	m.txs[tx.CorrelationID] = &cp
	return nil
}

func (m *memLedger) FindByCorrelationID(_ context.Context, id string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *memLedger) Transition(_ context.Context, id string, from, to domain.TransactionStatus) (*domain.Transaction, error) {
	if !from.CanTransitionTo(to) {
		return nil, repository.ErrInvalidTransition
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	if tx.Status != from {
		cp := *tx
		return &cp, repository.ErrTransitionConflict
	}
	tx.Status = to
	cp := *tx
	return &cp, nil
}

func (m *memLedger) SetProviderRef(_ context.Context, id, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	tx.ProviderRef = ref
	return nil
}

type memOrders struct {
	mu     sync.Mutex
	ledger *memLedger
	byID   map[string]*domain.Order
	byRef  map[string]*domain.Order
}

func newMemOrders(ledger *memLedger) *memOrders {
	return &memOrders{
		ledger: ledger,
		byID:   make(map[string]*domain.Order),
		byRef:  make(map[string]*domain.Order),
	}
}

func (m *memOrders) Create(ctx context.Context, order *domain.Order) error {
	tx, err := m.ledger.FindByCorrelationID(ctx, order.PaymentRef)
	if err != nil {
		return repository.ErrPaymentRefNotFound
	}
	if tx.Amount.Total != order.TotalAmount {
		return repository.ErrOrderTotalMismatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	order.Status = domain.OrderStatusProcessing
	cp := *order
	m.byID[order.ID] = &cp
	m.byRef[order.PaymentRef] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.byID[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *memOrders) GetByPaymentRef(_ context.Context, ref string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.byRef[ref]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *memOrders) ListByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return repository.ErrInvalidOrderStatus
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.Status != from {
		return repository.ErrInvalidOrderStatus
	}
	o.Status = to
	return nil
}

type memCarts struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func newMemCarts() *memCarts {
	return &memCarts{carts: make(map[string]*domain.Cart)}
}

func (m *memCarts) put(cart *domain.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.UserID] = cart
}

func (m *memCarts) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}

func (m *memCarts) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[userID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, userID)
	return nil
}

func (m *memCarts) has(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.carts[userID]
	return ok
}

// missCache always misses; checkout correctness must not depend on redis
type missCache struct{}

func (missCache) Get(context.Context, string) (*domain.Cart, error) {
	return nil, cache.ErrCacheMiss
}
func (missCache) Set(context.Context, string, *domain.Cart) error { return nil }
func (missCache) Delete(context.Context, string) error            { return nil }

type memCatalog struct {
	products map[string]domain.Product
}

func (m *memCatalog) GetProducts(_ context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type memDeduper struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemDeduper() *memDeduper {
	return &memDeduper{held: make(map[string]bool)}
}

func (m *memDeduper) Acquire(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *memDeduper) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

// stubGateway stands in for a redirect-based provider.
type stubGateway struct {
	method     domain.PaymentMethod
	err        error
	dispatched []gateway.DispatchRequest
}

func (g *stubGateway) Method() domain.PaymentMethod { return g.method }

func (g *stubGateway) Dispatch(_ context.Context, req gateway.DispatchRequest) (*gateway.RedirectInstruction, error) {
	g.dispatched = append(g.dispatched, req)
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.RedirectInstruction{URL: "https://pay.example.com/" + req.CorrelationID, Method: "GET"}, nil
}
