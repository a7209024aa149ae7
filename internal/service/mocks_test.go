package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fjod/go_cart/settlement-service/internal/cache"
	"github.com/fjod/go_cart/settlement-service/internal/domain"
	"github.com/fjod/go_cart/settlement-service/internal/repository"
)

type mockCartRepository struct {
	m        sync.Mutex
	contents *domain.CartContents
	onGet    func()
	total    domain.Money
	err      error
	getCalls atomic.Int32
	calls    []string
}

func (m *mockCartRepository) record(call string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, call)
	return m.err
}

func (m *mockCartRepository) GetOrCreateActiveCart(context.Context, int64) (int64, error) {
	if err := m.record("get_or_create"); err != nil {
		return 0, err
	}
	return 1, nil
}

func (m *mockCartRepository) AddItem(_ context.Context, _ int64, _ int64, quantity int) (int64, int, error) {
	if err := m.record("add"); err != nil {
		return 0, 0, err
	}
	return 1, quantity, nil
}

func (m *mockCartRepository) SetItemQuantity(context.Context, int64, int64, int) (int64, error) {
	if err := m.record("set"); err != nil {
		return 0, err
	}
	return 1, nil
}

func (m *mockCartRepository) RemoveItem(context.Context, int64, int64) (int64, error) {
	if err := m.record("remove"); err != nil {
		return 0, err
	}
	return 1, nil
}

func (m *mockCartRepository) ClearCart(context.Context, int64) (int64, error) {
	if err := m.record("clear"); err != nil {
		return 0, err
	}
	return 1, nil
}

// GetActiveCart snapshots the contents before running onGet, so onGet can
// commit a change that this load does not see.
func (m *mockCartRepository) GetActiveCart(context.Context, int64) (*domain.CartContents, error) {
	m.getCalls.Add(1)
	m.m.Lock()
	contents, err, hook := m.contents, m.err, m.onGet
	m.onGet = nil
	m.m.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	if contents == nil {
		return nil, repository.ErrNoActiveCart
	}
	return contents, nil
}

func (m *mockCartRepository) setContents(contents *domain.CartContents) {
	m.m.Lock()
	defer m.m.Unlock()
	m.contents = contents
}

func (m *mockCartRepository) ActiveCartTotal(context.Context, int64) (domain.Money, error) {
	m.m.Lock()
	defer m.m.Unlock()
	return m.total, m.err
}

func (m *mockCartRepository) callCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.calls)
}

type mockCache struct {
	m           sync.Mutex
	entries     map[int64]*domain.CartContents
	generations map[int64]int64
	getErr      error
	deletes     []int64
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[int64]*domain.CartContents{}, generations: map[int64]int64{}}
}

func (c *mockCache) Get(_ context.Context, clientID int64) (*domain.CartContents, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.entries[clientID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *mockCache) Generation(_ context.Context, clientID int64) (int64, error) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.generations[clientID], nil
}

func (c *mockCache) Set(_ context.Context, clientID, generation int64, contents *domain.CartContents) error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.generations[clientID] != generation {
		return cache.ErrStaleGeneration
	}
	c.entries[clientID] = contents
	return nil
}

func (c *mockCache) Delete(_ context.Context, clientID int64) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.generations[clientID]++
	delete(c.entries, clientID)
	c.deletes = append(c.deletes, clientID)
	return nil
}

func (c *mockCache) entry(clientID int64) (*domain.CartContents, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	v, ok := c.entries[clientID]
	return v, ok
}

func (c *mockCache) deleted() []int64 {
	c.m.Lock()
	defer c.m.Unlock()
	return append([]int64(nil), c.deletes...)
}

type mockCheckoutRepository struct {
	placement domain.Placement
	err       error
	calls     int
}

func (m *mockCheckoutRepository) PlaceOrder(_ context.Context, _, cartID, _ int64) (domain.Placement, error) {
	m.calls++
	if m.err != nil {
		return domain.Placement{}, m.err
	}
	p := m.placement
	p.CartID = cartID
	return p, nil
}

type mockInvalidator struct {
	clients []int64
}

func (m *mockInvalidator) InvalidateCart(clientID int64) {
	m.clients = append(m.clients, clientID)
}

type mockPaymentRepository struct {
	result domain.PaymentResult
	err    error
	calls  int
	method string
}

func (m *mockPaymentRepository) RegisterPayment(_ context.Context, _ int64, method string, _ domain.Money) (domain.PaymentResult, error) {
	m.calls++
	m.method = method
	return m.result, m.err
}

type mockQueryRepository struct {
	balances map[int64]*domain.OrderBalance
	byClient []domain.OrderBalance
	payments []domain.Payment
	lines    []domain.CartItem
	err      error
	status   domain.OrderStatus
}

func (m *mockQueryRepository) OrderBalance(_ context.Context, orderID int64) (*domain.OrderBalance, error) {
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.balances[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return b, nil
}

func (m *mockQueryRepository) ClientOrderBalances(_ context.Context, _ int64, status domain.OrderStatus) ([]domain.OrderBalance, error) {
	m.status = status
	return m.byClient, m.err
}

func (m *mockQueryRepository) OrderPayments(_ context.Context, orderID int64) ([]domain.Payment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.balances[orderID]; !ok {
		return nil, repository.ErrOrderNotFound
	}
	return m.payments, nil
}

func (m *mockQueryRepository) OrderLines(_ context.Context, orderID int64) ([]domain.CartItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.balances[orderID]; !ok {
		return nil, repository.ErrOrderNotFound
	}
	return m.lines, nil
}
