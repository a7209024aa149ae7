package http

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

type CartServiceMock struct {
	contents    *domain.CartContents
	found       bool
	quantity    int
	total       domain.Money
	err         error
	lastClient  int64
	lastProduct int64
	lastQty     int
}

func (m *CartServiceMock) GetCartContents(_ context.Context, clientID int64) (*domain.CartContents, bool, error) {
	m.lastClient = clientID
	return m.contents, m.found, m.err
}

func (m *CartServiceMock) AddItem(_ context.Context, clientID, productID int64, quantity int) (int, error) {
	m.lastClient, m.lastProduct, m.lastQty = clientID, productID, quantity
	return m.quantity, m.err
}

func (m *CartServiceMock) SetItemQuantity(_ context.Context, clientID, productID int64, quantity int) error {
	m.lastClient, m.lastProduct, m.lastQty = clientID, productID, quantity
	return m.err
}

func (m *CartServiceMock) RemoveItem(_ context.Context, clientID, productID int64) error {
	m.lastClient, m.lastProduct = clientID, productID
	return m.err
}

func (m *CartServiceMock) ClearCart(_ context.Context, clientID int64) error {
	m.lastClient = clientID
	return m.err
}

func (m *CartServiceMock) CartTotal(_ context.Context, clientID int64) (domain.Money, error) {
	m.lastClient = clientID
	return m.total, m.err
}

type CheckoutServiceMock struct {
	placement  domain.Placement
	err        error
	lastClient int64
}

func (m *CheckoutServiceMock) PlaceOrder(_ context.Context, clientID, cartID, _ int64) (domain.Placement, error) {
	m.lastClient = clientID
	p := m.placement
	p.CartID = cartID
	return p, m.err
}

type PaymentServiceMock struct {
	result     domain.PaymentResult
	debt       domain.Money
	payments   []domain.Payment
	err        error
	lastOrder  int64
	lastAmount domain.Money
}

func (m *PaymentServiceMock) RegisterPayment(_ context.Context, orderID int64, _ string, amount domain.Money) (domain.PaymentResult, error) {
	m.lastOrder, m.lastAmount = orderID, amount
	return m.result, m.err
}

func (m *PaymentServiceMock) GetDebt(_ context.Context, orderID int64) (domain.Money, error) {
	m.lastOrder = orderID
	return m.debt, m.err
}

func (m *PaymentServiceMock) GetOrderPayments(_ context.Context, orderID int64) ([]domain.Payment, error) {
	m.lastOrder = orderID
	return m.payments, m.err
}

type QueryServiceMock struct {
	outstanding []domain.OrderBalance
	settled     []domain.OrderBalance
	receipt     *domain.Receipt
	err         error
}

func (m *QueryServiceMock) OutstandingOrders(context.Context, int64) ([]domain.OrderBalance, error) {
	return m.outstanding, m.err
}

func (m *QueryServiceMock) SettledPurchases(context.Context, int64) ([]domain.OrderBalance, error) {
	return m.settled, m.err
}

func (m *QueryServiceMock) Receipt(context.Context, int64) (*domain.Receipt, error) {
	return m.receipt, m.err
}

type PingerMock struct {
	down bool
}

func (p PingerMock) Ping(context.Context) error {
	if p.down {
		return errors.New("connection refused")
	}
	return nil
}
