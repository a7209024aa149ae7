package domain

import "time"

type Order struct {
	ID        int64
	CartID    int64
	ClientID  int64
	AddressID int64
	PlacedAt  time.Time
	Status    OrderStatus
}

// OrderBalance is an order with its derived totals. Total follows current
// product prices, so it can move if the catalog is repriced after checkout.
type OrderBalance struct {
	Order
	Total Money
	Paid  Money
	Debt  Money
}

// Placement is the result of a checkout: the new order and the fresh cart
// provisioned for the same client.
type Placement struct {
	OrderID   int64
	CartID    int64
	NewCartID int64
	ClientID  int64
	PlacedAt  time.Time
}

type Payment struct {
	ID      int64
	OrderID int64
	Method  string
	PaidAt  time.Time
	Amount  Money
}

type PaymentResult struct {
	PaymentID int64
	Debt      Money
	Settled   bool
}

// Receipt carries everything a receipt renderer needs for one order.
type Receipt struct {
	Balance  OrderBalance
	Lines    []CartItem
	Payments []Payment
}
