package domain

import "time"

const (
	EventOrderPlaced       = "order.placed"
	EventPaymentRegistered = "payment.registered"
	EventOrderSettled      = "order.settled"
)

type OrderPlacedEvent struct {
	OrderID   int64     `json:"order_id"`
	CartID    int64     `json:"cart_id"`
	ClientID  int64     `json:"client_id"`
	AddressID int64     `json:"address_id"`
	NewCartID int64     `json:"new_cart_id"`
	PlacedAt  time.Time `json:"placed_at"`
}

type PaymentRegisteredEvent struct {
	PaymentID   int64     `json:"payment_id"`
	OrderID     int64     `json:"order_id"`
	Method      string    `json:"method"`
	AmountCents int64     `json:"amount_cents"`
	DebtCents   int64     `json:"debt_cents"`
	PaidAt      time.Time `json:"paid_at"`
}

type OrderSettledEvent struct {
	OrderID    int64     `json:"order_id"`
	TotalCents int64     `json:"total_cents"`
	SettledAt  time.Time `json:"settled_at"`
}
