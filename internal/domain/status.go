package domain

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
)

// CanTransitionTo reports whether a cart may move from s to next.
// A cart is checked out exactly once and never reopened.
func (s CartStatus) CanTransitionTo(next CartStatus) bool {
	return s == CartStatusActive && next == CartStatusCheckedOut
}

func (s CartStatus) String() string {
	return string(s)
}

type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusSettled         OrderStatus = "SETTLED"
)

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusAwaitingPayment && next == OrderStatusSettled
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusSettled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}
