package http

import (
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

// Monetary fields carry minor units; the *_display twins are for people.

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type PlaceOrderRequestDTO struct {
	CartID    int64 `json:"cart_id"`
	AddressID int64 `json:"address_id"`
}

type RegisterPaymentRequestDTO struct {
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
}

type CartItemDTO struct {
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
	LineTotal      string `json:"line_total_display"`
}

type CartDTO struct {
	CartID     int64         `json:"cart_id"`
	ClientID   int64         `json:"client_id"`
	Status     string        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	Items      []CartItemDTO `json:"items"`
	TotalCents int64         `json:"total_cents"`
	Total      string        `json:"total_display"`
}

type CartResponseDTO struct {
	Cart *CartDTO `json:"cart"`
}

type AddItemResponseDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CartTotalDTO struct {
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total_display"`
}

type PlacementDTO struct {
	OrderID   int64     `json:"order_id"`
	CartID    int64     `json:"cart_id"`
	NewCartID int64     `json:"new_cart_id"`
	PlacedAt  time.Time `json:"placed_at"`
}

type PaymentResultDTO struct {
	PaymentID int64  `json:"payment_id"`
	DebtCents int64  `json:"debt_cents"`
	Debt      string `json:"debt_display"`
	Settled   bool   `json:"settled"`
}

type DebtDTO struct {
	OrderID   int64  `json:"order_id"`
	DebtCents int64  `json:"debt_cents"`
	Debt      string `json:"debt_display"`
}

type PaymentDTO struct {
	PaymentID   int64     `json:"payment_id"`
	Method      string    `json:"method"`
	PaidAt      time.Time `json:"paid_at"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount_display"`
}

type OrderBalanceDTO struct {
	OrderID    int64     `json:"order_id"`
	CartID     int64     `json:"cart_id"`
	AddressID  int64     `json:"address_id"`
	PlacedAt   time.Time `json:"placed_at"`
	Status     string    `json:"status"`
	TotalCents int64     `json:"total_cents"`
	PaidCents  int64     `json:"paid_cents"`
	DebtCents  int64     `json:"debt_cents"`
	Total      string    `json:"total_display"`
	Paid       string    `json:"paid_display"`
	Debt       string    `json:"debt_display"`
}

type ReceiptDTO struct {
	Order    OrderBalanceDTO `json:"order"`
	Lines    []CartItemDTO   `json:"lines"`
	Payments []PaymentDTO    `json:"payments"`
}

func toCartItemDTOs(items []domain.CartItem) []CartItemDTO {
	out := make([]CartItemDTO, 0, len(items))
	for _, item := range items {
		line := item.LineTotal()
		out = append(out, CartItemDTO{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: int64(item.UnitPrice),
			LineTotalCents: int64(line),
			LineTotal:      line.String(),
		})
	}
	return out
}

func toCartDTO(c *domain.CartContents) *CartDTO {
	total := c.Total()
	return &CartDTO{
		CartID:     c.Cart.ID,
		ClientID:   c.Cart.ClientID,
		Status:     c.Cart.Status.String(),
		CreatedAt:  c.Cart.CreatedAt,
		Items:      toCartItemDTOs(c.Items),
		TotalCents: int64(total),
		Total:      total.String(),
	}
}

func toOrderBalanceDTO(b domain.OrderBalance) OrderBalanceDTO {
	return OrderBalanceDTO{
		OrderID:    b.ID,
		CartID:     b.CartID,
		AddressID:  b.AddressID,
		PlacedAt:   b.PlacedAt,
		Status:     b.Status.String(),
		TotalCents: int64(b.Total),
		PaidCents:  int64(b.Paid),
		DebtCents:  int64(b.Debt),
		Total:      b.Total.String(),
		Paid:       b.Paid.String(),
		Debt:       b.Debt.String(),
	}
}

func toOrderBalanceDTOs(balances []domain.OrderBalance) []OrderBalanceDTO {
	out := make([]OrderBalanceDTO, 0, len(balances))
	for _, b := range balances {
		out = append(out, toOrderBalanceDTO(b))
	}
	return out
}

func toPaymentDTOs(payments []domain.Payment) []PaymentDTO {
	out := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		out = append(out, PaymentDTO{
			PaymentID:   p.ID,
			Method:      p.Method,
			PaidAt:      p.PaidAt,
			AmountCents: int64(p.Amount),
			Amount:      p.Amount.String(),
		})
	}
	return out
}
