package domain

import "time"

type Cart struct {
	ID        int64      `json:"id"`
	ClientID  int64      `json:"client_id"`
	Status    CartStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartItem is a cart line joined with the product's current name and price.
type CartItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
}

func (i CartItem) LineTotal() Money {
	return i.UnitPrice * Money(i.Quantity)
}

type CartContents struct {
	Cart  Cart       `json:"cart"`
	Items []CartItem `json:"items"`
}

func (c *CartContents) Total() Money {
	var total Money
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}
