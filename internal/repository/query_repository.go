package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

const balanceColumns = `order_id, client_id, cart_id, address_id, placed_at, status,
	total_cents, paid_cents, debt_cents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBalance(row rowScanner) (domain.OrderBalance, error) {
	var b domain.OrderBalance
	var total, paid, debt int64
	err := row.Scan(
		&b.ID,
		&b.ClientID,
		&b.CartID,
		&b.AddressID,
		&b.PlacedAt,
		&b.Status,
		&total,
		&paid,
		&debt,
	)
	b.Total, b.Paid, b.Debt = domain.Money(total), domain.Money(paid), domain.Money(debt)
	return b, err
}

func (r *Repository) OrderBalance(ctx context.Context, orderID int64) (*domain.OrderBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM order_balances WHERE order_id = $1`

	b, err := scanBalance(r.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order balance: %w", err)
	}
	return &b, nil
}

// ClientOrderBalances lists a client's orders in the given status, newest first.
func (r *Repository) ClientOrderBalances(ctx context.Context, clientID int64, status domain.OrderStatus) ([]domain.OrderBalance, error) {
	query := `SELECT ` + balanceColumns + `
	          FROM order_balances
	          WHERE client_id = $1 AND status = $2
	          ORDER BY placed_at DESC, order_id DESC`

	rows, err := r.db.QueryContext(ctx, query, clientID, status)
	if err != nil {
		return nil, fmt.Errorf("query client orders: %w", err)
	}
	defer rows.Close()

	balances := make([]domain.OrderBalance, 0)
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order balance: %w", err)
		}
		balances = append(balances, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return balances, nil
}

// OrderPayments lists payments in commit order. paid_at can collide, the
// sequence-assigned id cannot.
func (r *Repository) OrderPayments(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	if err := r.orderExists(ctx, orderID); err != nil {
		return nil, err
	}

	query := `SELECT id, order_id, method, paid_at, amount_cents
	          FROM payments WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		var amount int64
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.PaidAt, &amount); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount = domain.Money(amount)
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return payments, nil
}

// OrderLines returns the frozen cart manifest of an order priced at current
// product prices.
func (r *Repository) OrderLines(ctx context.Context, orderID int64) ([]domain.CartItem, error) {
	var cartID int64
	err := r.db.QueryRowContext(ctx, `SELECT cart_id FROM orders WHERE id = $1`, orderID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order cart: %w", err)
	}
	return cartLines(ctx, r.db, cartID)
}

func (r *Repository) orderExists(ctx context.Context, orderID int64) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return nil
}
