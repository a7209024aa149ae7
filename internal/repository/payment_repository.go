package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

// RegisterPayment appends a payment and settles the order when its debt
// reaches zero. The order row lock serializes payments per order, so the
// debt read, the overpayment check and the insert see one consistent sum.
func (r *Repository) RegisterPayment(ctx context.Context, orderID int64, method string, amount domain.Money) (domain.PaymentResult, error) {
	var result domain.PaymentResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var status domain.OrderStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		var total, paid int64
		if err := tx.QueryRowContext(ctx,
			`SELECT total_cents, paid_cents FROM order_balances WHERE order_id = $1`, orderID).Scan(&total, &paid); err != nil {
			return fmt.Errorf("read order balance: %w", err)
		}
		debtBefore := domain.Money(total - paid)
		if amount > debtBefore {
			return fmt.Errorf("%w: amount %s, debt %s", ErrOverpaymentRejected, amount, debtBefore)
		}

		var paymentID int64
		var paidAt time.Time
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO payments (order_id, method, amount_cents) VALUES ($1, $2, $3) RETURNING id, paid_at`,
			orderID, method, int64(amount)).Scan(&paymentID, &paidAt); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		debtAfter := debtBefore - amount
		if err := insertEvent(ctx, tx, orderID, domain.EventPaymentRegistered, domain.PaymentRegisteredEvent{
			PaymentID:   paymentID,
			OrderID:     orderID,
			Method:      method,
			AmountCents: int64(amount),
			DebtCents:   int64(debtAfter),
			PaidAt:      paidAt,
		}); err != nil {
			return err
		}

		settled := status.IsTerminal()
		if debtAfter <= 0 && status.CanTransitionTo(domain.OrderStatusSettled) {
			if _, err := tx.ExecContext(ctx,
				`UPDATE orders SET status = $2 WHERE id = $1`, orderID, domain.OrderStatusSettled); err != nil {
				return fmt.Errorf("settle order: %w", err)
			}
			settled = true

			if err := insertEvent(ctx, tx, orderID, domain.EventOrderSettled, domain.OrderSettledEvent{
				OrderID:    orderID,
				TotalCents: total,
				SettledAt:  paidAt,
			}); err != nil {
				return err
			}
		}

		result = domain.PaymentResult{PaymentID: paymentID, Debt: debtAfter, Settled: settled}
		return nil
	})
	if err != nil {
		return domain.PaymentResult{}, err
	}
	return result, nil
}
