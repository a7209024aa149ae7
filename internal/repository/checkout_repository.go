package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

// PlaceOrder freezes the client's cart, creates its order and provisions a
// fresh active cart for the same client, all in one transaction. The cart
// row is locked first so a concurrent add or a second checkout waits behind
// it. A cart owned by another client is reported as not found.
func (r *Repository) PlaceOrder(ctx context.Context, clientID, cartID, addressID int64) (domain.Placement, error) {
	var placement domain.Placement
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var status domain.CartStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM carts WHERE id = $1 AND client_id = $2 FOR UPDATE`, cartID, clientID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCartNotFound
		}
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if !status.CanTransitionTo(domain.CartStatusCheckedOut) {
			return ErrCartAlreadyCheckedOut
		}

		var hasItems bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM cart_items WHERE cart_id = $1)`, cartID).Scan(&hasItems); err != nil {
			return fmt.Errorf("check cart items: %w", err)
		}
		if !hasItems {
			return ErrEmptyCart
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE carts SET status = $2 WHERE id = $1 AND status = $3`,
			cartID, domain.CartStatusCheckedOut, domain.CartStatusActive)
		if err != nil {
			return fmt.Errorf("freeze cart: %w", err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("freeze cart: %w", err)
		} else if affected == 0 {
			return ErrCartAlreadyCheckedOut
		}

		p := domain.Placement{CartID: cartID, ClientID: clientID}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (cart_id, address_id, status) VALUES ($1, $2, $3) RETURNING id, placed_at`,
			cartID, addressID, domain.OrderStatusAwaitingPayment).Scan(&p.OrderID, &p.PlacedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCartAlreadyCheckedOut
			}
			return fmt.Errorf("insert order: %w", err)
		}

		if err := tx.QueryRowContext(ctx,
			`INSERT INTO carts (client_id, status) VALUES ($1, $2) RETURNING id`,
			clientID, domain.CartStatusActive).Scan(&p.NewCartID); err != nil {
			return fmt.Errorf("insert replacement cart: %w", err)
		}

		event := domain.OrderPlacedEvent{
			OrderID:   p.OrderID,
			CartID:    p.CartID,
			ClientID:  p.ClientID,
			AddressID: addressID,
			NewCartID: p.NewCartID,
			PlacedAt:  p.PlacedAt,
		}
		if err := insertEvent(ctx, tx, p.OrderID, domain.EventOrderPlaced, event); err != nil {
			return err
		}

		placement = p
		return nil
	})
	if err != nil {
		return domain.Placement{}, err
	}
	return placement, nil
}
