package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

// activeCartAttempts bounds how often ensureActiveCart re-runs the
// insert-or-lock sequence when a concurrent checkout swaps the active cart
// between the two statements.
const activeCartAttempts = 3

func (r *Repository) GetOrCreateActiveCart(ctx context.Context, clientID int64) (int64, error) {
	var cartID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := ensureActiveCart(ctx, tx, clientID)
		cartID = id
		return err
	})
	return cartID, err
}

func (r *Repository) AddItem(ctx context.Context, clientID, productID int64, quantity int) (int64, int, error) {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (cart_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	          RETURNING quantity`

	var cartID int64
	var newQuantity int
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := ensureActiveCart(ctx, tx, clientID)
		if err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx, query, id, productID, quantity).Scan(&newQuantity); err != nil {
			if isForeignKeyViolation(err) {
				return ErrProductNotFound
			}
			return fmt.Errorf("upsert cart item: %w", err)
		}
		cartID = id
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return cartID, newQuantity, nil
}

// SetItemQuantity overwrites the quantity of an existing line; zero removes it.
func (r *Repository) SetItemQuantity(ctx context.Context, clientID, productID int64, quantity int) (int64, error) {
	var cartID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := lockActiveCart(ctx, tx, clientID)
		if err != nil {
			return err
		}
		cartID = id

		if quantity == 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, id, productID); err != nil {
				return fmt.Errorf("delete cart item: %w", err)
			}
			return nil
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`, id, productID, quantity)
		if err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		if affected == 0 {
			return ErrItemNotFound
		}
		return nil
	})
	return cartID, err
}

func (r *Repository) RemoveItem(ctx context.Context, clientID, productID int64) (int64, error) {
	var cartID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := lockActiveCart(ctx, tx, clientID)
		if err != nil {
			return err
		}
		cartID = id

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, id, productID); err != nil {
			return fmt.Errorf("remove cart item: %w", err)
		}
		return nil
	})
	return cartID, err
}

func (r *Repository) ClearCart(ctx context.Context, clientID int64) (int64, error) {
	var cartID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := lockActiveCart(ctx, tx, clientID)
		if err != nil {
			return err
		}
		cartID = id

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, id); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	return cartID, err
}

func (r *Repository) GetActiveCart(ctx context.Context, clientID int64) (*domain.CartContents, error) {
	cartQuery := `SELECT id, client_id, status, created_at
	              FROM carts WHERE client_id = $1 AND status = 'ACTIVE'`

	var contents domain.CartContents
	err := r.db.QueryRowContext(ctx, cartQuery, clientID).Scan(
		&contents.Cart.ID,
		&contents.Cart.ClientID,
		&contents.Cart.Status,
		&contents.Cart.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveCart
	}
	if err != nil {
		return nil, fmt.Errorf("query active cart: %w", err)
	}

	items, err := cartLines(ctx, r.db, contents.Cart.ID)
	if err != nil {
		return nil, err
	}
	contents.Items = items
	return &contents, nil
}

func (r *Repository) ActiveCartTotal(ctx context.Context, clientID int64) (domain.Money, error) {
	query := `SELECT COALESCE(SUM(i.quantity::BIGINT * p.price_cents), 0)::BIGINT
	          FROM cart_items i
	          JOIN products p ON p.id = i.product_id
	          JOIN carts c ON c.id = i.cart_id
	          WHERE c.client_id = $1 AND c.status = 'ACTIVE'`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, clientID).Scan(&total); err != nil {
		return 0, fmt.Errorf("query cart total: %w", err)
	}
	return domain.Money(total), nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// cartLines joins a cart's items to the products' current name and price.
func cartLines(ctx context.Context, q queryer, cartID int64) ([]domain.CartItem, error) {
	query := `SELECT i.product_id, p.name, i.quantity, p.price_cents
	          FROM cart_items i
	          JOIN products p ON p.id = i.product_id
	          WHERE i.cart_id = $1
	          ORDER BY i.product_id`

	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		var price int64
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.UnitPrice = domain.Money(price)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// ensureActiveCart returns the client's active cart id, creating the cart
// if needed, and leaves the row locked by tx. The partial unique index on
// carts(client_id) WHERE status = 'ACTIVE' makes the insert the arbiter
// between concurrent callers.
func ensureActiveCart(ctx context.Context, tx *sql.Tx, clientID int64) (int64, error) {
	insert := `INSERT INTO carts (client_id, status) VALUES ($1, 'ACTIVE')
	           ON CONFLICT (client_id) WHERE status = 'ACTIVE' DO NOTHING
	           RETURNING id`

	for attempt := 0; attempt < activeCartAttempts; attempt++ {
		var id int64
		err := tx.QueryRowContext(ctx, insert, clientID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("insert active cart: %w", err)
		}

		id, err = lockActiveCart(ctx, tx, clientID)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNoActiveCart) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: active cart kept changing for client %d", ErrBusy, clientID)
}

func lockActiveCart(ctx context.Context, tx *sql.Tx, clientID int64) (int64, error) {
	query := `SELECT id FROM carts WHERE client_id = $1 AND status = 'ACTIVE' FOR UPDATE`

	var id int64
	err := tx.QueryRowContext(ctx, query, clientID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoActiveCart
	}
	if err != nil {
		return 0, fmt.Errorf("lock active cart: %w", err)
	}
	return id, nil
}
