package pg

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shoply-dev/shoply/internal/domain"
	internal_errors "github.com/shoply-dev/shoply/internal/errors"
)

// Cart mutations. Each one is a single transaction over exactly one
// (user, product) pair:
//
//   - the conditional UPDATE on products serializes concurrent mutations of
//     the same product (row lock) and rejects reservations that would drive
//     available_quantity negative, closing the read-check-write race;
//   - FOR SHARE on the user row lets mutations on the same account run
//     concurrently with each other while excluding PlaceOrder, which takes
//     the same row FOR UPDATE.
//
// Mutations on different (user, product) pairs touch disjoint rows and never
// block each other.

var errNotInCart = &internal_errors.ErrorWithStatusCode{
	Kind:       internal_errors.KindNotFound,
	Message:    "Product not in cart",
	StatusCode: http.StatusNotFound,
}

// AddToCart reserves qty units of the product and merges them into the
// account's line for it. Only the delta is taken from stock; the merged line
// never exceeds what was physically available plus the account's own prior
// reservation.
func (s *Storage) AddToCart(userId domain.UserId, productId domain.ProductId, qty int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockUserShared(tx, userId); err != nil {
			return err
		}
		if err := s.reserveStock(tx, productId, qty); err != nil {
			return err
		}
		_, err := tx.Exec(`
            INSERT INTO cart_lines(user_id, product_id, quantity)
            VALUES($1, $2, $3)
            ON CONFLICT (user_id, product_id)
            DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity`,
			userId, productId, qty)
		if err != nil {
			return fmt.Errorf("failed to upsert cart line: %w", err)
		}
		return nil
	})
}

// IncreaseQuantity adds one unit to an existing line.
func (s *Storage) IncreaseQuantity(userId domain.UserId, productId domain.ProductId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockUserShared(tx, userId); err != nil {
			return err
		}
		result, err := tx.Exec(`
            UPDATE cart_lines SET quantity = quantity + 1
            WHERE user_id = $1 AND product_id = $2`, userId, productId)
		if err != nil {
			return fmt.Errorf("failed to increase cart line: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return errNotInCart
		}

		result, err = tx.Exec(`
            UPDATE products SET available_quantity = available_quantity - 1
            WHERE id = $1 AND available_quantity >= 1`, productId)
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			if err := s.productExists(tx, productId); err != nil {
				return err
			}
			return &internal_errors.ErrorWithStatusCode{
				Kind:       internal_errors.KindOutOfStock,
				Message:    "Product is out of stock",
				StatusCode: http.StatusBadRequest,
			}
		}
		return nil
	})
}

// DecreaseQuantity removes one unit from an existing line and returns it to
// stock. A line at quantity 1 stays at 1 and stock is untouched.
func (s *Storage) DecreaseQuantity(userId domain.UserId, productId domain.ProductId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockUserShared(tx, userId); err != nil {
			return err
		}
		result, err := tx.Exec(`
            UPDATE cart_lines SET quantity = quantity - 1
            WHERE user_id = $1 AND product_id = $2 AND quantity > 1`, userId, productId)
		if err != nil {
			return fmt.Errorf("failed to decrease cart line: %w", err)
		}
		n, _ := result.RowsAffected()
		if n == 0 {
			// Either no line, or quantity is already at the floor of 1.
			var quantity int64
			err := tx.QueryRow(`
                SELECT quantity FROM cart_lines
                WHERE user_id = $1 AND product_id = $2`, userId, productId).Scan(&quantity)
			if stderrors.Is(err, sql.ErrNoRows) {
				return errNotInCart
			}
			if err != nil {
				return fmt.Errorf("failed to query cart line: %w", err)
			}
			return nil // floor: quantity 1 stays, no stock movement
		}

		return s.releaseStock(tx, productId, 1)
	})
}

// RemoveFromCart deletes the line and returns its whole reservation to stock.
func (s *Storage) RemoveFromCart(userId domain.UserId, productId domain.ProductId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockUserShared(tx, userId); err != nil {
			return err
		}
		var quantity int64
		err := tx.QueryRow(`
            DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2
            RETURNING quantity`, userId, productId).Scan(&quantity)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errNotInCart
		}
		if err != nil {
			return fmt.Errorf("failed to delete cart line: %w", err)
		}

		return s.releaseStock(tx, productId, quantity)
	})
}

// Cart returns the account's lines in insertion order with current catalog
// name and price joined in. Single-statement read: a concurrent checkout is
// seen either not at all or as a fully drained cart.
func (s *Storage) Cart(userId domain.UserId) (domain.Cart, error) {
	if _, err := s.UserById(userId); err != nil {
		return domain.Cart{}, err
	}

	rows, err := s.db.Query(`
        SELECT cl.product_id, COALESCE(p.name, ''), COALESCE(p.price, 0), cl.quantity
        FROM cart_lines cl
        LEFT JOIN products p ON p.id = cl.product_id
        WHERE cl.user_id = $1
        ORDER BY cl.position`, userId)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var cart domain.Cart
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductId, &line.Name, &line.Price, &line.Quantity); err != nil {
			return domain.Cart{}, fmt.Errorf("failed to scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, rows.Err()
}

// =========================================================================
// Internal helpers
// =========================================================================

func (s *Storage) lockUserShared(tx *sql.Tx, userId domain.UserId) error {
	var one int
	err := tx.QueryRow("SELECT 1 FROM users WHERE id = $1 FOR SHARE", userId).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return internal_errors.NotFound("User not found")
	}
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

// reserveStock takes qty units out of available stock, failing when the
// product is missing or the reservation would oversell.
func (s *Storage) reserveStock(tx *sql.Tx, productId domain.ProductId, qty int64) error {
	result, err := tx.Exec(`
        UPDATE products SET available_quantity = available_quantity - $2
        WHERE id = $1 AND available_quantity >= $2`, productId, qty)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if err := s.productExists(tx, productId); err != nil {
			return err
		}
		return &internal_errors.ErrorWithStatusCode{
			Kind:       internal_errors.KindInsufficientStock,
			Message:    "Quantity exceeds stock",
			StatusCode: http.StatusBadRequest,
		}
	}
	return nil
}

func (s *Storage) releaseStock(tx *sql.Tx, productId domain.ProductId, qty int64) error {
	result, err := tx.Exec(`
        UPDATE products SET available_quantity = available_quantity + $2
        WHERE id = $1`, productId, qty)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return internal_errors.NotFound("Product not found")
	}
	return nil
}

func (s *Storage) productExists(tx *sql.Tx, productId domain.ProductId) error {
	var one int
	err := tx.QueryRow("SELECT 1 FROM products WHERE id = $1", productId).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return internal_errors.NotFound("Product not found")
	}
	if err != nil {
		return fmt.Errorf("failed to query product: %w", err)
	}
	return nil
}
