package pg

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shoply-dev/shoply/internal/domain"
	internal_errors "github.com/shoply-dev/shoply/internal/errors"
	"github.com/shoply-dev/shoply/internal/logger"
)

// PlaceOrder converts the whole cart into an order in one transaction:
// FOR UPDATE on the user row excludes concurrent cart mutations for this
// account, the cart is read and priced, the order is written and the cart
// drained together. Stock is not touched — every unit in the cart is already
// reserved, so consuming the cart consumes the reservation.
func (s *Storage) PlaceOrder(userId domain.UserId, deliveryFee domain.Price) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var order domain.Order
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var username string
		err := tx.QueryRow("SELECT username FROM users WHERE id = $1 FOR UPDATE", userId).Scan(&username)
		if stderrors.Is(err, sql.ErrNoRows) {
			return internal_errors.NotFound("User not found")
		}
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		rows, err := tx.Query(`
            SELECT cl.product_id, cl.quantity, p.price
            FROM cart_lines cl
            LEFT JOIN products p ON p.id = cl.product_id
            WHERE cl.user_id = $1
            ORDER BY cl.position`, userId)
		if err != nil {
			return fmt.Errorf("failed to query cart: %w", err)
		}

		var productIds []domain.ProductId
		var total domain.Price
		for rows.Next() {
			var productId domain.ProductId
			var quantity int64
			var price sql.NullInt64
			if err := rows.Scan(&productId, &quantity, &price); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan cart line: %w", err)
			}
			if !price.Valid {
				rows.Close()
				logger.Log.Error("cart references product missing from catalog",
					"user_id", userId, "product_id", productId)
				return &internal_errors.ErrorWithStatusCode{
					Kind:       internal_errors.KindInconsistentCart,
					Message:    "Cart references a product no longer in the catalog",
					StatusCode: http.StatusConflict,
				}
			}
			productIds = append(productIds, productId)
			total += price.Int64 * quantity
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read cart: %w", err)
		}

		if len(productIds) == 0 {
			return &internal_errors.ErrorWithStatusCode{
				Kind:       internal_errors.KindEmptyCart,
				Message:    "Cart is empty",
				StatusCode: http.StatusBadRequest,
			}
		}
		total += deliveryFee

		order = domain.Order{
			Reference:  uuid.NewString(),
			UserId:     userId,
			Username:   username,
			ProductIds: productIds,
			TotalPrice: total,
			Status:     domain.OrderPending,
		}
		err = tx.QueryRow(`
            INSERT INTO orders(reference, user_id, username, total_price, status)
            VALUES($1, $2, $3, $4, $5) RETURNING id, (created_at at time zone 'utc')`,
			order.Reference, order.UserId, order.Username, order.TotalPrice, order.Status,
		).Scan(&order.Id, &order.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for ordinal, productId := range productIds {
			if _, err := tx.Exec(`
                INSERT INTO order_products(order_id, ordinal, product_id)
                VALUES($1, $2, $3)`, order.Id, ordinal, productId); err != nil {
				return fmt.Errorf("failed to insert order product: %w", err)
			}
		}

		if _, err := tx.Exec("DELETE FROM cart_lines WHERE user_id = $1", userId); err != nil {
			return fmt.Errorf("failed to drain cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// OrdersByUser returns the account's order history, newest first.
func (s *Storage) OrdersByUser(userId domain.UserId) ([]domain.Order, error) {
	if _, err := s.UserById(userId); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
        SELECT o.id, o.reference, o.user_id, o.username, o.total_price, o.status,
               (o.created_at at time zone 'utc'),
               COALESCE(array_agg(op.product_id ORDER BY op.ordinal)
                        FILTER (WHERE op.product_id IS NOT NULL), '{}')
        FROM orders o
        LEFT JOIN order_products op ON op.order_id = o.id
        WHERE o.user_id = $1
        GROUP BY o.id
        ORDER BY o.created_at DESC, o.id DESC`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var productIds pq.Int64Array
		if err := rows.Scan(&o.Id, &o.Reference, &o.UserId, &o.Username, &o.TotalPrice,
			&o.Status, &o.CreatedAt, &productIds); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.ProductIds = productIds
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
