package pg

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/shoply-dev/shoply/internal/domain"
	internal_errors "github.com/shoply-dev/shoply/internal/errors"
)

// SaveProduct provisions a product and its initial stock.
func (s *Storage) SaveProduct(product domain.Product) (domain.ProductId, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id domain.ProductId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRow(`
            INSERT INTO products(name, price, available_quantity)
            VALUES($1, $2, $3) RETURNING id`,
			product.Name, product.Price, product.AvailableQuantity,
		).Scan(&id)
	})
	if err != nil {
		return -1, fmt.Errorf("failed to insert product: %w", err)
	}
	return id, nil
}

func (s *Storage) Product(id domain.ProductId) (domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRow(`
        SELECT id, name, price, available_quantity FROM products WHERE id = $1`, id,
	).Scan(&p.Id, &p.Name, &p.Price, &p.AvailableQuantity)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, internal_errors.NotFound("Product not found")
		}
		return domain.Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (s *Storage) Products() ([]domain.Product, error) {
	rows, err := s.db.Query(`SELECT id, name, price, available_quantity FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Id, &p.Name, &p.Price, &p.AvailableQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// DeleteProduct exists for the catalog collaborator; live cart reservations
// referencing the product become inconsistent and are rejected at checkout.
func (s *Storage) DeleteProduct(id domain.ProductId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM products WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return requireRows(result, "Product not found")
	})
}
