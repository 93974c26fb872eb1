package service

import (
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/errors"
)

type CatalogService interface {
	Create(product domain.Product) (domain.ProductId, error)
	Get(id domain.ProductId) (domain.Product, error)
	List() ([]domain.Product, error)
}

type CatalogStorage interface {
	SaveProduct(product domain.Product) (domain.ProductId, error)
	Product(id domain.ProductId) (domain.Product, error)
	Products() ([]domain.Product, error)
}

// Catalog is the thin provisioning surface over the stock ledger. Catalog
// management proper (pricing, media, categories) belongs to a different
// system; this only exists to provision stock and read it back.
type Catalog struct {
	storage CatalogStorage
}

func NewCatalog(storage CatalogStorage) *Catalog {
	return &Catalog{storage: storage}
}

func (c *Catalog) Create(product domain.Product) (domain.ProductId, error) {
	if product.Name == "" {
		return -1, errors.Validation("Product name must not be empty")
	}
	if product.Price < 0 {
		return -1, errors.Validation("Price must not be negative")
	}
	if product.AvailableQuantity < 0 {
		return -1, errors.Validation("Available quantity must not be negative")
	}
	return c.storage.SaveProduct(product)
}

func (c *Catalog) Get(id domain.ProductId) (domain.Product, error) {
	return c.storage.Product(id)
}

func (c *Catalog) List() ([]domain.Product, error) {
	return c.storage.Products()
}
