package service

import (
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/errors"
	"github.com/shoply-dev/shoply/internal/logger"
)

type CartService interface {
	Add(userId domain.UserId, productId domain.ProductId, qty int64) (domain.Cart, error)
	Increase(userId domain.UserId, productId domain.ProductId) (domain.Cart, error)
	Decrease(userId domain.UserId, productId domain.ProductId) (domain.Cart, error)
	Remove(userId domain.UserId, productId domain.ProductId) (domain.Cart, error)
	Get(userId domain.UserId) (domain.Cart, error)
}

// CartStorage transitions are atomic per (user, product) pair: the storage
// layer owns the reserve/release protocol, the service owns input validation.
type CartStorage interface {
	AddToCart(userId domain.UserId, productId domain.ProductId, qty int64) error
	IncreaseQuantity(userId domain.UserId, productId domain.ProductId) error
	DecreaseQuantity(userId domain.UserId, productId domain.ProductId) error
	RemoveFromCart(userId domain.UserId, productId domain.ProductId) error
	Cart(userId domain.UserId) (domain.Cart, error)
}

type Cart struct {
	storage CartStorage
}

func NewCart(storage CartStorage) *Cart {
	return &Cart{storage: storage}
}

func (c *Cart) Add(userId domain.UserId, productId domain.ProductId, qty int64) (domain.Cart, error) {
	if qty < 1 {
		return domain.Cart{}, errors.Validation("Quantity must be a positive integer")
	}
	if err := c.storage.AddToCart(userId, productId, qty); err != nil {
		return domain.Cart{}, err
	}
	logger.Log.Debug("added to cart", "user_id", userId, "product_id", productId, "qty", qty)
	return c.storage.Cart(userId)
}

func (c *Cart) Increase(userId domain.UserId, productId domain.ProductId) (domain.Cart, error) {
	if err := c.storage.IncreaseQuantity(userId, productId); err != nil {
		return domain.Cart{}, err
	}
	return c.storage.Cart(userId)
}

func (c *Cart) Decrease(userId domain.UserId, productId domain.ProductId) (domain.Cart, error) {
	if err := c.storage.DecreaseQuantity(userId, productId); err != nil {
		return domain.Cart{}, err
	}
	return c.storage.Cart(userId)
}

func (c *Cart) Remove(userId domain.UserId, productId domain.ProductId) (domain.Cart, error) {
	if err := c.storage.RemoveFromCart(userId, productId); err != nil {
		return domain.Cart{}, err
	}
	return c.storage.Cart(userId)
}

func (c *Cart) Get(userId domain.UserId) (domain.Cart, error) {
	return c.storage.Cart(userId)
}
