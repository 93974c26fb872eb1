package service

import (
	"github.com/shoply-dev/shoply/internal/config"
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/logger"
)

type OrderService interface {
	Place(userId domain.UserId) (domain.Order, error)
	History(userId domain.UserId) ([]domain.Order, error)
}

type OrderStorage interface {
	PlaceOrder(userId domain.UserId, deliveryFee domain.Price) (domain.Order, error)
	OrdersByUser(userId domain.UserId) ([]domain.Order, error)
}

type Order struct {
	storage OrderStorage
	cfg     *config.Config
}

func NewOrder(storage OrderStorage, cfg *config.Config) *Order {
	return &Order{storage: storage, cfg: cfg}
}

// Place converts the account's cart into a pending order. The cart drain and
// order creation commit together in storage; stock is untouched because every
// carted unit is already reserved.
func (o *Order) Place(userId domain.UserId) (domain.Order, error) {
	order, err := o.storage.PlaceOrder(userId, o.cfg.Public.DeliveryFee)
	if err != nil {
		return domain.Order{}, err
	}
	logger.Log.Info("order placed",
		"user_id", userId, "order_id", order.Id, "total", order.TotalPrice)
	return order, nil
}

func (o *Order) History(userId domain.UserId) ([]domain.Order, error) {
	return o.storage.OrdersByUser(userId)
}
