package handler

import (
	"fmt"
	"strconv"

	"github.com/shoply-dev/shoply/internal/api"
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/errors"
)

func parseIntParam(value, name string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Validation(fmt.Sprintf("invalid %s: %s", name, value))
	}
	return id, nil
}

func cartResponse(cart domain.Cart) api.CartResponse {
	resp := api.CartResponse{Lines: make([]api.CartLineResponse, 0, len(cart.Lines))}
	for _, line := range cart.Lines {
		resp.Lines = append(resp.Lines, api.CartLineResponse{
			ProductId: line.ProductId,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}
	return resp
}

func orderResponse(order domain.Order) api.OrderResponse {
	return api.OrderResponse{
		Id:         order.Id,
		Reference:  order.Reference,
		Username:   order.Username,
		ProductIds: order.ProductIds,
		TotalPrice: order.TotalPrice,
		Status:     string(order.Status),
		CreatedAt:  order.CreatedAt,
	}
}

func productResponse(product domain.Product) api.ProductResponse {
	return api.ProductResponse{
		Id:                product.Id,
		Name:              product.Name,
		Price:             product.Price,
		AvailableQuantity: product.AvailableQuantity,
	}
}
