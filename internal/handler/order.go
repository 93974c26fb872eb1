package handler

import (
	"net/http"

	"github.com/shoply-dev/shoply/internal/api"
	"github.com/shoply-dev/shoply/internal/middleware/metrics"
	"github.com/shoply-dev/shoply/internal/utils"
)

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	order, err := h.order.Place(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	metrics.OrderPlaced()
	writeJSON(w, http.StatusCreated, orderResponse(order))
}

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	orders, err := h.order.History(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := api.OrderListResponse{Orders: make([]api.OrderResponse, 0, len(orders))}
	for _, order := range orders {
		resp.Orders = append(resp.Orders, orderResponse(order))
	}
	writeJSON(w, http.StatusOK, resp)
}
