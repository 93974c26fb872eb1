package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoply-dev/shoply/internal/api"
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/utils"
)

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	cart, err := h.cart.Get(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req api.AddToCartRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	cart, err := h.cart.Add(user.Id, req.ProductId, req.Quantity)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *Handler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.cartLineOp(w, r, h.cart.Increase)
}

func (h *Handler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.cartLineOp(w, r, h.cart.Decrease)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.cartLineOp(w, r, h.cart.Remove)
}

// cartLineOp handles the three single-line mutations, which differ only in
// the service call.
func (h *Handler) cartLineOp(w http.ResponseWriter, r *http.Request, op func(domain.UserId, domain.ProductId) (domain.Cart, error)) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	productId, err := parseIntParam(chi.URLParam(r, "product"), "product ID")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	cart, err := op(user.Id, productId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(cart))
}
