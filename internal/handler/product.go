package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoply-dev/shoply/internal/api"
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/utils"
)

// CreateProduct provisions a product with its sellable stock. Admin only.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req api.CreateProductRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.catalog.Create(domain.Product{
		Name:              req.Name,
		Price:             req.Price,
		AvailableQuantity: req.AvailableQuantity,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.ProductResponse{
		Id:                id,
		Name:              req.Name,
		Price:             req.Price,
		AvailableQuantity: req.AvailableQuantity,
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productId, err := parseIntParam(chi.URLParam(r, "product"), "product ID")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	product, err := h.catalog.Get(productId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, productResponse(product))
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := make([]api.ProductResponse, 0, len(products))
	for _, product := range products {
		resp = append(resp, productResponse(product))
	}
	writeJSON(w, http.StatusOK, resp)
}
