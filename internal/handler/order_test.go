package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoply-dev/shoply/internal/api"
	"github.com/shoply-dev/shoply/internal/config"
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/errors"
)

func newOrderRouter(h *Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Post("/v1/orders", asUser(testUser, h.PlaceOrder))
	router.Get("/v1/orders", asUser(testUser, h.OrderHistory))
	return router
}

func TestPlaceOrderHandler(t *testing.T) {
	h := &Handler{cfg: &config.Config{}}
	router := newOrderRouter(h)

	t.Run("successful checkout", func(t *testing.T) {
		h.order = &MockOrderService{
			PlaceFunc: func(userId domain.UserId) (domain.Order, error) {
				assert.Equal(t, testUser.Id, userId)
				return domain.Order{
					Id:         11,
					Reference:  "7c9e6679-7425-40de-944b-e07fc1f90ae7",
					UserId:     userId,
					Username:   "tester",
					ProductIds: []domain.ProductId{1, 2},
					TotalPrice: 2800,
					Status:     domain.OrderPending,
					CreatedAt:  time.Now().UTC(),
				}, nil
			},
		}

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, createRequest(t, http.MethodPost, "/v1/orders", nil))

		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp api.OrderResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, int64(11), resp.Id)
		assert.Equal(t, int64(2800), resp.TotalPrice)
		assert.Equal(t, "Pending", resp.Status)
	})

	t.Run("empty cart", func(t *testing.T) {
		h.order = &MockOrderService{
			PlaceFunc: func(userId domain.UserId) (domain.Order, error) {
				return domain.Order{}, &errors.ErrorWithStatusCode{
					Kind: errors.KindEmptyCart, Message: "Cart is empty", StatusCode: http.StatusBadRequest,
				}
			},
		}

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, createRequest(t, http.MethodPost, "/v1/orders", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var resp struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, errors.KindEmptyCart, resp.Kind)
	})

	t.Run("inconsistent cart", func(t *testing.T) {
		h.order = &MockOrderService{
			PlaceFunc: func(userId domain.UserId) (domain.Order, error) {
				return domain.Order{}, &errors.ErrorWithStatusCode{
					Kind: errors.KindInconsistentCart, Message: "Cart references a missing product", StatusCode: http.StatusConflict,
				}
			},
		}

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, createRequest(t, http.MethodPost, "/v1/orders", nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestOrderHistoryHandler(t *testing.T) {
	h := &Handler{cfg: &config.Config{}}
	router := newOrderRouter(h)

	h.order = &MockOrderService{
		HistoryFunc: func(userId domain.UserId) ([]domain.Order, error) {
			return []domain.Order{
				{Id: 2, TotalPrice: 800, Status: domain.OrderPending},
				{Id: 1, TotalPrice: 1300, Status: domain.OrderAccepted},
			}, nil
		},
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, createRequest(t, http.MethodGet, "/v1/orders", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp api.OrderListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 2)
	assert.Equal(t, int64(2), resp.Orders[0].Id)
	assert.Equal(t, "Accepted", resp.Orders[1].Status)
}
