package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shoply-dev/shoply/internal/config"
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/logger"
	mw "github.com/shoply-dev/shoply/internal/middleware"
	"github.com/shoply-dev/shoply/internal/service"
)

type Handler struct {
	auth    service.AuthService
	account service.AccountService
	catalog service.CatalogService
	cart    service.CartService
	order   service.OrderService
	health  Pinger
	cfg     *config.Config
}

func New(
	auth service.AuthService,
	account service.AccountService,
	catalog service.CatalogService,
	cart service.CartService,
	order service.OrderService,
	health Pinger,
	cfg *config.Config,
) *Handler {
	return &Handler{auth, account, catalog, cart, order, health, cfg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

// requireUser pulls the authenticated user out of the context. The auth
// middleware guarantees presence on protected routes; a nil here means a
// routing mistake, answered with 401 rather than a panic.
func requireUser(w http.ResponseWriter, r *http.Request) *domain.User {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return user
}
