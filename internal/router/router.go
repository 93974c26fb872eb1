// Package router builds the HTTP route tree.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/shoply-dev/shoply/internal/middleware"
	"github.com/shoply-dev/shoply/internal/middleware/metrics"
	rl "github.com/shoply-dev/shoply/internal/middleware/ratelimiter"
	"github.com/shoply-dev/shoply/internal/setup"
)

// New configures the chi router with all routes.
// Limiters attached with Use apply to every endpoint of that group combined.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Catalog reads are public
		r.Get("/products", h.ListProducts)
		r.Get("/products/{product}", h.GetProduct)

		r.Route("/auth", func(r chi.Router) {
			// Email-dispatching endpoints, tight limits to protect the SMTP relay
			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimit(rl.New(1.0/10, 2, 1*time.Hour), mw.GetEmailFromBody))
				r.Use(mw.RateLimit(rl.New(1.0/10, 2, 1*time.Hour), mw.GetIP))
				r.Post("/register", h.Register)
				r.Post("/resend_code", h.ResendVerification)
			})

			// Code verification, stricter to resist brute force on 6 digits
			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimit(rl.New(5.0/600.0, 5, 1*time.Hour), mw.GetEmailFromBody))
				r.Use(mw.RateLimit(rl.New(1, 3, 1*time.Hour), mw.GetIP))
				r.Post("/verify", h.VerifyEmail)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimit(rl.New(1, 3, 1*time.Hour), mw.GetIP))
				r.Post("/login", h.Login)
			})

			r.Post("/logout", h.Logout)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMw.NeedAuth())
			r.Use(mw.RateLimit(rl.New(100, 100, 1*time.Hour), mw.GetUserIDFromContext))

			r.Get("/me", h.Me)
			r.Patch("/me", h.UpdateProfile)
			r.Delete("/me", h.DeleteAccount)

			r.Get("/cart", h.GetCart)
			r.Post("/cart", h.AddToCart)
			r.Post("/cart/{product}/increase", h.IncreaseQuantity)
			r.Post("/cart/{product}/decrease", h.DecreaseQuantity)
			r.Delete("/cart/{product}", h.RemoveFromCart)

			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.OrderHistory)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMw.AdminOnly())
			r.Post("/admin/products", h.CreateProduct)
			r.Delete("/admin/users/{user}", h.DeleteUser)
		})
	})

	// Avoid 404s for CORS preflight on unregistered paths
	r.MethodFunc(http.MethodOptions, "/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
