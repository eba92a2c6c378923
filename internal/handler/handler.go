package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/service"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// LoginLimiter throttles repeated failed logins for one username.
type LoginLimiter interface {
	Blocked(ctx context.Context, username string) (time.Duration, error)
	RegisterFailure(ctx context.Context, username string) (int, error)
	Reset(ctx context.Context, username string) error
}

type Config struct {
	CORSAllowedOrigins []string
	// LoginLimiter is optional; logins are not throttled without it.
	LoginLimiter LoginLimiter
}

type Handler struct {
	router  *chi.Mux
	svc     *service.Services
	limiter LoginLimiter
}

func NewHandler(svc *service.Services, cfg Config) *Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After", "X-Request-Id"},
		MaxAge:         300,
	}))

	compressor := middleware.NewCompressor(5, "application/json", "text/plain")
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	router.Use(compressor.Handler)

	h := &Handler{
		router:  router,
		svc:     svc,
		limiter: cfg.LoginLimiter,
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	r := h.router

	// Public
	r.Get("/", h.Home)
	r.Get("/health", h.HealthCheck)
	r.Post("/users", h.Signup)
	r.With(h.throttleLogin).Post("/login", h.Login)
	r.Get("/categories", h.ListCategories)
	r.Get("/products", h.ListProducts)
	r.Get("/products/category/{categoryID}", h.ListProductsByCategory)
	r.Get("/products/{productID}", h.GetProduct)
	r.Get("/reviews/{productID}", h.ListReviews)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		// User
		r.Get("/me", h.Me)
		r.Put("/users", h.UpdateMe)
		r.Delete("/users", h.DeleteMe)

		r.Get("/addresses", h.ListAddresses)
		r.Post("/addresses", h.CreateAddress)
		r.Put("/addresses/{addressID}", h.UpdateAddress)
		r.Delete("/addresses/{addressID}", h.DeleteAddress)

		r.Get("/cart", h.GetCart)
		r.Post("/cart/items", h.AddCartItem)
		r.Put("/cart/items/{itemID}", h.UpdateCartItem)
		r.Delete("/cart/items/{itemID}", h.DeleteCartItem)

		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/detail/{orderID}", h.GetOrder)

		r.Post("/reviews", h.CreateReview)

		// Seller
		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.RoleSeller, model.RoleAdmin))

			r.Post("/products", h.CreateProduct)
			r.Get("/seller/products", h.ListSellerProducts)
			r.Put("/seller/products/{productID}", h.UpdateProduct)
			r.Delete("/seller/products/{productID}", h.DeleteProduct)
		})

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.RoleAdmin))

			r.Post("/categories", h.CreateCategory)
			r.Get("/users", h.ListUsers)
			r.Put("/admin/users/{userID}/role", h.ChangeRole)
			r.Delete("/users/{userID}", h.DeleteUser)
		})
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Welcome to the mini shop API"})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
