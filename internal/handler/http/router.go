package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog-review/internal/repository"
	"github.com/utafrali/catalog-review/pkg/health"
	"github.com/utafrali/catalog-review/pkg/middleware"
)

// RouterDeps carries everything NewRouter wires into routes.
type RouterDeps struct {
	Reviews     ReviewService
	Catalog     CatalogService
	Accounts    AccountService
	Tokens      middleware.TokenValidator
	Idempotency repository.IdempotencyRepository
	Health      *health.Handler
	Metrics     *middleware.HTTPMetrics
	MetricsHTTP http.Handler
	CORS        middleware.CORSConfig
	ServiceName string
	Logger      *slog.Logger
}

// NewRouter creates a chi router with all catalog and review routes registered.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.Tracing(d.ServiceName))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.CORS(d.CORS))
	r.Use(middleware.Authenticate(d.Tokens))
	r.Use(middleware.RequestLogger(d.Logger))

	// Health check endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	if d.MetricsHTTP != nil {
		r.Handle("/metrics", d.MetricsHTTP)
	}

	reviewHandler := NewReviewHandler(d.Reviews, d.Logger)
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", reviewHandler.ListActiveReviews)
		r.Get("/{product_slug}", reviewHandler.ListProductReviews)
		r.With(middleware.RequireAuth, Idempotent(d.Idempotency, d.Logger)).
			Post("/create", reviewHandler.CreateReview)
		r.With(middleware.RequireAuth).
			Delete("/delete/{product_slug}", reviewHandler.DeleteProductReviews)
	})

	catalogHandler := NewCatalogHandler(d.Catalog, d.Logger)
	r.Route("/category", func(r chi.Router) {
		r.Get("/all_categories", catalogHandler.ListCategories)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/create", catalogHandler.CreateCategory)
			r.Put("/update_category", catalogHandler.UpdateCategory)
			r.Delete("/delete", catalogHandler.DeleteCategory)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", catalogHandler.ListProducts)
		r.With(middleware.RequireAuth).Post("/create", catalogHandler.CreateProduct)
		r.Get("/detail/{product_slug}", catalogHandler.ProductDetail)
		r.Get("/{category_slug}", catalogHandler.ProductsByCategory)
	})

	authHandler := NewAuthHandler(d.Accounts, d.Logger)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/", authHandler.Register)
		r.Post("/token", authHandler.Token)
		r.With(middleware.RequireAuth).Get("/read_current_user", authHandler.CurrentUser)
	})

	return r
}
