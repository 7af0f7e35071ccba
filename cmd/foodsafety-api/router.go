package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsedoc/fish-rankings/cmd/foodsafety-api/handlers"
	"github.com/jsedoc/fish-rankings/cmd/foodsafety-api/middleware"
	"github.com/jsedoc/fish-rankings/internal/app"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig holds the HTTP-layer settings.
type RouterConfig struct {
	RequestTimeout     time.Duration
	AllowedOrigins     []string
	RateLimitEnabled   bool
	AnonymousPerMinute int
	BarcodeCacheTTL    time.Duration
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(a *app.App, cfg RouterConfig, registry *prometheus.Registry) http.Handler {
	logger := a.Logger
	metrics := middleware.NewMetrics(registry)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Handler)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "healthy", "service": "foodsafety-api"})
	})
	r.Get("/ready", readyHandler(a.DB))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	queryHandler := handlers.NewQueryHandler(logger, a.Query)
	foodsHandler := handlers.NewFoodsHandler(logger, a.Store.Foods)
	recallsHandler := handlers.NewRecallsHandler(logger, a.Store.Recalls)
	advisoriesHandler := handlers.NewAdvisoriesHandler(logger, a.Store.Advisories)
	barcodeHandler := handlers.NewBarcodeHandler(logger, a.Store.Foods, a.Store.Recalls,
		a.OpenFoodFacts, a.Cache, cfg.BarcodeCacheTTL)
	authHandler := handlers.NewAuthHandler(logger, a.Auth)
	categoriesHandler := handlers.NewCategoriesHandler(logger, a.Store.Categories)
	savedFoodsHandler := handlers.NewSavedFoodsHandler(logger, a.Store.Foods, a.Store.SavedFoods)
	mealPlansHandler := handlers.NewMealPlansHandler(logger, a.Store.Foods, a.Store.MealPlans)
	requireAuth := middleware.RequireAuth(a.Auth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/llm", func(r chi.Router) {
			r.Get("/examples", queryHandler.Examples)
			r.Group(func(r chi.Router) {
				r.Use(middleware.OptionalAuth(a.Auth))
				if cfg.RateLimitEnabled {
					r.Use(middleware.AnonymousRateLimit(logger, a.Cache, cfg.AnonymousPerMinute))
				}
				r.Post("/query", queryHandler.Query)
			})
		})

		r.Route("/foods", func(r chi.Router) {
			r.Get("/", foodsHandler.List)
			r.Get("/slug/{slug}", foodsHandler.GetBySlug)
			r.Get("/barcode/{barcode}", foodsHandler.GetByBarcode)
			r.Get("/{id}", foodsHandler.Get)
		})
		r.Get("/search", foodsHandler.Search)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoriesHandler.List)
			r.Get("/{slug}", categoriesHandler.Get)
		})

		r.Route("/recalls", func(r chi.Router) {
			r.Get("/", recallsHandler.List)
			r.Get("/recent", recallsHandler.Recent)
			r.Get("/critical", recallsHandler.Critical)
			r.Get("/search", recallsHandler.Search)
			r.Get("/stats/summary", recallsHandler.Stats)
			r.Get("/{recallNumber}", recallsHandler.Get)
		})

		r.Get("/advisories", advisoriesHandler.List)
		r.Route("/barcode", func(r chi.Router) {
			r.Get("/lookup/{barcode}", barcodeHandler.Lookup)
			r.Get("/search", barcodeHandler.Search)
			r.Post("/import/{barcode}", barcodeHandler.Import)
			r.Get("/info/nutriscore/{grade}", barcodeHandler.NutriscoreInfo)
			r.Get("/info/nova/{group}", barcodeHandler.NovaInfo)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Get("/me", authHandler.Me)
			r.With(requireAuth).Put("/me", authHandler.UpdateMe)
		})

		r.Route("/saved-foods", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", savedFoodsHandler.List)
			r.Post("/", savedFoodsHandler.Save)
			r.Put("/{foodID}", savedFoodsHandler.UpdateNotes)
			r.Delete("/{foodID}", savedFoodsHandler.Delete)
		})

		r.Route("/meal-plans", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", mealPlansHandler.List)
			r.Post("/", mealPlansHandler.Create)
			r.Get("/{id}", mealPlansHandler.Get)
			r.Put("/{id}", mealPlansHandler.Update)
			r.Delete("/{id}", mealPlansHandler.Delete)
			r.Post("/{id}/foods", mealPlansHandler.AddFood)
			r.Delete("/{id}/foods/{foodID}", mealPlansHandler.RemoveFood)
		})
	})

	return r
}

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func readyHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
