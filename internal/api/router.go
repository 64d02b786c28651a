package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 30 * time.Second

// NewRouter mounts the shop API under /api/v1. Request metrics are
// registered on reg and served from /metrics. When webDir is set its
// files are served from /.
func NewRouter(handlers *Handlers, reg *prometheus.Registry, webDir string) http.Handler {
	metrics := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		// Products
		r.Get("/products", handlers.GetProducts)
		r.Post("/products", handlers.CreateProduct)
		r.Get("/products/most-used", handlers.GetMostUsedProducts)
		r.Get("/products/low-stock", handlers.GetLowStock)
		r.Get("/products/{id}", handlers.GetProduct)
		r.Patch("/products/{id}", handlers.UpdateProduct)
		r.Delete("/products/{id}", handlers.DeleteProduct)

		// Checkout
		r.Post("/checkout", handlers.CompleteSale)
		r.Post("/checkout/credit", handlers.CompleteCreditSale)

		// Sales
		r.Get("/sales", handlers.GetSales)
		r.Get("/sales/monthly", handlers.GetMonthlyAggregates)
		r.Get("/sales/totals", handlers.GetTotalsByMonth)
		r.Get("/sales/top-products", handlers.GetTopProducts)
		r.Get("/sales/export.csv", handlers.ExportCSV)
		r.Get("/sales/export.xlsx", handlers.ExportXLSX)

		// Customers
		r.Get("/customers", handlers.GetCustomers)
		r.Post("/customers", handlers.AddCustomer)
		r.Get("/customers/pending", handlers.GetPendingCustomers)
		r.Get("/customers/{id}", handlers.GetCustomer)
		r.Patch("/customers/{id}", handlers.UpdateCustomer)
		r.Delete("/customers/{id}", handlers.DeleteCustomer)
		r.Post("/customers/{id}/payments", handlers.RecordPayment)

		// Settings
		r.Get("/settings", handlers.GetSettings)
		r.Patch("/settings", handlers.UpdateSettings)
		r.Get("/currencies", handlers.GetCurrencies)

		r.Get("/dashboard", handlers.GetDashboard)
	})

	if webDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(webDir)))
	}

	return r
}
