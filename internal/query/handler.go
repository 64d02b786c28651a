package query

import (
	"time"

	"github.com/example/shop-pos/internal/domain/customer"
	"github.com/example/shop-pos/internal/domain/product"
	"github.com/example/shop-pos/internal/domain/sale"
	"github.com/example/shop-pos/internal/domain/settings"
	"github.com/shopspring/decimal"
)

const dashboardTopProducts = 5

type Handler struct {
	settingsSvc       *settings.Service
	productSvc        *product.Service
	saleSvc           *sale.Service
	customerSvc       *customer.Service
	lowStockThreshold int
}

func NewHandler(
	settingsSvc *settings.Service,
	productSvc *product.Service,
	saleSvc *sale.Service,
	customerSvc *customer.Service,
	lowStockThreshold int,
) *Handler {
	return &Handler{
		settingsSvc:       settingsSvc,
		productSvc:        productSvc,
		saleSvc:           saleSvc,
		customerSvc:       customerSvc,
		lowStockThreshold: lowStockThreshold,
	}
}

// Settings
func (h *Handler) GetSettings() settings.Settings {
	return h.settingsSvc.Get()
}

func (h *Handler) Currencies() []settings.Currency {
	return settings.Currencies()
}

// Products
func (h *Handler) GetProduct(id string) (product.Product, error) {
	return h.productSvc.Get(id)
}

func (h *Handler) ListProducts() []product.Product {
	return h.productSvc.List()
}

func (h *Handler) SearchProducts(q string) []product.Product {
	return h.productSvc.Search(q)
}

func (h *Handler) MostUsedProducts(limit int) []product.Product {
	return h.productSvc.MostUsed(limit)
}

// LowStock returns products at or below the low stock threshold.
func (h *Handler) LowStock() []product.Product {
	out := make([]product.Product, 0)
	for _, p := range h.productSvc.List() {
		if p.Stock <= h.lowStockThreshold {
			out = append(out, p)
		}
	}
	return out
}

// Location is the shop time zone used for day and month boundaries.
func (h *Handler) Location() *time.Location {
	return h.saleSvc.Location()
}

// Sales
func (h *Handler) ListSales() []sale.Sale {
	return h.saleSvc.List()
}

func (h *Handler) SalesByDateRange(start, end time.Time) []sale.Sale {
	return h.saleSvc.ByDateRange(start, end)
}

func (h *Handler) MonthlyAggregates() []sale.MonthlyAggregate {
	return h.saleSvc.MonthlyAggregates()
}

func (h *Handler) TotalsByMonth() []sale.MonthlyAggregate {
	return h.saleSvc.TotalsByMonth()
}

// TopProducts ranks products across every sale. limit <= 0 returns all.
func (h *Handler) TopProducts(limit int) []sale.ProductSales {
	return h.saleSvc.TopProducts(limit)
}

func (h *Handler) TopProductsForMonth(year int, month time.Month) []sale.ProductSales {
	return h.saleSvc.TopProductsForMonth(year, month)
}

// SalesInWindow returns sales from the last w days up to now, or every
// sale for WindowAll.
func (h *Handler) SalesInWindow(now time.Time, w Window) []sale.Sale {
	if w.Days() == 0 {
		return h.saleSvc.List()
	}
	return h.saleSvc.ByDateRange(now.AddDate(0, 0, -w.Days()), now)
}

// Customers
func (h *Handler) GetCustomer(id string) (customer.Customer, error) {
	c, ok := h.customerSvc.FindByID(id)
	if !ok {
		return customer.Customer{}, customer.ErrCustomerNotFound
	}
	return c, nil
}

func (h *Handler) ListCustomers() []customer.Customer {
	return h.customerSvc.List()
}

func (h *Handler) SearchCustomers(q string) []customer.Customer {
	return h.customerSvc.Search(q)
}

func (h *Handler) CustomersWithPending() []customer.Customer {
	return h.customerSvc.WithPending()
}

func (h *Handler) TotalPending() decimal.Decimal {
	return h.customerSvc.TotalPending()
}

// Summary builds the dashboard for the day containing now.
func (h *Handler) Summary(now time.Time, w Window) Summary {
	loc := h.saleSvc.Location()
	local := now.In(loc)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	cfg := h.settingsSvc.Get()
	summary := Summary{
		ShopName:         cfg.ShopName,
		CurrencySymbol:   cfg.CurrencySymbol,
		Today:            h.dayTotals(todayStart),
		Yesterday:        h.dayTotals(yesterdayStart),
		Window:           windowTotals(w, h.SalesInWindow(now, w)),
		TopProducts:      h.saleSvc.TopProducts(dashboardTopProducts),
		LowStock:         h.LowStock(),
		TotalPending:     h.customerSvc.TotalPending(),
		PendingCustomers: len(h.customerSvc.WithPending()),
		GeneratedAt:      now,
	}

	for _, m := range h.saleSvc.TotalsByMonth() {
		if summary.BestMonth == nil || m.Total.GreaterThan(summary.BestMonth.Total) {
			best := m
			summary.BestMonth = &best
		}
	}
	return summary
}

func (h *Handler) dayTotals(start time.Time) DayTotals {
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	totals := DayTotals{Date: start.Format("2006-01-02"), Total: decimal.Zero}
	for _, s := range h.saleSvc.ByDateRange(start, end) {
		totals.Total = totals.Total.Add(s.Total)
		totals.Count++
	}
	return totals
}

func windowTotals(w Window, sales []sale.Sale) WindowTotals {
	totals := WindowTotals{Window: w, Revenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	for _, s := range sales {
		totals.Revenue = totals.Revenue.Add(s.Total)
		totals.Count++
	}
	if totals.Count > 0 {
		totals.AverageOrderValue = totals.Revenue.Div(decimal.NewFromInt(int64(totals.Count))).Round(2)
	}
	return totals
}
