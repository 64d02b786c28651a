package query

import (
	"fmt"
	"time"

	"github.com/example/shop-pos/internal/domain/apperr"
	"github.com/example/shop-pos/internal/domain/product"
	"github.com/example/shop-pos/internal/domain/sale"
	"github.com/shopspring/decimal"
)

// Window selects how far back the dashboard revenue figures reach.
type Window string

const (
	Window7Days  Window = "7d"
	Window30Days Window = "30d"
	Window90Days Window = "90d"
	WindowAll    Window = "all"
)

var ErrInvalidWindow = fmt.Errorf("%w: window must be one of 7d, 30d, 90d, all", apperr.ErrValidation)

// ParseWindow accepts "7d", "30d", "90d" or "all". Empty means 30d.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "":
		return Window30Days, nil
	case Window7Days, Window30Days, Window90Days, WindowAll:
		return Window(s), nil
	}
	return "", ErrInvalidWindow
}

// Days is the window length, or 0 for WindowAll.
func (w Window) Days() int {
	switch w {
	case Window7Days:
		return 7
	case Window30Days:
		return 30
	case Window90Days:
		return 90
	}
	return 0
}

// DayTotals is revenue and sale count for one calendar day.
type DayTotals struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type WindowTotals struct {
	Window            Window          `json:"window"`
	Revenue           decimal.Decimal `json:"revenue"`
	Count             int             `json:"count"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// Summary is the dashboard view over all four stores.
type Summary struct {
	ShopName         string                 `json:"shopName"`
	CurrencySymbol   string                 `json:"currencySymbol"`
	Today            DayTotals              `json:"today"`
	Yesterday        DayTotals              `json:"yesterday"`
	Window           WindowTotals           `json:"window"`
	BestMonth        *sale.MonthlyAggregate `json:"bestMonth,omitempty"`
	TopProducts      []sale.ProductSales    `json:"topProducts"`
	LowStock         []product.Product      `json:"lowStock"`
	TotalPending     decimal.Decimal        `json:"totalPending"`
	PendingCustomers int                    `json:"pendingCustomers"`
	GeneratedAt      time.Time              `json:"generatedAt"`
}
