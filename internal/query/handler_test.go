package query

import (
	"context"
	"testing"
	"time"

	"github.com/example/shop-pos/internal/domain/customer"
	"github.com/example/shop-pos/internal/domain/product"
	"github.com/example/shop-pos/internal/domain/sale"
	"github.com/example/shop-pos/internal/domain/settings"
	"github.com/example/shop-pos/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 15, 18, 30, 0, 0, time.UTC)

func line(name string, price int64, qty int) product.CartItem {
	return product.CartItem{Product: product.Product{ID: "id-" + name, Name: name, Price: decimal.NewFromInt(price)}, Quantity: qty}
}

func saleOn(id string, at time.Time, items ...product.CartItem) sale.Sale {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return sale.Sale{ID: id, Items: items, Total: total, Date: at}
}

func newTestQueryHandler(t *testing.T, sales []sale.Sale) (*Handler, *customer.Service, *product.Service) {
	t.Helper()
	ctx := context.Background()
	docs := mocks.NewMockDocumentStore()
	require.NoError(t, docs.SetDocument(sale.StorageKey, sales))

	settingsSvc, err := settings.NewService(ctx, docs, nil)
	require.NoError(t, err)
	productSvc, err := product.NewService(ctx, docs, nil)
	require.NoError(t, err)
	saleSvc, err := sale.NewService(ctx, docs, nil, time.UTC)
	require.NoError(t, err)
	customerSvc, err := customer.NewService(ctx, docs, nil)
	require.NoError(t, err)

	return NewHandler(settingsSvc, productSvc, saleSvc, customerSvc, 5), customerSvc, productSvc
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"", Window30Days, false},
		{"7d", Window7Days, false},
		{"90d", Window90Days, false},
		{"all", WindowAll, false},
		{"1y", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWindow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandler_Summary(t *testing.T) {
	sales := []sale.Sale{
		saleOn("t2", testNow.Add(-time.Hour), line("Milk", 60, 2)),
		saleOn("t1", testNow.Add(-8*time.Hour), line("Bread", 45, 1)),
		saleOn("y1", testNow.Add(-24*time.Hour), line("Milk", 60, 1)),
		saleOn("w1", testNow.AddDate(0, 0, -5), line("Eggs", 90, 1)),
		saleOn("old", time.Date(2023, time.November, 2, 10, 0, 0, 0, time.UTC), line("Cheese", 150, 4)),
	}
	h, customers, _ := newTestQueryHandler(t, sales)

	asha, err := customers.Add(context.Background(), "Asha", "555")
	require.NoError(t, err)
	_, err = customers.RecordCredit(context.Background(), asha.ID, decimal.NewFromInt(120), "Sale #1", "")
	require.NoError(t, err)

	s := h.Summary(testNow, Window7Days)

	assert.Equal(t, "ShopEase", s.ShopName)
	assert.Equal(t, "₹", s.CurrencySymbol)

	assert.Equal(t, "2024-03-15", s.Today.Date)
	assert.Equal(t, 2, s.Today.Count)
	assert.True(t, s.Today.Total.Equal(decimal.NewFromInt(165)))

	assert.Equal(t, "2024-03-14", s.Yesterday.Date)
	assert.Equal(t, 1, s.Yesterday.Count)
	assert.True(t, s.Yesterday.Total.Equal(decimal.NewFromInt(60)))

	assert.Equal(t, Window7Days, s.Window.Window)
	assert.Equal(t, 4, s.Window.Count)
	assert.True(t, s.Window.Revenue.Equal(decimal.NewFromInt(315)))
	assert.True(t, s.Window.AverageOrderValue.Equal(decimal.RequireFromString("78.75")))

	require.NotNil(t, s.BestMonth)
	assert.Equal(t, "Nov 2023", s.BestMonth.Label)
	assert.True(t, s.BestMonth.Total.Equal(decimal.NewFromInt(600)))

	require.NotEmpty(t, s.TopProducts)
	assert.Equal(t, "Cheese", s.TopProducts[0].Name)

	assert.True(t, s.TotalPending.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, 1, s.PendingCustomers)
}

func TestHandler_Summary_Empty(t *testing.T) {
	h, _, _ := newTestQueryHandler(t, nil)

	s := h.Summary(testNow, WindowAll)

	assert.Equal(t, 0, s.Today.Count)
	assert.True(t, s.Window.AverageOrderValue.IsZero())
	assert.Nil(t, s.BestMonth)
	assert.Empty(t, s.TopProducts)
	assert.True(t, s.TotalPending.IsZero())
}

func TestHandler_SalesInWindow(t *testing.T) {
	sales := []sale.Sale{
		saleOn("a", testNow.AddDate(0, 0, -1), line("Milk", 60, 1)),
		saleOn("b", testNow.AddDate(0, 0, -20), line("Milk", 60, 1)),
		saleOn("c", testNow.AddDate(0, 0, -60), line("Milk", 60, 1)),
		saleOn("d", testNow.AddDate(0, 0, -200), line("Milk", 60, 1)),
	}
	h, _, _ := newTestQueryHandler(t, sales)

	assert.Len(t, h.SalesInWindow(testNow, Window7Days), 1)
	assert.Len(t, h.SalesInWindow(testNow, Window30Days), 2)
	assert.Len(t, h.SalesInWindow(testNow, Window90Days), 3)
	assert.Len(t, h.SalesInWindow(testNow, WindowAll), 4)
}

func TestHandler_LowStock(t *testing.T) {
	h, _, products := newTestQueryHandler(t, nil)
	ctx := context.Background()
	_, err := products.Add(ctx, product.NewProduct{Name: "Plenty", Price: decimal.NewFromInt(1), Stock: 40})
	require.NoError(t, err)
	low, err := products.Add(ctx, product.NewProduct{Name: "Few", Price: decimal.NewFromInt(1), Stock: 5})
	require.NoError(t, err)
	out, err := products.Add(ctx, product.NewProduct{Name: "None", Price: decimal.NewFromInt(1), Stock: 0})
	require.NoError(t, err)

	got := h.LowStock()

	require.Len(t, got, 2)
	assert.Equal(t, low.ID, got[0].ID)
	assert.Equal(t, out.ID, got[1].ID)
}

func TestHandler_GetCustomer_NotFound(t *testing.T) {
	h, _, _ := newTestQueryHandler(t, nil)

	_, err := h.GetCustomer("missing")
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
}
