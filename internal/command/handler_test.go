package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/shop-pos/internal/domain/apperr"
	"github.com/example/shop-pos/internal/domain/customer"
	"github.com/example/shop-pos/internal/domain/product"
	"github.com/example/shop-pos/internal/domain/sale"
	"github.com/example/shop-pos/internal/domain/settings"
	"github.com/example/shop-pos/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler   *Handler
	docs      *mocks.MockDocumentStore
	events    *mocks.MockEventLog
	products  *product.Service
	sales     *sale.Service
	customers *customer.Service
}

func newTestHandler(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	docs := mocks.NewMockDocumentStore()
	events := mocks.NewMockEventLog()

	settingsSvc, err := settings.NewService(ctx, docs, events)
	require.NoError(t, err)
	productSvc, err := product.NewService(ctx, docs, events)
	require.NoError(t, err)
	saleSvc, err := sale.NewService(ctx, docs, events, time.UTC)
	require.NoError(t, err)
	customerSvc, err := customer.NewService(ctx, docs, events)
	require.NoError(t, err)

	return &testEnv{
		handler:   NewHandler(settingsSvc, productSvc, saleSvc, customerSvc),
		docs:      docs,
		events:    events,
		products:  productSvc,
		sales:     saleSvc,
		customers: customerSvc,
	}
}

// failSavesOf makes every save of key fail with err.
func (e *testEnv) failSavesOf(key string, err error) {
	e.docs.SaveCallback = func(ctx context.Context, k string, src any) error {
		if k == key {
			return err
		}
		return nil
	}
}

func (e *testEnv) addProduct(t *testing.T, name string, price int64, stock int) product.Product {
	t.Helper()
	p, err := e.handler.CreateProduct(context.Background(), CreateProduct{Name: name, Price: decimal.NewFromInt(price), Stock: stock})
	require.NoError(t, err)
	return p
}

func (e *testEnv) stockOf(t *testing.T, id string) int {
	t.Helper()
	p, err := e.products.Get(id)
	require.NoError(t, err)
	return p.Stock
}

// ============================================
// Product Command Tests
// ============================================

func TestHandler_CreateProduct(t *testing.T) {
	env := newTestHandler(t)

	p := env.addProduct(t, "Milk 1L", 60, 50)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 0, p.UsageCount)
	assert.Equal(t, []string{product.EventProductAdded}, env.events.EventTypes())
}

func TestHandler_CreateProduct_InvalidName(t *testing.T) {
	env := newTestHandler(t)

	_, err := env.handler.CreateProduct(context.Background(), CreateProduct{Name: "", Price: decimal.NewFromInt(1), Stock: 1})

	assert.ErrorIs(t, err, product.ErrInvalidName)
}

func TestHandler_UpdateAndDeleteProduct(t *testing.T) {
	env := newTestHandler(t)
	p := env.addProduct(t, "Milk 1L", 60, 50)

	name := "Milk 2L"
	got, err := env.handler.UpdateProduct(context.Background(), UpdateProduct{ProductID: p.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Milk 2L", got.Name)

	require.NoError(t, env.handler.DeleteProduct(context.Background(), DeleteProduct{ProductID: p.ID}))
	assert.ErrorIs(t, env.handler.DeleteProduct(context.Background(), DeleteProduct{ProductID: p.ID}), product.ErrProductNotFound)
}

// ============================================
// Cash Sale Tests
// ============================================

func TestHandler_CompleteSale(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)

	s, err := env.handler.CompleteSale(context.Background(), CompleteSale{
		Items: []product.SaleLine{{ProductID: milk.ID, Quantity: 3}},
	})

	require.NoError(t, err)
	assert.True(t, s.Total.Equal(decimal.NewFromInt(180)))
	assert.Empty(t, s.CustomerID)
	assert.False(t, s.IsPending)

	got, err := env.products.Get(milk.ID)
	require.NoError(t, err)
	assert.Equal(t, 47, got.Stock)
	assert.Equal(t, 3, got.UsageCount)

	require.Len(t, env.sales.List(), 1)
	assert.Equal(t, s.ID, env.sales.List()[0].ID)

	assert.Equal(t, []string{
		product.EventProductAdded,
		product.EventStockSold,
		sale.EventSaleRecorded,
	}, env.events.EventTypes())
}

func TestHandler_CompleteSale_InsufficientStock(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 2)

	_, err := env.handler.CompleteSale(context.Background(), CompleteSale{
		Items: []product.SaleLine{{ProductID: milk.ID, Quantity: 3}},
	})

	assert.ErrorIs(t, err, product.ErrInsufficientStock)
	assert.Equal(t, 2, env.stockOf(t, milk.ID))
	assert.Empty(t, env.sales.List())
}

func TestHandler_CompleteSale_LedgerFailureRestoresStock(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 10)
	env.failSavesOf(sale.StorageKey, errors.New("disk full"))

	_, err := env.handler.CompleteSale(context.Background(), CompleteSale{
		Items: []product.SaleLine{{ProductID: milk.ID, Quantity: 4}},
	})

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	got, _ := env.products.Get(milk.ID)
	assert.Equal(t, 10, got.Stock)
	assert.Equal(t, 0, got.UsageCount)
	assert.Empty(t, env.sales.List())
	assert.Contains(t, env.events.EventTypes(), product.EventStockRestored)
}

// ============================================
// Credit Sale Tests
// ============================================

func TestHandler_CompleteCreditSale_ExistingCustomer(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)
	asha, err := env.handler.AddCustomer(context.Background(), AddCustomer{Name: "Asha", Phone: "555"})
	require.NoError(t, err)

	res, err := env.handler.CompleteCreditSale(context.Background(), CompleteCreditSale{
		Items:      []product.SaleLine{{ProductID: milk.ID, Quantity: 3}},
		CustomerID: asha.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, asha.ID, res.Sale.CustomerID)
	assert.True(t, res.Sale.IsPending)
	assert.True(t, res.Customer.PendingAmount.Equal(decimal.NewFromInt(180)))
	require.Len(t, res.Customer.Transactions, 1)
	tx := res.Customer.Transactions[0]
	assert.Equal(t, customer.TransactionCredit, tx.Type)
	assert.Equal(t, res.Sale.ID, tx.SaleID)
	assert.Equal(t, "Sale #"+res.Sale.ID[:8], tx.Description)
	assert.True(t, strings.HasPrefix(tx.Description, "Sale #"))

	assert.Equal(t, 47, env.stockOf(t, milk.ID))
}

func TestHandler_CompleteCreditSale_NewCustomer(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)

	res, err := env.handler.CompleteCreditSale(context.Background(), CompleteCreditSale{
		Items:       []product.SaleLine{{ProductID: milk.ID, Quantity: 1}},
		NewCustomer: &NewCustomer{Name: "Ravi", Phone: "777"},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.Customer.ID)
	assert.Equal(t, "Ravi", res.Customer.Name)
	assert.Equal(t, res.Customer.ID, res.Sale.CustomerID)
	assert.True(t, res.Customer.PendingAmount.Equal(decimal.NewFromInt(60)))
	assert.Len(t, env.customers.List(), 1)
}

func TestHandler_CompleteCreditSale_UnknownCustomerTouchesNothing(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)
	saves := len(env.docs.SaveCalls)

	_, err := env.handler.CompleteCreditSale(context.Background(), CompleteCreditSale{
		Items:      []product.SaleLine{{ProductID: milk.ID, Quantity: 1}},
		CustomerID: "ghost",
	})

	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
	assert.Len(t, env.docs.SaveCalls, saves)
	assert.Equal(t, 50, env.stockOf(t, milk.ID))
}

func TestHandler_CompleteCreditSale_CustomerRequired(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)

	_, err := env.handler.CompleteCreditSale(context.Background(), CompleteCreditSale{
		Items: []product.SaleLine{{ProductID: milk.ID, Quantity: 1}},
	})

	assert.ErrorIs(t, err, ErrCustomerRequired)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestHandler_CompleteCreditSale_InvalidNewCustomer(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)

	_, err := env.handler.CompleteCreditSale(context.Background(), CompleteCreditSale{
		Items:       []product.SaleLine{{ProductID: milk.ID, Quantity: 1}},
		NewCustomer: &NewCustomer{Name: "Ravi"},
	})

	assert.ErrorIs(t, err, customer.ErrInvalidPhone)
	assert.Equal(t, 50, env.stockOf(t, milk.ID))
	assert.Empty(t, env.customers.List())
}

func TestHandler_CompleteCreditSale_NewCustomerSaveFailureRestoresStock(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)
	env.failSavesOf(customer.StorageKey, errors.New("disk full"))

	_, err := env.handler.CompleteCreditSale(context.Background(), CompleteCreditSale{
		Items:       []product.SaleLine{{ProductID: milk.ID, Quantity: 5}},
		NewCustomer: &NewCustomer{Name: "Ravi", Phone: "777"},
	})

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Equal(t, 50, env.stockOf(t, milk.ID))
	assert.Empty(t, env.sales.List())
}

func TestHandler_CompleteCreditSale_LedgerFailureRemovesNewCustomer(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)
	env.failSavesOf(sale.StorageKey, errors.New("disk full"))

	_, err := env.handler.CompleteCreditSale(context.Background(), CompleteCreditSale{
		Items:       []product.SaleLine{{ProductID: milk.ID, Quantity: 5}},
		NewCustomer: &NewCustomer{Name: "Ravi", Phone: "777"},
	})

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Equal(t, 50, env.stockOf(t, milk.ID))
	assert.Empty(t, env.sales.List())
	assert.Empty(t, env.customers.List())
	assert.Contains(t, env.events.EventTypes(), customer.EventCustomerDeleted)
}

func TestHandler_CompleteCreditSale_LedgerFailureKeepsExistingCustomer(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)
	asha, err := env.handler.AddCustomer(context.Background(), AddCustomer{Name: "Asha", Phone: "555"})
	require.NoError(t, err)
	env.failSavesOf(sale.StorageKey, errors.New("disk full"))

	_, err = env.handler.CompleteCreditSale(context.Background(), CompleteCreditSale{
		Items:      []product.SaleLine{{ProductID: milk.ID, Quantity: 1}},
		CustomerID: asha.ID,
	})

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	_, ok := env.customers.FindByID(asha.ID)
	assert.True(t, ok)
}

func TestHandler_CompleteCreditSale_CompensatesAfterRequestCancelled(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// the ledger write fails as the request goes away; later writes see a done context
	env.docs.SaveCallback = func(ctx context.Context, key string, src any) error {
		if key == sale.StorageKey {
			cancel()
			return errors.New("disk full")
		}
		return ctx.Err()
	}

	_, err := env.handler.CompleteCreditSale(ctx, CompleteCreditSale{
		Items:       []product.SaleLine{{ProductID: milk.ID, Quantity: 5}},
		NewCustomer: &NewCustomer{Name: "Ravi", Phone: "777"},
	})

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Equal(t, 50, env.stockOf(t, milk.ID))
	assert.Empty(t, env.customers.List())
}

func TestHandler_CompleteCreditSale_CreditFailureKeepsSale(t *testing.T) {
	env := newTestHandler(t)
	milk := env.addProduct(t, "Milk 1L", 60, 50)
	asha, err := env.handler.AddCustomer(context.Background(), AddCustomer{Name: "Asha", Phone: "555"})
	require.NoError(t, err)
	env.failSavesOf(customer.StorageKey, errors.New("disk full"))

	res, err := env.handler.CompleteCreditSale(context.Background(), CompleteCreditSale{
		Items:      []product.SaleLine{{ProductID: milk.ID, Quantity: 2}},
		CustomerID: asha.ID,
	})

	assert.ErrorIs(t, err, ErrCreditNotRecorded)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.NotEmpty(t, res.Sale.ID)
	require.Len(t, env.sales.List(), 1)
	assert.Equal(t, 48, env.stockOf(t, milk.ID))

	c, _ := env.customers.FindByID(asha.ID)
	assert.True(t, c.PendingAmount.IsZero())
}

// ============================================
// Customer / Settings Command Tests
// ============================================

func TestHandler_RecordPayment_DefaultDescription(t *testing.T) {
	env := newTestHandler(t)
	asha, err := env.handler.AddCustomer(context.Background(), AddCustomer{Name: "Asha", Phone: "555"})
	require.NoError(t, err)
	_, err = env.customers.RecordCredit(context.Background(), asha.ID, decimal.NewFromInt(100), "Sale #1", "")
	require.NoError(t, err)

	c, err := env.handler.RecordPayment(context.Background(), RecordPayment{CustomerID: asha.ID, Amount: decimal.NewFromInt(40)})

	require.NoError(t, err)
	assert.True(t, c.PendingAmount.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, DefaultPaymentDescription, c.Transactions[1].Description)

	c, err = env.handler.RecordPayment(context.Background(), RecordPayment{CustomerID: asha.ID, Amount: decimal.NewFromInt(10), Description: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "cash", c.Transactions[2].Description)
}

func TestHandler_UpdateAndDeleteCustomer(t *testing.T) {
	env := newTestHandler(t)
	asha, err := env.handler.AddCustomer(context.Background(), AddCustomer{Name: "Asha", Phone: "555"})
	require.NoError(t, err)

	name := "Asha K"
	c, err := env.handler.UpdateCustomer(context.Background(), UpdateCustomer{CustomerID: asha.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", c.Name)

	require.NoError(t, env.handler.DeleteCustomer(context.Background(), DeleteCustomer{CustomerID: asha.ID}))
	assert.Empty(t, env.customers.List())
}

func TestHandler_UpdateSettings(t *testing.T) {
	env := newTestHandler(t)

	code := "USD"
	got, err := env.handler.UpdateSettings(context.Background(), UpdateSettings{Currency: &code})

	require.NoError(t, err)
	assert.Equal(t, "$", got.CurrencySymbol)
}
