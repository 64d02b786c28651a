package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/example/shop-pos/internal/domain/apperr"
	"github.com/example/shop-pos/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettingsService(t *testing.T) (*Service, *mocks.MockDocumentStore, *mocks.MockEventLog) {
	t.Helper()
	docs := mocks.NewMockDocumentStore()
	events := mocks.NewMockEventLog()
	service, err := NewService(context.Background(), docs, events)
	require.NoError(t, err)
	return service, docs, events
}

func strPtr(s string) *string { return &s }

// ============================================
// Load Tests
// ============================================

func TestNewService_Defaults(t *testing.T) {
	service, docs, _ := newTestSettingsService(t)

	assert.Equal(t, Defaults(), service.Get())
	assert.Equal(t, []string{StorageKey}, docs.LoadCalls)
	assert.Empty(t, docs.SaveCalls)
}

func TestNewService_LoadsSaved(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	require.NoError(t, docs.SetDocument(StorageKey, Settings{Currency: "USD", CurrencySymbol: "$", ShopName: "Corner Store"}))

	service, err := NewService(context.Background(), docs, mocks.NewMockEventLog())
	require.NoError(t, err)

	assert.Equal(t, "Corner Store", service.Get().ShopName)
	assert.Equal(t, "$", service.Get().CurrencySymbol)
}

func TestNewService_LoadError(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	docs.LoadErr = errors.New("disk gone")

	_, err := NewService(context.Background(), docs, mocks.NewMockEventLog())
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

// ============================================
// Update Tests
// ============================================

func TestService_Update_KnownCurrencyReplacesSymbol(t *testing.T) {
	service, docs, events := newTestSettingsService(t)

	got, err := service.Update(context.Background(), Update{Currency: strPtr("EUR")})

	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, "€", got.CurrencySymbol)
	assert.Equal(t, "ShopEase", got.ShopName)

	require.Len(t, docs.SaveCalls, 1)
	assert.Equal(t, StorageKey, docs.SaveCalls[0].Key)
	assert.JSONEq(t, `{"currency":"EUR","currencySymbol":"€","shopName":"ShopEase"}`, string(docs.SaveCalls[0].Data))

	assert.Equal(t, []string{EventSettingsUpdated}, events.EventTypes())
}

func TestService_Update_UnknownCurrencyKeepsSymbol(t *testing.T) {
	service, _, _ := newTestSettingsService(t)

	got, err := service.Update(context.Background(), Update{Currency: strPtr("JPY")})

	require.NoError(t, err)
	assert.Equal(t, "JPY", got.Currency)
	assert.Equal(t, "₹", got.CurrencySymbol)
}

func TestService_Update_ShopName(t *testing.T) {
	service, _, _ := newTestSettingsService(t)

	got, err := service.Update(context.Background(), Update{ShopName: strPtr("  Daily Needs ")})

	require.NoError(t, err)
	assert.Equal(t, "Daily Needs", got.ShopName)
	assert.Equal(t, "INR", got.Currency)
}

func TestService_Update_EmptyShopName(t *testing.T) {
	service, docs, events := newTestSettingsService(t)

	_, err := service.Update(context.Background(), Update{ShopName: strPtr("   ")})

	assert.ErrorIs(t, err, ErrInvalidShopName)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, docs.SaveCalls)
	assert.Empty(t, events.AppendCalls)
	assert.Equal(t, Defaults(), service.Get())
}

func TestService_Update_SaveErrorKeepsState(t *testing.T) {
	service, docs, events := newTestSettingsService(t)
	docs.SaveErr = errors.New("write failed")

	_, err := service.Update(context.Background(), Update{Currency: strPtr("GBP")})

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Equal(t, Defaults(), service.Get())
	assert.Empty(t, events.AppendCalls)
}

func TestService_Update_EventErrorStillSucceeds(t *testing.T) {
	service, _, events := newTestSettingsService(t)
	events.AppendErr = errors.New("broker down")

	got, err := service.Update(context.Background(), Update{Currency: strPtr("USD")})

	require.NoError(t, err)
	assert.Equal(t, "$", got.CurrencySymbol)
}

func TestService_Update_RoundTrip(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	service, err := NewService(context.Background(), docs, nil)
	require.NoError(t, err)

	_, err = service.Update(context.Background(), Update{Currency: strPtr("GBP"), ShopName: strPtr("Kiosk")})
	require.NoError(t, err)

	reloaded, err := NewService(context.Background(), docs, nil)
	require.NoError(t, err)
	assert.Equal(t, service.Get(), reloaded.Get())
}

// ============================================
// Formatting Tests
// ============================================

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		amount string
		want   string
	}{
		{"zero", "₹", "0", "₹0.00"},
		{"whole", "₹", "60", "₹60.00"},
		{"one decimal", "$", "1234.5", "$1,234.50"},
		{"rounds half up", "€", "2.345", "€2.35"},
		{"millions", "£", "1234567.891", "£1,234,567.89"},
		{"negative", "₹", "-1500", "-₹1,500.00"},
		{"rupees group in threes", "₹", "123456.5", "₹123,456.50"},
		{"tiny negative rounds to zero", "₹", "-0.001", "₹0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.symbol, decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestService_FormatAmount_UsesCurrentSymbol(t *testing.T) {
	service, _, _ := newTestSettingsService(t)
	assert.Equal(t, "₹180.00", service.FormatAmount(decimal.NewFromInt(180)))

	_, err := service.Update(context.Background(), Update{Currency: strPtr("USD")})
	require.NoError(t, err)
	assert.Equal(t, "$180.00", service.FormatAmount(decimal.NewFromInt(180)))
}

func TestCurrencies(t *testing.T) {
	list := Currencies()
	require.Len(t, list, 4)
	assert.Equal(t, "INR", list[0].Code)

	list[0].Symbol = "changed"
	c, ok := LookupCurrency("INR")
	assert.True(t, ok)
	assert.Equal(t, "₹", c.Symbol)

	_, ok = LookupCurrency("XYZ")
	assert.False(t, ok)
}
