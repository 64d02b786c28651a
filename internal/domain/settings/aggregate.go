package settings

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/example/shop-pos/internal/domain/apperr"
	"github.com/example/shop-pos/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

const (
	AggregateType = "Settings"
	StorageKey    = "shop_settings"
)

var ErrInvalidShopName = fmt.Errorf("%w: shop name is required", apperr.ErrValidation)

type Settings struct {
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currencySymbol"`
	ShopName       string `json:"shopName"`
}

type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var currencies = []Currency{
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee"},
	{Code: "USD", Symbol: "$", Name: "US Dollar"},
	{Code: "EUR", Symbol: "€", Name: "Euro"},
	{Code: "GBP", Symbol: "£", Name: "British Pound"},
}

// Defaults returns the settings used before anything has been saved.
func Defaults() Settings {
	return Settings{
		Currency:       "INR",
		CurrencySymbol: "₹",
		ShopName:       "ShopEase",
	}
}

// Currencies returns the supported currency table.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

// LookupCurrency finds a currency by its code.
func LookupCurrency(code string) (Currency, bool) {
	for _, c := range currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// Update carries the fields to change; nil fields are left as they are.
type Update struct {
	Currency       *string `json:"currency,omitempty"`
	CurrencySymbol *string `json:"currencySymbol,omitempty"`
	ShopName       *string `json:"shopName,omitempty"`
}

type Service struct {
	mu      sync.RWMutex
	docs    store.DocumentStore
	events  store.EventLogInterface
	current Settings
}

// NewService loads the saved settings, falling back to Defaults.
func NewService(ctx context.Context, docs store.DocumentStore, events store.EventLogInterface) (*Service, error) {
	current := Defaults()
	if _, err := docs.Load(ctx, StorageKey, &current); err != nil {
		return nil, apperr.Persistence("load settings", err)
	}
	return &Service{docs: docs, events: events, current: current}, nil
}

func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update merges u into the current settings and saves them. A known
// currency code also replaces the symbol from the currency table.
func (s *Service) Update(ctx context.Context, u Update) (Settings, error) {
	next, err := s.apply(ctx, u)
	if err != nil {
		return Settings{}, err
	}

	// publish outside the lock
	if s.events != nil {
		event := SettingsUpdated{
			Currency:       next.Currency,
			CurrencySymbol: next.CurrencySymbol,
			ShopName:       next.ShopName,
			UpdatedAt:      time.Now(),
		}
		if _, err := s.events.Append(ctx, StorageKey, AggregateType, EventSettingsUpdated, event); err != nil {
			log.Printf("[Settings] Failed to publish %s: %v", EventSettingsUpdated, err)
		}
	}

	return next, nil
}

func (s *Service) apply(ctx context.Context, u Update) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if u.ShopName != nil {
		name := strings.TrimSpace(*u.ShopName)
		if name == "" {
			return Settings{}, ErrInvalidShopName
		}
		next.ShopName = name
	}
	if u.CurrencySymbol != nil {
		next.CurrencySymbol = *u.CurrencySymbol
	}
	if u.Currency != nil {
		next.Currency = *u.Currency
		if c, ok := LookupCurrency(*u.Currency); ok {
			next.CurrencySymbol = c.Symbol
		}
	}

	if err := s.docs.Save(ctx, StorageKey, next); err != nil {
		return Settings{}, apperr.Persistence("save settings", err)
	}
	s.current = next
	return next, nil
}

// FormatAmount renders amount with the current currency symbol.
func (s *Service) FormatAmount(amount decimal.Decimal) string {
	return FormatAmount(s.Get().CurrencySymbol, amount)
}

// FormatAmount renders amount as <symbol><grouped integer>.<2 decimals>,
// e.g. ₹1,234.50. Digits group in threes for every currency, so ₹1,23,456
// style lakh grouping is not used. Negative amounts are prefixed with "-".
func FormatAmount(symbol string, amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	fixed := rounded.StringFixed(2)
	frac := fixed[len(fixed)-2:]
	whole := humanize.BigComma(rounded.Truncate(0).BigInt())

	return sign + symbol + whole + "." + frac
}
