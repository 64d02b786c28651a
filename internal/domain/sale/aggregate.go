package sale

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/shop-pos/internal/domain/apperr"
	"github.com/example/shop-pos/internal/domain/product"
	"github.com/example/shop-pos/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateType = "Sale"
	StorageKey    = "shop_sales_history"
)

var (
	ErrEmptySale   = fmt.Errorf("%w: sale has no items", apperr.ErrValidation)
	ErrInvalidSale = fmt.Errorf("%w: sale must have an id and at least one item", apperr.ErrValidation)
)

// Sale is an immutable record of one checkout. Items hold product
// snapshots, so later catalog edits do not change history.
type Sale struct {
	ID         string             `json:"id"`
	Items      []product.CartItem `json:"items"`
	Total      decimal.Decimal    `json:"total"`
	Date       time.Time          `json:"date"`
	CustomerID string             `json:"customerId,omitempty"`
	IsPending  bool               `json:"isPending,omitempty"`
}

// New builds a sale dated now with its total computed from the items.
func New(items []product.CartItem, customerID string, pending bool) (Sale, error) {
	if len(items) == 0 {
		return Sale{}, ErrEmptySale
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	copied := make([]product.CartItem, len(items))
	copy(copied, items)

	return Sale{
		ID:         uuid.New().String(),
		Items:      copied,
		Total:      total,
		Date:       time.Now().UTC(),
		CustomerID: customerID,
		IsPending:  pending,
	}, nil
}

// ShortID is the first 8 characters of the sale id, used on receipts.
func (s Sale) ShortID() string {
	if len(s.ID) <= 8 {
		return s.ID
	}
	return s.ID[:8]
}

type Service struct {
	mu     sync.RWMutex
	docs   store.DocumentStore
	events store.EventLogInterface
	loc    *time.Location
	sales  []Sale // most recent first
}

// NewService loads the saved ledger. loc is the shop time zone used to
// bucket sales into days and months; nil means UTC.
func NewService(ctx context.Context, docs store.DocumentStore, events store.EventLogInterface, loc *time.Location) (*Service, error) {
	if loc == nil {
		loc = time.UTC
	}

	var sales []Sale
	if _, err := docs.Load(ctx, StorageKey, &sales); err != nil {
		return nil, apperr.Persistence("load sales", err)
	}
	if sales == nil {
		sales = []Sale{}
	}
	return &Service{docs: docs, events: events, loc: loc, sales: sales}, nil
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Append records a sale at the head of the ledger.
func (s *Service) Append(ctx context.Context, sale Sale) error {
	if sale.ID == "" || len(sale.Items) == 0 {
		return ErrInvalidSale
	}

	s.mu.Lock()
	next := make([]Sale, 0, len(s.sales)+1)
	next = append(next, sale)
	next = append(next, s.sales...)
	if err := s.docs.Save(ctx, StorageKey, next); err != nil {
		s.mu.Unlock()
		return apperr.Persistence("save sales", err)
	}
	s.sales = next
	s.mu.Unlock()

	// publish outside the lock
	if s.events != nil {
		event := SaleRecorded{
			SaleID:     sale.ID,
			Total:      sale.Total,
			ItemCount:  len(sale.Items),
			CustomerID: sale.CustomerID,
			IsPending:  sale.IsPending,
			RecordedAt: sale.Date,
		}
		if _, err := s.events.Append(ctx, sale.ID, AggregateType, EventSaleRecorded, event); err != nil {
			log.Printf("[Ledger] Failed to publish %s for sale %s: %v", EventSaleRecorded, sale.ID, err)
		}
	}
	return nil
}

// List returns all sales, most recent first.
func (s *Service) List() []Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sale, len(s.sales))
	copy(out, s.sales)
	return out
}

// ByDateRange returns sales dated within [start, end], most recent first.
func (s *Service) ByDateRange(start, end time.Time) []Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sale, 0)
	for _, sale := range s.sales {
		if !sale.Date.Before(start) && !sale.Date.After(end) {
			out = append(out, sale)
		}
	}
	return out
}
