package product

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/shop-pos/internal/domain/apperr"
	"github.com/example/shop-pos/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateType = "Product"
	StorageKey    = "shop_products"

	DefaultMostUsedLimit = 8
)

var (
	ErrProductNotFound   = fmt.Errorf("product %w", apperr.ErrNotFound)
	ErrInvalidName       = fmt.Errorf("%w: name is required and must be at most 100 characters", apperr.ErrValidation)
	ErrInvalidPrice      = fmt.Errorf("%w: price must be positive", apperr.ErrValidation)
	ErrInvalidStock      = fmt.Errorf("%w: stock must not be negative", apperr.ErrValidation)
	ErrInvalidImage      = fmt.Errorf("%w: image must be at most 500 characters", apperr.ErrValidation)
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be positive", apperr.ErrValidation)
	ErrNoItems           = fmt.Errorf("%w: no items to sell", apperr.ErrValidation)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", apperr.ErrConflict)
)

type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Image      string          `json:"image,omitempty"`
	UsageCount int             `json:"usageCount"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// CartItem is a product snapshot taken at sale time and the quantity sold.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is price times quantity.
func (c CartItem) Subtotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// SaleLine asks for quantity units of one product.
type SaleLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type NewProduct struct {
	Name  string          `json:"name" validate:"required,max=100"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock" validate:"min=0"`
	Image string          `json:"image,omitempty" validate:"max=500"`
}

// Update carries the fields to change; nil fields are left as they are.
type Update struct {
	Name  *string          `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Stock *int             `json:"stock,omitempty"`
	Image *string          `json:"image,omitempty"`
}

var fieldErrors = map[string]error{
	"Name":  ErrInvalidName,
	"Stock": ErrInvalidStock,
	"Image": ErrInvalidImage,
}

func validate(p NewProduct) error {
	if err := apperr.ValidateStruct(p, fieldErrors); err != nil {
		return err
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

type Service struct {
	mu       sync.RWMutex
	docs     store.DocumentStore
	events   store.EventLogInterface
	outbox   store.Outbox
	products []Product
}

// NewService loads the saved catalog. A missing document is an empty catalog.
func NewService(ctx context.Context, docs store.DocumentStore, events store.EventLogInterface) (*Service, error) {
	var products []Product
	if _, err := docs.Load(ctx, StorageKey, &products); err != nil {
		return nil, apperr.Persistence("load products", err)
	}
	if products == nil {
		products = []Product{}
	}
	return &Service{docs: docs, events: events, products: products}, nil
}

// DefaultProducts returns the first-run catalog.
func DefaultProducts() []Product {
	defaults := []struct {
		name  string
		price int64
		stock int
		usage int
	}{
		{"Milk 1L", 60, 50, 120},
		{"Bread Loaf", 45, 30, 95},
		{"Eggs (12 pack)", 90, 25, 88},
		{"Butter 250g", 55, 20, 72},
		{"Cheese Block", 150, 15, 65},
		{"Orange Juice 1L", 80, 40, 58},
		{"Yogurt 500g", 35, 35, 45},
		{"Coffee Powder 500g", 250, 18, 40},
	}

	now := time.Now().UTC()
	products := make([]Product, 0, len(defaults))
	for _, d := range defaults {
		products = append(products, Product{
			ID:         uuid.New().String(),
			Name:       d.name,
			Price:      decimal.NewFromInt(d.price),
			Stock:      d.stock,
			UsageCount: d.usage,
			CreatedAt:  now,
		})
	}
	return products
}

// Seed installs products when the catalog is empty. It reports whether
// anything was written.
func (s *Service) Seed(ctx context.Context, products []Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.products) > 0 || len(products) == 0 {
		return false, nil
	}

	next := make([]Product, len(products))
	copy(next, products)
	if err := s.commit(ctx, next, "seed products"); err != nil {
		return false, err
	}
	log.Printf("[Catalog] Seeded %d default products", len(next))
	return true, nil
}

func (s *Service) Add(ctx context.Context, in NewProduct) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return Product{}, err
	}

	p := Product{
		ID:         uuid.New().String(),
		Name:       in.Name,
		Price:      in.Price,
		Stock:      in.Stock,
		Image:      in.Image,
		UsageCount: 0,
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.unlock(ctx)

	next := append(s.cloneLocked(), p)
	if err := s.commit(ctx, next, "save products"); err != nil {
		return Product{}, err
	}

	s.emit(p.ID, EventProductAdded, ProductAdded{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
	})
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, u Update) (Product, error) {
	s.mu.Lock()
	defer s.unlock(ctx)

	idx := s.indexLocked(id)
	if idx < 0 {
		return Product{}, ErrProductNotFound
	}

	p := s.products[idx]
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if err := validate(NewProduct{Name: p.Name, Price: p.Price, Stock: p.Stock, Image: p.Image}); err != nil {
		return Product{}, err
	}

	next := s.cloneLocked()
	next[idx] = p
	if err := s.commit(ctx, next, "save products"); err != nil {
		return Product{}, err
	}

	s.emit(p.ID, EventProductUpdated, ProductUpdated{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Image:     p.Image,
		UpdatedAt: time.Now(),
	})
	return p, nil
}

// Delete removes a product. Sales that already sold it keep their snapshot.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.unlock(ctx)

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrProductNotFound
	}

	next := make([]Product, 0, len(s.products)-1)
	next = append(next, s.products[:idx]...)
	next = append(next, s.products[idx+1:]...)
	if err := s.commit(ctx, next, "save products"); err != nil {
		return err
	}

	s.emit(id, EventProductDeleted, ProductDeleted{ProductID: id, DeletedAt: time.Now()})
	return nil
}

func (s *Service) Get(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Product{}, ErrProductNotFound
	}
	return s.products[idx], nil
}

// List returns all products in the order they were added.
func (s *Service) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked()
}

// Search matches query case-insensitively against product names. Only
// products in stock are returned; a blank query returns all of them.
func (s *Service) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Product, 0)
	for _, p := range s.products {
		if p.Stock <= 0 {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
			result = append(result, p)
		}
	}
	return result
}

// MostUsed returns in-stock products by usage count, highest first. Ties
// keep catalog order. limit <= 0 means DefaultMostUsedLimit.
func (s *Service) MostUsed(limit int) []Product {
	if limit <= 0 {
		limit = DefaultMostUsedLimit
	}

	inStock := s.Search("")
	sort.SliceStable(inStock, func(i, j int) bool {
		return inStock[i].UsageCount > inStock[j].UsageCount
	})
	if len(inStock) > limit {
		inStock = inStock[:limit]
	}
	return inStock
}

// ApplySale takes stock for every line and bumps usage counts. The whole
// request is checked first: if any line is invalid, unknown or over stock
// nothing changes. Lines for the same product are merged. The returned
// items hold the products as they were before the sale.
func (s *Service) ApplySale(ctx context.Context, lines []SaleLine) ([]CartItem, error) {
	if len(lines) == 0 {
		return nil, ErrNoItems
	}

	s.mu.Lock()
	defer s.unlock(ctx)

	var (
		order  []int
		wanted = make(map[int]int)
	)
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %d for product %s", ErrInvalidQuantity, line.Quantity, line.ProductID)
		}
		idx := s.indexLocked(line.ProductID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		if _, seen := wanted[idx]; !seen {
			order = append(order, idx)
		}
		wanted[idx] += line.Quantity
	}

	items := make([]CartItem, 0, len(order))
	for _, idx := range order {
		p := s.products[idx]
		if wanted[idx] > p.Stock {
			return nil, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, p.Name, p.Stock, wanted[idx])
		}
		items = append(items, CartItem{Product: p, Quantity: wanted[idx]})
	}

	next := s.cloneLocked()
	for _, idx := range order {
		next[idx].Stock -= wanted[idx]
		next[idx].UsageCount += wanted[idx]
	}
	if err := s.commit(ctx, next, "save products"); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, idx := range order {
		p := next[idx]
		s.emit(p.ID, EventStockSold, StockSold{
			ProductID:  p.ID,
			Name:       p.Name,
			Quantity:   wanted[idx],
			StockAfter: p.Stock,
			SoldAt:     now,
		})
	}
	return items, nil
}

// RevertSale puts back stock taken by ApplySale. Products deleted in the
// meantime are skipped.
func (s *Service) RevertSale(ctx context.Context, items []CartItem) error {
	s.mu.Lock()
	defer s.unlock(ctx)

	type restock struct {
		idx      int
		quantity int
	}

	next := s.cloneLocked()
	var restored []restock
	for _, item := range items {
		idx := s.indexLocked(item.Product.ID)
		if idx < 0 || item.Quantity <= 0 {
			continue
		}
		next[idx].Stock += item.Quantity
		next[idx].UsageCount -= item.Quantity
		if next[idx].UsageCount < 0 {
			next[idx].UsageCount = 0
		}
		restored = append(restored, restock{idx: idx, quantity: item.Quantity})
	}
	if len(restored) == 0 {
		return nil
	}

	if err := s.commit(ctx, next, "save products"); err != nil {
		return err
	}

	now := time.Now()
	for _, r := range restored {
		p := next[r.idx]
		s.emit(p.ID, EventStockRestored, StockRestored{
			ProductID:  p.ID,
			Quantity:   r.quantity,
			StockAfter: p.Stock,
			RestoredAt: now,
		})
	}
	return nil
}

func (s *Service) indexLocked(id string) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) cloneLocked() []Product {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// commit persists next and only then makes it the live catalog.
func (s *Service) commit(ctx context.Context, next []Product, op string) error {
	if err := s.docs.Save(ctx, StorageKey, next); err != nil {
		return apperr.Persistence(op, err)
	}
	s.products = next
	return nil
}

// emit queues an event; it is published once the write lock is released.
func (s *Service) emit(productID, eventType string, data any) {
	s.outbox.Add(productID, AggregateType, eventType, data)
}

// unlock releases the write lock, then publishes the events queued while
// it was held.
func (s *Service) unlock(ctx context.Context) {
	pending := s.outbox.Drain()
	s.mu.Unlock()

	if s.events == nil {
		return
	}
	for _, e := range pending {
		if _, err := s.events.Append(ctx, e.AggregateID, e.AggregateType, e.EventType, e.Data); err != nil {
			log.Printf("[Catalog] Failed to publish %s for product %s: %v", e.EventType, e.AggregateID, err)
		}
	}
}
