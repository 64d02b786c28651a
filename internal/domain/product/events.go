package product

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventProductAdded   = "ProductAdded"
	EventProductUpdated = "ProductUpdated"
	EventProductDeleted = "ProductDeleted"
	EventStockSold      = "StockSold"
	EventStockRestored  = "StockRestored"
)

type ProductAdded struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
}

type ProductUpdated struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Image     string          `json:"image,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ProductDeleted struct {
	ProductID string    `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// StockSold is emitted once per product when a sale is applied to the catalog
type StockSold struct {
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	StockAfter int       `json:"stock_after"`
	SoldAt     time.Time `json:"sold_at"`
}

// StockRestored is emitted when a sale that never reached the ledger is undone
type StockRestored struct {
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	StockAfter int       `json:"stock_after"`
	RestoredAt time.Time `json:"restored_at"`
}
