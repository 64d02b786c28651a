package command

import (
	"github.com/example/shop-pos/internal/domain/product"
	"github.com/shopspring/decimal"
)

// Product Commands
type CreateProduct struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
	Image string          `json:"image,omitempty"`
}

type UpdateProduct struct {
	ProductID string           `json:"product_id"`
	Name      *string          `json:"name,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Stock     *int             `json:"stock,omitempty"`
	Image     *string          `json:"image,omitempty"`
}

type DeleteProduct struct {
	ProductID string `json:"product_id"`
}

// Checkout Commands
type CompleteSale struct {
	Items []product.SaleLine `json:"items"`
}

// NewCustomer registers the buyer as part of a credit sale.
type NewCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CompleteCreditSale sells on credit to an existing customer, or to a new
// one when CustomerID is empty and NewCustomer is set.
type CompleteCreditSale struct {
	Items       []product.SaleLine `json:"items"`
	CustomerID  string             `json:"customerId,omitempty"`
	NewCustomer *NewCustomer       `json:"newCustomer,omitempty"`
}

// Customer Commands
type AddCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type UpdateCustomer struct {
	CustomerID string  `json:"customer_id"`
	Name       *string `json:"name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

type DeleteCustomer struct {
	CustomerID string `json:"customer_id"`
}

type RecordPayment struct {
	CustomerID  string          `json:"customerId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// Settings Commands
type UpdateSettings struct {
	Currency       *string `json:"currency,omitempty"`
	CurrencySymbol *string `json:"currencySymbol,omitempty"`
	ShopName       *string `json:"shopName,omitempty"`
}
