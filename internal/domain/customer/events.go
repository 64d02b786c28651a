package customer

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventCustomerAdded   = "CustomerAdded"
	EventCustomerUpdated = "CustomerUpdated"
	EventCustomerDeleted = "CustomerDeleted"
	EventCreditRecorded  = "CreditRecorded"
	EventPaymentRecorded = "PaymentRecorded"
)

type CustomerAdded struct {
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}

type CustomerUpdated struct {
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CustomerDeleted struct {
	CustomerID string    `json:"customer_id"`
	DeletedAt  time.Time `json:"deleted_at"`
}

type CreditRecorded struct {
	CustomerID    string          `json:"customer_id"`
	TransactionID string          `json:"transaction_id"`
	SaleID        string          `json:"sale_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PendingAfter  decimal.Decimal `json:"pending_after"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// PaymentRecorded carries the tendered amount; Excess is the part that
// exceeded the pending balance and was absorbed.
type PaymentRecorded struct {
	CustomerID    string          `json:"customer_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Excess        decimal.Decimal `json:"excess"`
	PendingAfter  decimal.Decimal `json:"pending_after"`
	RecordedAt    time.Time       `json:"recorded_at"`
}
