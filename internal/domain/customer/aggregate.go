package customer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/example/shop-pos/internal/domain/apperr"
	"github.com/example/shop-pos/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateType = "Customer"
	StorageKey    = "shop_customers"
)

var (
	ErrCustomerNotFound = fmt.Errorf("customer %w", apperr.ErrNotFound)
	ErrInvalidName      = fmt.Errorf("%w: name is required and must be at most 100 characters", apperr.ErrValidation)
	ErrInvalidPhone     = fmt.Errorf("%w: phone is required and must be at most 20 characters", apperr.ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", apperr.ErrValidation)
)

type TransactionType string

const (
	TransactionCredit  TransactionType = "credit"
	TransactionPayment TransactionType = "payment"
)

// Transaction is one entry in a customer's credit history. It is never
// changed once appended.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	SaleID      string          `json:"saleId,omitempty"`
}

type Customer struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
	Transactions  []Transaction   `json:"transactions"`
}

func (c Customer) clone() Customer {
	txs := make([]Transaction, len(c.Transactions))
	copy(txs, c.Transactions)
	c.Transactions = txs
	return c
}

type contact struct {
	Name  string `validate:"required,max=100"`
	Phone string `validate:"required,max=20"`
}

var fieldErrors = map[string]error{
	"Name":  ErrInvalidName,
	"Phone": ErrInvalidPhone,
}

// ValidateContact checks a name and phone the way Add does, without
// creating anything.
func ValidateContact(name, phone string) error {
	return apperr.ValidateStruct(contact{Name: strings.TrimSpace(name), Phone: strings.TrimSpace(phone)}, fieldErrors)
}

// Update carries the fields to change; nil fields are left as they are.
type Update struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type Service struct {
	mu        sync.RWMutex
	docs      store.DocumentStore
	events    store.EventLogInterface
	outbox    store.Outbox
	customers []Customer
}

// NewService loads the saved customer ledger.
func NewService(ctx context.Context, docs store.DocumentStore, events store.EventLogInterface) (*Service, error) {
	var customers []Customer
	if _, err := docs.Load(ctx, StorageKey, &customers); err != nil {
		return nil, apperr.Persistence("load customers", err)
	}
	if customers == nil {
		customers = []Customer{}
	}
	for i := range customers {
		if customers[i].Transactions == nil {
			customers[i].Transactions = []Transaction{}
		}
	}
	return &Service{docs: docs, events: events, customers: customers}, nil
}

func (s *Service) Add(ctx context.Context, name, phone string) (Customer, error) {
	if err := ValidateContact(name, phone); err != nil {
		return Customer{}, err
	}
	in := contact{Name: strings.TrimSpace(name), Phone: strings.TrimSpace(phone)}

	c := Customer{
		ID:            uuid.New().String(),
		Name:          in.Name,
		Phone:         in.Phone,
		PendingAmount: decimal.Zero,
		CreatedAt:     time.Now().UTC(),
		Transactions:  []Transaction{},
	}

	s.mu.Lock()
	defer s.unlock(ctx)

	next := append(s.cloneLocked(), c)
	if err := s.commit(ctx, next); err != nil {
		return Customer{}, err
	}

	s.emit(c.ID, EventCustomerAdded, CustomerAdded{
		CustomerID: c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		CreatedAt:  c.CreatedAt,
	})
	return c.clone(), nil
}

func (s *Service) Update(ctx context.Context, id string, u Update) (Customer, error) {
	s.mu.Lock()
	defer s.unlock(ctx)

	idx := s.indexLocked(id)
	if idx < 0 {
		return Customer{}, ErrCustomerNotFound
	}

	c := s.customers[idx].clone()
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Phone != nil {
		c.Phone = strings.TrimSpace(*u.Phone)
	}
	if err := apperr.ValidateStruct(contact{Name: c.Name, Phone: c.Phone}, fieldErrors); err != nil {
		return Customer{}, err
	}

	next := s.cloneLocked()
	next[idx] = c
	if err := s.commit(ctx, next); err != nil {
		return Customer{}, err
	}

	s.emit(c.ID, EventCustomerUpdated, CustomerUpdated{
		CustomerID: c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		UpdatedAt:  time.Now(),
	})
	return c.clone(), nil
}

// Delete removes a customer and their history. Sales that reference the
// customer keep the id.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.unlock(ctx)

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrCustomerNotFound
	}

	next := make([]Customer, 0, len(s.customers)-1)
	next = append(next, s.customers[:idx]...)
	next = append(next, s.customers[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.emit(id, EventCustomerDeleted, CustomerDeleted{CustomerID: id, DeletedAt: time.Now()})
	return nil
}

// RecordCredit adds amount to the customer's pending balance. saleID may
// be empty for credit not tied to a sale.
func (s *Service) RecordCredit(ctx context.Context, id string, amount decimal.Decimal, description, saleID string) (Customer, error) {
	if !amount.IsPositive() {
		return Customer{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.unlock(ctx)

	idx := s.indexLocked(id)
	if idx < 0 {
		return Customer{}, ErrCustomerNotFound
	}

	tx := Transaction{
		ID:          uuid.New().String(),
		Amount:      amount,
		Type:        TransactionCredit,
		Description: description,
		Date:        time.Now().UTC(),
		SaleID:      saleID,
	}

	c := s.customers[idx].clone()
	c.PendingAmount = c.PendingAmount.Add(amount)
	c.Transactions = append(c.Transactions, tx)

	next := s.cloneLocked()
	next[idx] = c
	if err := s.commit(ctx, next); err != nil {
		return Customer{}, err
	}

	s.emit(c.ID, EventCreditRecorded, CreditRecorded{
		CustomerID:    c.ID,
		TransactionID: tx.ID,
		SaleID:        saleID,
		Amount:        amount,
		PendingAfter:  c.PendingAmount,
		RecordedAt:    tx.Date,
	})
	return c.clone(), nil
}

// RecordPayment reduces the pending balance by amount, never below zero.
// The transaction keeps the full amount tendered; any excess over the
// balance is absorbed.
func (s *Service) RecordPayment(ctx context.Context, id string, amount decimal.Decimal, description string) (Customer, error) {
	if !amount.IsPositive() {
		return Customer{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.unlock(ctx)

	idx := s.indexLocked(id)
	if idx < 0 {
		return Customer{}, ErrCustomerNotFound
	}

	tx := Transaction{
		ID:          uuid.New().String(),
		Amount:      amount,
		Type:        TransactionPayment,
		Description: description,
		Date:        time.Now().UTC(),
	}

	c := s.customers[idx].clone()
	excess := decimal.Zero
	remaining := c.PendingAmount.Sub(amount)
	if remaining.IsNegative() {
		excess = remaining.Neg()
		remaining = decimal.Zero
	}
	c.PendingAmount = remaining
	c.Transactions = append(c.Transactions, tx)

	next := s.cloneLocked()
	next[idx] = c
	if err := s.commit(ctx, next); err != nil {
		return Customer{}, err
	}

	if excess.IsPositive() {
		log.Printf("[Customers] Payment from %s exceeded pending balance by %s", c.ID, excess.StringFixed(2))
	}
	s.emit(c.ID, EventPaymentRecorded, PaymentRecorded{
		CustomerID:    c.ID,
		TransactionID: tx.ID,
		Amount:        amount,
		Excess:        excess,
		PendingAfter:  c.PendingAmount,
		RecordedAt:    tx.Date,
	})
	return c.clone(), nil
}

// TotalPending sums pending balances across all customers.
func (s *Service) TotalPending() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, c := range s.customers {
		total = total.Add(c.PendingAmount)
	}
	return total
}

func (s *Service) FindByID(id string) (Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Customer{}, false
	}
	return s.customers[idx].clone(), true
}

func (s *Service) List() []Customer {
	return s.filter(func(Customer) bool { return true })
}

// WithPending returns customers that still owe money.
func (s *Service) WithPending() []Customer {
	return s.filter(func(c Customer) bool { return c.PendingAmount.IsPositive() })
}

// Search matches query case-insensitively against name, or as a substring
// of the phone number.
func (s *Service) Search(query string) []Customer {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.List()
	}
	return s.filter(func(c Customer) bool {
		return strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Phone, q)
	})
}

func (s *Service) filter(keep func(Customer) bool) []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Customer, 0)
	for _, c := range s.customers {
		if keep(c) {
			out = append(out, c.clone())
		}
	}
	return out
}

func (s *Service) indexLocked(id string) int {
	for i, c := range s.customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) cloneLocked() []Customer {
	out := make([]Customer, len(s.customers))
	copy(out, s.customers)
	return out
}

func (s *Service) commit(ctx context.Context, next []Customer) error {
	if err := s.docs.Save(ctx, StorageKey, next); err != nil {
		return apperr.Persistence("save customers", err)
	}
	s.customers = next
	return nil
}

// emit queues an event; it is published once the write lock is released.
func (s *Service) emit(customerID, eventType string, data any) {
	s.outbox.Add(customerID, AggregateType, eventType, data)
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
			log.Printf("[Customers] Failed to publish %s for customer %s: %v", e.EventType, e.AggregateID, err)
		}
	}
}
