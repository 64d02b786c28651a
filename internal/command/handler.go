package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/shop-pos/internal/domain/apperr"
	"github.com/example/shop-pos/internal/domain/customer"
	"github.com/example/shop-pos/internal/domain/product"
	"github.com/example/shop-pos/internal/domain/sale"
	"github.com/example/shop-pos/internal/domain/settings"
)

const DefaultPaymentDescription = "Payment received"

var (
	ErrCustomerRequired = fmt.Errorf("%w: credit sale needs a customer id or new customer details", apperr.ErrValidation)
	// ErrCreditNotRecorded is returned with the sale when the sale reached
	// the ledger but the customer's credit could not be saved.
	ErrCreditNotRecorded = errors.New("sale recorded but customer credit was not")
)

type Handler struct {
	settingsSvc *settings.Service
	productSvc  *product.Service
	saleSvc     *sale.Service
	customerSvc *customer.Service
}

func NewHandler(
	settingsSvc *settings.Service,
	productSvc *product.Service,
	saleSvc *sale.Service,
	customerSvc *customer.Service,
) *Handler {
	return &Handler{
		settingsSvc: settingsSvc,
		productSvc:  productSvc,
		saleSvc:     saleSvc,
		customerSvc: customerSvc,
	}
}

// CreditSale is the outcome of a credit checkout.
type CreditSale struct {
	Sale     sale.Sale         `json:"sale"`
	Customer customer.Customer `json:"customer"`
}

// CreateProduct adds a product to the catalog
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (product.Product, error) {
	return h.productSvc.Add(ctx, product.NewProduct{
		Name:  cmd.Name,
		Price: cmd.Price,
		Stock: cmd.Stock,
		Image: cmd.Image,
	})
}

// UpdateProduct updates a product
func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) (product.Product, error) {
	return h.productSvc.Update(ctx, cmd.ProductID, product.Update{
		Name:  cmd.Name,
		Price: cmd.Price,
		Stock: cmd.Stock,
		Image: cmd.Image,
	})
}

// DeleteProduct deletes a product
func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	return h.productSvc.Delete(ctx, cmd.ProductID)
}

// CompleteSale sells the items for cash
func (h *Handler) CompleteSale(ctx context.Context, cmd CompleteSale) (sale.Sale, error) {
	items, err := h.productSvc.ApplySale(ctx, cmd.Items)
	if err != nil {
		return sale.Sale{}, err
	}
	return h.record(ctx, items, "", false)
}

// CompleteCreditSale sells the items on credit.
//
// Steps: resolve the customer, take stock, register a new customer if
// asked, append the sale, then record the credit. Failures before the
// ledger append undo the stock change and remove a customer created for
// this sale. A failure after it returns the sale together with
// ErrCreditNotRecorded.
func (h *Handler) CompleteCreditSale(ctx context.Context, cmd CompleteCreditSale) (CreditSale, error) {
	// 1. Resolve customer without writing anything
	var buyer customer.Customer
	switch {
	case cmd.CustomerID != "":
		c, ok := h.customerSvc.FindByID(cmd.CustomerID)
		if !ok {
			return CreditSale{}, customer.ErrCustomerNotFound
		}
		buyer = c
	case cmd.NewCustomer != nil:
		if err := customer.ValidateContact(cmd.NewCustomer.Name, cmd.NewCustomer.Phone); err != nil {
			return CreditSale{}, err
		}
	default:
		return CreditSale{}, ErrCustomerRequired
	}

	// 2. Take stock (emits StockSold events)
	items, err := h.productSvc.ApplySale(ctx, cmd.Items)
	if err != nil {
		return CreditSale{}, err
	}

	// 3. Register the new customer
	created := false
	if buyer.ID == "" {
		buyer, err = h.customerSvc.Add(ctx, cmd.NewCustomer.Name, cmd.NewCustomer.Phone)
		if err != nil {
			h.revert(ctx, items)
			return CreditSale{}, err
		}
		created = true
	}

	// 4. Append to ledger
	s, err := h.record(ctx, items, buyer.ID, true)
	if err != nil {
		if created {
			h.forgetCustomer(ctx, buyer.ID)
		}
		return CreditSale{}, err
	}

	// 5. Record the credit; the ledger is append-only so no rollback here
	updated, err := h.customerSvc.RecordCredit(ctx, buyer.ID, s.Total, "Sale #"+s.ShortID(), s.ID)
	if err != nil {
		log.Printf("[Checkout] Sale %s recorded but credit for customer %s failed: %v", s.ID, buyer.ID, err)
		return CreditSale{Sale: s, Customer: buyer}, fmt.Errorf("%w: %w", ErrCreditNotRecorded, err)
	}

	return CreditSale{Sale: s, Customer: updated}, nil
}

// record appends a sale built from items, undoing the stock change if the
// ledger rejects it.
func (h *Handler) record(ctx context.Context, items []product.CartItem, customerID string, pending bool) (sale.Sale, error) {
	s, err := sale.New(items, customerID, pending)
	if err != nil {
		h.revert(ctx, items)
		return sale.Sale{}, err
	}
	if err := h.saleSvc.Append(ctx, s); err != nil {
		h.revert(ctx, items)
		return sale.Sale{}, err
	}
	return s, nil
}

// Compensating writes run even when the request context is done.

func (h *Handler) revert(ctx context.Context, items []product.CartItem) {
	if err := h.productSvc.RevertSale(context.WithoutCancel(ctx), items); err != nil {
		log.Printf("[Checkout] Failed to restore stock for %d items: %v", len(items), err)
	}
}

func (h *Handler) forgetCustomer(ctx context.Context, customerID string) {
	if err := h.customerSvc.Delete(context.WithoutCancel(ctx), customerID); err != nil {
		log.Printf("[Checkout] Failed to remove customer %s created for a rejected sale: %v", customerID, err)
	}
}

// AddCustomer registers a customer
func (h *Handler) AddCustomer(ctx context.Context, cmd AddCustomer) (customer.Customer, error) {
	return h.customerSvc.Add(ctx, cmd.Name, cmd.Phone)
}

// UpdateCustomer updates a customer's contact details
func (h *Handler) UpdateCustomer(ctx context.Context, cmd UpdateCustomer) (customer.Customer, error) {
	return h.customerSvc.Update(ctx, cmd.CustomerID, customer.Update{Name: cmd.Name, Phone: cmd.Phone})
}

// DeleteCustomer deletes a customer
func (h *Handler) DeleteCustomer(ctx context.Context, cmd DeleteCustomer) error {
	return h.customerSvc.Delete(ctx, cmd.CustomerID)
}

// RecordPayment records money received from a customer
func (h *Handler) RecordPayment(ctx context.Context, cmd RecordPayment) (customer.Customer, error) {
	desc := cmd.Description
	if desc == "" {
		desc = DefaultPaymentDescription
	}
	return h.customerSvc.RecordPayment(ctx, cmd.CustomerID, cmd.Amount, desc)
}

// UpdateSettings changes shop name or currency
func (h *Handler) UpdateSettings(ctx context.Context, cmd UpdateSettings) (settings.Settings, error) {
	return h.settingsSvc.Update(ctx, settings.Update{
		Currency:       cmd.Currency,
		CurrencySymbol: cmd.CurrencySymbol,
		ShopName:       cmd.ShopName,
	})
}
