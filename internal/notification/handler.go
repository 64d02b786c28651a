package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/shop-pos/internal/domain/customer"
	"github.com/example/shop-pos/internal/domain/product"
	"github.com/example/shop-pos/internal/domain/settings"
	"github.com/example/shop-pos/internal/email"
	"github.com/example/shop-pos/internal/infrastructure/store"
	"github.com/pkg/errors"
)

// Mailer sends the notifications built by Handler
type Mailer interface {
	SendLowStockAlert(alert email.LowStockAlert) error
	SendPendingDigest(digest email.PendingDigest) error
}

// ShopState reads the current settings and customers. The notifier runs in
// its own process, so it reloads them from the document store each time.
type ShopState interface {
	Load(ctx context.Context) (settings.Settings, []customer.Customer, error)
}

// Handler processes events for sending notifications
type Handler struct {
	mailer     Mailer
	state      ShopState
	recipients []string
	threshold  int
	loc        *time.Location
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, state ShopState, recipients []string, lowStockThreshold int, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		mailer:     mailer,
		state:      state,
		recipients: recipients,
		threshold:  lowStockThreshold,
		loc:        loc,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, event store.Event) error {
	// Only StockSold can trigger an alert
	if event.EventType != product.EventStockSold {
		return nil
	}

	var e product.StockSold
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal StockSold event: %v", err)
		return err
	}
	if e.StockAfter > h.threshold {
		return nil
	}
	if len(h.recipients) == 0 {
		log.Printf("[Notifier] %s is low (%d left); no recipients configured", e.Name, e.StockAfter)
		return nil
	}

	shopName := settings.Defaults().ShopName
	if cfg, _, err := h.state.Load(ctx); err != nil {
		log.Printf("[Notifier] Error loading settings: %v", err)
	} else {
		shopName = cfg.ShopName
	}

	alert := email.LowStockAlert{
		To:          h.recipients,
		ShopName:    shopName,
		ProductName: e.Name,
		StockAfter:  e.StockAfter,
		Threshold:   h.threshold,
	}
	if err := h.mailer.SendLowStockAlert(alert); err != nil {
		log.Printf("[Notifier] Failed to send low stock alert for %s: %v", e.ProductID, err)
		return err
	}

	log.Printf("[Notifier] Low stock alert sent for %s (%d left)", e.Name, e.StockAfter)
	return nil
}

// SendPendingDigest mails the customers with a pending balance as of now.
// Without recipients it does nothing.
func (h *Handler) SendPendingDigest(ctx context.Context, now time.Time) error {
	if len(h.recipients) == 0 {
		log.Println("[Notifier] Skipping pending digest; no recipients configured")
		return nil
	}

	cfg, customers, err := h.state.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load shop state")
	}

	digest := BuildDigest(cfg, customers, now.In(h.loc))
	digest.To = h.recipients
	if err := h.mailer.SendPendingDigest(digest); err != nil {
		log.Printf("[Notifier] Failed to send pending digest: %v", err)
		return err
	}

	log.Printf("[Notifier] Pending digest sent: %d customers, %s", len(digest.Customers), digest.Total)
	return nil
}
