package notification

import (
	"context"
	"sort"
	"time"

	"github.com/example/shop-pos/internal/domain/customer"
	"github.com/example/shop-pos/internal/domain/settings"
	"github.com/example/shop-pos/internal/email"
	"github.com/example/shop-pos/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

// BuildDigest lists customers with a pending balance, largest first.
func BuildDigest(cfg settings.Settings, customers []customer.Customer, now time.Time) email.PendingDigest {
	pending := make([]customer.Customer, 0, len(customers))
	total := decimal.Zero
	for _, c := range customers {
		if c.PendingAmount.IsPositive() {
			pending = append(pending, c)
			total = total.Add(c.PendingAmount)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].PendingAmount.GreaterThan(pending[j].PendingAmount)
	})

	lines := make([]email.PendingLine, 0, len(pending))
	for _, c := range pending {
		lines = append(lines, email.PendingLine{
			Name:   c.Name,
			Phone:  c.Phone,
			Amount: settings.FormatAmount(cfg.CurrencySymbol, c.PendingAmount),
		})
	}

	return email.PendingDigest{
		ShopName:  cfg.ShopName,
		Date:      now.Format("2006-01-02"),
		Customers: lines,
		Total:     settings.FormatAmount(cfg.CurrencySymbol, total),
	}
}

// DocumentState loads settings and customers straight from the document store.
type DocumentState struct {
	docs store.DocumentStore
}

func NewDocumentState(docs store.DocumentStore) *DocumentState {
	return &DocumentState{docs: docs}
}

func (s *DocumentState) Load(ctx context.Context) (settings.Settings, []customer.Customer, error) {
	settingsSvc, err := settings.NewService(ctx, s.docs, nil)
	if err != nil {
		return settings.Settings{}, nil, err
	}
	customerSvc, err := customer.NewService(ctx, s.docs, nil)
	if err != nil {
		return settings.Settings{}, nil, err
	}
	return settingsSvc.Get(), customerSvc.List(), nil
}
