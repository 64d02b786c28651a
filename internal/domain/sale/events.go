package sale

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventSaleRecorded = "SaleRecorded"

type SaleRecorded struct {
	SaleID     string          `json:"sale_id"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	CustomerID string          `json:"customer_id,omitempty"`
	IsPending  bool            `json:"is_pending,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}
