package sale

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const TopProductsPerMonth = 10

// MonthlyAggregate is the revenue and sale count of one calendar month.
type MonthlyAggregate struct {
	Year  int             `json:"year"`
	Month time.Month      `json:"month"`
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// ProductSales is the quantity and revenue sold under one product name.
type ProductSales struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// MonthlyAggregates groups sales by month in the shop time zone, oldest
// month first. Labels are short month names ("Mar").
func (s *Service) MonthlyAggregates() []MonthlyAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return monthly(s.sales, s.loc)
}

// TotalsByMonth is MonthlyAggregates labelled with month and year ("Mar 2024").
func (s *Service) TotalsByMonth() []MonthlyAggregate {
	aggs := s.MonthlyAggregates()
	for i := range aggs {
		aggs[i].Label = fmt.Sprintf("%s %d", aggs[i].Label, aggs[i].Year)
	}
	return aggs
}

// TopProductsForMonth ranks products sold in the given month by quantity.
func (s *Service) TopProductsForMonth(year int, month time.Month) []ProductSales {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var inMonth []Sale
	for _, sale := range s.sales {
		d := sale.Date.In(s.loc)
		if d.Year() == year && d.Month() == month {
			inMonth = append(inMonth, sale)
		}
	}
	return rankProducts(inMonth, TopProductsPerMonth)
}

// TopProducts ranks products across the whole ledger. limit <= 0 returns all.
func (s *Service) TopProducts(limit int) []ProductSales {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankProducts(s.sales, limit)
}

func monthly(sales []Sale, loc *time.Location) []MonthlyAggregate {
	type key struct {
		year  int
		month time.Month
	}

	groups := make(map[key]*MonthlyAggregate)
	for _, sale := range sales {
		d := sale.Date.In(loc)
		k := key{year: d.Year(), month: d.Month()}
		agg, ok := groups[k]
		if !ok {
			agg = &MonthlyAggregate{
				Year:  k.year,
				Month: k.month,
				Label: k.month.String()[:3],
				Total: decimal.Zero,
			}
			groups[k] = agg
		}
		agg.Total = agg.Total.Add(sale.Total)
		agg.Count++
	}

	out := make([]MonthlyAggregate, 0, len(groups))
	for _, agg := range groups {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// rankProducts sums quantity and revenue by product name. Products are
// ordered by quantity, highest first; ties keep the order in which names
// were first seen in sales.
func rankProducts(sales []Sale, limit int) []ProductSales {
	index := make(map[string]int)
	out := make([]ProductSales, 0)
	for _, sale := range sales {
		for _, item := range sale.Items {
			name := item.Product.Name
			i, ok := index[name]
			if !ok {
				i = len(out)
				index[name] = i
				out = append(out, ProductSales{Name: name, Revenue: decimal.Zero})
			}
			out[i].Quantity += item.Quantity
			out[i].Revenue = out[i].Revenue.Add(item.Subtotal())
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity > out[j].Quantity
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
