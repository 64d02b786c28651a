package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildLowStockBody(t *testing.T) {
	body := BuildLowStockBody(LowStockAlert{ShopName: "ShopEase", ProductName: "Milk <1L>", StockAfter: 2, Threshold: 5})

	assert.Contains(t, body, "Milk &lt;1L&gt;")
	assert.NotContains(t, body, "Milk <1L>")
	assert.Contains(t, body, "2 left")
	assert.Contains(t, body, "5 units or fewer")
	assert.Contains(t, body, "Sent automatically by ShopEase.")
}

func TestBuildLowStockBody_OutOfStock(t *testing.T) {
	body := BuildLowStockBody(LowStockAlert{ShopName: "ShopEase", ProductName: "Bread", StockAfter: 0, Threshold: 5})

	assert.Contains(t, body, "out of stock")
}

func TestBuildPendingDigestBody(t *testing.T) {
	body := BuildPendingDigestBody(PendingDigest{
		ShopName: "ShopEase",
		Date:     "2024-03-15",
		Customers: []PendingLine{
			{Name: "Asha", Phone: "555", Amount: "₹180.00"},
			{Name: "Ravi", Phone: "777", Amount: "₹1,020.50"},
		},
		Total: "₹1,200.50",
	})

	assert.Contains(t, body, "Pending credit on 2024-03-15")
	assert.Equal(t, 2, strings.Count(body, "<tr>"))
	assert.Contains(t, body, "₹1,020.50")
	assert.Contains(t, body, "Total: ₹1,200.50")
}

func TestBuildPendingDigestBody_Empty(t *testing.T) {
	body := BuildPendingDigestBody(PendingDigest{ShopName: "ShopEase", Date: "2024-03-15"})

	assert.Contains(t, body, "No customer has a pending balance.")
	assert.NotContains(t, body, "<table")
}
