package email

import (
	"fmt"
	"html"
	"strings"
)

type LowStockAlert struct {
	To          []string
	ShopName    string
	ProductName string
	StockAfter  int
	Threshold   int
}

// PendingLine is one customer row in the digest. Amount is already
// formatted with the shop currency.
type PendingLine struct {
	Name   string
	Phone  string
	Amount string
}

type PendingDigest struct {
	To        []string
	ShopName  string
	Date      string
	Customers []PendingLine
	Total     string
}

const pageStart = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
`

const pageEnd = `
	<p style="font-size: 12px; color: #999;">Sent automatically by %s.</p>
</body>
</html>`

// BuildLowStockBody builds the HTML body for a low stock alert
func BuildLowStockBody(a LowStockAlert) string {
	var b strings.Builder
	b.WriteString(pageStart)

	status := fmt.Sprintf("%d left", a.StockAfter)
	if a.StockAfter == 0 {
		status = "out of stock"
	}
	fmt.Fprintf(&b, `	<h1 style="font-size: 22px; color: #c0392b;">Low stock: %s</h1>
	<p><strong>%s</strong> is %s. Alerts are sent at %d units or fewer.</p>
`, html.EscapeString(a.ProductName), html.EscapeString(a.ProductName), status, a.Threshold)

	fmt.Fprintf(&b, pageEnd, html.EscapeString(a.ShopName))
	return b.String()
}

// BuildPendingDigestBody builds the HTML body for the pending credit digest
func BuildPendingDigestBody(d PendingDigest) string {
	var b strings.Builder
	b.WriteString(pageStart)

	fmt.Fprintf(&b, `	<h1 style="font-size: 22px;">Pending credit on %s</h1>
`, html.EscapeString(d.Date))

	if len(d.Customers) == 0 {
		b.WriteString(`	<p>No customer has a pending balance.</p>
`)
	} else {
		b.WriteString(`	<table style="width: 100%; border-collapse: collapse;">
		<thead>
			<tr style="background: #f8f9fa;">
				<th style="padding: 8px; text-align: left;">Customer</th>
				<th style="padding: 8px; text-align: left;">Phone</th>
				<th style="padding: 8px; text-align: right;">Pending</th>
			</tr>
		</thead>
		<tbody>
`)
		for _, c := range d.Customers {
			fmt.Fprintf(&b, `			<tr>
				<td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>
`, html.EscapeString(c.Name), html.EscapeString(c.Phone), html.EscapeString(c.Amount))
		}
		fmt.Fprintf(&b, `		</tbody>
	</table>
	<p style="text-align: right; font-size: 18px;"><strong>Total: %s</strong></p>
`, html.EscapeString(d.Total))
	}

	fmt.Fprintf(&b, pageEnd, html.EscapeString(d.ShopName))
	return b.String()
}
