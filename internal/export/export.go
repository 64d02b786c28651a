// Package export writes the sales ledger as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/shop-pos/internal/domain/sale"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	DateLayout = "2006-01-02 15:04"
	SheetName  = "Sales"
)

var header = []string{"Date", "Items", "Total"}

// FileName is the download name for an export made at now, e.g.
// sales-export-2024-03-15.csv.
func FileName(now time.Time, ext string) string {
	return fmt.Sprintf("sales-export-%s.%s", now.Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}

// Row renders one sale as date, items and total. Dates are shown in loc.
func Row(s sale.Sale, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	items := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, fmt.Sprintf("%s x%d", item.Product.Name, item.Quantity))
	}
	return []string{
		s.Date.In(loc).Format(DateLayout),
		strings.Join(items, "; "),
		s.Total.StringFixed(2),
	}
}

// WriteCSV writes a header line and one line per sale.
func WriteCSV(w io.Writer, sales []sale.Sale, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, s := range sales {
		if err := cw.Write(Row(s, loc)); err != nil {
			return errors.Wrapf(err, "write csv row for sale %s", s.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// WriteXLSX writes the same rows as WriteCSV to a single-sheet workbook.
// Totals are stored as numbers so they can be summed in a spreadsheet.
func WriteXLSX(w io.Writer, sales []sale.Sale, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.Wrap(err, "rename sheet")
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return errors.Wrap(err, "write xlsx header")
	}

	for i, s := range sales {
		cols := Row(s, loc)
		row := []any{cols[0], cols[1], s.Total.Round(2).InexactFloat64()}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return errors.Wrapf(err, "write xlsx row for sale %s", s.ID)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 18); err != nil {
		return errors.Wrap(err, "set column width")
	}
	if err := f.SetColWidth(SheetName, "B", "B", 60); err != nil {
		return errors.Wrap(err, "set column width")
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write xlsx")
	}
	return nil
}
