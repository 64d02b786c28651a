package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/shop-pos/internal/command"
	"github.com/example/shop-pos/internal/domain/apperr"
	"github.com/example/shop-pos/internal/domain/sale"
	"github.com/example/shop-pos/internal/export"
	"github.com/example/shop-pos/internal/query"
)

// DateLayout is the format of the from/to query parameters.
const DateLayout = "2006-01-02"

var (
	errInvalidBody  = fmt.Errorf("%w: malformed request body", apperr.ErrValidation)
	errInvalidQuery = fmt.Errorf("%w: malformed query parameter", apperr.ErrValidation)
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	now          func() time.Time
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		now:          time.Now,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Product Handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if !decodeBody(w, r, &cmd) {
		return
	}

	product, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// GetProducts lists the catalog, or searches in-stock products by name
// when q is set.
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		respondJSON(w, http.StatusOK, h.queryHandler.SearchProducts(q))
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListProducts())
}

func (h *Handlers) GetMostUsedProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.MostUsedProducts(limit))
}

func (h *Handlers) GetLowStock(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.LowStock())
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.queryHandler.GetProduct(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateProduct
	if !decodeBody(w, r, &cmd) {
		return
	}
	cmd.ProductID = chi.URLParam(r, "id")

	product, err := h.cmdHandler.UpdateProduct(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeleteProduct{ProductID: chi.URLParam(r, "id")}
	if err := h.cmdHandler.DeleteProduct(r.Context(), cmd); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout Handlers

func (h *Handlers) CompleteSale(w http.ResponseWriter, r *http.Request) {
	var cmd command.CompleteSale
	if !decodeBody(w, r, &cmd) {
		return
	}

	recorded, err := h.cmdHandler.CompleteSale(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, recorded)
}

// CompleteCreditSale answers 201 with the sale and updated customer. When
// the sale was recorded but the credit was not, it answers 500 and still
// includes the sale so the till can show what happened.
func (h *Handlers) CompleteCreditSale(w http.ResponseWriter, r *http.Request) {
	var cmd command.CompleteCreditSale
	if !decodeBody(w, r, &cmd) {
		return
	}

	result, err := h.cmdHandler.CompleteCreditSale(r.Context(), cmd)
	if errors.Is(err, command.ErrCreditNotRecorded) {
		log.Printf("[API] credit sale %s: %v", result.Sale.ID, err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error": command.ErrCreditNotRecorded.Error(),
			"sale":  result.Sale,
		})
		return
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Sales Handlers

// GetSales lists the ledger newest first. With from and to (YYYY-MM-DD,
// shop time zone) it returns sales on those days inclusive.
func (h *Handlers) GetSales(w http.ResponseWriter, r *http.Request) {
	start, end, ok, err := h.dateRange(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if !ok {
		respondJSON(w, http.StatusOK, h.queryHandler.ListSales())
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.SalesByDateRange(start, end))
}

func (h *Handlers) GetMonthlyAggregates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.MonthlyAggregates())
}

func (h *Handlers) GetTotalsByMonth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.TotalsByMonth())
}

// GetTopProducts ranks products for one month when year and month are
// given, otherwise across all sales.
func (h *Handlers) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", 0)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	month, err := intParam(r, "month", 0)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if year == 0 && month == 0 {
		limit, err := intParam(r, "limit", 0)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, h.queryHandler.TopProducts(limit))
		return
	}
	if year < 1 || month < 1 || month > 12 {
		respondErr(w, r, fmt.Errorf("%w: year and month must be given together", errInvalidQuery))
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.TopProductsForMonth(year, time.Month(month)))
}

// ExportCSV downloads the sales in the dashboard window as CSV.
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", "text/csv", export.WriteCSV)
}

// ExportXLSX downloads the sales in the dashboard window as a workbook.
func (h *Handlers) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteXLSX)
}

func (h *Handlers) export(
	w http.ResponseWriter,
	r *http.Request,
	ext, contentType string,
	write func(io.Writer, []sale.Sale, *time.Location) error,
) {
	window, err := query.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		respondErr(w, r, err)
		return
	}

	now := h.now()
	loc := h.queryHandler.Location()
	sales := h.queryHandler.SalesInWindow(now, window)

	var buf bytes.Buffer
	if err := write(&buf, sales, loc); err != nil {
		respondErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(now.In(loc), ext)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Customer Handlers

// GetCustomers lists customers, or searches by name or phone when q is set.
func (h *Handlers) GetCustomers(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		respondJSON(w, http.StatusOK, h.queryHandler.SearchCustomers(q))
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListCustomers())
}

func (h *Handlers) GetPendingCustomers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"customers":    h.queryHandler.CustomersWithPending(),
		"totalPending": h.queryHandler.TotalPending(),
	})
}

func (h *Handlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.queryHandler.GetCustomer(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *Handlers) AddCustomer(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddCustomer
	if !decodeBody(w, r, &cmd) {
		return
	}

	customer, err := h.cmdHandler.AddCustomer(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

func (h *Handlers) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateCustomer
	if !decodeBody(w, r, &cmd) {
		return
	}
	cmd.CustomerID = chi.URLParam(r, "id")

	customer, err := h.cmdHandler.UpdateCustomer(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *Handlers) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeleteCustomer{CustomerID: chi.URLParam(r, "id")}
	if err := h.cmdHandler.DeleteCustomer(r.Context(), cmd); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var cmd command.RecordPayment
	if !decodeBody(w, r, &cmd) {
		return
	}
	cmd.CustomerID = chi.URLParam(r, "id")

	customer, err := h.cmdHandler.RecordPayment(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Settings Handlers

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.GetSettings())
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateSettings
	if !decodeBody(w, r, &cmd) {
		return
	}

	s, err := h.cmdHandler.UpdateSettings(r.Context(), cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handlers) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.Currencies())
}

// GetDashboard returns the summary for ?window=7d|30d|90d|all (default 30d).
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	window, err := query.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.Summary(h.now(), window))
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, fmt.Sprintf("%v: %v", errInvalidBody, err), http.StatusBadRequest)
		return false
	}
	return true
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errInvalidQuery, name)
	}
	return n, nil
}

// dateRange reads from and to as whole days in the shop time zone. ok is
// false when neither is given.
func (h *Handlers) dateRange(r *http.Request) (start, end time.Time, ok bool, err error) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if from == "" || to == "" {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: from and to must be given together", errInvalidQuery)
	}

	loc := h.queryHandler.Location()
	start, err = time.ParseInLocation(DateLayout, from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: from must be YYYY-MM-DD", errInvalidQuery)
	}
	last, err := time.ParseInLocation(DateLayout, to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: to must be YYYY-MM-DD", errInvalidQuery)
	}
	end = last.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end, true, nil
}
