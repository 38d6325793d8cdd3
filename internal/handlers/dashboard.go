package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"brokerdash/internal/broker/kiwoom"
	"brokerdash/internal/broker/ls"
	apperrors "brokerdash/internal/errors"
	"brokerdash/internal/middleware"
	"brokerdash/internal/scheduler"
	"brokerdash/internal/services"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 16

// DashboardHandler serves the brokerage endpoints.
type DashboardHandler struct {
	dashboard *services.DashboardService
	tokens    TokenStatus
	now       func() time.Time
	logger    *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(deps *Dependencies) *DashboardHandler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{
		dashboard: deps.Dashboard,
		tokens:    deps.Tokens,
		now:       now,
		logger:    logger.With("component", "handlers"),
	}
}

type healthToken struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Cached    bool      `json:"cached"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

type healthResponse struct {
	Status string        `json:"status"`
	Tokens []healthToken `json:"tokens"`
}

// Health reports liveness along with the cached token state.
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Tokens: []healthToken{}}
	if h.tokens != nil {
		for _, e := range h.tokens.Snapshot() {
			resp.Tokens = append(resp.Tokens, healthToken{
				ID:        e.ID,
				Source:    e.Source,
				Cached:    e.Cached,
				ExpiresAt: e.ExpiresAt,
			})
		}
	}
	respondJSON(w, h.logger, http.StatusOK, resp)
}

// Balance handles GET /api/balance.
func (h *DashboardHandler) Balance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.dashboard.Balance(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, bal)
}

// FuturesBalance handles GET /api/futures-balance.
func (h *DashboardHandler) FuturesBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.dashboard.FuturesBalance(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, bal)
}

// OverseasBalance handles GET /api/overseas-balance.
func (h *DashboardHandler) OverseasBalance(w http.ResponseWriter, r *http.Request) {
	exchange := strings.ToUpper(middleware.SanitizeString(r.URL.Query().Get("exchange")))
	currency := strings.ToUpper(middleware.SanitizeString(r.URL.Query().Get("currency")))

	var verrs middleware.ValidationErrors
	if exchange != "" && !middleware.ValidateExchange(exchange) {
		verrs.Add("exchange", "unknown exchange code")
	}
	if currency != "" && !middleware.ValidateCurrency(currency) {
		verrs.Add("currency", "must be a three-letter currency code")
	}
	if verrs.HasErrors() {
		verrs.WriteJSON(w)
		return
	}

	bal, err := h.dashboard.OverseasBalance(r.Context(), exchange, currency)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, bal)
}

// optionalDate reads the date query parameter, writing a 400 when it is
// present but malformed.
func optionalDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := middleware.SanitizeString(r.URL.Query().Get("date"))
	if date != "" && !middleware.ValidateDate(date) {
		var verrs middleware.ValidationErrors
		verrs.Add("date", "must be YYYYMMDD")
		verrs.WriteJSON(w)
		return "", false
	}
	return date, true
}

// Orders handles GET /api/orders.
func (h *DashboardHandler) Orders(w http.ResponseWriter, r *http.Request) {
	date, ok := optionalDate(w, r)
	if !ok {
		return
	}
	orders, err := h.dashboard.Orders(r.Context(), date)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, orders)
}

// FuturesOrders handles GET /api/futures-orders.
func (h *DashboardHandler) FuturesOrders(w http.ResponseWriter, r *http.Request) {
	date, ok := optionalDate(w, r)
	if !ok {
		return
	}
	orders, err := h.dashboard.FuturesOrders(r.Context(), date)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, orders)
}

// PeriodPnl handles GET /api/period-pnl. Both dates are required.
func (h *DashboardHandler) PeriodPnl(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := middleware.SanitizeString(q.Get("startDate"))
	end := middleware.SanitizeString(q.Get("endDate"))

	var verrs middleware.ValidationErrors
	switch {
	case !middleware.ValidateRequired(start):
		verrs.Add("startDate", "is required")
	case !middleware.ValidateDate(start):
		verrs.Add("startDate", "must be YYYYMMDD")
	}
	switch {
	case !middleware.ValidateRequired(end):
		verrs.Add("endDate", "is required")
	case !middleware.ValidateDate(end):
		verrs.Add("endDate", "must be YYYYMMDD")
	}
	if !verrs.HasErrors() && !middleware.ValidateDateRange(start, end) {
		verrs.Add("endDate", "must not be before startDate")
	}
	if verrs.HasErrors() {
		verrs.WriteJSON(w)
		return
	}

	days, err := h.dashboard.PeriodPnl(r.Context(), start, end)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, days)
}

// Summary handles GET /api/summary.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.dashboard.Summary(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, sum)
}

// KiwoomBalance handles GET /api/kiwoom/balance.
func (h *DashboardHandler) KiwoomBalance(w http.ResponseWriter, r *http.Request) {
	q := kiwoom.BalanceQuery{
		QueryType: middleware.SanitizeString(r.URL.Query().Get("qry_tp")),
		Exchange:  strings.ToUpper(middleware.SanitizeString(r.URL.Query().Get("dmst_stex_tp"))),
	}

	var verrs middleware.ValidationErrors
	if q.QueryType != "" && q.QueryType != "1" && q.QueryType != "2" {
		verrs.Add("qry_tp", "must be 1 or 2")
	}
	if q.Exchange != "" && q.Exchange != "KRX" && q.Exchange != "NXT" {
		verrs.Add("dmst_stex_tp", "must be KRX or NXT")
	}
	if verrs.HasErrors() {
		verrs.WriteJSON(w)
		return
	}

	view, err := h.dashboard.KiwoomBalance(r.Context(), q)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, view)
}

// LSBalance handles POST /api/ls/balance. The body is an optional t0424
// input block; an empty body uses the brokerage defaults.
func (h *DashboardHandler) LSBalance(w http.ResponseWriter, r *http.Request) {
	var in ls.BalanceInBlock
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		var verrs middleware.ValidationErrors
		verrs.Add("body", "invalid JSON: "+err.Error())
		verrs.WriteJSON(w)
		return
	}

	bal, err := h.dashboard.LSBalance(r.Context(), in)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, bal)
}

// MarketStatus handles GET /api/market-status.
func (h *DashboardHandler) MarketStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, scheduler.StatusAt(h.now()).Model())
}

// NotFound answers unknown routes in the API's error shape.
func (h *DashboardHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, h.logger, apperrors.NotFound("route "+r.URL.Path))
}
