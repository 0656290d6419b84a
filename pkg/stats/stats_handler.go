package stats

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/rest"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type CategoryTotalDTO struct {
	Category string          `json:"category"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
}

type SummaryDTO struct {
	Income     decimal.Decimal    `json:"income"`
	Expense    decimal.Decimal    `json:"expense"`
	Balance    decimal.Decimal    `json:"balance"`
	Count      int                `json:"count"`
	ByCategory []CategoryTotalDTO `json:"byCategory"`
}

type StatsSummaryDTO struct {
	Filter       Filter                       `json:"filter"`
	GeneratedAt  time.Time                    `json:"generatedAt"`
	Summary      SummaryDTO                   `json:"summary"`
	Transactions []transaction.TransactionDTO `json:"transactions"`
}

type StatsHandler struct {
	statsService     StatsService
	csvStatsRenderer StatsRenderer
	chartRenderer    *ChartRenderer
}

func NewStatsHandler(statsService StatsService, csvStatsRenderer StatsRenderer, chartRenderer *ChartRenderer) *StatsHandler {
	return &StatsHandler{statsService, csvStatsRenderer, chartRenderer}
}

// GetStats godoc
// @Summary Totals of the filtered transactions
// @Description Filters by calendar day or month in the user's timezone; no filter means all transactions.
// @Description Send "Accept: text/csv" for a spreadsheet export.
// @Tags Stats
// @Produce json
// @Produce text/csv
// @Param filter query string false "today, yesterday, month or empty"
// @Success 200 {object} StatsSummaryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid filter"
// @Router /api/stats [get]
// @Security XUserId
func (handler *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := handler.loadStats(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		handler.writeCsv(w, stats)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToStatsSummaryDTO(stats))
}

// GetStatsCsv godoc
// @Summary Filtered transactions and totals as CSV
// @Tags Stats
// @Produce text/csv
// @Param filter query string false "today, yesterday, month or empty"
// @Success 200 {string} string "CSV"
// @Router /api/stats/csv [get]
// @Security XUserId
func (handler *StatsHandler) GetStatsCsv(w http.ResponseWriter, r *http.Request) {
	stats, ok := handler.loadStats(w, r)
	if !ok {
		return
	}
	handler.writeCsv(w, stats)
}

// GetChart godoc
// @Summary Pie chart of expenses by category
// @Tags Stats
// @Produce png
// @Param filter query string false "today, yesterday, month or empty"
// @Success 200 {file} file "PNG image"
// @Success 204 "No expenses to draw"
// @Router /api/stats/chart [get]
// @Security XUserId
func (handler *StatsHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	stats, ok := handler.loadStats(w, r)
	if !ok {
		return
	}
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		rest.WriteError(w, http.StatusForbidden, "User not found", err.Error())
		return
	}
	png, err := handler.chartRenderer.RenderExpensesByCategory(stats.Summary, currentUser.CurrencySymbol())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		rest.WriteError(w, http.StatusInternalServerError, "Failed to render chart", err.Error())
		return
	}
	if png == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Errorf("failed to write chart: %v", err)
	}
}

func (handler *StatsHandler) loadStats(w http.ResponseWriter, r *http.Request) (StatsSummary, bool) {
	filter, err := ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		rest.WriteError(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return StatsSummary{}, false
	}
	stats, err := handler.statsService.GetStats(r.Context(), filter)
	if errors.Is(err, user.ErrNoUser) {
		w.Header().Set("Content-Type", "application/json")
		rest.WriteError(w, http.StatusForbidden, "User not found", err.Error())
		return StatsSummary{}, false
	}
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		rest.WriteError(w, http.StatusInternalServerError, "Failed to load stats", err.Error())
		return StatsSummary{}, false
	}
	return stats, true
}

func (handler *StatsHandler) writeCsv(w http.ResponseWriter, stats StatsSummary) {
	csv, err := handler.csvStatsRenderer.RenderStats(stats)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Errorf("failed to write csv: %v", err)
	}
}

func ToSummaryDTO(summary Summary) SummaryDTO {
	byCategory := make([]CategoryTotalDTO, 0, len(summary.ByCategory))
	for _, c := range summary.ByCategory {
		byCategory = append(byCategory, CategoryTotalDTO{Category: c.Category, Income: c.Income, Expense: c.Expense})
	}
	return SummaryDTO{
		Income:     summary.Income,
		Expense:    summary.Expense,
		Balance:    summary.Balance,
		Count:      summary.Count,
		ByCategory: byCategory,
	}
}

func ToStatsSummaryDTO(stats StatsSummary) StatsSummaryDTO {
	return StatsSummaryDTO{
		Filter:       stats.Filter,
		GeneratedAt:  stats.GeneratedAt,
		Summary:      ToSummaryDTO(stats.Summary),
		Transactions: transaction.ToDTOs(stats.Transactions),
	}
}
