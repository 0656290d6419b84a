package recurring

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/rest"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

type RuleDTO struct {
	Id          string           `json:"id"`
	Type        transaction.Type `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Note        string           `json:"note"`
	Category    string           `json:"category"`
	Frequency   Frequency        `json:"frequency"`
	NextDueDate string           `json:"nextDueDate"`
}

type ReportDTO struct {
	Materialized []transaction.TransactionDTO `json:"materialized"`
	Skipped      bool                         `json:"skipped"`
	Failures     []string                     `json:"failures,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List recurring rules
// @Tags Recurring
// @Produce json
// @Success 200 {array} RuleDTO
// @Router /api/recurring [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing recurring rules")
	w.Header().Set("Content-Type", "application/json")
	rules, err := h.service.ListRules(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to load recurring rules", err.Error())
		return
	}
	dtos := make([]RuleDTO, 0, len(rules))
	for _, rule := range rules {
		dtos = append(dtos, toDTO(rule))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Delete godoc
// @Summary Delete a recurring rule
// @Description Stops future occurrences; transactions already created are kept
// @Tags Recurring
// @Param ruleId path string true "Rule ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Rule not found"
// @Router /api/recurring/{ruleId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting recurring rule")
	w.Header().Set("Content-Type", "application/json")
	ruleId := mux.Vars(r)["ruleId"]
	err := h.service.DeleteRule(r.Context(), ruleId)
	if errors.Is(err, ErrRuleNotFound) {
		rest.WriteError(w, http.StatusNotFound, "Recurring rule not found", "")
		return
	}
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to delete recurring rule", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Process godoc
// @Summary Materialize due recurring rules
// @Description Runs at most once per day; failures of single rules are listed in the report
// @Tags Recurring
// @Produce json
// @Success 200 {object} ReportDTO
// @Router /api/recurring/process [post]
// @Security XUserId
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	log.Debug("Processing due recurring rules")
	report, err := h.service.ProcessDue(r.Context())
	if err != nil && len(report.Failures) == 0 {
		w.Header().Set("Content-Type", "application/json")
		rest.WriteError(w, http.StatusInternalServerError, "Failed to process recurring rules", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToReportDTO(report))
}

func ToReportDTO(report Report) ReportDTO {
	dto := ReportDTO{
		Materialized: transaction.ToDTOs(report.Materialized),
		Skipped:      report.Skipped,
	}
	for _, failure := range report.Failures {
		dto.Failures = append(dto.Failures, failure.Error())
	}
	return dto
}

func toDTO(rule Rule) RuleDTO {
	return RuleDTO{
		Id:          rule.Id,
		Type:        rule.Type,
		Amount:      rule.Amount,
		Note:        rule.Note,
		Category:    rule.Category,
		Frequency:   rule.Frequency,
		NextDueDate: rule.NextDueDate.Format(utils.DayLayout),
	}
}
