package budget

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/rest"
	log "github.com/sirupsen/logrus"
)

type BudgetDTO struct {
	Amount *decimal.Decimal `json:"amount"`
}

type ProgressDTO struct {
	Spent   decimal.Decimal `json:"spent"`
	Budget  decimal.Decimal `json:"budget"`
	Percent decimal.Decimal `json:"percent"`
	Display decimal.Decimal `json:"display"`
	Warning bool            `json:"warning"`
	Defined bool            `json:"defined"`
}

type BudgetHandler struct {
	budgetService BudgetService
}

func NewBudgetHandler(budgetService BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService}
}

// Get godoc
// @Summary Get the monthly budget
// @Description Returns 0 when no budget was set
// @Tags Budget
// @Produce json
// @Success 200 {object} BudgetDTO
// @Router /api/budget [get]
// @Security XUserId
func (handler *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	amount, err := handler.budgetService.Get(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to read budget", err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(BudgetDTO{Amount: &amount}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Set godoc
// @Summary Set the monthly budget
// @Tags Budget
// @Accept json
// @Produce json
// @Param budget body BudgetDTO true "Budget"
// @Success 200 {object} BudgetDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid budget"
// @Router /api/budget [put]
// @Security XUserId
func (handler *BudgetHandler) Set(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating monthly budget")
	w.Header().Set("Content-Type", "application/json")

	var budgetDTO BudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&budgetDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if budgetDTO.Amount == nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid budget", "amount is required")
		return
	}

	amount, err := handler.budgetService.Set(r.Context(), *budgetDTO.Amount)
	if errors.Is(err, ErrNegativeBudget) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid budget", err.Error())
		return
	}
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to store budget", err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(BudgetDTO{Amount: &amount}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ProgressToDTO(progress Progress) ProgressDTO {
	return ProgressDTO{
		Spent:   progress.Spent,
		Budget:  progress.Budget,
		Percent: progress.Percent.Round(2),
		Display: progress.Display.Round(0),
		Warning: progress.Warning,
		Defined: progress.Defined,
	}
}
