package transaction

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/rest"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type TransactionDTO struct {
	Id              string           `json:"id,omitempty"`
	Type            Type             `json:"type"`
	Amount          *decimal.Decimal `json:"amount"`
	Note            string           `json:"note"`
	Category        string           `json:"category"`
	Date            string           `json:"date"`
	IsSubscription  bool             `json:"isSubscription"`
	RenewalDate     string           `json:"renewalDate,omitempty"`
	RecurringRuleId string           `json:"recurringRuleId,omitempty"`
	// IsRecurring, Frequency and NextDueDate are only read when creating a transaction.
	IsRecurring bool   `json:"isRecurring,omitempty"`
	Frequency   string `json:"frequency,omitempty"`
	NextDueDate string `json:"nextDueDate,omitempty"`
}

type AddResultDTO struct {
	Transaction TransactionDTO `json:"transaction"`
	Warning     string         `json:"warning,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List transactions
// @Description All transactions of the current user, newest first
// @Tags Transaction
// @Produce json
// @Success 200 {array} TransactionDTO
// @Router /api/transaction [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing transactions")
	w.Header().Set("Content-Type", "application/json")
	transactions, err := h.service.List(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to load transactions", err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ToDTOs(transactions)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Create godoc
// @Summary Add a transaction
// @Description Adds a transaction; with isRecurring a recurring rule is created as well
// @Tags Transaction
// @Accept json
// @Produce json
// @Param transaction body TransactionDTO true "Transaction"
// @Success 201 {object} AddResultDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid transaction"
// @Router /api/transaction [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Adding transaction")
	w.Header().Set("Content-Type", "application/json")
	draft, ok := decodeDraft(w, r, true)
	if !ok {
		return
	}

	created, err := h.service.Add(r.Context(), draft)
	if err != nil && !errors.Is(err, ErrRecurringRuleNotSaved) {
		writeServiceError(w, err)
		return
	}
	result := AddResultDTO{Transaction: ToDTO(created)}
	if err != nil {
		result.Warning = err.Error()
	}
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Update godoc
// @Summary Edit a transaction
// @Tags Transaction
// @Accept json
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Param transaction body TransactionDTO true "Transaction"
// @Success 200 {object} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid transaction"
// @Failure 404 {object} rest.ErrorResponse "Transaction not found"
// @Router /api/transaction/{transactionId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log.Debug("Editing transaction")
	w.Header().Set("Content-Type", "application/json")
	id := mux.Vars(r)["transactionId"]
	draft, ok := decodeDraft(w, r, false)
	if !ok {
		return
	}

	updated, err := h.service.Edit(r.Context(), id, draft)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Delete godoc
// @Summary Delete a transaction
// @Tags Transaction
// @Param transactionId path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Transaction not found"
// @Router /api/transaction/{transactionId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting transaction")
	w.Header().Set("Content-Type", "application/json")
	id := mux.Vars(r)["transactionId"]
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeDraft(w http.ResponseWriter, r *http.Request, withRecurrence bool) (Draft, bool) {
	var dto TransactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return Draft{}, false
	}
	loc := time.UTC
	if currentUser, err := user.CurrentUser(r.Context()); err == nil {
		loc = currentUser.Location()
	}
	draft, err := DTOToDraft(dto, withRecurrence, loc)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return Draft{}, false
	}
	return draft, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction", err.Error())
	case errors.Is(err, ErrTransactionNotFound):
		rest.WriteError(w, http.StatusNotFound, "Transaction not found", "")
	default:
		rest.WriteError(w, http.StatusInternalServerError, "Failed to save transaction", err.Error())
	}
}

func ToDTO(t Transaction) TransactionDTO {
	amount := t.Amount
	dto := TransactionDTO{
		Id:              t.Id,
		Type:            t.Type,
		Amount:          &amount,
		Note:            t.Note,
		Category:        t.Category,
		Date:            t.Date.Format(time.RFC3339),
		IsSubscription:  t.IsSubscription,
		RecurringRuleId: t.RecurringRuleId,
	}
	if t.RenewalDate != nil {
		dto.RenewalDate = t.RenewalDate.Format(utils.DayLayout)
	}
	return dto
}

func ToDTOs(transactions []Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		dtos = append(dtos, ToDTO(t))
	}
	return dtos
}

// DTOToDraft converts request input. Plain dates are read in loc. Missing date and amount stay nil so validation
// can report them.
func DTOToDraft(dto TransactionDTO, withRecurrence bool, loc *time.Location) (Draft, error) {
	draft := Draft{
		Type:           dto.Type,
		Amount:         dto.Amount,
		Note:           dto.Note,
		Category:       dto.Category,
		IsSubscription: dto.IsSubscription,
	}
	if dto.Date != "" {
		date, err := utils.ParseDateOrTime(dto.Date, loc)
		if err != nil {
			return Draft{}, err
		}
		draft.Date = &date
	}
	if dto.RenewalDate != "" {
		renewal, err := utils.ParseDateOrTime(dto.RenewalDate, loc)
		if err != nil {
			return Draft{}, err
		}
		draft.RenewalDate = &renewal
	}
	if withRecurrence && dto.IsRecurring {
		draft.Recurrence = &Recurrence{Frequency: dto.Frequency}
		if dto.NextDueDate != "" {
			next, err := utils.ParseDateOrTime(dto.NextDueDate, loc)
			if err != nil {
				return Draft{}, err
			}
			draft.Recurrence.NextDueDate = &next
		}
	}
	return draft, nil
}
