package dashboard

import (
	"errors"
	"net/http"

	"github.com/spendlog/spendlog/internal/rest"
	"github.com/spendlog/spendlog/pkg/budget"
	"github.com/spendlog/spendlog/pkg/stats"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type DashboardDTO struct {
	Stats        stats.StatsSummaryDTO `json:"stats"`
	Budget       budget.ProgressDTO    `json:"budget"`
	Materialized int                   `json:"materialized"`
	Warnings     []string              `json:"warnings"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Get godoc
// @Summary Dashboard of the current user
// @Description Processes due recurring rules, loads the transactions and evaluates budget alerts and
// @Description subscription reminders before answering.
// @Tags Dashboard
// @Produce json
// @Param filter query string false "today, yesterday, month or empty"
// @Success 200 {object} DashboardDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid filter"
// @Router /api/dashboard [get]
// @Security XUserId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting dashboard")
	w.Header().Set("Content-Type", "application/json")

	filter, err := stats.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	dashboard, err := h.service.Load(r.Context(), filter)
	if err != nil {
		if errors.Is(err, user.ErrNoUser) {
			rest.WriteError(w, http.StatusForbidden, "User not found", err.Error())
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, "Failed to load dashboard", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(dashboard))
}

func ToDTO(dashboard Dashboard) DashboardDTO {
	warnings := dashboard.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return DashboardDTO{
		Stats:        stats.ToStatsSummaryDTO(dashboard.Stats),
		Budget:       budget.ProgressToDTO(dashboard.Budget),
		Materialized: dashboard.Materialized,
		Warnings:     warnings,
	}
}
