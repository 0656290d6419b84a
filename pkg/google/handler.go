package google

import (
	"errors"
	"net/http"

	"github.com/spendlog/spendlog/internal/rest"
)

type CalendarItemDto struct {
	Id      string `json:"id"`
	Summary string `json:"summary"`
}

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{s}
}

// ListCalendars godoc
// @Summary Google calendars of the current user
// @Description Used to pick the calendar reminders are written to
// @Tags Integrations
// @Produce json
// @Success 200 {array} CalendarItemDto
// @Failure 403 {object} rest.ErrorResponse "Google login required"
// @Router /api/integrations/google/calendars [get]
// @Security XUserId
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	calendars, err := h.service.ListCalendars(r.Context())
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			rest.WriteError(w, http.StatusForbidden, "Google login required", err.Error())
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, "Failed to list calendars", err.Error())
		return
	}

	calendarItems := make([]CalendarItemDto, 0, len(calendars))
	for _, c := range calendars {
		calendarItems = append(calendarItems, toCalendarItemDto(c))
	}
	rest.WriteJSON(w, http.StatusOK, calendarItems)
}

func toCalendarItemDto(ci CalendarItem) CalendarItemDto {
	return CalendarItemDto{
		Id:      ci.ID,
		Summary: ci.Summary,
	}
}
