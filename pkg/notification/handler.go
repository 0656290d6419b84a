package notification

import (
	"net/http"

	"github.com/spendlog/spendlog/internal/rest"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type PermissionDTO struct {
	Permission Permission `json:"permission"`
	Sink       string     `json:"sink"`
}

type Handler struct {
	monitor *Monitor
}

func NewHandler(monitor *Monitor) *Handler {
	return &Handler{monitor: monitor}
}

// GetPermission godoc
// @Summary Notification permission of the current user
// @Tags Notification
// @Produce json
// @Success 200 {object} PermissionDTO
// @Router /api/notification/permission [get]
// @Security XUserId
func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "Unknown user", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, PermissionDTO{
		Permission: h.monitor.Permission(r.Context(), currentUser),
		Sink:       h.monitor.sink.Name(),
	})
}

// RequestPermission godoc
// @Summary Ask the notification sink for permission
// @Tags Notification
// @Produce json
// @Success 200 {object} PermissionDTO
// @Router /api/notification/permission [post]
// @Security XUserId
func (h *Handler) RequestPermission(w http.ResponseWriter, r *http.Request) {
	log.Debug("Requesting notification permission")
	w.Header().Set("Content-Type", "application/json")
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "Unknown user", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, PermissionDTO{
		Permission: h.monitor.RequestPermission(r.Context(), currentUser),
		Sink:       h.monitor.sink.Name(),
	})
}
