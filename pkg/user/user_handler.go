package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spendlog/spendlog/internal/rest"
	log "github.com/sirupsen/logrus"
)

const UidHeader = "X-User-Id"

type UserDTO struct {
	Uid         string      `json:"uid"`
	Username    string      `json:"username"`
	DisplayName string      `json:"displayName"`
	Settings    SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Timezone       string                    `json:"timezone"`
	Currency       string                    `json:"currency"`
	TelegramChatId int64                     `json:"telegramChatId,omitempty"`
	GoogleCalendar GoogleCalendarSettingsDTO `json:"googleCalendar"`
}

type GoogleCalendarSettingsDTO struct {
	CalendarId string `json:"calendarId"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CreateUser godoc
// @Summary Register the profile of an authenticated identity
// @Description Creates the local profile for the identity in the X-User-Id header
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/user [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Debug("Creating user")

	var userDTO UserDTO
	if err := json.NewDecoder(r.Body).Decode(&userDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if headerUid := r.Header.Get(UidHeader); headerUid != "" {
		userDTO.Uid = headerUid
	}
	if len(userDTO.Username) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Username is required", "")
		return
	}
	if len(userDTO.DisplayName) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Display name is required", "")
		return
	}

	createdUser, err := h.userService.CreateUser(r.Context(), dtoToUser(userDTO))
	if err != nil {
		if errors.Is(err, ErrUserDataInvalid) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid user data", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Tracef("Created user: %+v", createdUser)

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(userToDTO(createdUser)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CurrentUser godoc
// @Summary Get current user
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 403 {string} string "User not found"
// @Router /api/user/current [get]
// @Security XUserId
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNoUser) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(userToDTO(currentUser)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// UpdateUser godoc
// @Summary Update current user
// @Description Updates display name and settings (timezone, currency, linked reminder targets)
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/user/current [put]
// @Security XUserId
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Updating user")

	var userDTO UserDTO
	if err := json.NewDecoder(r.Body).Decode(&userDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if len(userDTO.DisplayName) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Display name is required", "")
		return
	}

	updatedUser, err := h.userService.UpdateUser(r.Context(), dtoToUser(userDTO))
	if err != nil {
		if errors.Is(err, ErrUserDataInvalid) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid user data", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Debug("Updated user: ", updatedUser.Id)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(userToDTO(updatedUser)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// IsUsernameAvailable godoc
// @Summary Check username availability
// @Tags User
// @Produce json
// @Param username query string true "Username to check"
// @Success 200 {object} object{available=bool}
// @Router /api/user/name-availability [get]
func (h *Handler) IsUsernameAvailable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	username := mux.Vars(r)["username"]
	if len(username) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Username is required", "")
		return
	}

	isAvailable, err := h.userService.IsUsernameAvailable(r.Context(), username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]bool{"available": isAvailable}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// DeleteCurrentUser godoc
// @Summary Delete the current user with all of their data
// @Tags User
// @Success 204 "No Content"
// @Router /api/user/current [delete]
// @Security XUserId
func (h *Handler) DeleteCurrentUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteCurrentUser(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userToDTO(user User) UserDTO {
	return UserDTO{
		Uid:         user.Uid,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Settings: SettingsDTO{
			Timezone:       user.Settings.Timezone,
			Currency:       user.Settings.Currency,
			TelegramChatId: user.Settings.TelegramChatId,
			GoogleCalendar: GoogleCalendarSettingsDTO{
				CalendarId: user.Settings.GoogleCalendar.CalendarId,
			},
		},
	}
}

func dtoToUser(userDTO UserDTO) User {
	return User{
		Uid:         userDTO.Uid,
		Username:    userDTO.Username,
		DisplayName: userDTO.DisplayName,
		Settings: Settings{
			Timezone:       userDTO.Settings.Timezone,
			Currency:       userDTO.Settings.Currency,
			TelegramChatId: userDTO.Settings.TelegramChatId,
			GoogleCalendar: GoogleCalendarSettings{
				CalendarId: userDTO.Settings.GoogleCalendar.CalendarId,
			},
		},
	}
}
