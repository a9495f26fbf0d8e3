package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/organization"
)

const (
	defaultNotificationLimit = 25
	maxNotificationLimit     = 100
)

// NotificationHandler serves an organization's activity feed.
type NotificationHandler struct {
	orgs   *organization.Service
	logger zerolog.Logger
}

func NewNotificationHandler(orgs *organization.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{orgs: orgs, logger: logger.With().Str("handler", "notifications").Logger()}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	feed, err := h.orgs.ListNotifications(r.Context(), pathVar(r, "orgID"), feedLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": feed})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	read, err := h.orgs.MarkNotificationRead(r.Context(), pathVar(r, "orgID"), pathVar(r, "notificationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, read)
}

// feedLimit reads ?limit=, falling back to the default on junk and capping large values.
func feedLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	switch {
	case err != nil || n <= 0:
		return defaultNotificationLimit
	case n > maxNotificationLimit:
		return maxNotificationLimit
	default:
		return n
	}
}
