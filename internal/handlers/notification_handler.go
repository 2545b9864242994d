package handlers

import (
	"net/http"
	"strconv"

	"campus-relay/internal/middleware"
	"campus-relay/internal/notify"
)

type NotificationHandler struct {
	Notifier *notify.Service
}

// Recent returns the newest notifications for the caller plus their
// unread count, which is what the badge and dropdown render from.
func (h *NotificationHandler) Recent(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.Notifier.FetchRecent(r.Context(), p.ID, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, "notifications unavailable")
		return
	}
	unread, err := h.Notifier.UnreadCount(r.Context(), p.ID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "notifications unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"unread":        unread,
		"notifications": rows,
	})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	if err := h.Notifier.MarkAllRead(r.Context(), p.ID); err != nil {
		writeError(w, http.StatusBadGateway, "could not mark notifications read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
