package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"campus-relay/internal/message"
	"campus-relay/internal/metrics"
	"campus-relay/internal/middleware"
	"campus-relay/internal/notify"
)

type MessageHandler struct {
	Router   *message.Router
	Notifier *notify.Service
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id,omitempty"`
	Broadcast   bool   `json:"broadcast,omitempty"`
	Content     string `json:"content" validate:"required"`
}

// SendMessage validates and persists one message, then fires the
// notification side-effect. The side-effect is best-effort: the send
// succeeds even when the notification insert does not.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Broadcast == (req.RecipientID != "") {
		writeError(w, http.StatusBadRequest, "pick exactly one of broadcast or recipient_id")
		return
	}

	p, _ := middleware.PrincipalFrom(r.Context())
	ch := message.Broadcast()
	if !req.Broadcast {
		ch = message.Direct(p.ID, req.RecipientID)
	}

	m, err := h.Router.Send(r.Context(), p.ID, ch, req.Content)
	switch {
	case errors.Is(err, message.ErrEmptyContent),
		errors.Is(err, message.ErrTooLong),
		errors.Is(err, message.ErrNotMember):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, "message could not be sent, try again")
		return
	}
	atomic.AddInt64(&metrics.MessagesSent, 1)

	preview := m.Content
	if len(preview) > 30 {
		preview = preview[:30] + "..."
	}
	body := fmt.Sprintf("%s: %s", p.DisplayName, preview)
	if req.Broadcast {
		n := h.Notifier.BroadcastNotify(r.Context(), "New Announcement", body, notify.KindMessage, p.ID)
		atomic.AddInt64(&metrics.NotificationsFanned, int64(n))
	} else {
		h.Notifier.Notify(r.Context(), req.RecipientID, "New Message", body, notify.KindMessage)
		atomic.AddInt64(&metrics.NotificationsFanned, 1)
	}

	writeJSON(w, http.StatusCreated, m)
}

// LoadMessages returns the full ordered timeline for one channel:
// ?broadcast=true or ?peer_id=<principal>.
func (h *MessageHandler) LoadMessages(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	var ch message.Channel
	switch {
	case r.URL.Query().Get("broadcast") == "true":
		ch = message.Broadcast()
	case r.URL.Query().Get("peer_id") != "":
		ch = message.Direct(p.ID, r.URL.Query().Get("peer_id"))
	default:
		writeError(w, http.StatusBadRequest, "pick exactly one of broadcast or peer_id")
		return
	}

	msgs, err := h.Router.Load(r.Context(), ch)
	if err != nil {
		writeError(w, http.StatusBadGateway, "messages unavailable, try again")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"channel":  ch.String(),
		"messages": msgs,
	})
}
