package handlers

import (
	"net/http"

	"campus-relay/internal/middleware"
	"campus-relay/internal/store"
)

type ProfileHandler struct {
	Profiles store.ProfileStore
}

// List returns everyone except the caller; the chat sidebar's user list.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())

	rows, err := h.Profiles.ListProfiles(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "profiles unavailable")
		return
	}
	out := make([]store.Profile, 0, len(rows))
	for _, row := range rows {
		if row.ID != p.ID {
			out = append(out, row)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
