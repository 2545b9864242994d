package handlers

import (
	"net/http"

	"campus-relay/internal/middleware"
	"campus-relay/internal/nav"
)

type NavHandler struct {
	Tree []nav.Node
}

// Navigation returns the menu subtree visible to the caller's role.
func (h *NavHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"role":       p.Role,
		"navigation": nav.Filter(h.Tree, p.Role),
	})
}
