package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"campus-relay/internal/auth"
	"campus-relay/internal/identity"
	"campus-relay/internal/middleware"
	"campus-relay/internal/store"
)

// AuthHandler exposes the session lifecycle. Credential verification is
// the fronting identity provider's job; this surface trusts the subject
// it is handed and only manages sessions and profiles for it.
type AuthHandler struct {
	Auth     *auth.Service
	Resolver *identity.Resolver
	Profiles store.ProfileStore
}

type loginRequest struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email" validate:"required,email"`
}

type loginResponse struct {
	Token     string             `json:"token"`
	Principal identity.Principal `json:"principal"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	subject := req.SubjectID
	if subject == "" {
		// Returning user: reuse their profile's ID so the same inbox and
		// chat history attach across logins. Brand new identity gets a
		// fresh one.
		if p, err := h.Profiles.GetProfileByEmail(r.Context(), req.Email); err == nil {
			subject = p.ID
		} else if errors.Is(err, store.ErrNotFound) {
			subject = uuid.NewString()
		} else {
			writeError(w, http.StatusBadGateway, "profile lookup failed, try again")
			return
		}
	}

	token, sess, err := h.Auth.SignIn(r.Context(), subject, req.Email)
	if err != nil {
		writeError(w, http.StatusBadGateway, "sign-in failed, try again")
		return
	}

	principal := h.Resolver.Resolve(r.Context(), sess)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Principal: principal})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFrom(r.Context())
	if err := h.Auth.SignOut(r.Context(), token); err != nil {
		writeError(w, http.StatusBadGateway, "sign-out failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
