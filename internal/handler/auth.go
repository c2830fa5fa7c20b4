package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/service"
)

// AuthHandler serves registration, login, and the current-user profile.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account from a JSON body
//   - HandleToken    → exchange form-encoded credentials for a bearer token
//   - HandleMe       → return the authenticated user's profile
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// HandleRegister creates a user.
//
// HTTP: POST /register
// REQUEST BODY: {"email","password","first_name","last_name","slack_id"?}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleToken logs a user in.
//
// HTTP: POST /token (and POST /login)
// REQUEST BODY: application/x-www-form-urlencoded or multipart/form-data
// with fields "username" (the email) and "password".
//
// RESPONSE: {"access_token": "...", "token_type": "bearer", "expires_in": 1800}
//
// PostFormValue parses either encoding and ignores URL query parameters, so
// credentials are never read from the query string.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, apperror.ValidationFailed("username", "username and password are required"))
		return
	}

	res, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, res)
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), userID)
	if err != nil {
		// A valid token for a deleted account is treated as no token.
		if errors.Is(err, apperror.ErrNotFound) {
			err = apperror.Unauthorized("Could not validate credentials")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
