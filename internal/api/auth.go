package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/session"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	Sessions  *session.Manager
	JWTSecret string
	TokenTTL  time.Duration
}

type loginRequest struct {
	Name string `json:"name"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  string       `json:"user"`
	Items []model.Item `json:"items"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.Sessions.Login(r.Context(), req.Name)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			jsonError(w, http.StatusBadRequest, ve.Message)
			return
		}
		slog.Error("login failed", "user", req.Name, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to open wardrobe")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, s.ID, s.User, h.TokenTTL)
	if err != nil {
		h.Sessions.Logout(s.ID)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, loginResponse{Token: token, User: s.User, Items: s.Items("")})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := GetSession(r.Context())
	if s == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.Sessions.Logout(s.ID); err != nil {
		jsonError(w, http.StatusUnauthorized, "session expired")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
