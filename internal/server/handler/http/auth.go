// Package http provides the HTTP handlers of the farm inventory API:
// registration and login, owner-scoped inventory endpoints and a health probe.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/cerevyn/internal/apperr"
	"github.com/atinyakov/cerevyn/internal/models"
	"github.com/atinyakov/cerevyn/internal/server/respond"
	"github.com/atinyakov/cerevyn/internal/service"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// AuthService defines the authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates a user and returns it with a fresh token.
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	// Login checks credentials and returns the user with a fresh token.
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
}

// AuthHandler handles HTTP requests for user registration and login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Log         *zap.Logger
}

type userData struct {
	User models.User `json:"user"`
}

// AuthResponse is the body returned by register and login.
type AuthResponse struct {
	Status string   `json:"status"`
	Token  string   `json:"token"`
	Data   userData `json:"data"`
}

// Register handles POST /identity/register.
// On success it responds 201 with the new user and a token, so the client is
// logged in straight away.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	res, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, authResponse(res))
}

// Login handles POST /identity/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, authResponse(res))
}

func authResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		Status: respond.StatusSuccess,
		Token:  res.Token,
		Data:   userData{User: res.User},
	}
}

// decodeJSON reads a single JSON object from the request body into v.
// Non-JSON content types and malformed or empty bodies come back as a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return apperr.NewValidationError("Content-Type must be application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err = json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return apperr.NewValidationError("request body is empty")
	case errors.As(err, &tooBig):
		return apperr.NewValidationError("request body is too large")
	default:
		return apperr.NewValidationError("invalid request body")
	}
}
