// Package respond writes the JSON envelopes shared by every HTTP endpoint and
// maps application errors onto status codes.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/cerevyn/internal/apperr"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps err onto a status code and writes the failure envelope.
// Unclassified errors are logged and reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		verr *apperr.ValidationError
		aerr *apperr.AuthError
	)
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, ErrorBody{Status: StatusFail, Message: verr.Error(), Errors: verr.Fields})
	case errors.As(err, &aerr):
		JSON(w, http.StatusUnauthorized, ErrorBody{Status: StatusFail, Message: aerr.Reason})
	case errors.Is(err, apperr.ErrUnauthenticated):
		JSON(w, http.StatusUnauthorized, ErrorBody{Status: StatusFail, Message: "not logged in"})
	case errors.Is(err, apperr.ErrInvalidCredentials):
		JSON(w, http.StatusUnauthorized, ErrorBody{Status: StatusFail, Message: apperr.ErrInvalidCredentials.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		JSON(w, http.StatusNotFound, ErrorBody{Status: StatusFail, Message: "no item found with that id"})
	default:
		log.Error("unhandled request failure",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
		)
		JSON(w, http.StatusInternalServerError, ErrorBody{Status: StatusError, Message: "something went wrong"})
	}
}

// NotFound writes the route-miss envelope for r.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusNotFound, ErrorBody{
		Status:  StatusFail,
		Message: fmt.Sprintf("can't find %s on this server", r.URL.Path),
	})
}
