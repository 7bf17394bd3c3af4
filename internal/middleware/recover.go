package middleware

import (
	"fmt"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/cerevyn/internal/server/respond"
)

// Recover turns a panic in a downstream handler into the standard 500 error
// envelope and logs it with its stack. http.ErrAbortHandler is re-panicked so
// net/http can abort the connection.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic while serving request",
					zap.Any("panic", rec),
					zap.Stack("stack"),
					zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
				)
				respond.Error(w, r, log, fmt.Errorf("panic: %v", rec))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
