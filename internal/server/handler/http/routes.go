package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/cerevyn/internal/middleware"
	"github.com/atinyakov/cerevyn/internal/server/respond"
)

// APIPrefix is the base path of every versioned endpoint.
const APIPrefix = "/api/v1"

// NewRouter constructs and returns an HTTP handler that serves
// the farm inventory API.
//
// Routes:
//
//	GET    /healthz                     → health.Health
//	POST   /api/v1/identity/register    → authHandler.Register
//	POST   /api/v1/identity/login       → authHandler.Login
//	GET    /api/v1/inventory            → inventoryHandler.List   (auth gate)
//	POST   /api/v1/inventory            → inventoryHandler.Create (auth gate)
//	PATCH  /api/v1/inventory/{id}       → inventoryHandler.Update (auth gate)
//	DELETE /api/v1/inventory/{id}       → inventoryHandler.Delete (auth gate)
//
// Unknown paths and unsupported methods both answer 404.
func NewRouter(
	authHandler *AuthHandler,
	inventoryHandler *InventoryHandler,
	health *HealthHandler,
	authenticator middleware.Authenticator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.Recover(logger))

	// Must be set before sub-routers are mounted so they inherit them.
	r.NotFound(respond.NotFound)
	r.MethodNotAllowed(respond.NotFound)

	r.Get("/healthz", health.Health)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/identity", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(authenticator, logger))

			r.Get("/inventory", inventoryHandler.List)
			r.Post("/inventory", inventoryHandler.Create)
			r.Patch("/inventory/{id}", inventoryHandler.Update)
			r.Delete("/inventory/{id}", inventoryHandler.Delete)
		})
	})

	return r
}
