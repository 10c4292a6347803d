// Package http provides HTTP routing and middleware configuration
// for the ItemKeeper service.
package http

import (
	"net/http"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router bundles everything NewRouter wires together.
type Router struct {
	Auth   *AuthHandler
	Users  *UserHandler
	Items  *ItemHandler
	System *SystemHandler

	// Guard resolves bearer tokens for the auth middlewares.
	Guard middleware.Resolver
	// Metrics is optional; when nil no request metrics are recorded.
	Metrics *middleware.Metrics
	// Gatherer backs /metrics; when nil the route is not mounted.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter constructs and returns an HTTP handler that serves
// the ItemKeeper API.
//
// Routes:
//
//	GET    /                   → System.Root
//	GET    /health             → System.Health
//	GET    /config             → System.Config
//	GET    /metrics            → Prometheus exposition
//	POST   /auth/register      → Auth.Register
//	POST   /auth/login         → Auth.Login
//	GET    /auth/me            → Auth.Me            (bearer)
//	PATCH  /auth/me            → Auth.UpdateMe      (bearer)
//	GET    /users              → Users.List         (bearer)
//	GET    /users/{id}         → Users.Get          (bearer)
//	GET    /users/{id}/items   → Users.Items        (bearer, self only)
//	GET    /items              → Items.List         (optional bearer)
//	GET    /items/search       → Items.Search       (optional bearer)
//	GET    /items/categories   → Items.Categories
//	GET    /items/mine         → Items.Mine         (bearer)
//	GET    /items/{id}         → Items.Get
//	POST   /items              → Items.Create       (bearer)
//	PUT    /items/{id}         → Items.Update       (bearer, owner)
//	PATCH  /items/{id}         → Items.Update       (bearer, owner)
//	DELETE /items/{id}         → Items.Delete       (bearer, owner)
//	GET    /stats              → System.Stats       (bearer)
//
// Middleware chain (applied in order):
//  1. WithRequestLogging(logger): request id and access log
//  2. Recoverer: turns panics into 500s
//  3. Metrics: per-route counters and latencies
//  4. AllowContentType: JSON, or form-encoded for login
func NewRouter(rt Router) http.Handler {
	logger := rt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	errWriter := ErrorWriter(logger)

	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	if rt.Metrics != nil {
		r.Use(rt.Metrics.Middleware)
	}
	r.Use(chiMiddleware.AllowContentType("application/json", "application/x-www-form-urlencoded"))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, logger, common.ErrNotFound)
	})

	requireAuth := middleware.RequireAuth(rt.Guard, errWriter)
	optionalAuth := middleware.OptionalAuth(rt.Guard)

	r.Get("/", rt.System.Root)
	r.Get("/health", rt.System.Health)
	r.Get("/config", rt.System.Config)
	if rt.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", rt.Auth.Register)
		r.Post("/login", rt.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", rt.Auth.Me)
			r.Patch("/me", rt.Auth.UpdateMe)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", rt.Users.List)
		r.Get("/{id}", rt.Users.Get)
		r.Get("/{id}/items", rt.Users.Items)
	})

	r.Route("/items", func(r chi.Router) {
		r.Get("/categories", rt.Items.Categories)
		r.Get("/{id}", rt.Items.Get)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", rt.Items.List)
			r.Get("/search", rt.Items.Search)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/mine", rt.Items.Mine)
			r.Post("/", rt.Items.Create)
			r.Put("/{id}", rt.Items.Update)
			r.Patch("/{id}", rt.Items.Update)
			r.Delete("/{id}", rt.Items.Delete)
		})
	})

	r.With(requireAuth).Get("/stats", rt.System.Stats)

	return r
}
