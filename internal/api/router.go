package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/api/envelope"
	"github.com/Togather-Foundation/eventdesk/internal/api/handlers"
	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/domain/admins"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/rs/zerolog"
)

const msgRouteNotFound = "Route not found"

// Deps are the collaborators NewRouter wires into handlers.
type Deps struct {
	Config    config.Config
	Logger    zerolog.Logger
	Admins    *admins.Service
	Events    *events.Service
	Validator *validation.Validator
	Audit     *audit.Logger
	// DB backs /ready; nil when running on the in-memory store.
	DB           handlers.DatabaseProbe
	LoginLimiter *middleware.LoginRateLimiter
	Build        BuildInfo
}

func NewRouter(deps Deps) http.Handler {
	validator := deps.Validator
	if validator == nil {
		validator = validation.New()
	}

	authHandler := handlers.NewAuthHandler(deps.Admins, validator, deps.Audit)
	adminEvents := handlers.NewAdminEventsHandler(deps.Events, validator, deps.Audit)
	publicEvents := handlers.NewPublicEventsHandler(deps.Events)
	health := handlers.NewHealthChecker(deps.DB, deps.Build.withDefaults().Version)

	requireAdmin := middleware.AdminAuth(deps.Admins)
	admin := func(h http.HandlerFunc) http.Handler { return requireAdmin(h) }

	login := http.Handler(http.HandlerFunc(authHandler.Login))
	if deps.LoginLimiter != nil {
		login = deps.LoginLimiter.Middleware(login)
	}

	mux := http.NewServeMux()
	mux.Handle("/health", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(health.Health),
	}))
	mux.Handle("/ready", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(health.Ready),
	}))
	mux.Handle("/version", methodMux(map[string]http.Handler{
		http.MethodGet: VersionHandler(deps.Build, deps.Config.Server.PublicAPIURL),
	}))
	mux.Handle("/metrics", methodMux(map[string]http.Handler{
		http.MethodGet: metrics.Handler(),
	}))

	mux.Handle("/api/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: login,
	}))
	mux.Handle("/api/auth/me", methodMux(map[string]http.Handler{
		http.MethodGet: admin(authHandler.Me),
	}))

	mux.Handle("/api/admin/events", methodMux(map[string]http.Handler{
		http.MethodGet:  admin(adminEvents.List),
		http.MethodPost: admin(adminEvents.Create),
	}))
	mux.Handle("/api/admin/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    admin(adminEvents.Get),
		http.MethodPut:    admin(adminEvents.Update),
		http.MethodDelete: admin(adminEvents.Delete),
	}))
	mux.Handle("/api/admin/events/{id}/content-blocks", methodMux(map[string]http.Handler{
		http.MethodPut: admin(adminEvents.ReplaceBlocks),
	}))

	mux.Handle("/api/events", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(publicEvents.List),
	}))
	mux.Handle("/api/events/{slug}", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(publicEvents.Get),
	}))

	mux.Handle("/", http.HandlerFunc(notFound))

	var h http.Handler = middleware.RecordRoute(mux)
	h = middleware.RequestSize(middleware.DefaultMaxBodySize)(h)
	h = middleware.CORS(deps.Config.CORS, deps.Logger)(h)
	h = middleware.SecurityHeaders(deps.Config.IsProduction())(h)
	h = middleware.Recover(h)
	h = middleware.RequestLogging(deps.Logger)(h)
	h = metrics.HTTPMiddleware(h)
	h = middleware.CorrelationID(deps.Logger)(h)
	h = middleware.Tracing(h)
	return h
}

// notFound answers every unmatched path. It clears the catch-all pattern so
// metrics and traces group unmatched requests together.
func notFound(w http.ResponseWriter, r *http.Request) {
	r.Pattern = ""
	envelope.Error(w, r, http.StatusNotFound, msgRouteNotFound, nil)
}

// methodMux dispatches on method. A known path with an unsupported method is
// answered like an unknown route, with an Allow header listing the methods
// the path does support.
func methodMux(handlers map[string]http.Handler) http.Handler {
	if get, ok := handlers[http.MethodGet]; ok {
		if _, hasHead := handlers[http.MethodHead]; !hasHead {
			handlers[http.MethodHead] = get
		}
	}
	allow := allowedMethods(handlers)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		envelope.Error(w, r, http.StatusNotFound, msgRouteNotFound, nil)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
