package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tksolution/admin/internal/admin/audit"
	"github.com/tksolution/admin/internal/admin/identity"
	"github.com/tksolution/admin/internal/admin/obs"
	"github.com/tksolution/admin/pkg/httpx"
	"github.com/tksolution/admin/pkg/slogx"

	_ "github.com/tksolution/admin/api/admin" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Identity identity.Service
	Audit    audit.Sink

	// Readiness probes for the configured backends; either may be nil.
	AuditCheck    func(context.Context) error
	IdentityCheck func(context.Context) error
}

func NewRouter(
	identitySvc identity.Service,
	auditSink audit.Sink,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Identity:     identitySvc,
		Audit:        auditSink,
	}

	// Set default middleware chain. CORS runs on every request so the
	// browser preflight never reaches the mux.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(),
		obs.Instrument,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			TkSolution Admin Service API
//	@version		0.1.0
//	@description	Privileged administrative operations for the TkSolution workspace:
//	@description	inviting users by email and removing user accounts. Callers authenticate
//	@description	with a bearer token resolved against the identity backend; all operations
//	@description	require the admin role and destructive ones may require tk_master.
//
//	@contact.name				TkSolution Team
//	@contact.url				https://github.com/tksolution/admin
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Identity backend access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAdmin() {
	inviteHandler := &InviteUserHandler{Identity: r.Identity, Audit: r.Audit}
	deleteHandler := &DeleteUserHandler{Identity: r.Identity}
	activityHandler := &ActivityHandler{Identity: r.Identity, Audit: r.Audit}

	// POST /invite-user - moderate rate limit by IP (sends email)
	r.Mux.Handle("POST /v1/admin/invite-user",
		httpx.Chain(inviteHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /delete-user - strict rate limit by IP (destructive operation)
	r.Mux.Handle("POST /v1/admin/delete-user",
		httpx.Chain(deleteHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /activity - lenient rate limit by IP (read-only)
	r.Mux.Handle("GET /v1/admin/activity",
		httpx.Chain(activityHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.AuditCheck, r.IdentityCheck),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", obs.Handler())
}
