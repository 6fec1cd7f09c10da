package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/service"
	"github.com/metamasonz/backoffice/internal/admin/store"
	"github.com/metamasonz/backoffice/pkg/httpx"
	"github.com/metamasonz/backoffice/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	Accounts    *service.AccountService
	Sessions    *service.SessionService
	Invites     *service.InviteService
	Submissions *service.SubmissionService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccounts()
	r.registerInvites()
	r.registerSubmissions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	session := RequireSession(r.Sessions)

	// POST /api/auth/login - strict rate limit (brute force prevention)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(&LoginHandler{Accounts: r.Accounts},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /api/auth/register - invite redemption, strict rate limit
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(&RegisterHandler{Invites: r.Invites},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /api/auth/logout - revokes the presenting session
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(&LogoutHandler{Accounts: r.Accounts}, session),
	)

	// GET /api/auth/me - current account
	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(&MeHandler{}, session),
	)

	// GET /api/auth/verify - token liveness probe for clients
	r.Mux.Handle("GET /api/auth/verify",
		httpx.Chain(&VerifyHandler{}, session),
	)
}

func (r *Router) registerAccounts() {
	session := RequireSession(r.Sessions)
	superAdmin := RequireRole(domain.RoleSuperAdmin)

	h := &AccountsHandler{Accounts: r.Accounts}

	r.Mux.Handle("GET /api/admin/accounts",
		httpx.Chain(http.HandlerFunc(h.List), session, RequireRole(domain.RoleAdmin)),
	)
	r.Mux.Handle("PATCH /api/admin/accounts/{id}/role",
		httpx.Chain(http.HandlerFunc(h.ChangeRole), session, superAdmin),
	)
	r.Mux.Handle("DELETE /api/admin/accounts/{id}",
		httpx.Chain(http.HandlerFunc(h.Delete), session, superAdmin),
	)
}

func (r *Router) registerInvites() {
	session := RequireSession(r.Sessions)
	admin := RequireRole(domain.RoleAdmin)

	h := &InvitesHandler{Invites: r.Invites}

	r.Mux.Handle("POST /api/admin/invites",
		httpx.Chain(http.HandlerFunc(h.Generate), session, admin,
			httpx.RateLimitByIP(httpx.ModerateLimit)),
	)
	r.Mux.Handle("GET /api/admin/invites",
		httpx.Chain(http.HandlerFunc(h.List), session, admin),
	)
	r.Mux.Handle("POST /api/admin/invites/{id}/resend",
		httpx.Chain(http.HandlerFunc(h.Resend), session, admin,
			httpx.RateLimitByIP(httpx.ModerateLimit)),
	)
	r.Mux.Handle("POST /api/admin/invites/{id}/revoke",
		httpx.Chain(http.HandlerFunc(h.Revoke), session, admin),
	)
}

func (r *Router) registerSubmissions() {
	session := RequireSession(r.Sessions)
	moderator := RequireRole(domain.RoleModerator)

	h := &SubmissionsHandler{Submissions: r.Submissions}

	// Public intake, lenient rate limit.
	r.Mux.Handle("POST /api/submissions",
		httpx.Chain(http.HandlerFunc(h.Submit),
			httpx.RateLimitByIP(httpx.LenientLimit)),
	)

	r.Mux.Handle("GET /api/admin/submissions",
		httpx.Chain(http.HandlerFunc(h.List), session, moderator),
	)
	r.Mux.Handle("GET /api/admin/submissions/search",
		httpx.Chain(http.HandlerFunc(h.Search), session, moderator),
	)
	r.Mux.Handle("GET /api/admin/submissions/{id}",
		httpx.Chain(http.HandlerFunc(h.Get), session, moderator),
	)
	r.Mux.Handle("PATCH /api/admin/submissions/{id}/status",
		httpx.Chain(http.HandlerFunc(h.Transition), session, moderator),
	)
	r.Mux.Handle("DELETE /api/admin/submissions/{id}",
		httpx.Chain(http.HandlerFunc(h.Delete), session, RequireRole(domain.RoleSuperAdmin)),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.store))
}
