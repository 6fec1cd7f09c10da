package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/service"
	"github.com/metamasonz/backoffice/pkg/httpx"
)

type ctxKey int

const (
	accountKey ctxKey = iota
	tokenKey
)

// accountFrom returns the authenticated account placed by RequireSession.
func accountFrom(ctx context.Context) (domain.Account, bool) {
	a, ok := ctx.Value(accountKey).(domain.Account)
	return a, ok
}

// tokenFrom returns the raw bearer token placed by RequireSession.
func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// RequireSession resolves the bearer token to an account and stores both on
// the request context. Missing or invalid tokens get 401 with no detail about
// which check failed.
func RequireSession(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := httpx.BearerToken(r)
			if token == "" {
				writeError(w, r, service.ErrUnauthenticated)
				return
			}

			account, err := sessions.Validate(r.Context(), token)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, account)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated accounts below the minimum role with 403.
// Run it inside RequireSession; an unauthenticated request still gets 401.
func RequireRole(min domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := accountFrom(r.Context())
			if !ok {
				writeError(w, r, service.ErrUnauthenticated)
				return
			}
			if !account.Role.AtLeast(min) {
				writeError(w, r, domain.E(domain.KindForbidden, "Insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// decodeJSON reads a JSON request body into dst, capping the body size.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return domain.Validation("Invalid request body", map[string]string{"body": "Malformed JSON"})
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.Validation("Invalid request body", map[string]string{"body": "Unexpected trailing data"})
	}
	return nil
}

// clientContext collects caller transport details for session records.
func clientContext(r *http.Request) domain.ClientContext {
	return domain.ClientContext{
		IP:        httpx.ClientIP(r),
		UserAgent: r.UserAgent(),
		DeviceID:  r.Header.Get("X-Device-ID"),
	}
}
