package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/mail"
	"github.com/metamasonz/backoffice/internal/admin/notify"
	"github.com/metamasonz/backoffice/internal/admin/service"
	"github.com/metamasonz/backoffice/internal/admin/store/drivers/sqlite"
	"github.com/metamasonz/backoffice/pkg/cryptox"
	"github.com/metamasonz/backoffice/pkg/idx"
	"github.com/metamasonz/backoffice/pkg/jwtx"
)

type testServer struct {
	*httptest.Server
	router *Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.DiscardHandler)
	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "test-issuer")
	require.NoError(t, err)

	sessions := &service.SessionService{Store: st, Signer: signer, Verifier: signer, Issuer: "test-issuer"}
	credentials := &service.CredentialService{Store: st}
	dispatcher := &mail.LogDispatcher{Logger: logger}

	router := NewRouter("test", st, logger)
	router.Sessions = sessions
	router.Accounts = &service.AccountService{Store: st, Credentials: credentials, Sessions: sessions}
	router.Invites = &service.InviteService{Store: st, Mail: dispatcher, Sessions: sessions}
	router.Submissions = &service.SubmissionService{Store: st, Mail: dispatcher, Notify: notify.NewHub()}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, router: router}
}

func (ts *testServer) seedAccount(t *testing.T, email, password string, role domain.Role) domain.Account {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	a := domain.Account{
		ID:           idx.New().String(),
		Name:         "Test Staff",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Verified:     true,
	}
	require.NoError(t, ts.router.store.Accounts().Create(context.Background(), a))
	return a
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) (*nethttp.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := nethttp.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()

	resp, body := ts.request(t, "POST", "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	return data["token"].(string)
}

func TestAuthEndpoints(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.seedAccount(t, "admin@example.com", "Password123!", domain.RoleAdmin)

	t.Run("login with valid credentials", func(t *testing.T) {
		resp, body := ts.request(t, "POST", "/api/auth/login", "", map[string]string{
			"email": "admin@example.com", "password": "Password123!",
		})
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		require.Equal(t, true, body["success"])

		data := body["data"].(map[string]any)
		require.NotEmpty(t, data["token"])
		user := data["user"].(map[string]any)
		require.Equal(t, "admin", user["role"])
	})

	t.Run("login with wrong password", func(t *testing.T) {
		resp, body := ts.request(t, "POST", "/api/auth/login", "", map[string]string{
			"email": "admin@example.com", "password": "wrong",
		})
		require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, false, body["success"])
		require.Equal(t, "UNAUTHENTICATED", body["errorKind"])
	})

	t.Run("me requires a token", func(t *testing.T) {
		resp, _ := ts.request(t, "GET", "/api/auth/me", "", nil)
		require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

		token := ts.login(t, "admin@example.com", "Password123!")
		resp, body := ts.request(t, "GET", "/api/auth/me", token, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		require.Equal(t, "admin@example.com", body["data"].(map[string]any)["email"])
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		token := ts.login(t, "admin@example.com", "Password123!")

		resp, _ := ts.request(t, "POST", "/api/auth/logout", token, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)

		resp, _ = ts.request(t, "GET", "/api/auth/verify", token, nil)
		require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRoleGuards(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.seedAccount(t, "mod@example.com", "Password123!", domain.RoleModerator)
	ts.seedAccount(t, "admin@example.com", "Password123!", domain.RoleAdmin)

	modToken := ts.login(t, "mod@example.com", "Password123!")
	adminToken := ts.login(t, "admin@example.com", "Password123!")

	t.Run("moderator blocked from admin surfaces with 403", func(t *testing.T) {
		resp, body := ts.request(t, "GET", "/api/admin/accounts", modToken, nil)
		require.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
		require.Equal(t, "FORBIDDEN", body["errorKind"])
	})

	t.Run("admin blocked from superAdmin surfaces with 403", func(t *testing.T) {
		resp, _ := ts.request(t, "DELETE", "/api/admin/accounts/some-id", adminToken, nil)
		require.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	})

	t.Run("anonymous gets 401 not 403", func(t *testing.T) {
		resp, _ := ts.request(t, "GET", "/api/admin/accounts", "", nil)
		require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("admin passes the admin guard", func(t *testing.T) {
		resp, _ := ts.request(t, "GET", "/api/admin/accounts", adminToken, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	})
}

func TestInviteFlow(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.seedAccount(t, "admin@example.com", "Password123!", domain.RoleAdmin)
	adminToken := ts.login(t, "admin@example.com", "Password123!")

	var code string

	t.Run("admin generates an invite", func(t *testing.T) {
		resp, body := ts.request(t, "POST", "/api/admin/invites", adminToken, map[string]string{
			"email": "new.mod@example.com", "role": "moderator",
		})
		require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

		data := body["data"].(map[string]any)
		require.Equal(t, "sent", data["status"])
		code = data["code"].(string)
		require.Len(t, code, 32)
	})

	t.Run("duplicate invite conflicts", func(t *testing.T) {
		resp, body := ts.request(t, "POST", "/api/admin/invites", adminToken, map[string]string{
			"email": "new.mod@example.com", "role": "moderator",
		})
		require.Equal(t, nethttp.StatusConflict, resp.StatusCode)
		require.Equal(t, "CONFLICT", body["errorKind"])
	})

	t.Run("redeeming the code registers and logs in", func(t *testing.T) {
		resp, body := ts.request(t, "POST", "/api/auth/register", "", map[string]string{
			"inviteCode": code,
			"email":      "new.mod@example.com",
			"password":   "Password123!",
			"name":       "New Mod",
		})
		require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

		data := body["data"].(map[string]any)
		require.NotEmpty(t, data["token"])
		require.Equal(t, "moderator", data["user"].(map[string]any)["role"])
	})

	t.Run("second redemption fails", func(t *testing.T) {
		resp, body := ts.request(t, "POST", "/api/auth/register", "", map[string]string{
			"inviteCode": code,
			"email":      "new.mod@example.com",
			"password":   "Password123!",
			"name":       "Copy Cat",
		})
		require.Equal(t, nethttp.StatusUnprocessableEntity, resp.StatusCode)
		require.Equal(t, "INVITE_EXPIRED_OR_INVALID", body["errorKind"])
	})
}

func TestSubmissionFlow(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.seedAccount(t, "mod@example.com", "Password123!", domain.RoleModerator)
	modToken := ts.login(t, "mod@example.com", "Password123!")

	var id string

	t.Run("public intake", func(t *testing.T) {
		resp, body := ts.request(t, "POST", "/api/submissions", "", map[string]any{
			"projectName": "Test Project",
			"description": "A project description long enough to clear the fifty character minimum.",
			"email":       "founder@example.com",
			"socials": map[string]string{
				"x":        "@project",
				"telegram": "project",
				"discord":  "project",
			},
		})
		require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
		require.Len(t, body["data"].(map[string]any)["code"].(string), 6)
	})

	t.Run("validation detail surfaced", func(t *testing.T) {
		resp, body := ts.request(t, "POST", "/api/submissions", "", map[string]any{
			"projectName": "Bad",
			"description": "too short",
		})
		require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
		require.Contains(t, body["errors"].(map[string]any), "description")
	})

	t.Run("moderator lists pending", func(t *testing.T) {
		resp, body := ts.request(t, "GET", "/api/admin/submissions?status=pending", modToken, nil)
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)

		items := body["data"].([]any)
		require.Len(t, items, 1)
		id = items[0].(map[string]any)["id"].(string)
	})

	t.Run("approve then refuse further decisions", func(t *testing.T) {
		resp, body := ts.request(t, "PATCH", "/api/admin/submissions/"+id+"/status", modToken, map[string]string{
			"status": "approved",
		})
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		data := body["data"].(map[string]any)
		require.Equal(t, "approved", data["status"])
		require.Equal(t, true, data["statusLocked"])

		resp, body = ts.request(t, "PATCH", "/api/admin/submissions/"+id+"/status", modToken, map[string]string{
			"status": "rejected",
		})
		require.Equal(t, nethttp.StatusUnprocessableEntity, resp.StatusCode)
		require.Equal(t, "FINALIZED", body["errorKind"])
	})
}

func TestSystemEndpoints(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp, body := ts.request(t, "GET", "/livez", "", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])

	resp, body = ts.request(t, "GET", "/readyz", "", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", body["status"])
}
