package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/store"
	"github.com/metamasonz/backoffice/internal/admin/store/drivers/sqlite"
	"github.com/metamasonz/backoffice/pkg/cryptox"
	"github.com/metamasonz/backoffice/pkg/idx"
	"github.com/metamasonz/backoffice/pkg/jwtx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) *jwtx.HS256 {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "test-issuer")
	require.NoError(t, err)
	return signer
}

func newTestSignerWithSecret(secret string) (*jwtx.HS256, error) {
	return jwtx.NewHS256([]byte(secret), "test-issuer")
}

func newSessionService(t *testing.T, st store.Store, now func() time.Time) *SessionService {
	t.Helper()

	signer := newTestSigner(t)
	return &SessionService{
		Store:    st,
		Signer:   signer,
		Verifier: signer,
		Issuer:   "test-issuer",
		Now:      now,
	}
}

func seedAccount(t *testing.T, st store.Store, email, password string, role domain.Role) domain.Account {
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
	require.NoError(t, st.Accounts().Create(context.Background(), a))
	return a
}

// mailRecorder captures dispatches for assertions. Send runs on a goroutine
// in the services, so access is guarded.
type mailRecorder struct {
	mu    sync.Mutex
	sends []mailSend
}

type mailSend struct {
	Template  string
	Args      []string
	Recipient string
}

func (m *mailRecorder) Send(_ context.Context, template string, args []string, recipient string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, mailSend{Template: template, Args: args, Recipient: recipient})
	return true
}

func (m *mailRecorder) waitFor(t *testing.T, n int) []mailSend {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		if len(m.sends) >= n {
			out := append([]mailSend(nil), m.sends...)
			m.mu.Unlock()
			return out
		}
		m.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d mail dispatches", n)
	return nil
}

// fixedClock returns a Now func pinned to a mutable instant.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
