package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "wayfarer_session", "secret", time.Hour, false)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", name)
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Empty(t, sess.User())

	sess.SetUser("7")
	sess.Set("theme", "dark")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	cookie := sessionCookie(t, rec, sm.CookieName())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	reloaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "7", reloaded.User())
	require.Equal(t, "dark", reloaded.Get("theme"))

	reloaded.Delete("theme")
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, reloaded))

	again, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Empty(t, again.Get("theme"))
}

func TestSessionDestroy(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("7")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	cookie := sessionCookie(t, rec, sm.CookieName())

	sm.Destroy(sess)
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	clearing := sessionCookie(t, rec, sm.CookieName())
	require.Equal(t, -1, clearing.MaxAge)

	// The pruned cookie now resolves to a fresh anonymous session.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	reloaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Empty(t, reloaded.User())
}

func TestCSRFTokenStableAndVerified(t *testing.T) {
	sm := newTestManager(t)
	cm := NewCSRFManager("csrf-secret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := cm.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Re-ensuring returns the same token for the session lifetime.
	second, err := cm.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, token, second)

	require.NoError(t, cm.VerifyToken(ctx, sess, token))
	require.ErrorIs(t, cm.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, cm.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
}
