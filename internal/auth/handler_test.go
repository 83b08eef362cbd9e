package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wayfarer-labs/wayfarer/internal/auth"
	"github.com/wayfarer-labs/wayfarer/internal/shared"
	_ "github.com/wayfarer-labs/wayfarer/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
	deleted  []string
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) DeleteExpiredSessions(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// newAuthRouter mounts the auth handler behind a minimal session
// middleware, the same load/commit shape the app stack uses.
func newAuthRouter(t *testing.T, repo auth.Repository) (chi.Router, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), sessionManager, csrfManager)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, req.WithContext(ctx))
			require.NoError(t, sessionManager.Commit(ctx, w, req, sess))
			for key, values := range rec.Header() {
				for _, v := range values {
					w.Header().Add(key, v)
				}
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	})
	handler.MountRoutes(r)
	return r, sessionManager
}

func TestShowSessionIssuesCSRFToken(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Authenticated bool   `json:"authenticated"`
		CSRFToken     string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Authenticated)
	require.NotEmpty(t, resp.CSRFToken)
	require.NotEmpty(t, rec.Result().Cookies())
}

func TestLoginSuccess(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{
		ID: 7, Email: "amira@wayfarer.local", PasswordHash: string(hashed), IsActive: true,
	}}
	router, sessionManager := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"amira@wayfarer.local","password":"correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.sessions, 1)

	// The committed session carries the user id.
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionManager.CookieName() {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	followup := httptest.NewRequest(http.MethodGet, "/session", nil)
	followup.AddCookie(cookie)
	sess, err := sessionManager.Load(context.Background(), followup)
	require.NoError(t, err)
	require.Equal(t, "7", sess.User())
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{
		ID: 7, Email: "amira@wayfarer.local", PasswordHash: string(hashed), IsActive: true,
	}}
	router, _ := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"amira@wayfarer.local","password":"wrong-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, repo.sessions)
}

func TestLoginInactiveUser(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{
		ID: 7, Email: "amira@wayfarer.local", PasswordHash: string(hashed), IsActive: false,
	}}
	router, _ := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"amira@wayfarer.local","password":"correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"not-an-email","password":"short"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := &stubRepo{}
	router, sessionManager := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, repo.deleted, 1)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionManager.CookieName() {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.Equal(t, -1, cookie.MaxAge)
}
