package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/domain/session"
	"github.com/calmerhq/calmer/internal/domain/user"
	"github.com/calmerhq/calmer/internal/repository/postgres"
)

type fakeUserRepo struct {
	users map[user.Key]*user.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	f.users[u.Key] = u
	return nil
}

func (f *fakeUserRepo) GetByKey(_ context.Context, k user.Key) (*user.User, error) {
	u, ok := f.users[k]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) SetNotificationDetails(context.Context, user.Key, *user.NotificationDetails) error {
	return nil
}

func (f *fakeUserRepo) ClearNotificationDetails(context.Context, user.Key) error {
	return nil
}

type fakeSessionRepo struct {
	byUser  map[string]*session.Session
	created []*session.Session
	updated []*session.Session
	missing bool
}

func (f *fakeSessionRepo) Create(_ context.Context, s *session.Session) error {
	f.created = append(f.created, s)
	return nil
}

func (f *fakeSessionRepo) Update(_ context.Context, s *session.Session) error {
	if f.missing {
		return postgres.ErrNotFound
	}
	f.updated = append(f.updated, s)
	return nil
}

func (f *fakeSessionRepo) LatestByUser(_ context.Context, userID string) (*session.Session, error) {
	s, ok := f.byUser[userID]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return s, nil
}

func newTestHandler() (*Handler, *fakeUserRepo, *fakeSessionRepo) {
	ur := &fakeUserRepo{users: make(map[user.Key]*user.User)}
	sr := &fakeSessionRepo{byUser: make(map[string]*session.Session)}
	return &Handler{Users: ur, Sessions: sr, Log: zap.NewNop()}, ur, sr
}

func TestGet_RequiresUID(t *testing.T) {
	h, _, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGet_NotFound(t *testing.T) {
	h, _, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/users?uid=42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGet_ReturnsUserAndLastSession(t *testing.T) {
	h, ur, sr := newTestHandler()
	key := user.Key{UserID: "42", IdentityProvider: user.ProviderFarcaster}
	ur.users[key] = &user.User{ID: "u-1", Key: key}
	sr.byUser["u-1"] = &session.Session{ID: "s-1", UserID: "u-1"}

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/users?uid=42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			User        *user.User       `json:"user"`
			LastSession *session.Session `json:"lastSession"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "u-1", body.Data.User.ID)
	require.Equal(t, "s-1", body.Data.LastSession.ID)
}

func TestGet_DefaultsProviderToFarcaster(t *testing.T) {
	h, ur, _ := newTestHandler()
	key := user.Key{UserID: "7", IdentityProvider: user.ProviderFarcaster}
	ur.users[key] = &user.User{ID: "u-7", Key: key}

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/users?uid=7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreate_NewUser(t *testing.T) {
	h, ur, _ := newTestHandler()

	body, _ := json.Marshal(map[string]any{
		"userId":           "9",
		"identityProvider": "anon",
		"data":             map[string]any{"theme": "dark"},
	})
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"newUser":true`)

	key := user.Key{UserID: "9", IdentityProvider: user.ProviderAnonymous}
	created, ok := ur.users[key]
	require.True(t, ok)
	require.NotEmpty(t, created.ID)
}

func TestCreate_ExistingUserReturnsLastSession(t *testing.T) {
	h, ur, sr := newTestHandler()
	key := user.Key{UserID: "9", IdentityProvider: user.ProviderFarcaster}
	ur.users[key] = &user.User{ID: "u-9", Key: key}
	sr.byUser["u-9"] = &session.Session{ID: "s-9", UserID: "u-9"}

	body, _ := json.Marshal(map[string]any{"userId": "9", "identityProvider": "fc"})
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"lastSession"`)
	require.NotContains(t, rec.Body.String(), `"newUser"`)
}

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateSession(t *testing.T) {
	h, _, sr := newTestHandler()

	body, _ := json.Marshal(map[string]any{"data": map[string]any{"tzOffset": -60}})
	r := withURLParams(
		httptest.NewRequest(http.MethodPost, "/api/users/u-1/sessions", bytes.NewReader(body)),
		map[string]string{"userID": "u-1"},
	)
	rec := httptest.NewRecorder()
	h.CreateSession(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, sr.created, 1)
	require.Equal(t, "u-1", sr.created[0].UserID)
	require.NotEmpty(t, sr.created[0].ID)
	require.Equal(t, float64(-60), sr.created[0].Data["tzOffset"])
}

func TestUpdateSession_Finish(t *testing.T) {
	h, _, sr := newTestHandler()

	finished := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	body, _ := json.Marshal(map[string]any{
		"data":       map[string]any{"tzOffset": 120},
		"finishedAt": finished.Format(time.RFC3339),
	})
	r := withURLParams(
		httptest.NewRequest(http.MethodPut, "/api/users/u-1/sessions/s-1", bytes.NewReader(body)),
		map[string]string{"userID": "u-1", "sessionID": "s-1"},
	)
	rec := httptest.NewRecorder()
	h.UpdateSession(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, sr.updated, 1)
	require.Equal(t, "s-1", sr.updated[0].ID)
	require.NotNil(t, sr.updated[0].FinishedAt)
	require.True(t, finished.Equal(*sr.updated[0].FinishedAt))
}

func TestUpdateSession_NotFound(t *testing.T) {
	h, _, sr := newTestHandler()
	sr.missing = true

	body, _ := json.Marshal(map[string]any{"data": nil, "finishedAt": nil})
	r := withURLParams(
		httptest.NewRequest(http.MethodPut, "/api/users/u-1/sessions/s-404", bytes.NewReader(body)),
		map[string]string{"userID": "u-1", "sessionID": "s-404"},
	)
	rec := httptest.NewRecorder()
	h.UpdateSession(rec, r)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
