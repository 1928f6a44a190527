// Package users exposes the thin user/session CRUD surface the frame UI
// talks to. No temporal logic lives here; it is direct-mapped storage
// access.
package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/api/respond"
	"github.com/calmerhq/calmer/internal/domain/session"
	"github.com/calmerhq/calmer/internal/domain/user"
	"github.com/calmerhq/calmer/internal/repository/postgres"
)

type Handler struct {
	Users    user.Repo
	Sessions session.Repo
	Log      *zap.Logger
}

// Get returns a user and their latest session by (uid, ip) key.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		respond.Error(w, http.StatusBadRequest, "uid is required")
		return
	}
	ip := user.IdentityProvider(r.URL.Query().Get("ip"))
	if ip == "" {
		ip = user.ProviderFarcaster
	}

	u, err := h.Users.GetByKey(r.Context(), user.Key{UserID: uid, IdentityProvider: ip})
	if errors.Is(err, postgres.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error("get user", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	last, err := h.latestSession(r, u.ID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"user": u, "lastSession": last},
	})
}

type createUserRequest struct {
	UserID           string                `json:"userId"`
	IdentityProvider user.IdentityProvider `json:"identityProvider"`
	UserInfo         user.Info             `json:"userInfo"`
	Data             map[string]any        `json:"data"`
}

// Create upserts-on-miss: an existing key returns the stored user plus the
// latest session, a new key creates the row and flags it as new.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.IdentityProvider == "" {
		respond.Error(w, http.StatusBadRequest, "userId and identityProvider are required")
		return
	}

	key := user.Key{UserID: req.UserID, IdentityProvider: req.IdentityProvider}
	existing, err := h.Users.GetByKey(r.Context(), key)
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		u := &user.User{
			ID:   uuid.NewString(),
			Key:  key,
			Info: req.UserInfo,
			Data: req.Data,
		}
		if err := h.Users.Create(r.Context(), u); err != nil {
			h.Log.Error("create user", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		respond.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"user": u, "newUser": true},
		})
	case err != nil:
		h.Log.Error("find user", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
	default:
		last, lerr := h.latestSession(r, existing.ID)
		if lerr != nil {
			respond.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		respond.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"user": existing, "lastSession": last},
		})
	}
}

type sessionRequest struct {
	Data       map[string]any `json:"data"`
	FinishedAt *time.Time     `json:"finishedAt"`
}

// CreateSession starts a session for the user row id in the path.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s := &session.Session{
		ID:     uuid.NewString(),
		UserID: chi.URLParam(r, "userID"),
		Data:   req.Data,
	}
	if err := h.Sessions.Create(r.Context(), s); err != nil {
		h.Log.Error("create session", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"session": s},
	})
}

// UpdateSession overwrites a session's data and finished-at marker. Setting
// finishedAt ends quiet suppression for the user.
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s := &session.Session{
		ID:     chi.URLParam(r, "sessionID"),
		UserID: chi.URLParam(r, "userID"),
		Data:   req.Data,
	}
	s.FinishedAt = req.FinishedAt
	if err := h.Sessions.Update(r.Context(), s); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Session not found")
			return
		}
		h.Log.Error("update session", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"session": s},
	})
}

func (h *Handler) latestSession(r *http.Request, userID string) (*session.Session, error) {
	last, err := h.Sessions.LatestByUser(r.Context(), userID)
	if errors.Is(err, postgres.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		h.Log.Error("latest session", zap.Error(err))
		return nil, err
	}
	return last, nil
}
