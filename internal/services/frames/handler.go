package frames

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/api/respond"
	"github.com/calmerhq/calmer/internal/domain/notification"
	"github.com/calmerhq/calmer/internal/domain/user"
	"github.com/calmerhq/calmer/internal/repository/postgres"
)

type Handler struct {
	Users  user.Repo
	Sender notification.Sender
	Verify Verifier
	Clock  notification.Clock
	Log    *zap.Logger
}

// Webhook processes a frame lifecycle event. Enablement writes must land
// even when the courtesy push afterwards fails; that failure is only
// logged.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req SignedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hdr, ev, err := Decode(req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Verify.Verify(r.Context(), req, hdr); err != nil {
		respond.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	key := user.Key{
		UserID:           strconv.FormatInt(hdr.FID, 10),
		IdentityProvider: user.ProviderFarcaster,
	}
	log := h.Log.With(zap.Int64("fid", hdr.FID), zap.String("event", ev.Event))

	switch ev.Event {
	case EventFrameAdded:
		if ev.NotificationDetails == nil {
			err = h.disable(r.Context(), key)
			break
		}
		err = h.enable(r.Context(), key, hdr.FID, ev.NotificationDetails,
			"Welcome to Calmer", "Calmer is now added to your frames", log)
	case EventNotificationsEnabled:
		if ev.NotificationDetails == nil {
			respond.Error(w, http.StatusBadRequest, "missing notification details")
			return
		}
		err = h.enable(r.Context(), key, hdr.FID, ev.NotificationDetails,
			"Calmer notifications enabled", "You'll now receive daily reminders to get calmer", log)
	case EventFrameRemoved, EventNotificationsDisabled:
		err = h.disable(r.Context(), key)
	default:
		log.Info("ignoring unknown frame event")
	}
	if err != nil {
		log.Error("webhook handling failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) enable(ctx context.Context, key user.Key, fid int64, d *user.NotificationDetails, title, body string, log *zap.Logger) error {
	_, err := h.Users.GetByKey(ctx, key)
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		now := h.Clock.Now()
		if err := h.Users.Create(ctx, &user.User{
			ID:                     uuid.NewString(),
			Key:                    key,
			NotificationsEnabledAt: &now,
			NotificationDetails:    d,
		}); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := h.Users.SetNotificationDetails(ctx, key, d); err != nil {
			return err
		}
	}

	// Courtesy push; reminders do not depend on it.
	if err := h.Sender.Send(ctx, []notification.Recipient{{FID: fid, Details: *d}}, title, body); err != nil {
		log.Warn("welcome push failed", zap.Error(err))
	}
	return nil
}

func (h *Handler) disable(ctx context.Context, key user.Key) error {
	err := h.Users.ClearNotificationDetails(ctx, key)
	if errors.Is(err, postgres.ErrNotFound) {
		return nil
	}
	return err
}
