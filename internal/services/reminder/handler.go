package reminder

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/api/respond"
	"github.com/calmerhq/calmer/internal/domain/notification"
)

// Handler is the scheduler-facing trigger endpoint. The scheduler is
// trusted to fire at most once per hour; nothing here deduplicates
// repeated invocations of the same hour.
type Handler struct {
	UC     *Usecase
	Secret string
	Clock  notification.Clock
	Log    *zap.Logger
}

// Process runs one reminder invocation. Unauthenticated calls are rejected
// before any storage access. The response carries a single ok flag: false
// when selection failed or any batch errored, even though earlier batches
// were already delivered.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		respond.JSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "Unauthorized"})
		return
	}

	rep, err := h.UC.Run(r.Context(), h.Clock.Now())
	if err != nil {
		h.Log.Error("reminder run failed", zap.Error(err))
		respond.JSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if rep.Failed() {
		respond.JSON(w, http.StatusInternalServerError, map[string]any{
			"ok":       false,
			"error":    "one or more batches failed",
			"notified": rep.Notified,
		})
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"ok": true, "notified": rep.Notified})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.Secret == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.Secret)) == 1
}
