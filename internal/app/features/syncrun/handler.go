package syncrun

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/auth"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/syncpass"
	"go.uber.org/zap"
)

// Handler triggers sync passes for the device's user.
type Handler struct {
	Runner *syncpass.Runner
	Log    *zap.Logger
}

// NewHandler constructs a syncrun Handler.
func NewHandler(runner *syncpass.Runner, logger *zap.Logger) *Handler {
	return &Handler{Runner: runner, Log: logger}
}

// Run handles POST /sync. A pre-flight refusal is a 409 so the client
// knows to run a health check first; any other failure is a 502 since
// the pass depends on the upstream directory.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r)
	if !ok || !sess.Authenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := h.Runner.Run(r.Context(), sess)
	if err != nil {
		if errors.Is(err, syncpass.ErrPreflightFailed) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.Log.Warn("sync pass failed",
			zap.String("user_id", sess.UserID),
			zap.Error(err))
		http.Error(w, "sync failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
