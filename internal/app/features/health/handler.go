package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/auth"
	systemhealth "github.com/jackson-sweet/opsapp-sub003/internal/app/system/health"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies for the liveness and device health-check
// endpoints.
type Handler struct {
	Client   *mongo.Client
	Monitor  *systemhealth.Monitor
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(client *mongo.Client, monitor *systemhealth.Monitor, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Client:   client,
		Monitor:  monitor,
		Sessions: sessions,
		Log:      logger,
	}
}

// livenessResponse is the JSON structure for GET /health.
type livenessResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// checkResponse is the JSON structure for POST /health/check.
type checkResponse struct {
	State     string              `json:"state"`
	Action    systemhealth.Action `json:"action"`
	Recovered bool                `json:"recovered,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Serve handles GET /health for load balancers and orchestrators.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("liveness: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(livenessResponse{
			Status:   "error",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}

	_ = json.NewEncoder(w).Encode(livenessResponse{Status: "ok", Database: "connected"})
}

// Check handles POST /health/check. Clients call it on app-foreground;
// it runs the ordered health checks for the device session and reports
// the state plus the recovery action. With ?recover=true the action is
// also executed before the response goes out.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r)
	if !ok {
		http.Error(w, "no device session", http.StatusUnauthorized)
		return
	}

	state, action := h.Monitor.PerformHealthCheck(r.Context(), sess)

	resp := checkResponse{State: string(state), Action: action}
	if r.URL.Query().Get("recover") == "true" && action.Kind != systemhealth.ActionNone {
		if err := h.Monitor.ExecuteRecoveryAction(r.Context(), sess, action); err != nil {
			h.Log.Warn("recovery action failed",
				zap.String("action", string(action.Kind)),
				zap.Error(err))
			resp.Error = err.Error()
		} else {
			resp.Recovered = true
		}
	}

	// Logout and onboarding recoveries mutate the session cookie.
	if sess.Dirty() {
		if err := h.Sessions.Save(w, r, sess); err != nil {
			h.Log.Error("persisting device session failed", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
