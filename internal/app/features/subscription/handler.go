package subscription

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/access"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves subscription status and seat management for the
// device's company.
type Handler struct {
	Gate *access.Gate
	Log  *zap.Logger
}

// NewHandler constructs a subscription Handler.
func NewHandler(gate *access.Gate, logger *zap.Logger) *Handler {
	return &Handler{Gate: gate, Log: logger}
}

// Status handles GET /subscription/status: recompute and return the
// lockout decision for the session's user.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r)
	if !ok || !sess.Authenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	st, err := h.Gate.CheckSubscriptionStatus(r.Context(), sess.UserID, sess.CompanyID)
	if err != nil {
		h.Log.Error("subscription status check failed",
			zap.String("user_id", sess.UserID),
			zap.Error(err))
		http.Error(w, "subscription status unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

type seatRequest struct {
	UserID string `json:"user_id"`
}

// AddSeat handles POST /subscription/seats: grant a seat to the user in
// the request body. The session's user is the acting admin.
func (h *Handler) AddSeat(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r)
	if !ok || !sess.Authenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req seatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	if err := h.Gate.AddSeat(r.Context(), sess.UserID, req.UserID, sess.CompanyID); err != nil {
		h.writeSeatError(w, "add seat", req.UserID, err)
		return
	}
	h.writeStatus(w, r, sess.UserID, sess.CompanyID)
}

// RemoveSeat handles DELETE /subscription/seats/{userID}.
func (h *Handler) RemoveSeat(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r)
	if !ok || !sess.Authenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "userID is required", http.StatusBadRequest)
		return
	}

	if err := h.Gate.RemoveSeat(r.Context(), sess.UserID, userID, sess.CompanyID); err != nil {
		h.writeSeatError(w, "remove seat", userID, err)
		return
	}
	h.writeStatus(w, r, sess.UserID, sess.CompanyID)
}

// writeStatus responds with the freshly recomputed status after a seat
// mutation, so clients see the new counts without a second round trip.
func (h *Handler) writeStatus(w http.ResponseWriter, r *http.Request, userID, companyID string) {
	st, err := h.Gate.CheckSubscriptionStatus(r.Context(), userID, companyID)
	if err != nil {
		h.Log.Error("status recompute after seat change failed", zap.Error(err))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

func (h *Handler) writeSeatError(w http.ResponseWriter, op, userID string, err error) {
	switch {
	case errors.Is(err, access.ErrNotAuthorized), errors.Is(err, access.ErrSelfRemoval):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, access.ErrNoSeatsAvailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, access.ErrSyncFailed):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, mongo.ErrNoDocuments):
		http.Error(w, "company not found", http.StatusNotFound)
	default:
		h.Log.Error("seat mutation failed",
			zap.String("op", op),
			zap.String("user_id", userID),
			zap.Error(err))
		http.Error(w, "seat update failed", http.StatusInternalServerError)
	}
}
