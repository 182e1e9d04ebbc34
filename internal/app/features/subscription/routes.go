// internal/app/features/subscription/routes.go
package subscription

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/auth"
)

// Routes returns a subrouter for subscription status and seat
// management; mounted under /subscription.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireDevice)
	r.Get("/status", h.Status)
	r.Post("/seats", h.AddSeat)
	r.Delete("/seats/{userID}", h.RemoveSeat)
	return r
}
