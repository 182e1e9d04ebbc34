// internal/app/features/syncrun/routes.go
package syncrun

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/auth"
)

// Routes returns a subrouter for sync triggers; mounted under /sync.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireDevice)
	r.Post("/", h.Run)
	return r
}
