package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/badyetly/badyetly/internal/application/auth"
	"github.com/badyetly/badyetly/internal/application/dues"
	"github.com/badyetly/badyetly/internal/infrastructure/http/response"
)

// DuesHandler adapts HTTP requests to dues service calls.
type DuesHandler struct {
	service *dues.Service
}

// NewDuesHandler creates a new HTTP API handler.
func NewDuesHandler(service *dues.Service) *DuesHandler {
	return &DuesHandler{service: service}
}

// NewRouter mounts every API route on a fresh chi router. Routes expect the
// owner to be in the request context; mount the router behind the auth
// middleware.
func NewRouter(service *dues.Service) http.Handler {
	h := NewDuesHandler(service)

	r := chi.NewRouter()
	r.Route("/dues", func(r chi.Router) {
		r.Get("/", h.ListDues)
		r.Post("/", h.CreateDue)
		r.Route("/{due_id}", func(r chi.Router) {
			r.Get("/", h.GetDue)
			r.Patch("/", h.UpdateDue)
			r.Delete("/", h.DeleteDue)
			r.Get("/instances", h.ListDueInstances)
		})
	})
	r.Route("/instances", func(r chi.Router) {
		r.Get("/", h.ListInstances)
		r.Post("/{instance_id}/pay", h.MarkPaid)
		r.Post("/{instance_id}/unpay", h.MarkUnpaid)
	})
	r.Post("/schedule/preview", h.PreviewSchedule)

	return r
}

// owner returns the authenticated owner or writes a 401.
func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "invalid or missing API key")
		return "", false
	}
	return ownerID, true
}
