package handler

import (
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"github.com/badyetly/badyetly/internal/domain"
	"github.com/badyetly/badyetly/internal/infrastructure/http/response"
)

// MarkPaidRequest is the optional body of POST /instances/{instance_id}/pay.
type MarkPaidRequest struct {
	PaidOn     *time.Time `json:"paid_on"`
	PaidAmount *string    `json:"paid_amount"`
}

// ListDueInstances handles GET /dues/{due_id}/instances.
func (h *DuesHandler) ListDueInstances(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	instances, err := h.service.ListDueInstances(r.Context(), ownerID, chi.URLParam(r, "due_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	h.writeInstances(w, r, ownerID, instances)
}

// ListInstances handles GET /instances. Supported query parameters are
// due_id, from, to (inclusive YYYY-MM-DD) and paid (true or false).
func (h *DuesHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	filter, field, err := parseInstanceFilter(r)
	if err != nil {
		response.ValidationError(w, field, err.Error())
		return
	}
	filter.OwnerID = ownerID

	instances, err := h.service.ListInstances(r.Context(), filter)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	h.writeInstances(w, r, ownerID, instances)
}

func (h *DuesHandler) writeInstances(w http.ResponseWriter, r *http.Request, ownerID string, instances []*domain.DueInstance) {
	amounts, err := h.service.EffectiveAmounts(r.Context(), ownerID, instances)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"instances": MapInstancesToDTO(instances, amounts)})
}

func (h *DuesHandler) writeInstance(w http.ResponseWriter, r *http.Request, ownerID string, inst *domain.DueInstance) {
	amounts, err := h.service.EffectiveAmounts(r.Context(), ownerID, []*domain.DueInstance{inst})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"instance": MapInstanceToDTO(inst, amounts[inst.ID])})
}

// parseInstanceFilter reads the list query. On failure it names the
// offending parameter.
func parseInstanceFilter(r *http.Request) (domain.InstanceFilter, string, error) {
	var filter domain.InstanceFilter
	q := r.URL.Query()

	if v := q.Get("due_id"); v != "" {
		filter.DueID = &v
	}
	for _, p := range []struct {
		name string
		dst  **civil.Date
	}{{"from", &filter.From}, {"to", &filter.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		d, err := civil.ParseDate(v)
		if err != nil {
			return filter, p.name, err
		}
		*p.dst = &d
	}
	if v := q.Get("paid"); v != "" {
		paid, err := strconv.ParseBool(v)
		if err != nil {
			return filter, "paid", err
		}
		filter.Paid = &paid
	}
	return filter, "", nil
}

// MarkPaid handles POST /instances/{instance_id}/pay.
func (h *DuesHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	var req MarkPaidRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	amount, err := parseAmount(req.PaidAmount)
	if err != nil {
		response.ValidationError(w, "paid_amount", "must be a decimal number")
		return
	}

	inst, err := h.service.MarkPaid(r.Context(), ownerID, chi.URLParam(r, "instance_id"), req.PaidOn, amount)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	h.writeInstance(w, r, ownerID, inst)
}

// MarkUnpaid handles POST /instances/{instance_id}/unpay.
func (h *DuesHandler) MarkUnpaid(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	inst, err := h.service.MarkUnpaid(r.Context(), ownerID, chi.URLParam(r, "instance_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	h.writeInstance(w, r, ownerID, inst)
}
