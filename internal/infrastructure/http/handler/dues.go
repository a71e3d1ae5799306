package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/badyetly/badyetly/internal/application/dues"
	"github.com/badyetly/badyetly/internal/domain"
	"github.com/badyetly/badyetly/internal/infrastructure/http/response"
)

// CreateDueRequest is the body of POST /dues.
type CreateDueRequest struct {
	Title    string  `json:"title"`
	Amount   *string `json:"amount"`
	Category string  `json:"category"`
	Status   string  `json:"status"`
	Notes    string  `json:"notes"`
	ScheduleRequest
}

// UpdateDueRequest is the body of PATCH /dues/{due_id}. Only fields named
// in update_mask are applied; a null amount or fixed day in the mask clears it.
type UpdateDueRequest struct {
	UpdateMask           []string      `json:"update_mask"`
	Title                *string       `json:"title"`
	Amount               *string       `json:"amount"`
	Category             *string       `json:"category"`
	StartDate            *string       `json:"start_date"`
	RecurrenceUnit       *string       `json:"recurrence_unit"`
	RecurrenceMultiplier *int          `json:"recurrence_multiplier"`
	FixedDayOfMonth      *int          `json:"fixed_day_of_month"`
	EndPolicy            *EndPolicyDTO `json:"end_policy"`
	Status               *string       `json:"status"`
	Notes                *string       `json:"notes"`
	Version              *int          `json:"version"`
}

func setETag(w http.ResponseWriter, due *domain.RecurringDue) {
	w.Header().Set("ETag", strconv.Quote(due.Etag()))
}

// CreateDue handles POST /dues.
func (h *DuesHandler) CreateDue(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	var req CreateDueRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.ValidationError(w, "amount", "must be a decimal number")
		return
	}
	category, err := domain.NewCategory(req.Category)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	status, err := domain.NewDueStatus(req.Status)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	result, err := h.service.CreateDue(r.Context(), dues.CreateDueInput{
		OwnerID:  ownerID,
		Title:    req.Title,
		Amount:   amount,
		Category: category,
		Schedule: req.Draft(),
		Status:   status,
		Notes:    req.Notes,
	})
	if err != nil {
		slog.WarnContext(r.Context(), "failed to create due via HTTP", "error", err)
		response.FromDomainError(w, r, err)
		return
	}

	setETag(w, result.Due)
	response.Created(w, CreateDueResponse{
		Due:              MapDueToDTO(result.Due),
		InstancesCreated: result.InstancesCreated,
	})
}

// ListDues handles GET /dues.
func (h *DuesHandler) ListDues(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListDues(r.Context(), ownerID)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	out := make([]DueDTO, 0, len(list))
	for _, due := range list {
		out = append(out, MapDueToDTO(due))
	}
	response.OK(w, map[string]any{"dues": out})
}

// GetDue handles GET /dues/{due_id}.
func (h *DuesHandler) GetDue(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	due, err := h.service.GetDue(r.Context(), ownerID, chi.URLParam(r, "due_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	setETag(w, due)
	response.OK(w, map[string]any{"due": MapDueToDTO(due)})
}

// UpdateDue handles PATCH /dues/{due_id}. The expected version comes from
// the body or an If-Match header.
func (h *DuesHandler) UpdateDue(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	var req UpdateDueRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	params, ok := h.updateParams(w, r, req)
	if !ok {
		return
	}
	params.OwnerID = ownerID
	params.DueID = chi.URLParam(r, "due_id")

	result, err := h.service.UpdateDue(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	setETag(w, result.Due)
	response.OK(w, UpdateDueResponse{
		Due:          MapDueToDTO(result.Due),
		Regeneration: MapRegenerationToDTO(result.Regeneration),
	})
}

// updateParams converts the request into domain params, writing a 400 for
// values that cannot be parsed.
func (h *DuesHandler) updateParams(w http.ResponseWriter, r *http.Request, req UpdateDueRequest) (domain.UpdateDueParams, bool) {
	params := domain.UpdateDueParams{
		UpdateMask:           req.UpdateMask,
		Title:                req.Title,
		RecurrenceMultiplier: req.RecurrenceMultiplier,
		FixedDayOfMonth:      req.FixedDayOfMonth,
		Notes:                req.Notes,
		ExpectedVersion:      req.Version,
	}

	if params.ExpectedVersion == nil {
		version, err := parseIfMatch(r.Header.Get("If-Match"))
		if err != nil {
			response.BadRequest(w, "invalid If-Match header")
			return params, false
		}
		params.ExpectedVersion = version
	}

	if req.Amount != nil {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			response.ValidationError(w, "amount", "must be a decimal number")
			return params, false
		}
		if amount.Valid {
			params.Amount = &amount.Decimal
		}
	}

	if req.Category != nil {
		category, err := domain.NewCategory(*req.Category)
		if err != nil {
			response.FromDomainError(w, r, err)
			return params, false
		}
		params.Category = &category
	}

	if req.Status != nil {
		status, err := domain.NewDueStatus(*req.Status)
		if err != nil {
			response.FromDomainError(w, r, err)
			return params, false
		}
		params.Status = &status
	}

	if req.RecurrenceUnit != nil {
		unit, err := domain.NewRecurrenceUnit(*req.RecurrenceUnit)
		if err != nil {
			response.FromDomainError(w, r, err)
			return params, false
		}
		params.RecurrenceUnit = &unit
	}

	policy := h.service.InputPolicy(r.Context())
	today := h.service.Today()

	if req.StartDate != nil {
		start, err := policy.ParseDate(domain.FieldStartDate, *req.StartDate, today)
		if err != nil {
			response.FromDomainError(w, r, err)
			return params, false
		}
		params.StartDate = &start
	}

	if req.EndPolicy != nil {
		kind, err := domain.NewEndKind(req.EndPolicy.Kind)
		if err != nil {
			response.FromDomainError(w, r, err)
			return params, false
		}
		end := domain.EndPolicy{Kind: kind, Count: req.EndPolicy.Count}
		if kind == domain.EndAfterDate {
			until, err := policy.ParseDate("end_date", req.EndPolicy.Until, today)
			if err != nil {
				response.FromDomainError(w, r, err)
				return params, false
			}
			end.Until = until
		}
		params.EndPolicy = &end
	}

	return params, true
}

// DeleteDue handles DELETE /dues/{due_id}.
func (h *DuesHandler) DeleteDue(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDue(r.Context(), ownerID, chi.URLParam(r, "due_id")); err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.NoContent(w)
}
