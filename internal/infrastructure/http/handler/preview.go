package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/badyetly/badyetly/internal/domain"
	"github.com/badyetly/badyetly/internal/infrastructure/http/response"
	"github.com/badyetly/badyetly/internal/recurring"
)

// maxPreviewCount bounds the count a client may request.
const maxPreviewCount = 52

// PreviewRequest is the body of POST /schedule/preview.
type PreviewRequest struct {
	ScheduleRequest
	Count int `json:"count"`
}

// PreviewSchedule handles POST /schedule/preview. It projects the next dates
// of an unsaved schedule. A schedule that cannot be calculated yields an
// empty list rather than an error.
func (h *DuesHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	if _, ok := owner(w, r); !ok {
		return
	}

	var req PreviewRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Count < 0 || req.Count > maxPreviewCount {
		response.ValidationError(w, "count", "must be between 0 and "+strconv.Itoa(maxPreviewCount))
		return
	}

	draft := req.Draft()
	response.OK(w, PreviewResponse{
		Dates:   h.service.Preview(draft, req.Count),
		Cadence: draftCadence(draft),
	})
}

// draftCadence labels the draft's repetition, or "" while it is incomplete.
func draftCadence(d recurring.Draft) string {
	unit, err := domain.NewRecurrenceUnit(d.Unit)
	if err != nil {
		return ""
	}
	n, err := strconv.Atoi(strings.TrimSpace(d.Multiplier))
	if err != nil {
		return ""
	}
	return recurring.Describe(unit, n)
}
