package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/badyetly/badyetly/internal/infrastructure/http/response"
	"github.com/badyetly/badyetly/internal/recurring"
)

// rawValue accepts a JSON string or number and keeps its text, so form
// fields reach the schedule coercion exactly as typed.
type rawValue string

func (v *rawValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = rawValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*v = rawValue(n.String())
	return nil
}

// ScheduleRequest is the recurrence part of a create or preview request.
// Missing unit, multiplier and end kind take the form defaults.
type ScheduleRequest struct {
	StartDate            rawValue `json:"start_date"`
	RecurrenceUnit       rawValue `json:"recurrence_unit"`
	RecurrenceMultiplier rawValue `json:"recurrence_multiplier"`
	FixedDayOfMonth      rawValue `json:"fixed_day_of_month"`
	EndKind              rawValue `json:"end_kind"`
	EndDate              rawValue `json:"end_date"`
	Occurrences          rawValue `json:"occurrences"`
}

// Draft converts the request into a schedule draft.
func (s ScheduleRequest) Draft() recurring.Draft {
	d := recurring.NewDraft().
		WithStartDate(string(s.StartDate)).
		WithFixedDayOfMonth(string(s.FixedDayOfMonth)).
		WithEndDate(string(s.EndDate)).
		WithOccurrences(string(s.Occurrences))
	if s.RecurrenceUnit != "" {
		d = d.WithUnit(string(s.RecurrenceUnit))
	}
	if s.RecurrenceMultiplier != "" {
		d = d.WithMultiplier(string(s.RecurrenceMultiplier))
	}
	if s.EndKind != "" {
		d = d.WithEndKind(string(s.EndKind))
	}
	return d
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
// An empty body is accepted when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		response.BadRequest(w, "invalid JSON")
		return false
	}
	return true
}

// parseAmount parses an optional decimal amount. Nil or blank means no amount.
func parseAmount(raw *string) (decimal.NullDecimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// parseIfMatch reads an expected version from an If-Match header such as "3".
func parseIfMatch(header string) (*int, error) {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(header, "W/"), `"`))
	if err != nil {
		return nil, err
	}
	return &v, nil
}
