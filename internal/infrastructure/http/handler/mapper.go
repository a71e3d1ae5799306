package handler

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/badyetly/badyetly/internal/application/dues"
	"github.com/badyetly/badyetly/internal/domain"
	"github.com/badyetly/badyetly/internal/ptr"
	"github.com/badyetly/badyetly/internal/recurring"
)

// EndPolicyDTO is the wire form of an end policy.
type EndPolicyDTO struct {
	Kind  string `json:"kind"`
	Until string `json:"until,omitempty"`
	Count int    `json:"count,omitempty"`
}

// DueDTO is the wire form of a recurring due.
type DueDTO struct {
	ID                   string       `json:"id"`
	Title                string       `json:"title"`
	Amount               *string      `json:"amount"`
	Category             string       `json:"category"`
	StartDate            civil.Date   `json:"start_date"`
	RecurrenceUnit       string       `json:"recurrence_unit"`
	RecurrenceMultiplier int          `json:"recurrence_multiplier"`
	FixedDayOfMonth      *int         `json:"fixed_day_of_month"`
	EndPolicy            EndPolicyDTO `json:"end_policy"`
	Cadence              string       `json:"cadence"`
	Status               string       `json:"status"`
	Notes                string       `json:"notes"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
	Version              int          `json:"version"`
}

// InstanceDTO is the wire form of a due instance.
type InstanceDTO struct {
	ID             string     `json:"id"`
	RecurringDueID string     `json:"recurring_due_id"`
	DueDate        civil.Date `json:"due_date"`
	IsPaid         bool       `json:"is_paid"`
	PaidOn         *time.Time `json:"paid_on"`
	PaidAmount     *string    `json:"paid_amount"`
	// EffectiveAmount is the paid amount when one was captured, otherwise
	// the due's amount. Null for a variable due with nothing captured.
	EffectiveAmount *string   `json:"effective_amount"`
	CreatedAt       time.Time `json:"created_at"`
}

// RegenerationDTO summarizes a schedule rebuild.
type RegenerationDTO struct {
	Kept      int   `json:"kept"`
	Discarded int   `json:"discarded"`
	Deleted   int64 `json:"deleted"`
	Inserted  int64 `json:"inserted"`
}

// CreateDueResponse is returned by POST /dues.
type CreateDueResponse struct {
	Due              DueDTO `json:"due"`
	InstancesCreated int64  `json:"instances_created"`
}

// UpdateDueResponse is returned by PATCH /dues/{due_id}.
type UpdateDueResponse struct {
	Due          DueDTO           `json:"due"`
	Regeneration *RegenerationDTO `json:"regeneration,omitempty"`
}

// PreviewResponse is returned by POST /schedule/preview.
type PreviewResponse struct {
	Dates   []civil.Date `json:"dates"`
	Cadence string       `json:"cadence"`
}

func ptrDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

// MapEndPolicyToDTO converts domain.EndPolicy to its wire form.
func MapEndPolicyToDTO(p domain.EndPolicy) EndPolicyDTO {
	p = p.Normalize()
	dto := EndPolicyDTO{Kind: string(p.Kind)}
	switch p.Kind {
	case domain.EndAfterDate:
		dto.Until = p.Until.String()
	case domain.EndAfterOccurrences:
		dto.Count = p.Count
	}
	return dto
}

// MapDueToDTO converts domain.RecurringDue to DueDTO.
func MapDueToDTO(due *domain.RecurringDue) DueDTO {
	return DueDTO{
		ID:                   due.ID,
		Title:                due.Title,
		Amount:               ptrDecimal(due.Amount),
		Category:             string(due.Category),
		StartDate:            due.StartDate,
		RecurrenceUnit:       string(due.RecurrenceUnit),
		RecurrenceMultiplier: due.RecurrenceMultiplier,
		FixedDayOfMonth:      ptr.NonZero(due.FixedDayOfMonth),
		EndPolicy:            MapEndPolicyToDTO(due.EndPolicy),
		Cadence:              recurring.Describe(due.RecurrenceUnit, due.RecurrenceMultiplier),
		Status:               string(due.Status),
		Notes:                due.Notes,
		CreatedAt:            due.CreatedAt,
		UpdatedAt:            due.UpdatedAt,
		Version:              due.Version,
	}
}

// MapInstanceToDTO converts domain.DueInstance to InstanceDTO.
func MapInstanceToDTO(inst *domain.DueInstance, effective decimal.NullDecimal) InstanceDTO {
	return InstanceDTO{
		ID:              inst.ID,
		RecurringDueID:  inst.RecurringDueID,
		DueDate:         inst.DueDate,
		IsPaid:          inst.IsPaid,
		PaidOn:          inst.PaidOn,
		PaidAmount:      ptrDecimal(inst.PaidAmount),
		EffectiveAmount: ptrDecimal(effective),
		CreatedAt:       inst.CreatedAt,
	}
}

// MapInstancesToDTO converts a slice, never returning nil. effective is
// keyed by instance ID; missing entries map to a null amount.
func MapInstancesToDTO(instances []*domain.DueInstance, effective map[string]decimal.NullDecimal) []InstanceDTO {
	out := make([]InstanceDTO, 0, len(instances))
	for _, inst := range instances {
		out = append(out, MapInstanceToDTO(inst, effective[inst.ID]))
	}
	return out
}

// MapRegenerationToDTO converts a regeneration summary; nil stays nil.
func MapRegenerationToDTO(s *dues.RegenerationSummary) *RegenerationDTO {
	if s == nil {
		return nil
	}
	return &RegenerationDTO{
		Kept:      s.Kept,
		Discarded: s.Discarded,
		Deleted:   s.Deleted,
		Inserted:  s.Inserted,
	}
}
