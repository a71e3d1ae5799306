// Package dues is the application service for recurring dues: owner-scoped
// CRUD, the paid toggle, schedule previews and the regeneration that runs
// when a due's schedule is edited.
package dues

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"

	"github.com/badyetly/badyetly/internal/domain"
	"github.com/badyetly/badyetly/internal/recurring"
)

// Config holds configuration for the Service.
type Config struct {
	// InstanceCap bounds one generation run. Zero uses recurring.DefaultInstanceCap.
	InstanceCap int
	// PreviewCount is the default number of preview dates. Zero uses recurring.DefaultPreviewCount.
	PreviewCount int
	// StrictDates rejects malformed dates instead of substituting today.
	StrictDates bool
	// Location decides which calendar day "today" is. Nil means UTC.
	Location *time.Location

	// Now is the clock. Defaults to the UTC wall clock.
	Now func() time.Time
	// NewID generates due and instance IDs. Defaults to UUIDv7.
	NewID func() (string, error)

	Publisher Publisher
	Meter     metric.Meter
}

// Service provides business logic for recurring dues.
// It orchestrates operations using the Repository interface.
type Service struct {
	repo      Repository
	generator *recurring.Generator
	publisher Publisher
	metrics   *serviceMetrics
	config    Config
}

// NewService creates a new dues service.
// Applies application defaults for zero config values.
func NewService(repo Repository, config Config) *Service {
	if config.InstanceCap <= 0 {
		config.InstanceCap = recurring.DefaultInstanceCap
	}
	if config.PreviewCount <= 0 {
		config.PreviewCount = recurring.DefaultPreviewCount
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	if config.NewID == nil {
		config.NewID = func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		}
	}
	if config.Publisher == nil {
		config.Publisher = NopPublisher{}
	}

	return &Service{
		repo: repo,
		generator: recurring.NewGenerator(recurring.Options{
			InstanceCap: config.InstanceCap,
			NewID:       config.NewID,
		}),
		publisher: config.Publisher,
		metrics:   newServiceMetrics(config.Meter),
		config:    config,
	}
}

// Today returns the current calendar day in the configured location.
func (s *Service) Today() civil.Date {
	return recurring.Today(s.config.Now(), s.config.Location)
}

// InputPolicy returns the policy for raw schedule values. Substitutions are
// logged and counted.
func (s *Service) InputPolicy(ctx context.Context) recurring.InputPolicy {
	return recurring.InputPolicy{
		Strict: s.config.StrictDates,
		OnDegraded: func(d recurring.DegradedInput) {
			slog.WarnContext(ctx, "degraded schedule input",
				"field", d.Field,
				"value", d.Value,
				"substitute", d.Substitute,
				"error", d.Reason)
			s.metrics.degradedInput(ctx, d.Field)
		},
	}
}

// CreateDueInput is a new due as submitted by a client. The schedule stays
// in raw form so that malformed dates go through the input policy.
type CreateDueInput struct {
	OwnerID  string
	Title    string
	Amount   decimal.NullDecimal
	Category domain.Category
	Schedule recurring.Draft
	Status   domain.DueStatus
	Notes    string
}

// CreateDueResult is the created due and the number of instances stored with it.
type CreateDueResult struct {
	Due              *domain.RecurringDue
	InstancesCreated int64
}

// CreateDue validates and stores a new due together with its first batch of
// instances, starting at the start date.
func (s *Service) CreateDue(ctx context.Context, input CreateDueInput) (*CreateDueResult, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}

	def, err := input.Schedule.Definition(s.Today(), s.InputPolicy(ctx))
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.DueStatusActive
	}

	id, err := s.config.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}

	now := s.config.Now().UTC()
	due := &domain.RecurringDue{
		ID:                   id,
		OwnerID:              input.OwnerID,
		Title:                input.Title,
		Amount:               input.Amount,
		Category:             input.Category,
		StartDate:            def.StartDate,
		RecurrenceUnit:       def.Unit,
		RecurrenceMultiplier: def.Multiplier,
		FixedDayOfMonth:      def.FixedDayOfMonth,
		EndPolicy:            def.End,
		Status:               status,
		Notes:                input.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := due.Validate(); err != nil {
		return nil, err
	}

	instances, err := s.generator.Generate(due, due.StartDate)
	if err != nil {
		return nil, err
	}
	stamp(instances, now)

	result := &CreateDueResult{}
	err = s.repo.Atomic(ctx, func(repo Repository) error {
		created, err := repo.CreateDue(ctx, due)
		if err != nil {
			return fmt.Errorf("failed to create due: %w", err)
		}
		result.Due = created

		inserted, err := repo.InsertInstances(ctx, instances)
		if err != nil {
			return fmt.Errorf("failed to insert instances: %w", err)
		}
		result.InstancesCreated = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.instancesGenerated(ctx, result.InstancesCreated, "create")
	slog.InfoContext(ctx, "created recurring due",
		"due_id", result.Due.ID,
		"cadence", recurring.Describe(due.RecurrenceUnit, due.RecurrenceMultiplier),
		"instances", result.InstancesCreated)

	s.publish(ctx, Event{
		Type:     EventDueCreated,
		OwnerID:  result.Due.OwnerID,
		DueID:    result.Due.ID,
		Inserted: int(result.InstancesCreated),
	})

	return result, nil
}

// GetDue retrieves one of the owner's dues.
func (s *Service) GetDue(ctx context.Context, ownerID, id string) (*domain.RecurringDue, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	if id == "" {
		return nil, domain.ErrDueNotFound
	}
	return s.repo.FindDue(ctx, ownerID, id)
}

// ListDues retrieves all of the owner's dues.
func (s *Service) ListDues(ctx context.Context, ownerID string) ([]*domain.RecurringDue, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}

	dues, err := s.repo.ListDues(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dues: %w", err)
	}
	return dues, nil
}

// RegenerationSummary describes what an edit did to a due's instances.
type RegenerationSummary struct {
	Kept      int
	Discarded int
	Deleted   int64
	Inserted  int64
}

// UpdateDueResult is the saved due and, when the schedule changed, the
// outcome of its regeneration.
type UpdateDueResult struct {
	Due          *domain.RecurringDue
	Regeneration *RegenerationSummary
}

// UpdateDue applies a masked update. When a schedule field changes, the
// due's unpaid future instances are replaced by the new schedule while paid
// and past instances stay untouched.
//
// The definition is saved before the instances are replaced. If the
// replacement fails the saved due is kept and a
// *domain.PartialRegenerationError is returned.
func (s *Service) UpdateDue(ctx context.Context, params domain.UpdateDueParams) (*UpdateDueResult, error) {
	if params.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	if params.DueID == "" {
		return nil, domain.ErrDueNotFound
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindDue(ctx, params.OwnerID, params.DueID)
	if err != nil {
		return nil, err
	}
	if params.ExpectedVersion != nil && *params.ExpectedVersion != existing.Version {
		return nil, domain.ErrVersionConflict
	}

	changed := *existing
	params.Apply(&changed)
	if err := changed.Validate(); err != nil {
		return nil, err
	}
	if slices.Contains(params.UpdateMask, domain.FieldFixedDayOfMonth) &&
		changed.FixedDayOfMonth > 0 && !changed.RecurrenceUnit.SupportsFixedDay() {
		return nil, fmt.Errorf("%w: %w: got %s", domain.ErrInvalidRecurrence, domain.ErrFixedDayUnit, changed.RecurrenceUnit)
	}
	if err := recurring.DefinitionOf(&changed).Validate(); err != nil {
		return nil, err
	}
	changed.EndPolicy = changed.EndPolicy.Normalize()
	changed.UpdatedAt = s.config.Now().UTC()

	saved, err := s.repo.UpdateDue(ctx, &changed)
	if err != nil {
		return nil, err
	}

	result := &UpdateDueResult{Due: saved}
	if !params.ChangesSchedule() {
		return result, nil
	}

	summary, err := s.regenerate(ctx, saved)
	if err != nil {
		return nil, err
	}
	result.Regeneration = summary
	return result, nil
}

// regenerate replaces the unpaid future instances of a saved due.
func (s *Service) regenerate(ctx context.Context, due *domain.RecurringDue) (*RegenerationSummary, error) {
	fail := func(stage domain.RegenerationStage, err error) error {
		s.metrics.regenerationFailed(ctx, string(stage))
		slog.ErrorContext(ctx, "schedule regeneration failed",
			"due_id", due.ID,
			"stage", stage,
			"error", err)
		return &domain.PartialRegenerationError{DueID: due.ID, Stage: stage, Err: err}
	}

	existing, err := s.repo.ListInstances(ctx, domain.InstanceFilter{
		OwnerID: due.OwnerID,
		DueID:   &due.ID,
	})
	if err != nil {
		return nil, fail(domain.StageLoad, err)
	}

	today := s.Today()
	plan, err := s.generator.PlanRegeneration(due, existing, today)
	if err != nil {
		return nil, fail(domain.StagePlan, err)
	}
	stamp(plan.Insert, s.config.Now().UTC())

	summary := &RegenerationSummary{
		Kept:      len(plan.Keep),
		Discarded: len(plan.Discard),
	}

	stage := domain.StageDelete
	err = s.repo.AtomicSchedule(ctx, func(ops ScheduleOperations) error {
		deleted, err := ops.DeleteFutureUnpaidInstances(ctx, due.OwnerID, due.ID, plan.Today)
		if err != nil {
			return fmt.Errorf("failed to delete future instances: %w", err)
		}
		summary.Deleted = deleted

		stage = domain.StageInsert
		inserted, err := ops.InsertInstances(ctx, plan.Insert)
		if err != nil {
			return fmt.Errorf("failed to insert regenerated instances: %w", err)
		}
		summary.Inserted = inserted
		return nil
	})
	if err != nil {
		return nil, fail(stage, err)
	}

	// A concurrent edit can change the instances between the read and the delete.
	if summary.Deleted != int64(summary.Discarded) {
		slog.WarnContext(ctx, "deleted instance count differs from plan",
			"due_id", due.ID,
			"planned", summary.Discarded,
			"deleted", summary.Deleted)
	}

	s.metrics.instancesGenerated(ctx, summary.Inserted, "regenerate")
	slog.InfoContext(ctx, "regenerated schedule",
		"due_id", due.ID,
		"kept", summary.Kept,
		"deleted", summary.Deleted,
		"inserted", summary.Inserted)

	s.publish(ctx, Event{
		Type:      EventScheduleRegenerated,
		OwnerID:   due.OwnerID,
		DueID:     due.ID,
		Kept:      summary.Kept,
		Discarded: int(summary.Deleted),
		Inserted:  int(summary.Inserted),
	})

	return summary, nil
}

// DeleteDue deletes a due and all of its instances.
func (s *Service) DeleteDue(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.ErrOwnerRequired
	}
	if id == "" {
		return domain.ErrDueNotFound
	}

	if err := s.repo.DeleteDue(ctx, ownerID, id); err != nil {
		return err
	}

	s.publish(ctx, Event{Type: EventDueDeleted, OwnerID: ownerID, DueID: id})
	return nil
}

// ListDueInstances lists the instances of one due, oldest first.
func (s *Service) ListDueInstances(ctx context.Context, ownerID, dueID string) ([]*domain.DueInstance, error) {
	if _, err := s.GetDue(ctx, ownerID, dueID); err != nil {
		return nil, err
	}
	return s.ListInstances(ctx, domain.InstanceFilter{OwnerID: ownerID, DueID: &dueID})
}

// ListInstances lists the owner's instances matching filter.
func (s *Service) ListInstances(ctx context.Context, filter domain.InstanceFilter) ([]*domain.DueInstance, error) {
	if filter.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return []*domain.DueInstance{}, nil
	}

	instances, err := s.repo.ListInstances(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return instances, nil
}

// EffectiveAmounts resolves the amount each instance stands for, keyed by
// instance ID: the captured paid amount, otherwise its due's amount.
func (s *Service) EffectiveAmounts(ctx context.Context, ownerID string, instances []*domain.DueInstance) (map[string]decimal.NullDecimal, error) {
	out := make(map[string]decimal.NullDecimal, len(instances))
	if len(instances) == 0 {
		return out, nil
	}

	dues, err := s.repo.ListDues(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dues: %w", err)
	}
	byID := make(map[string]*domain.RecurringDue, len(dues))
	for _, due := range dues {
		byID[due.ID] = due
	}

	for _, inst := range instances {
		out[inst.ID] = inst.EffectiveAmount(byID[inst.RecurringDueID])
	}
	return out, nil
}

// MarkPaid marks an instance paid. A nil paidOn means now. The amount is
// optional; without it the due's amount applies.
func (s *Service) MarkPaid(ctx context.Context, ownerID, instanceID string, paidOn *time.Time, amount decimal.NullDecimal) (*domain.DueInstance, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	if instanceID == "" {
		return nil, domain.ErrInstanceNotFound
	}
	if amount.Valid && amount.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPaidAmount, amount.Decimal)
	}

	when := s.config.Now().UTC()
	if paidOn != nil {
		when = paidOn.UTC()
	}

	inst, err := s.repo.SetInstancePaid(ctx, ownerID, instanceID, &when, amount)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, Event{
		Type:       EventInstancePaid,
		OwnerID:    ownerID,
		DueID:      inst.RecurringDueID,
		InstanceID: inst.ID,
	})
	return inst, nil
}

// MarkUnpaid clears the paid state of an instance.
func (s *Service) MarkUnpaid(ctx context.Context, ownerID, instanceID string) (*domain.DueInstance, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	if instanceID == "" {
		return nil, domain.ErrInstanceNotFound
	}

	inst, err := s.repo.SetInstancePaid(ctx, ownerID, instanceID, nil, decimal.NullDecimal{})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, Event{
		Type:       EventInstanceUnpaid,
		OwnerID:    ownerID,
		DueID:      inst.RecurringDueID,
		InstanceID: inst.ID,
	})
	return inst, nil
}

// Preview projects the first n dates of an in-progress schedule. It never
// touches storage. n <= 0 uses the configured preview count.
func (s *Service) Preview(draft recurring.Draft, n int) []civil.Date {
	if n <= 0 {
		n = s.config.PreviewCount
	}
	return s.generator.PreviewDraft(draft, s.Today(), n)
}

func (s *Service) publish(ctx context.Context, event Event) {
	event.OccurredAt = s.config.Now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			"type", event.Type,
			"due_id", event.DueID,
			"error", err)
	}
}

func stamp(instances []*domain.DueInstance, now time.Time) {
	for _, inst := range instances {
		inst.CreatedAt = now
	}
}
