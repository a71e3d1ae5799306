package dues

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/badyetly/badyetly/internal/domain"
)

// mockRepo captures calls and returns configured values.
// It satisfies both Repository and ScheduleOperations.
type mockRepo struct {
	// Captured calls
	createdDues      []*domain.RecurringDue
	updatedDues      []*domain.RecurringDue
	insertedBatches  [][]*domain.DueInstance
	deleteFutureCall []deleteFutureCall
	listFilters      []domain.InstanceFilter
	setPaidCalls     []setPaidCall
	deletedDueIDs    []string
	atomicCalls      int
	scheduleCalls    int

	// Return values
	due           *domain.RecurringDue
	instances     []*domain.DueInstance
	deletedCount  int64
	findErr       error
	updateErr     error
	listErr       error
	deleteErr     error
	insertErr     error
	setPaidErr    error
	deleteDueErr  error
	insertedCount int64 // zero means len(batch)
}

type deleteFutureCall struct {
	ownerID string
	dueID   string
	after   civil.Date
}

type setPaidCall struct {
	ownerID string
	id      string
	paidOn  *time.Time
	amount  decimal.NullDecimal
}

var errStorage = errors.New("storage unavailable")

func (m *mockRepo) CreateDue(ctx context.Context, due *domain.RecurringDue) (*domain.RecurringDue, error) {
	m.createdDues = append(m.createdDues, due)
	created := *due
	created.Version = 1
	return &created, nil
}

func (m *mockRepo) FindDue(ctx context.Context, ownerID, id string) (*domain.RecurringDue, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.due == nil || m.due.ID != id || m.due.OwnerID != ownerID {
		return nil, domain.ErrDueNotFound
	}
	found := *m.due
	return &found, nil
}

func (m *mockRepo) ListDues(ctx context.Context, ownerID string) ([]*domain.RecurringDue, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.due == nil || m.due.OwnerID != ownerID {
		return []*domain.RecurringDue{}, nil
	}
	return []*domain.RecurringDue{m.due}, nil
}

func (m *mockRepo) UpdateDue(ctx context.Context, due *domain.RecurringDue) (*domain.RecurringDue, error) {
	m.updatedDues = append(m.updatedDues, due)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	saved := *due
	saved.Version++
	return &saved, nil
}

func (m *mockRepo) DeleteDue(ctx context.Context, ownerID, id string) error {
	m.deletedDueIDs = append(m.deletedDueIDs, id)
	return m.deleteDueErr
}

func (m *mockRepo) InsertInstances(ctx context.Context, instances []*domain.DueInstance) (int64, error) {
	m.insertedBatches = append(m.insertedBatches, instances)
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	if m.insertedCount > 0 {
		return m.insertedCount, nil
	}
	return int64(len(instances)), nil
}

func (m *mockRepo) DeleteFutureUnpaidInstances(ctx context.Context, ownerID, dueID string, after civil.Date) (int64, error) {
	m.deleteFutureCall = append(m.deleteFutureCall, deleteFutureCall{ownerID: ownerID, dueID: dueID, after: after})
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return m.deletedCount, nil
}

func (m *mockRepo) ListInstances(ctx context.Context, filter domain.InstanceFilter) ([]*domain.DueInstance, error) {
	m.listFilters = append(m.listFilters, filter)
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.instances, nil
}

func (m *mockRepo) FindInstance(ctx context.Context, ownerID, id string) (*domain.DueInstance, error) {
	panic("not used in dues service tests")
}

func (m *mockRepo) SetInstancePaid(ctx context.Context, ownerID, id string, paidOn *time.Time, amount decimal.NullDecimal) (*domain.DueInstance, error) {
	m.setPaidCalls = append(m.setPaidCalls, setPaidCall{ownerID: ownerID, id: id, paidOn: paidOn, amount: amount})
	if m.setPaidErr != nil {
		return nil, m.setPaidErr
	}
	inst := &domain.DueInstance{ID: id, RecurringDueID: "due-1", OwnerID: ownerID}
	if paidOn != nil {
		inst.MarkPaid(*paidOn, amount)
	}
	return inst, nil
}

func (m *mockRepo) Atomic(ctx context.Context, fn func(repo Repository) error) error {
	m.atomicCalls++
	return fn(m)
}

func (m *mockRepo) AtomicSchedule(ctx context.Context, fn func(ops ScheduleOperations) error) error {
	m.scheduleCalls++
	return fn(m)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	p.events = append(p.events, event)
	return p.err
}
