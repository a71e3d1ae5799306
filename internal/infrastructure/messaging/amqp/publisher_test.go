package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/application/dues"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	deadline bool
}

type fakeChannel struct {
	mu         sync.Mutex
	calls      []publishCall
	publishErr error
	closed     bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	f.calls = append(f.calls, publishCall{exchange: exchange, key: key, msg: msg, deadline: hasDeadline})
	return f.publishErr
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "badyetly.events")

	event := dues.Event{
		Type:       dues.EventScheduleRegenerated,
		OwnerID:    "owner-1",
		DueID:      "due-1",
		OccurredAt: time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC),
		Kept:       5,
		Discarded:  3,
		Inserted:   3,
	}

	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, ch.calls, 1)
	call := ch.calls[0]
	assert.Equal(t, "badyetly.events", call.exchange)
	assert.Equal(t, dues.EventScheduleRegenerated, call.key)
	assert.True(t, call.deadline)
	assert.Equal(t, "application/json", call.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, call.msg.DeliveryMode)
	assert.Equal(t, event.OccurredAt, call.msg.Timestamp)

	var decoded dues.Event
	require.NoError(t, json.Unmarshal(call.msg.Body, &decoded))
	assert.Equal(t, event, decoded)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{publishErr: amqp091.ErrClosed}
	p := newPublisher(ch, "badyetly.events")

	err := p.Publish(context.Background(), dues.Event{Type: dues.EventDueCreated})

	assert.True(t, errors.Is(err, amqp091.ErrClosed))
}

func TestPublisher_ConcurrentPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "badyetly.events")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Publish(context.Background(), dues.Event{Type: dues.EventInstancePaid}))
		}()
	}
	wg.Wait()

	assert.Len(t, ch.calls, 50)
}

func TestPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "badyetly.events")

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
