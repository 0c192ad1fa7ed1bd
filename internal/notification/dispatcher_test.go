package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	items     []QueuedEvent
	requeued  []QueuedEvent
	delays    []time.Duration
	completed []string
}

func (q *fakeQueue) Dequeue(context.Context) (*QueuedEvent, error) {
	if len(q.items) == 0 {
		return nil, nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return &item, nil
}

func (q *fakeQueue) Requeue(_ context.Context, item QueuedEvent, delay time.Duration) error {
	q.requeued = append(q.requeued, item)
	q.delays = append(q.delays, delay)
	return nil
}

func (q *fakeQueue) Complete(_ context.Context, eventID string) error {
	q.completed = append(q.completed, eventID)
	return nil
}

type fakeMailer struct {
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestMailDispatcher_SendsAndCompletes(t *testing.T) {
	ev := OrderCreated(sampleOrder(), time.Now())
	q := &fakeQueue{items: []QueuedEvent{{Event: ev}}}
	m := &fakeMailer{}
	d := NewMailDispatcher(q, m, DispatcherConfig{})

	handled, err := d.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.True(t, handled)

	require.Len(t, m.sent, 1)
	assert.Equal(t, "buyer@example.com", m.sent[0].To)
	assert.Contains(t, m.sent[0].Subject, "ORD-202610-0001")
	assert.Equal(t, []string{ev.ID}, q.completed)

	handled, err = d.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestMailDispatcher_RequeuesWithGrowingDelay(t *testing.T) {
	ev := OrderCreated(sampleOrder(), time.Now())
	q := &fakeQueue{items: []QueuedEvent{{Event: ev, Attempts: 1}}}
	m := &fakeMailer{err: errors.New("smtp down")}
	d := NewMailDispatcher(q, m, DispatcherConfig{RetryDelay: time.Second, MaxAttempts: 5})

	_, err := d.ProcessOne(context.Background())
	require.NoError(t, err)

	require.Len(t, q.requeued, 1)
	assert.Equal(t, 2, q.requeued[0].Attempts)
	assert.Equal(t, 2*time.Second, q.delays[0])
	assert.Empty(t, q.completed)
}

func TestDispatcherConfig_RetryDelayIsCapped(t *testing.T) {
	cfg := DispatcherConfig{RetryDelay: time.Second, MaxRetryDelay: 5 * time.Second}.withDefaults()

	var got []time.Duration
	for attempts := 1; attempts <= 5; attempts++ {
		got = append(got, cfg.retryDelay(attempts))
	}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second,
	}, got)

	cfg.Jitter = 0.5
	for i := 0; i < 20; i++ {
		d := cfg.retryDelay(2)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second+time.Nanosecond)
	}
}

func TestMailDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	ev := OrderCreated(sampleOrder(), time.Now())
	q := &fakeQueue{items: []QueuedEvent{{Event: ev, Attempts: 2}}}
	d := NewMailDispatcher(q, &fakeMailer{err: errors.New("smtp down")}, DispatcherConfig{MaxAttempts: 3})

	_, err := d.ProcessOne(context.Background())
	require.NoError(t, err)

	assert.Empty(t, q.requeued)
	assert.Equal(t, []string{ev.ID}, q.completed)
}

func TestMailDispatcher_RunStopsOnCancel(t *testing.T) {
	q := &fakeQueue{items: []QueuedEvent{{Event: OrderCreated(sampleOrder(), time.Now())}}}
	m := &fakeMailer{}
	d := NewMailDispatcher(q, m, DispatcherConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Len(t, m.sent, 1)
}

func TestRenderMessage(t *testing.T) {
	o := sampleOrder()
	o.Status = model.OrderStatusShipped

	msg := RenderMessage(OrderStatusChanged(o, model.OrderStatusProcessing, time.Now()))
	assert.Equal(t, "Order ORD-202610-0001 is now SHIPPED", msg.Subject)
	assert.Contains(t, msg.Body, "from PROCESSING to SHIPPED")

	o.PaymentStatus = model.PaymentStatusPaid
	msg = RenderMessage(PaymentStatusChanged(o, time.Now()))
	assert.Contains(t, msg.Subject, "PAID")
}
