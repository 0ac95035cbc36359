package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/flownco2789-ui/codeai/internal/models"
)

// memoryOutbox claims due events in order and commits entries only on success.
type memoryOutbox struct {
	mu      sync.Mutex
	now     time.Time
	events  []*models.OutboxEvent
	written []models.NotificationLogEntry
}

func (m *memoryOutbox) add(events ...models.OutboxEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range events {
		ev := events[i]
		ev.Status = models.OutboxPending
		ev.NextAttemptAt = m.now
		m.events = append(m.events, &ev)
	}
}

func (m *memoryOutbox) ClaimNext(_ context.Context, retryAfter func(int) time.Duration, materialize func(models.OutboxEvent) ([]models.NotificationLogEntry, error)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.Status != models.OutboxPending || ev.NextAttemptAt.After(m.now) {
			continue
		}
		entries, err := materialize(*ev)
		ev.Attempts++
		if err != nil {
			ev.NextAttemptAt = m.now.Add(retryAfter(ev.Attempts))
			return true, err
		}
		m.written = append(m.written, entries...)
		ev.Status = models.OutboxDispatched
		return true, nil
	}
	return false, nil
}

func (m *memoryOutbox) CountPending(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ev := range m.events {
		if ev.Status == models.OutboxPending {
			n++
		}
	}
	return n, nil
}

func (m *memoryOutbox) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *memoryOutbox) writtenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.written)
}

type flakyResolver struct {
	inner    entryResolver
	failures int
}

func (f *flakyResolver) EntriesFor(ctx context.Context, ev models.OutboxEvent) ([]models.NotificationLogEntry, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("contacts unavailable")
	}
	return f.inner.EntriesFor(ctx, ev)
}

func TestOutboxRelayDrainMaterialisesEvents(t *testing.T) {
	store := &memoryOutbox{}
	store.add(
		rolesEvent(models.EventReportSubmitted, reportDeskRoles, models.JSONMap{"reportId": 1}),
		phoneEvent(models.EventPortalCodeIssued, "01012345678", models.JSONMap{"enrollmentId": 1}),
	)
	notifier := NewNotificationService(sampleContacts(), &fakeLedger{}, nil)
	relay := NewOutboxRelay(store, notifier, OutboxRelayConfig{MaxAttempts: 3, BatchSize: 10}, NewMetricsService(), nil)

	n, err := relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, store.writtenCount())

	n, err = relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, store.writtenCount())
}

func TestOutboxRelayFailureKeepsEventPending(t *testing.T) {
	store := &memoryOutbox{}
	store.add(rolesEvent(models.EventReportSubmitted, reportDeskRoles, nil))
	resolver := &flakyResolver{inner: NewNotificationService(sampleContacts(), &fakeLedger{}, nil), failures: 1}
	relay := NewOutboxRelay(store, resolver, OutboxRelayConfig{MaxAttempts: 3, RetryDelay: time.Second}, nil, nil)

	_, err := relay.Drain(context.Background())
	require.Error(t, err)
	pending, _ := store.CountPending(context.Background())
	assert.Equal(t, 1, pending)
	assert.Zero(t, store.writtenCount())

	n, err := relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "event is not due before its retry delay")

	store.advance(time.Second)
	n, err = relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, store.writtenCount())
	assert.Equal(t, 2, store.events[0].Attempts)
}

func TestOutboxRelayRecoversAfterLongOutage(t *testing.T) {
	store := &memoryOutbox{}
	store.add(rolesEvent(models.EventReportSubmitted, reportDeskRoles, nil))
	resolver := &flakyResolver{inner: NewNotificationService(sampleContacts(), &fakeLedger{}, nil), failures: 8}
	core, logs := observer.New(zapcore.ErrorLevel)
	relay := NewOutboxRelay(store, resolver, OutboxRelayConfig{MaxAttempts: 5, RetryDelay: 2 * time.Second}, NewMetricsService(), zap.New(core))

	for i := 0; i < 8; i++ {
		_, err := relay.Drain(context.Background())
		require.Error(t, err)
		store.advance(time.Hour)
	}
	assert.Equal(t, 4, logs.FilterMessage("outbox event overdue").Len())

	n, err := relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, store.writtenCount())
	assert.Equal(t, models.OutboxDispatched, store.events[0].Status)
	assert.Equal(t, 9, store.events[0].Attempts)
}

func TestOutboxRelayRetryBackoff(t *testing.T) {
	relay := NewOutboxRelay(&memoryOutbox{}, nil, OutboxRelayConfig{RetryDelay: time.Second, MaxBackoff: 10 * time.Second}, nil, nil)

	assert.Equal(t, time.Second, relay.retryAfter(1))
	assert.Equal(t, 2*time.Second, relay.retryAfter(2))
	assert.Equal(t, 8*time.Second, relay.retryAfter(4))
	assert.Equal(t, 10*time.Second, relay.retryAfter(5))
	assert.Equal(t, 10*time.Second, relay.retryAfter(60))
}

func TestOutboxRelayNudgeDispatchesInBackground(t *testing.T) {
	store := &memoryOutbox{}
	notifier := NewNotificationService(sampleContacts(), &fakeLedger{}, nil)
	relay := NewOutboxRelay(store, notifier, OutboxRelayConfig{Workers: 1, PollInterval: time.Hour, RetryDelay: 10 * time.Millisecond}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	relay.Start(ctx)
	defer relay.Stop()

	store.add(phoneEvent(models.EventPaymentLinkCreated, "01012345678", models.JSONMap{"amount": 1000}))
	relay.Nudge()

	require.Eventually(t, func() bool { return store.writtenCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestOutboxRelayNilNudgeIsSafe(t *testing.T) {
	var relay *OutboxRelay
	assert.NotPanics(t, relay.Nudge)
}
