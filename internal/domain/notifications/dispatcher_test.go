package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/errs"
)

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Message
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Message{}} }

func (r *testRepo) Enqueue(ctx context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = m
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return Message{}, errs.NotFound("notification", id)
	}
	return m, nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, 0)
	for _, m := range r.byID {
		if f.Status == "" || m.Status == f.Status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *testRepo) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, 0)
	for id, m := range r.byID {
		if m.Status == StatusPending && !m.NextAttemptAt.After(now) {
			m.NextAttemptAt = now.Add(lease)
			r.byID[id] = m
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *testRepo) ClaimByID(ctx context.Context, id string, now time.Time, lease time.Duration) (Message, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || m.Status != StatusPending || m.NextAttemptAt.After(now) {
		return Message{}, false, nil
	}
	m.NextAttemptAt = now.Add(lease)
	r.byID[id] = m
	return m, true, nil
}

func (r *testRepo) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byID[id]
	m.Status = StatusDelivered
	m.DeliveredAt = &at
	r.byID[id] = m
	return nil
}

func (r *testRepo) MarkAttemptFailed(ctx context.Context, id string, attempts int, nextAt time.Time, lastErr string, final bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byID[id]
	m.Attempts = attempts
	m.NextAttemptAt = nextAt
	m.LastError = lastErr
	if final {
		m.Status = StatusFailed
	}
	r.byID[id] = m
	return nil
}

type fakeSender struct {
	mu    sync.Mutex
	err   error
	sent  []Message
	unset bool
}

func (s *fakeSender) Send(ctx context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m)
	return nil
}

func (s *fakeSender) Configured() bool { return !s.unset }

var t0 = time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)

func newDispatcher(sender *fakeSender) (*Dispatcher, *testRepo, *time.Time) {
	repo := newTestRepo()
	now := t0
	d := NewDispatcher(repo, sender, Policy{
		MaxAttempts: 3,
		BackoffBase: time.Minute,
		BackoffMax:  10 * time.Minute,
		Lease:       30 * time.Second,
		BatchSize:   10,
	}, nil)
	d.SetClock(func() time.Time { return now })
	return d, repo, &now
}

func TestEnqueueCheckout_PayloadContract(t *testing.T) {
	d, repo, _ := newDispatcher(&fakeSender{})

	m, err := d.EnqueueCheckout(context.Background(), "appt-1", CheckoutPayload{
		PetName: "Thor", OwnerName: "Maria", OwnerWhatsApp: "+5511999990000",
		Service: "Banho", AfterPhoto: "https://cdn/x.jpg", Notes: "ok", CheckoutAt: t0,
	})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(repo.byID[m.ID].Payload, &body))
	assert.Equal(t, "checkout", body["type"])
	assert.Equal(t, "Thor", body["petName"])
	assert.Equal(t, "+5511999990000", body["ownerWhatsapp"])
	assert.Equal(t, "https://cdn/x.jpg", body["afterPhoto"])
	assert.Contains(t, body, "checkoutAt")
	assert.Equal(t, StatusPending, m.Status)
}

func TestDeliverNow_Success(t *testing.T) {
	sender := &fakeSender{}
	d, repo, _ := newDispatcher(sender)

	m, err := d.EnqueueCheckout(context.Background(), "appt-1", CheckoutPayload{PetName: "Thor"})
	require.NoError(t, err)

	require.NoError(t, d.DeliverNow(context.Background(), m.ID))
	assert.Equal(t, StatusDelivered, repo.byID[m.ID].Status)
	assert.Len(t, sender.sent, 1)

	// segunda llamada: ya no está pending, no reenvía
	err = d.DeliverNow(context.Background(), m.ID)
	assert.ErrorIs(t, err, ErrNotClaimed)
	assert.Len(t, sender.sent, 1)
}

func TestDeliverNow_LeasedByDispatcherIsNotAttempted(t *testing.T) {
	sender := &fakeSender{}
	d, repo, _ := newDispatcher(sender)

	m, err := d.EnqueueCheckout(context.Background(), "appt-1", CheckoutPayload{PetName: "Thor"})
	require.NoError(t, err)

	// el job programado lo toma primero
	claimed, err := repo.ClaimDue(context.Background(), t0, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	err = d.DeliverNow(context.Background(), m.ID)
	assert.ErrorIs(t, err, ErrNotClaimed)
	assert.False(t, errors.Is(err, errs.ErrNotification))
	assert.Empty(t, sender.sent)
	assert.Equal(t, 0, repo.byID[m.ID].Attempts)
	assert.Equal(t, StatusPending, repo.byID[m.ID].Status)
}

func TestDeliverNow_FailureSchedulesRetry(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	d, repo, _ := newDispatcher(sender)

	m, err := d.EnqueueCheckout(context.Background(), "appt-1", CheckoutPayload{PetName: "Thor"})
	require.NoError(t, err)

	err = d.DeliverNow(context.Background(), m.ID)
	assert.True(t, errors.Is(err, errs.ErrNotification))

	got := repo.byID[m.ID]
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, t0.Add(time.Minute), got.NextAttemptAt)
	assert.Equal(t, "connection refused", got.LastError)
}

func TestDispatchPending_RetriesUntilFailed(t *testing.T) {
	sender := &fakeSender{err: errors.New("503")}
	d, repo, now := newDispatcher(sender)

	m, err := d.EnqueueCheckout(context.Background(), "appt-1", CheckoutPayload{})
	require.NoError(t, err)

	res, err := d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Claimed: 1, Retrying: 1}, res)

	// antes del backoff no se toma
	res, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Claimed)

	*now = now.Add(time.Minute)
	_, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.byID[m.ID].Attempts)

	*now = now.Add(2 * time.Minute)
	res, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, StatusFailed, repo.byID[m.ID].Status)

	// recupera el canal: un mensaje failed no se reintenta
	sender.err = nil
	*now = now.Add(time.Hour)
	res, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Claimed)
}

func TestDispatchPending_DeliversAfterRecovery(t *testing.T) {
	sender := &fakeSender{err: errors.New("timeout")}
	d, repo, now := newDispatcher(sender)

	m, err := d.EnqueueCheckout(context.Background(), "appt-1", CheckoutPayload{})
	require.NoError(t, err)
	_ = d.DeliverNow(context.Background(), m.ID)

	sender.err = nil
	*now = now.Add(time.Minute)
	res, err := d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Delivered)
	assert.Equal(t, StatusDelivered, repo.byID[m.ID].Status)
}

func TestDispatchPending_DisabledSender(t *testing.T) {
	d, _, _ := newDispatcher(&fakeSender{unset: true})
	assert.False(t, d.Enabled())

	res, err := d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, res)
}

func TestBackoff(t *testing.T) {
	base, ceiling := 30*time.Second, 5*time.Minute
	assert.Equal(t, 30*time.Second, Backoff(1, base, ceiling))
	assert.Equal(t, time.Minute, Backoff(2, base, ceiling))
	assert.Equal(t, 2*time.Minute, Backoff(3, base, ceiling))
	assert.Equal(t, 4*time.Minute, Backoff(4, base, ceiling))
	assert.Equal(t, ceiling, Backoff(5, base, ceiling))
	assert.Equal(t, ceiling, Backoff(60, base, ceiling))
	assert.Equal(t, base, Backoff(0, base, ceiling))
}
