package review_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/internal/adapters/storage"
	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/review"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []domain.QueueEvent
	err    error
}

func (r *recordingObserver) OnQueueEvent(_ context.Context, ev domain.QueueEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingObserver) kinds() []domain.QueueEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.QueueEventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func newQueue(t *testing.T, observers ...*recordingObserver) *review.Queue {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	q := review.NewQueue(db)
	for _, o := range observers {
		q.Subscribe(o)
	}
	return q
}

func draft() domain.QueueDraft {
	return domain.QueueDraft{
		MarketA:      "Will BTC close above 100k in June?",
		MarketB:      "Will BTC close above 90k in June?",
		MarketAID:    "tokA",
		MarketBID:    "tokB",
		MinCost:      0.7,
		ProfitUSD:    30,
		Asset:        domain.AssetBTC,
		LiquidityUSD: 500,
	}
}

func TestQueue_AddEmitsAndTruncates(t *testing.T) {
	obs := &recordingObserver{}
	q := newQueue(t, obs)
	ctx := context.Background()

	d := draft()
	d.MarketA = strings.Repeat("ş", 250)
	item, err := q.Add(ctx, d, domain.SourcePipeline)
	require.NoError(t, err)

	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, domain.StatusPending, item.Status)
	assert.Len(t, []rune(item.MarketA), domain.MaxQueueTextLen)

	require.Len(t, obs.events, 1)
	assert.Equal(t, domain.QueueItemAdded, obs.events[0].Kind)
	assert.Equal(t, domain.SourcePipeline, obs.events[0].Source)
}

func TestQueue_ApproveOnce(t *testing.T) {
	obs := &recordingObserver{}
	q := newQueue(t, obs)
	ctx := context.Background()

	item, err := q.Add(ctx, draft(), domain.SourcePipeline)
	require.NoError(t, err)

	got, err := q.Approve(ctx, item.ID, domain.SourceManual, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)

	_, err = q.Approve(ctx, item.ID, domain.SourceManual, nil)
	assert.ErrorIs(t, err, domain.ErrNotFoundOrProcessed)

	_, err = q.Reject(ctx, item.ID, domain.SourceManual)
	assert.ErrorIs(t, err, domain.ErrNotFoundOrProcessed)

	assert.Equal(t, []domain.QueueEventKind{domain.QueueItemAdded, domain.QueueItemApproved}, obs.kinds())
}

func TestQueue_ApproveMissing(t *testing.T) {
	q := newQueue(t)
	_, err := q.Approve(context.Background(), 99, domain.SourceManual, nil)
	assert.ErrorIs(t, err, domain.ErrNotFoundOrProcessed)
}

func TestQueue_ApproveFuncErrorKeepsPending(t *testing.T) {
	obs := &recordingObserver{}
	q := newQueue(t, obs)
	ctx := context.Background()

	item, err := q.Add(ctx, draft(), domain.SourcePipeline)
	require.NoError(t, err)

	gate := &domain.Layer3Error{Reason: domain.ReasonLiquidityBelowMin}
	_, err = q.Approve(ctx, item.ID, domain.SourceManual, func(context.Context, domain.QueueItem) error {
		return gate
	})
	var l3 *domain.Layer3Error
	require.ErrorAs(t, err, &l3)
	assert.Equal(t, domain.ReasonLiquidityBelowMin, l3.Reason)

	got, err := q.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, []domain.QueueEventKind{domain.QueueItemAdded}, obs.kinds())
}

func TestQueue_ApproveCompletesWhenCallerCancelsDuringFunc(t *testing.T) {
	obs := &recordingObserver{}
	q := newQueue(t, obs)

	item, err := q.Add(context.Background(), draft(), domain.SourcePipeline)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got, err := q.Approve(ctx, item.ID, domain.SourceManual, func(context.Context, domain.QueueItem) error {
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Equal(t, []domain.QueueEventKind{domain.QueueItemAdded, domain.QueueItemApproved}, obs.kinds())
}

func TestQueue_RejectAndReopen(t *testing.T) {
	obs := &recordingObserver{}
	q := newQueue(t, obs)
	ctx := context.Background()

	item, err := q.Add(ctx, draft(), domain.SourcePipeline)
	require.NoError(t, err)

	_, err = q.Reopen(ctx, item.ID, domain.SourceManual)
	assert.ErrorIs(t, err, domain.ErrNotFoundOrProcessed, "un item pending no se reabre")

	got, err := q.Reject(ctx, item.ID, domain.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)

	got, err = q.Reopen(ctx, item.ID, domain.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	got, err = q.Approve(ctx, item.ID, domain.SourceManual, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)

	_, err = q.Reopen(ctx, 42, domain.SourceManual)
	assert.ErrorIs(t, err, domain.ErrNotFoundOrProcessed)

	assert.Equal(t, []domain.QueueEventKind{
		domain.QueueItemAdded,
		domain.QueueItemRejected,
		domain.QueueItemReopened,
		domain.QueueItemApproved,
	}, obs.kinds())
}

func TestQueue_ObserverErrorDoesNotAbort(t *testing.T) {
	failing := &recordingObserver{err: errors.New("disk full")}
	after := &recordingObserver{}
	q := newQueue(t, failing, after)
	ctx := context.Background()

	item, err := q.Add(ctx, draft(), domain.SourcePipeline)
	require.NoError(t, err)
	_, err = q.Approve(ctx, item.ID, domain.SourceManual, nil)
	require.NoError(t, err)

	assert.Len(t, failing.events, 2)
	assert.Len(t, after.events, 2)
}

func TestQueue_ConcurrentApproveExecutesOnce(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()

	item, err := q.Add(ctx, draft(), domain.SourcePipeline)
	require.NoError(t, err)

	var (
		executions atomic.Int32
		successes  atomic.Int32
		wg         sync.WaitGroup
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Approve(ctx, item.ID, domain.SourceManual, func(context.Context, domain.QueueItem) error {
				executions.Add(1)
				return nil
			})
			if err == nil {
				successes.Add(1)
			} else {
				assert.ErrorIs(t, err, domain.ErrNotFoundOrProcessed)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), executions.Load())
	assert.Equal(t, int32(1), successes.Load())
}

func TestQueue_ListPendingOnly(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()

	for range 3 {
		_, err := q.Add(ctx, draft(), domain.SourcePipeline)
		require.NoError(t, err)
	}
	_, err := q.Reject(ctx, 2, domain.SourceManual)
	require.NoError(t, err)

	all, err := q.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := q.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(1), pending[0].ID)
	assert.Equal(t, int64(3), pending[1].ID)
}
