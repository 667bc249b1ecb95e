// Package review implementa la cola de revisión manual: la máquina de estados
// pending ⇄ {approved, rejected} sobre un ports.QueueStore, con notificación
// síncrona a los observers tras cada transición.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

// ApproveFunc corre con el lock de la cola tomado, sobre un item pending.
// Si devuelve error el item queda en pending.
type ApproveFunc func(ctx context.Context, item domain.QueueItem) error

// Queue serializa todas las mutaciones de la cola con un único mutex.
type Queue struct {
	mu        sync.Mutex
	store     ports.QueueStore
	observers []ports.QueueObserver
	now       func() time.Time
}

// NewQueue crea la cola sobre store. Los observers se notifican en orden.
func NewQueue(store ports.QueueStore, observers ...ports.QueueObserver) *Queue {
	return &Queue{
		store:     store,
		observers: observers,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe agrega un observer. No es seguro llamarlo mientras la cola está en uso.
func (q *Queue) Subscribe(o ports.QueueObserver) {
	q.observers = append(q.observers, o)
}

// Add inserta un item pending y emite QueueItemAdded.
func (q *Queue) Add(ctx context.Context, draft domain.QueueDraft, source domain.TriggerSource) (domain.QueueItem, error) {
	draft.MarketA = domain.Truncate(draft.MarketA, domain.MaxQueueTextLen)
	draft.MarketB = domain.Truncate(draft.MarketB, domain.MaxQueueTextLen)

	q.mu.Lock()
	defer q.mu.Unlock()

	item, err := q.store.InsertQueueItem(ctx, draft)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("review.Add: %w", err)
	}
	q.emit(ctx, domain.QueueItemAdded, item, source)
	return item, nil
}

// Approve pasa un item pending a approved. fn, si no es nil, corre antes de la
// transición con el lock tomado; dos Approve concurrentes del mismo id ejecutan
// fn como mucho una vez. Si fn termina sin error la transición y los observers
// corren aunque ctx se cancele. Devuelve domain.ErrNotFoundOrProcessed si el item no
// existe o no está pending.
func (q *Queue) Approve(ctx context.Context, id int64, source domain.TriggerSource, fn ApproveFunc) (domain.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, err := q.pending(ctx, id)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("review.Approve: %w", err)
	}
	if fn != nil {
		if err := fn(ctx, item); err != nil {
			return item, err
		}
		// fn ya pudo tener efectos externos: la transición no se corta con el caller.
		ctx = context.WithoutCancel(ctx)
	}
	return q.transition(ctx, "review.Approve", id, domain.StatusPending, domain.StatusApproved, domain.QueueItemApproved, source)
}

// Reject pasa un item pending a rejected.
func (q *Queue) Reject(ctx context.Context, id int64, source domain.TriggerSource) (domain.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.transition(ctx, "review.Reject", id, domain.StatusPending, domain.StatusRejected, domain.QueueItemRejected, source)
}

// Reopen devuelve un item approved o rejected a pending.
// Reabrir un item pending devuelve domain.ErrNotFoundOrProcessed.
func (q *Queue) Reopen(ctx context.Context, id int64, source domain.TriggerSource) (domain.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, err := q.store.GetQueueItem(ctx, id)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("review.Reopen: %w", notFound(err))
	}
	if item.Status == domain.StatusPending {
		return domain.QueueItem{}, fmt.Errorf("review.Reopen: %w", domain.ErrNotFoundOrProcessed)
	}
	return q.transition(ctx, "review.Reopen", id, item.Status, domain.StatusPending, domain.QueueItemReopened, source)
}

// List devuelve los items por id ascendente; pendingOnly filtra los pending.
func (q *Queue) List(ctx context.Context, pendingOnly bool) ([]domain.QueueItem, error) {
	items, err := q.store.ListQueueItems(ctx, pendingOnly)
	if err != nil {
		return nil, fmt.Errorf("review.List: %w", err)
	}
	return items, nil
}

// Get devuelve un item por id.
func (q *Queue) Get(ctx context.Context, id int64) (domain.QueueItem, error) {
	item, err := q.store.GetQueueItem(ctx, id)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("review.Get: %w", err)
	}
	return item, nil
}

func (q *Queue) pending(ctx context.Context, id int64) (domain.QueueItem, error) {
	item, err := q.store.GetQueueItem(ctx, id)
	if err != nil {
		return domain.QueueItem{}, notFound(err)
	}
	if item.Status != domain.StatusPending {
		return domain.QueueItem{}, domain.ErrNotFoundOrProcessed
	}
	return item, nil
}

func (q *Queue) transition(ctx context.Context, op string, id int64, from, to domain.QueueStatus, kind domain.QueueEventKind, source domain.TriggerSource) (domain.QueueItem, error) {
	item, err := q.store.TransitionQueueItem(ctx, id, from, to)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("queue transition", "id", id, "from", from, "to", to, "source", source)
	q.emit(ctx, kind, item, source)
	return item, nil
}

// emit notifica a cada observer. Un error se loguea y no afecta la transición.
func (q *Queue) emit(ctx context.Context, kind domain.QueueEventKind, item domain.QueueItem, source domain.TriggerSource) {
	ev := domain.QueueEvent{Kind: kind, Item: item, Source: source, At: q.now()}
	for _, o := range q.observers {
		if err := o.OnQueueEvent(ctx, ev); err != nil {
			slog.Warn("queue observer failed",
				"observer", fmt.Sprintf("%T", o),
				"kind", kind,
				"id", item.ID,
				"err", err,
			)
		}
	}
}

// notFound traduce domain.ErrNotFound al error de la máquina de estados.
func notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFoundOrProcessed
	}
	return err
}
