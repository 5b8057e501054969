// Package sync reconciles local optimistic state against the authoritative
// remote source. The engine subscribes to mutation events, computes the
// minimal affected entity id set, de-duplicates against ids it has already
// synced, fetches the remainder in one batch, merges each against the
// current local view, and emits a single entities-synced batch the store
// absorbs into its base layer.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	gosync "sync"

	"github.com/geobrowser/geogenesis-sub006/internal/events"
	"github.com/geobrowser/geogenesis-sub006/internal/graph"
	"github.com/geobrowser/geogenesis-sub006/internal/merge"
	"github.com/geobrowser/geogenesis-sub006/internal/remote"
	"github.com/geobrowser/geogenesis-sub006/internal/store"
)

// SyncError reports a failed remote fetch for a set of entity ids. The ids
// stay un-synced, so the next mutation event referencing them retries.
type SyncError struct {
	IDs []string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %d entities: %v", len(e.IDs), e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Engine drives reconciliation. Per entity id the lifecycle is
// unknown -> queued -> synced: an id enters the synced set once a fetch and
// merge for it produced a non-absent result, and leaves it only when a new
// mutation event references it directly. Ids whose merge came up absent are
// not marked, so re-mutation retries them. That is the only retry mechanism;
// a permanently failing fetch leaves the entity at stale local-only state.
type Engine struct {
	store  *store.EntityStore
	stream *events.Stream
	source remote.Source
	logger *slog.Logger

	queue  *eventQueue
	unsubs []func()

	mu     gosync.Mutex
	synced map[string]bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine wired to the store's event stream. The
// returned engine is passive until Run is started; events arriving before
// that are queued.
func NewEngine(st *store.EntityStore, source remote.Source, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  st,
		stream: st.Stream(),
		source: source,
		queue:  newEventQueue(),
		synced: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	for _, kind := range []events.Kind{
		events.ValueCreated,
		events.ValueDeleted,
		events.RelationCreated,
		events.RelationDeleted,
		events.EntityUpdated,
		events.EntityDeleted,
		events.ChangesCleared,
	} {
		e.unsubs = append(e.unsubs, e.stream.On(kind, func(ev events.Event) {
			e.queue.Enqueue(ev)
		}))
	}
	return e
}

// Run processes queued mutation events until the context is cancelled or
// Stop is called. Call it on its own goroutine; the mutation path never
// blocks on it.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if ev, ok := e.queue.TryDequeue(); ok {
			e.handle(ctx, ev)
			continue
		}
		if e.queue.Closed() && e.queue.Len() == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.queue.Wait():
		}
	}
}

// Drain processes every mutation event currently queued and returns. It is
// the synchronous alternative to Run, for one-shot use and deterministic
// tests.
func (e *Engine) Drain(ctx context.Context) {
	for {
		ev, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		e.handle(ctx, ev)
	}
}

// Stop unsubscribes the engine from the event stream and lets Run drain and
// exit. Safe to call more than once.
func (e *Engine) Stop() {
	for _, unsub := range e.unsubs {
		unsub()
	}
	e.unsubs = nil
	e.queue.Close()
}

// QueueLen reports the number of mutation events awaiting processing.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// SyncedIDs returns the sorted ids currently marked synced.
func (e *Engine) SyncedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.synced))
	for id := range e.synced {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// handle turns one mutation event into a sync round. Fetch failures are
// logged, not fatal: the affected ids stay un-synced and a later mutation
// retries them.
func (e *Engine) handle(ctx context.Context, ev events.Event) {
	requeued, affected := e.affectedIDs(ev)
	e.requeue(requeued)

	if len(affected) == 0 {
		return
	}
	if err := e.SyncEntities(ctx, affected); err != nil {
		e.logger.Warn("sync round failed",
			"kind", string(ev.Kind),
			"error", err,
		)
	}
}

// affectedIDs computes which ids a mutation event touches. The first return
// is the set cleared back to queued (the directly mutated ids); the second
// is the full affected set, including entities that merely reference a
// changed entity and so derive display fields from it.
func (e *Engine) affectedIDs(ev events.Event) (requeued, affected []string) {
	add := func(dst *[]string, ids ...string) {
		for _, id := range ids {
			if id != "" {
				*dst = append(*dst, id)
			}
		}
	}

	switch ev.Kind {
	case events.ValueCreated, events.ValueDeleted:
		add(&requeued, ev.EntityID)
		add(&affected, ev.EntityID)
		add(&affected, e.store.FindReferencingEntities(ev.EntityID)...)

	case events.RelationCreated, events.RelationDeleted:
		if ev.Relation == nil {
			return nil, nil
		}
		r := ev.Relation
		add(&requeued, r.FromEntity.ID, r.ToEntity.ID, r.Type.ID, r.ID)
		add(&affected, r.FromEntity.ID, r.ToEntity.ID, r.Type.ID, r.ID)
		add(&affected, e.store.FindReferencingEntities(r.FromEntity.ID)...)

	case events.EntityUpdated, events.EntityDeleted:
		add(&requeued, ev.EntityID)
		add(&affected, ev.EntityID)
		add(&affected, e.store.FindReferencingEntities(ev.EntityID)...)

	case events.ChangesCleared:
		add(&requeued, ev.EntityIDs...)
		add(&affected, ev.EntityIDs...)
	}

	return requeued, dedup(affected)
}

// requeue clears ids back to the queued state so the next sync round
// re-fetches them.
func (e *Engine) requeue(ids []string) {
	if len(ids) == 0 {
		return
	}
	e.mu.Lock()
	for _, id := range ids {
		delete(e.synced, id)
	}
	e.mu.Unlock()
}

// SyncEntities fetches and merges the given ids, skipping ids already
// synced. Every id whose merge produced a non-absent entity is marked
// synced, and one entities-synced batch is emitted for the store to absorb.
func (e *Engine) SyncEntities(ctx context.Context, ids []string) error {
	toFetch := e.filterUnsynced(ids)
	if len(toFetch) == 0 {
		return nil
	}

	dtos, err := e.source.FetchEntitiesBatch(ctx, toFetch)
	if err != nil {
		return &SyncError{IDs: toFetch, Err: err}
	}

	remoteByID := make(map[string]*graph.EntityDTO, len(dtos))
	for i := range dtos {
		remoteByID[dtos[i].ID] = &dtos[i]
	}

	var (
		batch    []graph.Entity
		syncedOK []string
	)
	for _, id := range toFetch {
		// Tombstones must participate in the merge so they keep
		// suppressing the remote records they delete.
		var local *graph.Entity
		if ent, ok := e.store.GetEntity(id, store.Options{IncludeDeleted: true}); ok {
			local = &ent
		}

		merged, ok := merge.Entity(id, local, remoteByID[id], merge.Options{})
		if !ok {
			continue
		}
		batch = append(batch, merged)
		syncedOK = append(syncedOK, id)
	}

	e.mu.Lock()
	for _, id := range syncedOK {
		e.synced[id] = true
	}
	e.mu.Unlock()

	if len(batch) > 0 {
		e.stream.Emit(events.Event{
			Kind:     events.EntitiesSynced,
			Entities: batch,
		})
	}
	return nil
}

// filterUnsynced drops ids already marked synced, preserving order.
func (e *Engine) filterUnsynced(ids []string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !e.synced[id] {
			out = append(out, id)
		}
	}
	return out
}

func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
