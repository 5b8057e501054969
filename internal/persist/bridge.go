package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geobrowser/geogenesis-sub006/internal/events"
	"github.com/geobrowser/geogenesis-sub006/internal/store"
)

// DefaultDebounce is the flush delay after the first buffered item.
const DefaultDebounce = 300 * time.Millisecond

// Bridge connects the event stream to durable storage. Mutation events
// buffer the touched item; a debounce timer flushes the buffer in one
// batched write. Only local-and-unpublished items are written down - remote
// state is the server's to keep. Storage failures are logged and swallowed,
// never propagated into the mutation path: losing durability degrades
// restart recovery, not the live session.
//
// The timer is the only timing construct: while one is pending, new items
// join the buffer without rescheduling it.
type Bridge struct {
	entities *store.EntityStore
	db       *Store
	logger   *slog.Logger
	debounce time.Duration

	mu           sync.Mutex
	buffer       map[string]Item
	timerPending bool

	unsubs []func()
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithDebounce overrides the flush delay.
func WithDebounce(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		b.debounce = d
	}
}

// WithBridgeLogger sets the bridge's logger.
func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// NewBridge wires a bridge between the entity store's event stream and the
// durable item store. Call Stop to unsubscribe and flush.
func NewBridge(entities *store.EntityStore, db *Store, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		entities: entities,
		db:       db,
		debounce: DefaultDebounce,
		buffer:   make(map[string]Item),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	stream := entities.Stream()
	b.unsubs = append(b.unsubs,
		stream.On(events.ValueCreated, b.onValueEvent),
		stream.On(events.ValueDeleted, b.onValueEvent),
		stream.On(events.RelationCreated, b.onRelationEvent),
		stream.On(events.RelationDeleted, b.onRelationEvent),
		stream.On(events.ChangesPublished, b.onPublished),
		stream.On(events.LocalChangesCleared, b.onSpaceCleared),
	)
	return b
}

// Stop unsubscribes from the stream and flushes whatever is buffered.
func (b *Bridge) Stop() {
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil

	if err := b.Flush(context.Background()); err != nil {
		b.logger.Warn("final persistence flush failed", "error", err)
	}
}

func (b *Bridge) onValueEvent(ev events.Event) {
	if ev.Value == nil {
		return
	}
	b.add(ValueItem(*ev.Value))
}

func (b *Bridge) onRelationEvent(ev events.Event) {
	if ev.Relation == nil {
		return
	}
	b.add(RelationItem(*ev.Relation))
}

// onPublished drops the durable copies of items whose publish succeeded.
// The in-memory store still holds them until sync confirms.
func (b *Bridge) onPublished(ev events.Event) {
	ids := make([]string, 0, len(ev.ValueIDs)+len(ev.RelationIDs))
	ids = append(ids, ev.ValueIDs...)
	ids = append(ids, ev.RelationIDs...)

	b.mu.Lock()
	for _, id := range ids {
		delete(b.buffer, id)
	}
	b.mu.Unlock()

	if err := b.db.BulkDelete(context.Background(), ids); err != nil {
		b.logger.Warn("failed to delete published items", "count", len(ids), "error", err)
	}
}

// onSpaceCleared drops every durable record in the cleared space.
func (b *Bridge) onSpaceCleared(ev events.Event) {
	b.mu.Lock()
	for id, item := range b.buffer {
		if item.SpaceID == ev.SpaceID {
			delete(b.buffer, id)
		}
	}
	b.mu.Unlock()

	if err := b.db.DeleteWhereSpace(context.Background(), ev.SpaceID); err != nil {
		b.logger.Warn("failed to clear space", "spaceId", ev.SpaceID, "error", err)
	}
}

// add buffers one item and arms the debounce timer if none is pending.
func (b *Bridge) add(item Item) {
	b.mu.Lock()
	b.buffer[item.ID] = item
	arm := !b.timerPending
	if arm {
		b.timerPending = true
	}
	b.mu.Unlock()

	if arm {
		time.AfterFunc(b.debounce, func() {
			if err := b.Flush(context.Background()); err != nil {
				b.logger.Warn("persistence flush failed", "error", err)
			}
		})
	}
}

// Flush writes all buffered local-and-unpublished items in one batch. The
// buffer empties either way; a failed write is logged by the caller and the
// items are simply gone from durable storage until their next mutation.
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	buffered := b.buffer
	b.buffer = make(map[string]Item)
	b.timerPending = false
	b.mu.Unlock()

	items := make([]Item, 0, len(buffered))
	for _, item := range buffered {
		if !persistable(item) {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	return b.db.BulkPut(ctx, items)
}

// Restore loads durable items into the in-memory store at startup. Only
// local-and-unpublished records apply, and an id the store already knows is
// never overwritten: live in-memory state always beats a stale durable
// snapshot.
func (b *Bridge) Restore(ctx context.Context) error {
	items, err := b.db.All(ctx)
	if err != nil {
		return err
	}

	knownValues, knownRelations := b.knownIDs()
	for _, item := range items {
		if !persistable(item) {
			continue
		}
		switch item.Kind {
		case KindValue:
			if !knownValues[item.ID] {
				b.entities.SetValue(*item.Value)
			}
		case KindRelation:
			if !knownRelations[item.ID] {
				b.entities.SetRelation(*item.Relation)
			}
		}
	}
	return nil
}

// knownIDs collects every value and relation id the store currently holds,
// tombstones included.
func (b *Bridge) knownIDs() (values, relations map[string]bool) {
	values = make(map[string]bool)
	relations = make(map[string]bool)
	for _, ent := range b.entities.GetEntities(store.Options{IncludeDeleted: true}) {
		for _, v := range ent.Values {
			values[v.ID] = true
		}
		for _, r := range ent.Relations {
			relations[r.ID] = true
		}
	}
	return values, relations
}

// persistable holds for items created locally and not yet published.
func persistable(item Item) bool {
	switch item.Kind {
	case KindValue:
		return item.Value != nil && item.Value.IsLocal && !item.Value.HasBeenPublished
	case KindRelation:
		return item.Relation != nil && item.Relation.IsLocal && !item.Relation.HasBeenPublished
	}
	return false
}
