package store

import (
	"log/slog"
	"sync"

	"github.com/geobrowser/geogenesis-sub006/internal/events"
	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// EntityStore is the in-memory layered entity cache.
//
// It holds two layers per entity: a base layer containing the last state
// synced from the remote source, and a pending layer containing optimistic
// local edits that have not been confirmed yet. Reads resolve pending over
// base; a pending entry with the same identity key always shadows the base
// entry. Deletion never removes records - it writes a tombstoned copy to the
// pending layer so the delete can be published and merged like any other
// edit.
//
// Values are keyed by the composite (entity id, property id, space id);
// relations are keyed by their own id. Whole-entity deletion is tracked
// separately from per-item tombstones.
//
// All maps are guarded by a single mutex. Events are emitted after the lock
// is released so subscribers always observe a consistent store.
type EntityStore struct {
	mu sync.Mutex

	// base layer: remote truth, replaced wholesale per entity on sync
	baseValues    map[string]map[graph.ValueKey]graph.Value
	baseRelations map[string]map[string]graph.Relation

	// pending layer: optimistic local edits, including tombstones
	pendingValues    map[string]map[graph.ValueKey]graph.Value
	pendingRelations map[string]map[string]graph.Relation

	// whole-entity tombstones, distinct from per-item tombstones
	deletedEntities map[string]bool

	stream *events.Stream
	logger *slog.Logger
	unsub  func()
}

// StoreOption configures an EntityStore.
type StoreOption func(*EntityStore)

// WithStoreLogger sets the store's logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *EntityStore) {
		s.logger = logger
	}
}

// NewEntityStore creates an empty store wired to the given event stream.
// The store subscribes itself to entities-synced events and absorbs each
// batch into its base layer. Call Close to unsubscribe.
func NewEntityStore(stream *events.Stream, opts ...StoreOption) *EntityStore {
	s := &EntityStore{
		baseValues:       make(map[string]map[graph.ValueKey]graph.Value),
		baseRelations:    make(map[string]map[string]graph.Relation),
		pendingValues:    make(map[string]map[graph.ValueKey]graph.Value),
		pendingRelations: make(map[string]map[string]graph.Relation),
		deletedEntities:  make(map[string]bool),
		stream:           stream,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.unsub = stream.On(events.EntitiesSynced, func(ev events.Event) {
		s.absorbSynced(ev.Entities)
	})
	return s
}

// Stream returns the event stream the store emits on.
func (s *EntityStore) Stream() *events.Stream {
	return s.stream
}

// Close unsubscribes the store from the event stream. The store remains
// readable afterwards but no longer absorbs synced batches.
func (s *EntityStore) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// knownIDsLocked returns every entity id that has any record in any layer.
// Caller must hold s.mu.
func (s *EntityStore) knownIDsLocked() map[string]bool {
	ids := make(map[string]bool)
	for id := range s.baseValues {
		ids[id] = true
	}
	for id := range s.baseRelations {
		ids[id] = true
	}
	for id := range s.pendingValues {
		ids[id] = true
	}
	for id := range s.pendingRelations {
		ids[id] = true
	}
	for id := range s.deletedEntities {
		ids[id] = true
	}
	return ids
}
