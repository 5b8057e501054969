package events

import (
	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// Kind distinguishes event types on the stream.
type Kind string

const (
	// EntityUpdated signals that an entity's base record changed.
	EntityUpdated Kind = "entity:updated"
	// EntityDeleted signals a whole-entity tombstone.
	EntityDeleted Kind = "entity:deleted"
	// ValueCreated signals a value written to the pending layer.
	ValueCreated Kind = "values:created"
	// ValueDeleted signals a value tombstoned in the pending layer.
	ValueDeleted Kind = "values:deleted"
	// RelationCreated signals a relation written to the pending layer.
	RelationCreated Kind = "relations:created"
	// RelationDeleted signals a relation tombstoned in the pending layer.
	RelationDeleted Kind = "relations:deleted"
	// EntitiesSynced carries a batch of merged entities back from the sync
	// engine. The store consumes it to update its base layer.
	EntitiesSynced Kind = "entities:synced"
	// ChangesCleared carries the previously-resolvable entity ids after the
	// store was wiped, so dependents can trigger a fresh hydrate.
	ChangesCleared Kind = "changes:cleared"
	// ChangesPublished names value/relation ids whose publication succeeded
	// upstream.
	ChangesPublished Kind = "changes:published"
	// LocalChangesCleared signals that all unpublished edits for one space
	// were discarded.
	LocalChangesCleared Kind = "local-changes:cleared"
	// DataTypeAssigned signals that a property was given a data type.
	DataTypeAssigned Kind = "data-type:assigned"
)

// Event is the single payload shape carried on the stream. Kind determines
// which fields are set; unrelated fields are zero.
type Event struct {
	Kind Kind
	// Seq is a monotonic stamp assigned at emission. Events are delivered in
	// Seq order because emission is serialized.
	Seq int64

	EntityID  string
	EntityIDs []string
	Value     *graph.Value
	Relation  *graph.Relation
	Entities  []graph.Entity

	ValueIDs    []string
	RelationIDs []string
	SpaceID     string

	PropertyID string
	DataType   graph.DataType
}
