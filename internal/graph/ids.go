package graph

import "github.com/google/uuid"

// NewID returns a fresh id for locally-created values and relations.
func NewID() string {
	return uuid.NewString()
}

// NewLocalValue builds a value born in the pending layer: local, unpublished,
// live.
func NewLocalValue(entityID string, property Property, spaceID, value string) Value {
	return Value{
		ID:       NewID(),
		EntityID: entityID,
		Property: property,
		SpaceID:  spaceID,
		Value:    value,
		IsLocal:  true,
	}
}

// NewLocalRelation builds a relation born in the pending layer.
func NewLocalRelation(relType, from, to EntityRef, spaceID string) Relation {
	return Relation{
		ID:         NewID(),
		Type:       relType,
		FromEntity: from,
		ToEntity:   to,
		SpaceID:    spaceID,
		IsLocal:    true,
	}
}
