package store

import (
	"sort"

	"github.com/geobrowser/geogenesis-sub006/internal/events"
	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// SetValue writes a value to the pending layer. The composite key
// (entity id, property id, space id) is the value's identity: a later write
// with the same key overwrites the earlier one. Emits values:created.
func (s *EntityStore) SetValue(v graph.Value) {
	key := v.Key()

	s.mu.Lock()
	if s.pendingValues[v.EntityID] == nil {
		s.pendingValues[v.EntityID] = make(map[graph.ValueKey]graph.Value)
	}
	s.pendingValues[v.EntityID][key] = v
	s.mu.Unlock()

	s.stream.Emit(events.Event{
		Kind:     events.ValueCreated,
		EntityID: v.EntityID,
		Value:    &v,
	})
}

// DeleteValue tombstones the value at its composite key. The record is not
// removed: a tombstoned local copy replaces it so the deletion itself can be
// published and can suppress the remote record at merge time. Emits
// values:deleted.
func (s *EntityStore) DeleteValue(v graph.Value) {
	tomb := v
	tomb.IsDeleted = true
	tomb.IsLocal = true
	key := tomb.Key()

	s.mu.Lock()
	if s.pendingValues[tomb.EntityID] == nil {
		s.pendingValues[tomb.EntityID] = make(map[graph.ValueKey]graph.Value)
	}
	s.pendingValues[tomb.EntityID][key] = tomb
	s.mu.Unlock()

	s.stream.Emit(events.Event{
		Kind:     events.ValueDeleted,
		EntityID: tomb.EntityID,
		Value:    &tomb,
	})
}

// SetRelation writes a relation to the pending layer, keyed by the
// relation's own id. Emits relations:created.
func (s *EntityStore) SetRelation(r graph.Relation) {
	owner := r.FromEntity.ID

	s.mu.Lock()
	if s.pendingRelations[owner] == nil {
		s.pendingRelations[owner] = make(map[string]graph.Relation)
	}
	s.pendingRelations[owner][r.ID] = r
	s.mu.Unlock()

	s.stream.Emit(events.Event{
		Kind:     events.RelationCreated,
		EntityID: owner,
		Relation: &r,
	})
}

// DeleteRelation tombstones the relation under its id, same policy as
// DeleteValue. Emits relations:deleted.
func (s *EntityStore) DeleteRelation(r graph.Relation) {
	tomb := r
	tomb.IsDeleted = true
	tomb.IsLocal = true
	owner := tomb.FromEntity.ID

	s.mu.Lock()
	if s.pendingRelations[owner] == nil {
		s.pendingRelations[owner] = make(map[string]graph.Relation)
	}
	s.pendingRelations[owner][tomb.ID] = tomb
	s.mu.Unlock()

	s.stream.Emit(events.Event{
		Kind:     events.RelationDeleted,
		EntityID: owner,
		Relation: &tomb,
	})
}

// MarkEntityDeleted records a whole-entity tombstone. The entity's values
// and relations stay in place but default reads resolve it to absent.
// Emits entity:deleted.
func (s *EntityStore) MarkEntityDeleted(id string) {
	s.mu.Lock()
	s.deletedEntities[id] = true
	s.mu.Unlock()

	s.stream.Emit(events.Event{
		Kind:     events.EntityDeleted,
		EntityID: id,
	})
}

// AssignDataType updates the data type of every pending value addressing the
// given property and emits data-type:assigned so dependents can react.
func (s *EntityStore) AssignDataType(propertyID string, dataType graph.DataType) {
	s.mu.Lock()
	for _, byKey := range s.pendingValues {
		for key, v := range byKey {
			if v.Property.ID == propertyID {
				v.Property.DataType = dataType
				byKey[key] = v
			}
		}
	}
	s.mu.Unlock()

	s.stream.Emit(events.Event{
		Kind:       events.DataTypeAssigned,
		PropertyID: propertyID,
		DataType:   dataType,
	})
}

// Clear wipes every layer and emits changes:cleared carrying the ids that
// were resolvable before the wipe, so dependents can re-hydrate them.
func (s *EntityStore) Clear() {
	s.mu.Lock()
	var ids []string
	for id := range s.knownIDsLocked() {
		if _, ok := s.resolveLocked(id, Options{}); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	s.baseValues = make(map[string]map[graph.ValueKey]graph.Value)
	s.baseRelations = make(map[string]map[string]graph.Relation)
	s.pendingValues = make(map[string]map[graph.ValueKey]graph.Value)
	s.pendingRelations = make(map[string]map[string]graph.Relation)
	s.deletedEntities = make(map[string]bool)
	s.mu.Unlock()

	s.stream.Emit(events.Event{
		Kind:      events.ChangesCleared,
		EntityIDs: ids,
	})
}

// ClearSpace discards every unpublished local edit scoped to the given
// space, tombstones included. Published pending items and base-layer records
// are untouched. Emits local-changes:cleared.
func (s *EntityStore) ClearSpace(spaceID string) {
	s.mu.Lock()
	for entityID, byKey := range s.pendingValues {
		for key, v := range byKey {
			if v.SpaceID == spaceID && v.IsLocal && !v.HasBeenPublished {
				delete(byKey, key)
			}
		}
		if len(byKey) == 0 {
			delete(s.pendingValues, entityID)
		}
	}
	for entityID, byID := range s.pendingRelations {
		for id, r := range byID {
			if r.SpaceID == spaceID && r.IsLocal && !r.HasBeenPublished {
				delete(byID, id)
			}
		}
		if len(byID) == 0 {
			delete(s.pendingRelations, entityID)
		}
	}
	s.mu.Unlock()

	s.stream.Emit(events.Event{
		Kind:    events.LocalChangesCleared,
		SpaceID: spaceID,
	})
}

// HasPendingChanges reports whether any unpublished local edit exists.
func (s *EntityStore) HasPendingChanges() bool {
	return len(s.PendingEntityIDs()) > 0
}

// PendingEntityIDs returns the sorted, distinct ids of entities carrying at
// least one unpublished local value or relation.
func (s *EntityStore) PendingEntityIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	for entityID, byKey := range s.pendingValues {
		for _, v := range byKey {
			if v.IsLocal && !v.HasBeenPublished {
				seen[entityID] = true
				break
			}
		}
	}
	for entityID, byID := range s.pendingRelations {
		for _, r := range byID {
			if r.IsLocal && !r.HasBeenPublished {
				seen[entityID] = true
				break
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// absorbSynced folds an entities-synced batch into the base layer.
//
// Values are replaced wholesale per entity. Relations merge additively by
// id: an id already present is overwritten with the synced copy, unknown
// ids are added, and ids missing from the batch are retained. Pending
// entries whose publish has been confirmed are dropped, since the base
// layer now carries them.
func (s *EntityStore) absorbSynced(entities []graph.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ent := range entities {
		values := make(map[graph.ValueKey]graph.Value, len(ent.Values))
		for _, v := range ent.Values {
			values[v.Key()] = v
		}
		s.baseValues[ent.ID] = values

		if s.baseRelations[ent.ID] == nil {
			s.baseRelations[ent.ID] = make(map[string]graph.Relation, len(ent.Relations))
		}
		for _, r := range ent.Relations {
			s.baseRelations[ent.ID][r.ID] = r
		}

		for key, v := range s.pendingValues[ent.ID] {
			if v.HasBeenPublished {
				delete(s.pendingValues[ent.ID], key)
			}
		}
		for id, r := range s.pendingRelations[ent.ID] {
			if r.HasBeenPublished {
				delete(s.pendingRelations[ent.ID], id)
			}
		}
	}
}

// MarkPublished flags the pending values/relations named by the given ids
// as published. They stay in the pending layer until the next sync for
// their entity confirms them. Emits changes:published with the ids that
// actually matched.
func (s *EntityStore) MarkPublished(valueIDs, relationIDs []string) {
	wantValue := make(map[string]bool, len(valueIDs))
	for _, id := range valueIDs {
		wantValue[id] = true
	}
	wantRelation := make(map[string]bool, len(relationIDs))
	for _, id := range relationIDs {
		wantRelation[id] = true
	}

	var matchedValues, matchedRelations []string

	s.mu.Lock()
	for _, byKey := range s.pendingValues {
		for key, v := range byKey {
			if wantValue[v.ID] && !v.HasBeenPublished {
				v.HasBeenPublished = true
				byKey[key] = v
				matchedValues = append(matchedValues, v.ID)
			}
		}
	}
	for _, byID := range s.pendingRelations {
		for id, r := range byID {
			if wantRelation[r.ID] && !r.HasBeenPublished {
				r.HasBeenPublished = true
				byID[id] = r
				matchedRelations = append(matchedRelations, r.ID)
			}
		}
	}
	s.mu.Unlock()

	sort.Strings(matchedValues)
	sort.Strings(matchedRelations)
	s.stream.Emit(events.Event{
		Kind:        events.ChangesPublished,
		ValueIDs:    matchedValues,
		RelationIDs: matchedRelations,
	})
}
