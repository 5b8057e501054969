package store

import (
	"sort"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// Options controls how reads resolve the layered state.
type Options struct {
	// IncludeDeleted surfaces tombstoned values/relations and entities
	// deleted wholesale. Default reads hide all tombstones.
	IncludeDeleted bool
	// SpaceID restricts the resolved value/relation set to one space.
	// Empty means all spaces.
	SpaceID string
}

// GetEntity resolves the entity with the given id from both layers.
//
// Pending entries shadow base entries with the same identity key. Tombstones
// are filtered out unless opts.IncludeDeleted; a space filter applies if
// opts.SpaceID is set. Name, description and types are derived from the
// filtered set, never read from a stored field, and each outgoing relation's
// target name is refreshed from whatever record of the target this store
// currently holds.
//
// Returns false if the entity resolves to nothing: no values, no relations,
// or deleted wholesale on a default read.
func (s *EntityStore) GetEntity(id string, opts Options) (graph.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(id, opts)
}

// GetEntities resolves every known entity id, excluding entities deleted
// wholesale unless opts.IncludeDeleted. Results are ordered by id.
func (s *EntityStore) GetEntities(opts Options) []graph.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, 16)
	for id := range s.knownIDsLocked() {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]graph.Entity, 0, len(ids))
	for _, id := range ids {
		if ent, ok := s.resolveLocked(id, opts); ok {
			out = append(out, ent)
		}
	}
	return out
}

// FindReferencingEntities returns the distinct, sorted set of entity ids
// that have a live (non-tombstoned) outgoing relation pointing at targetID.
func (s *EntityStore) FindReferencingEntities(targetID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	for id := range s.knownIDsLocked() {
		if s.deletedEntities[id] {
			continue
		}
		for _, rel := range s.liveRelationsLocked(id, Options{}) {
			if rel.ToEntity.ID == targetID {
				seen[id] = true
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

// IsEntityDeleted reports whether the entity carries a whole-entity
// tombstone.
func (s *EntityStore) IsEntityDeleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletedEntities[id]
}

// resolveLocked is the single resolution path shared by all reads.
// Caller must hold s.mu.
func (s *EntityStore) resolveLocked(id string, opts Options) (graph.Entity, bool) {
	if s.deletedEntities[id] && !opts.IncludeDeleted {
		return graph.Entity{}, false
	}

	values := s.liveValuesLocked(id, opts)
	relations := s.liveRelationsLocked(id, opts)
	if len(values) == 0 && len(relations) == 0 {
		return graph.Entity{}, false
	}

	// Refresh each denormalized target-name snapshot from the freshest
	// local record of the target. The snapshot can go stale when the
	// target is renamed independently of the relation.
	for i := range relations {
		if name, ok := s.localNameLocked(relations[i].ToEntity.ID); ok {
			relations[i].ToEntity.Name = name
		}
	}

	return graph.Resolve(id, values, relations), true
}

// liveValuesLocked overlays pending values on base values for one entity and
// applies tombstone/space filters. Results are ordered by property id then
// space id. Caller must hold s.mu.
func (s *EntityStore) liveValuesLocked(id string, opts Options) []graph.Value {
	merged := make(map[graph.ValueKey]graph.Value, len(s.baseValues[id])+len(s.pendingValues[id]))
	for k, v := range s.baseValues[id] {
		merged[k] = v
	}
	for k, v := range s.pendingValues[id] {
		merged[k] = v
	}

	out := make([]graph.Value, 0, len(merged))
	for _, v := range merged {
		if v.IsDeleted && !opts.IncludeDeleted {
			continue
		}
		if opts.SpaceID != "" && v.SpaceID != opts.SpaceID {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Property.ID != out[j].Property.ID {
			return out[i].Property.ID < out[j].Property.ID
		}
		return out[i].SpaceID < out[j].SpaceID
	})
	return out
}

// liveRelationsLocked overlays pending relations on base relations for one
// entity and applies tombstone/space filters. Results are ordered by
// position then id. Caller must hold s.mu.
func (s *EntityStore) liveRelationsLocked(id string, opts Options) []graph.Relation {
	merged := make(map[string]graph.Relation, len(s.baseRelations[id])+len(s.pendingRelations[id]))
	for rid, r := range s.baseRelations[id] {
		merged[rid] = r
	}
	for rid, r := range s.pendingRelations[id] {
		merged[rid] = r
	}

	out := make([]graph.Relation, 0, len(merged))
	for _, r := range merged {
		if r.IsDeleted && !opts.IncludeDeleted {
			continue
		}
		if opts.SpaceID != "" && r.SpaceID != opts.SpaceID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// localNameLocked derives the target entity's current name from its live
// values, if this store holds any. Caller must hold s.mu.
func (s *EntityStore) localNameLocked(id string) (*string, bool) {
	if s.deletedEntities[id] {
		return nil, false
	}
	values := s.liveValuesLocked(id, Options{})
	if len(values) == 0 {
		return nil, false
	}
	name := graph.DeriveName(values)
	if name == nil {
		return nil, false
	}
	return name, true
}
