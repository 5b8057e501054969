// Package merge combines a local entity view with a freshly fetched remote
// entity into one consistent result. The only conflict rule is "local wins
// until published": a local triple or relation always shadows the remote
// record with the same identity, and a local tombstone suppresses it
// entirely. Everything here is pure - same inputs, same output, no side
// effects - which is what makes re-merging a previous merge result a no-op.
package merge

import (
	"sort"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// Options constrains a merge.
type Options struct {
	// SpaceID, when set, filters the merged value/relation set down to one
	// space before derivation.
	SpaceID string
}

// Entity merges a local view with a remote DTO for the given id.
//
//   - Neither side: absent.
//   - Remote only: the DTO mapped into the Entity shape, space-filtered if
//     requested.
//   - Local only: the local view, space-filtered if requested.
//   - Both: all local values plus every remote value whose composite key
//     (entity id, property id, space id) is not occupied locally - a local
//     tombstone occupies its key and so suppresses the remote record.
//     Relations merge the same way keyed by relation id. Name, description
//     and types are re-derived from the merged set, never taken from the
//     DTO, so an unpublished local rename wins.
//
// A merged result with no values and no relations is absent.
func Entity(id string, local *graph.Entity, remote *graph.EntityDTO, opts Options) (graph.Entity, bool) {
	switch {
	case local == nil && remote == nil:
		return graph.Entity{}, false
	case local == nil:
		return remoteOnly(id, *remote, opts)
	case remote == nil:
		return finish(id, local.Values, local.Relations, opts)
	}

	values := make([]graph.Value, 0, len(local.Values)+len(remote.Values))
	values = append(values, local.Values...)
	localKeys := make(map[graph.ValueKey]bool, len(local.Values))
	for _, v := range local.Values {
		localKeys[v.Key()] = true
	}
	for _, v := range remote.Values {
		if !localKeys[v.Key()] {
			values = append(values, v)
		}
	}

	relations := make([]graph.Relation, 0, len(local.Relations)+len(remote.RelationsOut))
	relations = append(relations, local.Relations...)
	localIDs := make(map[string]bool, len(local.Relations))
	for _, r := range local.Relations {
		localIDs[r.ID] = true
	}
	for _, r := range remote.RelationsOut {
		if !localIDs[r.ID] {
			relations = append(relations, r)
		}
	}

	return finish(id, values, relations, opts)
}

// remoteOnly maps the DTO straight through. The precomputed name and
// description are trustworthy here because no local edit exists to shadow
// them; a space filter still forces re-derivation from the filtered set.
func remoteOnly(id string, remote graph.EntityDTO, opts Options) (graph.Entity, bool) {
	ent := remote.Entity()
	ent.ID = id
	if opts.SpaceID == "" {
		if len(ent.Values) == 0 && len(ent.Relations) == 0 {
			return graph.Entity{}, false
		}
		ent.Values = sortedValues(ent.Values)
		ent.Relations = sortedRelations(ent.Relations)
		return ent, true
	}
	return finish(id, ent.Values, ent.Relations, opts)
}

// finish applies the space filter, orders the merged set deterministically,
// and re-derives the entity's display fields.
func finish(id string, values []graph.Value, relations []graph.Relation, opts Options) (graph.Entity, bool) {
	if opts.SpaceID != "" {
		values = filterValuesBySpace(values, opts.SpaceID)
		relations = filterRelationsBySpace(relations, opts.SpaceID)
	}
	if len(values) == 0 && len(relations) == 0 {
		return graph.Entity{}, false
	}

	values = sortedValues(values)
	relations = sortedRelations(relations)
	return graph.Resolve(id, values, relations), true
}

func filterValuesBySpace(values []graph.Value, spaceID string) []graph.Value {
	out := make([]graph.Value, 0, len(values))
	for _, v := range values {
		if v.SpaceID == spaceID {
			out = append(out, v)
		}
	}
	return out
}

func filterRelationsBySpace(relations []graph.Relation, spaceID string) []graph.Relation {
	out := make([]graph.Relation, 0, len(relations))
	for _, r := range relations {
		if r.SpaceID == spaceID {
			out = append(out, r)
		}
	}
	return out
}

func sortedValues(values []graph.Value) []graph.Value {
	out := make([]graph.Value, len(values))
	copy(out, values)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Property.ID != out[j].Property.ID {
			return out[i].Property.ID < out[j].Property.ID
		}
		return out[i].SpaceID < out[j].SpaceID
	})
	return out
}

func sortedRelations(relations []graph.Relation) []graph.Relation {
	out := make([]graph.Relation, len(relations))
	copy(out, relations)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}
