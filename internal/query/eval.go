package query

import (
	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// evaluator matches conditions against a fixed entity set. The full set is
// retained so backlink conditions can scan every other entity's outgoing
// relations.
type evaluator struct {
	entities []graph.Entity
}

func (e *evaluator) match(ent graph.Entity, c *Condition) bool {
	if c == nil {
		return true
	}

	if !matchString(c.ID, &ent.ID) {
		return false
	}
	if !matchString(c.Name, ent.Name) {
		return false
	}
	if !matchString(c.Description, ent.Description) {
		return false
	}

	for _, tc := range c.Types {
		if !e.matchType(ent, tc) {
			return false
		}
	}
	if c.Spaces != nil && !e.matchSpaces(ent, c.Spaces) {
		return false
	}

	for _, vc := range c.Values {
		if !e.matchValue(ent, vc) {
			return false
		}
	}
	for _, rc := range c.Relations {
		if !e.matchRelation(ent, rc) {
			return false
		}
	}
	if len(c.Backlinks) > 0 && !e.matchBacklinks(ent, c.Backlinks) {
		return false
	}

	for _, sub := range c.And {
		if !e.match(ent, &sub) {
			return false
		}
	}
	if len(c.Or) > 0 {
		any := false
		for _, sub := range c.Or {
			if e.match(ent, &sub) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if c.Not != nil && e.match(ent, c.Not) {
		return false
	}

	return true
}

// matchType holds when some declared type of the entity satisfies the
// condition.
func (e *evaluator) matchType(ent graph.Entity, tc TypeCondition) bool {
	for _, t := range ent.Types {
		if matchString(tc.ID, &t.ID) && matchString(tc.Name, t.Name) {
			return true
		}
	}
	return false
}

// matchSpaces holds when any space the entity has data in satisfies the
// filter.
func (e *evaluator) matchSpaces(ent graph.Entity, f *StringFilter) bool {
	for _, space := range ent.Spaces {
		if matchString(f, &space) {
			return true
		}
	}
	return false
}

// matchValue holds when some value of the entity satisfies every supplied
// field of the condition.
func (e *evaluator) matchValue(ent graph.Entity, vc ValueCondition) bool {
	for _, v := range ent.Values {
		if v.IsDeleted {
			continue
		}
		if !matchString(vc.PropertyID, &v.Property.ID) {
			continue
		}
		if !matchString(vc.PropertyName, v.Property.Name) {
			continue
		}
		if !matchString(vc.SpaceID, &v.SpaceID) {
			continue
		}
		if vc.DataType != nil && v.Property.DataType != *vc.DataType {
			continue
		}
		if !matchString(vc.String, &v.Value) {
			continue
		}
		if !matchNumber(vc.Number, &v.Value) {
			continue
		}
		if !matchBoolean(vc.Boolean, &v.Value) {
			continue
		}
		return true
	}
	return false
}

// matchRelation holds when some outgoing relation satisfies every supplied
// field of the condition.
func (e *evaluator) matchRelation(ent graph.Entity, rc RelationCondition) bool {
	for _, r := range ent.Relations {
		if r.IsDeleted {
			continue
		}
		if relationMatches(r, rc.TypeID, rc.ToID, rc.ToName, rc.SpaceID) {
			return true
		}
	}
	return false
}

// matchBacklinks holds when any condition is satisfied by some incoming
// relation, discovered by scanning every other entity's outgoing edges.
func (e *evaluator) matchBacklinks(ent graph.Entity, conditions []BacklinkCondition) bool {
	for _, bc := range conditions {
		for _, other := range e.entities {
			if other.ID == ent.ID {
				continue
			}
			for _, r := range other.Relations {
				if r.IsDeleted || r.ToEntity.ID != ent.ID {
					continue
				}
				if !matchString(bc.TypeID, &r.Type.ID) {
					continue
				}
				if !matchString(bc.FromID, &r.FromEntity.ID) {
					continue
				}
				if !matchString(bc.FromName, backlinkFromName(other, r)) {
					continue
				}
				if !matchString(bc.SpaceID, &r.SpaceID) {
					continue
				}
				return true
			}
		}
	}
	return false
}

// backlinkFromName prefers the source entity's derived name over the
// relation's denormalized snapshot.
func backlinkFromName(source graph.Entity, r graph.Relation) *string {
	if source.Name != nil {
		return source.Name
	}
	return r.FromEntity.Name
}

func relationMatches(r graph.Relation, typeID, toID, toName, spaceID *StringFilter) bool {
	if !matchString(typeID, &r.Type.ID) {
		return false
	}
	if !matchString(toID, &r.ToEntity.ID) {
		return false
	}
	if !matchString(toName, r.ToEntity.Name) {
		return false
	}
	return matchString(spaceID, &r.SpaceID)
}
