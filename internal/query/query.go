package query

import (
	"errors"
	"sort"
	"strings"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// ErrNotFound is returned by FindOne when no entity matches.
var ErrNotFound = errors.New("query: entity not found")

// SortField names a sortable entity field.
type SortField string

const (
	SortByID          SortField = "id"
	SortByName        SortField = "name"
	SortByDescription SortField = "description"
)

// SortKey is one key of a multi-key sort. Default direction is ascending.
type SortKey struct {
	Field SortField `json:"field"`
	Desc  bool      `json:"desc,omitempty"`
}

// Query filters, sorts and paginates a fixed entity snapshot. Build with
// New, chain Where/SortBy/Limit/Offset, then call one of the terminal
// methods. The snapshot is not copied; callers must not mutate it while the
// query runs.
type Query struct {
	entities []graph.Entity
	cond     *Condition
	sorts    []SortKey
	limit    int
	offset   int
}

// New creates a query over the given entity snapshot.
func New(entities []graph.Entity) *Query {
	return &Query{entities: entities, limit: -1}
}

// Where sets the filter condition. A nil condition matches everything.
func (q *Query) Where(c *Condition) *Query {
	q.cond = c
	return q
}

// SortBy sets the sort keys. Sorting is stable: ties on the first key fall
// through to the next.
func (q *Query) SortBy(keys ...SortKey) *Query {
	q.sorts = keys
	return q
}

// Limit caps the number of results. Negative means unlimited.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips the first n results after sorting.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// Execute returns all matching entities, sorted and paginated.
func (q *Query) Execute() []graph.Entity {
	ev := &evaluator{entities: q.entities}

	matched := make([]graph.Entity, 0, len(q.entities))
	for _, ent := range q.entities {
		if ev.match(ent, q.cond) {
			matched = append(matched, ent)
		}
	}

	q.sortEntities(matched)

	if q.offset > 0 {
		if q.offset >= len(matched) {
			return []graph.Entity{}
		}
		matched = matched[q.offset:]
	}
	if q.limit >= 0 && q.limit < len(matched) {
		matched = matched[:q.limit]
	}
	return matched
}

// FindFirst returns the first match, or false if nothing matched.
func (q *Query) FindFirst() (graph.Entity, bool) {
	results := q.Execute()
	if len(results) == 0 {
		return graph.Entity{}, false
	}
	return results[0], true
}

// FindOne returns the first match or ErrNotFound.
func (q *Query) FindOne() (graph.Entity, error) {
	ent, ok := q.FindFirst()
	if !ok {
		return graph.Entity{}, ErrNotFound
	}
	return ent, nil
}

// Count returns the number of matches, ignoring limit and offset.
func (q *Query) Count() int {
	ev := &evaluator{entities: q.entities}
	n := 0
	for _, ent := range q.entities {
		if ev.match(ent, q.cond) {
			n++
		}
	}
	return n
}

// Exists reports whether anything matches.
func (q *Query) Exists() bool {
	ev := &evaluator{entities: q.entities}
	for _, ent := range q.entities {
		if ev.match(ent, q.cond) {
			return true
		}
	}
	return false
}

func (q *Query) sortEntities(entities []graph.Entity) {
	if len(q.sorts) == 0 {
		return
	}
	sort.SliceStable(entities, func(i, j int) bool {
		for _, key := range q.sorts {
			a := sortValue(entities[i], key.Field)
			b := sortValue(entities[j], key.Field)
			cmp := strings.Compare(a, b)
			if cmp == 0 {
				continue
			}
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// sortValue extracts the comparable string for a sort field. Absent
// name/description sorts before any present value.
func sortValue(ent graph.Entity, field SortField) string {
	switch field {
	case SortByName:
		if ent.Name != nil {
			return *ent.Name
		}
	case SortByDescription:
		if ent.Description != nil {
			return *ent.Description
		}
	case SortByID:
		return ent.ID
	}
	return ""
}
