// Package remote abstracts the authoritative data source the sync engine
// reconciles against. Implementations must report failures as returned
// errors so that sync retry-by-re-mutation keeps working; an entity that is
// simply unknown upstream is a nil DTO, not an error.
package remote

import (
	"context"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
	"github.com/geobrowser/geogenesis-sub006/internal/query"
)

// Source fetches authoritative entity state.
type Source interface {
	// FetchEntity returns the entity's remote state, or nil if the remote
	// has no record of it. spaceID narrows the result to one space when
	// non-empty.
	FetchEntity(ctx context.Context, id, spaceID string) (*graph.EntityDTO, error)

	// FetchEntitiesBatch returns remote state for the given ids. Ids the
	// remote does not know are absent from the result, not errors.
	FetchEntitiesBatch(ctx context.Context, ids []string) ([]graph.EntityDTO, error)

	// FetchResults runs a server-side search for the given condition and
	// returns shallow hits.
	FetchResults(ctx context.Context, cond *query.Condition) ([]graph.SearchResultDTO, error)
}
