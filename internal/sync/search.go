package sync

import (
	"context"
	"fmt"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
	"github.com/geobrowser/geogenesis-sub006/internal/query"
	"github.com/geobrowser/geogenesis-sub006/internal/store"
)

// Search runs a server-side search and overlays local state on the hits.
//
// Remote hits are re-checked against the condition using the local view:
// an entity renamed locally may no longer match, and an entity the server
// has not indexed yet may match only locally. Entities deleted wholesale on
// this client never surface. Local-only matches are appended after the
// remote order, sorted by id.
func (e *Engine) Search(ctx context.Context, cond *query.Condition) ([]graph.SearchResultDTO, error) {
	results, err := e.source.FetchResults(ctx, cond)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	locals := e.store.GetEntities(store.Options{})
	localByID := make(map[string]graph.Entity, len(locals))
	for _, ent := range locals {
		localByID[ent.ID] = ent
	}
	matched := make(map[string]bool)
	for _, ent := range query.New(locals).Where(cond).Execute() {
		matched[ent.ID] = true
	}

	out := make([]graph.SearchResultDTO, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, res := range results {
		if seen[res.ID] {
			continue
		}
		seen[res.ID] = true

		if e.store.IsEntityDeleted(res.ID) {
			continue
		}
		if local, known := localByID[res.ID]; known {
			// The local view wins, and the condition must still hold
			// against it.
			if !matched[res.ID] {
				continue
			}
			out = append(out, projectResult(local))
			continue
		}
		out = append(out, res)
	}

	for _, ent := range query.New(locals).Where(cond).
		SortBy(query.SortKey{Field: query.SortByID}).Execute() {
		if !seen[ent.ID] {
			out = append(out, projectResult(ent))
		}
	}
	return out, nil
}

// projectResult shapes a resolved entity as a shallow search hit.
func projectResult(ent graph.Entity) graph.SearchResultDTO {
	return graph.SearchResultDTO{
		ID:          ent.ID,
		Name:        ent.Name,
		Description: ent.Description,
		Types:       ent.Types,
		Spaces:      ent.Spaces,
	}
}
