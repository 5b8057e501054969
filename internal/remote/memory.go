package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
	"github.com/geobrowser/geogenesis-sub006/internal/query"
)

// MemorySource is an in-process Source backed by a map. It serves tests and
// offline workflows, and records every fetch so callers can assert on batch
// shapes and de-duplication.
type MemorySource struct {
	mu       sync.Mutex
	entities map[string]graph.EntityDTO
	failWith error
	fetched  [][]string
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		entities: make(map[string]graph.EntityDTO),
	}
}

// Put stores or replaces an entity DTO.
func (m *MemorySource) Put(dto graph.EntityDTO) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[dto.ID] = dto
}

// Delete removes an entity, making subsequent fetches return absent.
func (m *MemorySource) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entities, id)
}

// FailWith makes every subsequent fetch return err. Pass nil to heal.
func (m *MemorySource) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// FetchedBatches returns the id sets of every batch fetch so far.
func (m *MemorySource) FetchedBatches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.fetched))
	copy(out, m.fetched)
	return out
}

// FetchEntity implements Source.
func (m *MemorySource) FetchEntity(ctx context.Context, id, spaceID string) (*graph.EntityDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, fmt.Errorf("fetch entity %s: %w", id, m.failWith)
	}

	dto, ok := m.entities[id]
	if !ok {
		return nil, nil
	}
	if spaceID != "" {
		dto = filterDTOBySpace(dto, spaceID)
		if len(dto.Values) == 0 && len(dto.RelationsOut) == 0 {
			return nil, nil
		}
	}
	return &dto, nil
}

// FetchEntitiesBatch implements Source. Unknown ids are silently absent from
// the result.
func (m *MemorySource) FetchEntitiesBatch(ctx context.Context, ids []string) ([]graph.EntityDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]string, len(ids))
	copy(recorded, ids)
	m.fetched = append(m.fetched, recorded)

	if m.failWith != nil {
		return nil, fmt.Errorf("fetch batch: %w", m.failWith)
	}

	out := make([]graph.EntityDTO, 0, len(ids))
	for _, id := range ids {
		if dto, ok := m.entities[id]; ok {
			out = append(out, dto)
		}
	}
	return out, nil
}

// FetchResults implements Source by evaluating the condition over shallow
// projections of the stored DTOs, the way the real search endpoint would.
func (m *MemorySource) FetchResults(ctx context.Context, cond *query.Condition) ([]graph.SearchResultDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, fmt.Errorf("fetch results: %w", m.failWith)
	}

	entities := make([]graph.Entity, 0, len(m.entities))
	for _, dto := range m.entities {
		entities = append(entities, dto.Entity())
	}

	matched := query.New(entities).Where(cond).
		SortBy(query.SortKey{Field: query.SortByID}).
		Execute()

	out := make([]graph.SearchResultDTO, 0, len(matched))
	for _, ent := range matched {
		out = append(out, graph.SearchResultDTO{
			ID:          ent.ID,
			Name:        ent.Name,
			Description: ent.Description,
			Types:       ent.Types,
			Spaces:      ent.Spaces,
		})
	}
	return out, nil
}

func filterDTOBySpace(dto graph.EntityDTO, spaceID string) graph.EntityDTO {
	values := make([]graph.Value, 0, len(dto.Values))
	for _, v := range dto.Values {
		if v.SpaceID == spaceID {
			values = append(values, v)
		}
	}
	relations := make([]graph.Relation, 0, len(dto.RelationsOut))
	for _, r := range dto.RelationsOut {
		if r.SpaceID == spaceID {
			relations = append(relations, r)
		}
	}
	dto.Values = values
	dto.RelationsOut = relations
	return dto
}
