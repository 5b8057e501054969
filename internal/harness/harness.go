package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/geobrowser/geogenesis-sub006/internal/events"
	"github.com/geobrowser/geogenesis-sub006/internal/graph"
	"github.com/geobrowser/geogenesis-sub006/internal/remote"
	"github.com/geobrowser/geogenesis-sub006/internal/store"
	geosync "github.com/geobrowser/geogenesis-sub006/internal/sync"
)

// Harness executes a scenario against a fresh store, an in-memory remote
// source, and a sync engine, fully deterministically: sync rounds run inline
// instead of through the engine's background loop, and locally-created
// values get ids derived from their composite key instead of random ones.
type Harness struct {
	stream *events.Stream
	store  *store.EntityStore
	source *remote.MemorySource
	engine *geosync.Engine
}

// Result carries the final state of a scenario run for assertion and
// snapshot purposes.
type Result struct {
	// Entities is the final resolved state, sorted by id. Tombstoned data
	// is included so deletions leave a visible mark in snapshots.
	Entities []graph.Entity

	// Pending is the sorted set of entity ids with unpublished local edits.
	Pending []string

	// Synced is the sorted set of ids the engine considers up to date.
	Synced []string

	store  *store.EntityStore
	engine *geosync.Engine
}

// Run executes a scenario and returns the final state.
//
// Each scenario runs against fresh components for isolation. An error is
// returned on the first failed step or assertion.
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stream := events.NewStream(events.WithLogger(logger))
	st := store.NewEntityStore(stream, store.WithStoreLogger(logger))
	defer st.Close()

	source := remote.NewMemorySource()
	for _, re := range scenario.Remote {
		source.Put(remoteDTO(re))
	}

	engine := geosync.NewEngine(st, source, geosync.WithLogger(logger))
	defer engine.Stop()

	h := &Harness{stream: stream, store: st, source: source, engine: engine}

	ctx := context.Background()
	for i, step := range scenario.Flow {
		if err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}
	}

	result := &Result{
		Entities: st.GetEntities(store.Options{IncludeDeleted: true}),
		Pending:  st.PendingEntityIDs(),
		Synced:   engine.SyncedIDs(),
		store:    st,
		engine:   engine,
	}

	for i, assertion := range scenario.Assertions {
		if err := result.check(assertion); err != nil {
			return nil, fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return result, nil
}

func (h *Harness) execute(ctx context.Context, step Step) error {
	switch step.Op {
	case OpSetValue:
		h.store.SetValue(localValue(*step.Value))
	case OpDeleteValue:
		h.store.DeleteValue(localValue(*step.Value))
	case OpSetRelation:
		h.store.SetRelation(localRelation(*step.Relation))
	case OpDeleteRelation:
		h.store.DeleteRelation(localRelation(*step.Relation))
	case OpDeleteEntity:
		h.store.MarkEntityDeleted(step.Entity)
	case OpAssignDataType:
		h.store.AssignDataType(step.Property, graph.DataType(step.DataType))
	case OpPublish:
		h.store.MarkPublished(step.ValueIDs, step.RelationIDs)
	case OpSync:
		return h.engine.SyncEntities(ctx, step.Entities)
	case OpDrain:
		h.engine.Drain(ctx)
	case OpClear:
		h.store.Clear()
	case OpClearSpace:
		h.store.ClearSpace(step.Space)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

// localValue expands a ValueSpec into a pending-layer value. Missing ids are
// derived from the composite key so repeated runs snapshot identically.
func localValue(spec ValueSpec) graph.Value {
	id := spec.ID
	if id == "" {
		id = spec.Entity + ":" + spec.Property + ":" + spec.Space
	}
	dataType := graph.DataType(spec.DataType)
	if dataType == "" {
		dataType = graph.DataTypeText
	}
	return graph.Value{
		ID:       id,
		EntityID: spec.Entity,
		Property: graph.Property{ID: spec.Property, DataType: dataType},
		SpaceID:  spec.Space,
		Value:    spec.Value,
		IsLocal:  true,
	}
}

func localRelation(spec RelationSpec) graph.Relation {
	return graph.Relation{
		ID:         spec.ID,
		Type:       entityRef(spec.Type, spec.TypeName),
		FromEntity: graph.EntityRef{ID: spec.From},
		ToEntity:   entityRef(spec.To, spec.ToName),
		SpaceID:    spec.Space,
		Position:   spec.Position,
		IsLocal:    true,
	}
}

// remoteDTO expands a RemoteEntity fixture into wire shape. Remote-origin
// values and relations carry no local lifecycle flags.
func remoteDTO(re RemoteEntity) graph.EntityDTO {
	dto := graph.EntityDTO{
		ID:     re.ID,
		Spaces: re.Spaces,
	}
	if re.Name != "" {
		name := re.Name
		dto.Name = &name
	}
	if re.Description != "" {
		desc := re.Description
		dto.Description = &desc
	}
	for _, vs := range re.Values {
		v := localValue(vs)
		if v.EntityID == "" {
			v.EntityID = re.ID
			v.ID = re.ID + ":" + vs.Property + ":" + vs.Space
		}
		v.IsLocal = false
		dto.Values = append(dto.Values, v)
	}
	for _, rs := range re.Relations {
		r := localRelation(rs)
		if r.FromEntity.ID == "" {
			r.FromEntity.ID = re.ID
		}
		r.IsLocal = false
		dto.RelationsOut = append(dto.RelationsOut, r)
	}
	dto.Types = graph.DeriveTypes(dto.RelationsOut)
	return dto
}

func entityRef(id, name string) graph.EntityRef {
	ref := graph.EntityRef{ID: id}
	if name != "" {
		n := name
		ref.Name = &n
	}
	return ref
}
