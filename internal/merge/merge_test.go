package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

func strptr(s string) *string { return &s }

func value(entityID, propertyID, spaceID, val string) graph.Value {
	return graph.Value{
		ID:       entityID + "-" + propertyID + "-" + spaceID,
		EntityID: entityID,
		Property: graph.Property{ID: propertyID, DataType: graph.DataTypeText},
		SpaceID:  spaceID,
		Value:    val,
	}
}

func localValue(entityID, propertyID, spaceID, val string) graph.Value {
	v := value(entityID, propertyID, spaceID, val)
	v.IsLocal = true
	return v
}

func relation(id, relType, from, to, spaceID string) graph.Relation {
	return graph.Relation{
		ID:         id,
		Type:       graph.EntityRef{ID: relType},
		FromEntity: graph.EntityRef{ID: from},
		ToEntity:   graph.EntityRef{ID: to},
		SpaceID:    spaceID,
	}
}

func TestBothAbsent(t *testing.T) {
	_, ok := Entity("e1", nil, nil, Options{})
	assert.False(t, ok)
}

func TestRemoteOnlyPassesThrough(t *testing.T) {
	remote := &graph.EntityDTO{
		ID:     "e1",
		Name:   strptr("Bob"),
		Spaces: []string{"s1"},
		Values: []graph.Value{value("e1", graph.NamePropertyID, "s1", "Bob")},
	}

	got, ok := Entity("e1", nil, remote, Options{})
	require.True(t, ok)
	assert.Equal(t, "e1", got.ID)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Bob", *got.Name)
	assert.Len(t, got.Values, 1)
}

func TestLocalOnlyPassesThrough(t *testing.T) {
	local := &graph.Entity{
		ID:     "e1",
		Values: []graph.Value{localValue("e1", graph.NamePropertyID, "s1", "Alice")},
	}

	got, ok := Entity("e1", local, nil, Options{})
	require.True(t, ok)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Alice", *got.Name)
}

func TestEmptyMergeIsAbsent(t *testing.T) {
	local := &graph.Entity{ID: "e1"}
	remote := &graph.EntityDTO{ID: "e1"}

	_, ok := Entity("e1", local, remote, Options{})
	assert.False(t, ok)
}

func TestLocalRenameWinsOverRemote(t *testing.T) {
	local := &graph.Entity{
		ID:     "e1",
		Values: []graph.Value{localValue("e1", graph.NamePropertyID, "s1", "Alice")},
	}
	remote := &graph.EntityDTO{
		ID:     "e1",
		Name:   strptr("Bob"),
		Values: []graph.Value{value("e1", graph.NamePropertyID, "s1", "Bob")},
	}

	got, ok := Entity("e1", local, remote, Options{})
	require.True(t, ok)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Alice", *got.Name, "unpublished local rename must win")
	assert.Len(t, got.Values, 1, "same composite key resolves to one value")
	assert.True(t, got.Values[0].IsLocal)
}

func TestRemoteValuesAtDistinctKeysMergeIn(t *testing.T) {
	local := &graph.Entity{
		ID:     "e1",
		Values: []graph.Value{localValue("e1", "p1", "s1", "local")},
	}
	remote := &graph.EntityDTO{
		ID: "e1",
		Values: []graph.Value{
			value("e1", "p1", "s1", "shadowed"),
			value("e1", "p2", "s1", "kept"),
			value("e1", "p1", "s2", "other-space-kept"),
		},
	}

	got, ok := Entity("e1", local, remote, Options{})
	require.True(t, ok)
	require.Len(t, got.Values, 3)

	byKey := make(map[graph.ValueKey]graph.Value)
	for _, v := range got.Values {
		byKey[v.Key()] = v
	}
	assert.Equal(t, "local", byKey[graph.ValueKey{EntityID: "e1", PropertyID: "p1", SpaceID: "s1"}].Value)
	assert.Equal(t, "kept", byKey[graph.ValueKey{EntityID: "e1", PropertyID: "p2", SpaceID: "s1"}].Value)
	assert.Equal(t, "other-space-kept", byKey[graph.ValueKey{EntityID: "e1", PropertyID: "p1", SpaceID: "s2"}].Value)
}

func TestLocalTombstoneSuppressesRemoteValue(t *testing.T) {
	tomb := localValue("e1", graph.NamePropertyID, "s1", "Alice")
	tomb.IsDeleted = true
	local := &graph.Entity{
		ID:     "e1",
		Values: []graph.Value{tomb, localValue("e1", "p2", "s1", "live")},
	}
	remote := &graph.EntityDTO{
		ID:     "e1",
		Name:   strptr("Alice"),
		Values: []graph.Value{value("e1", graph.NamePropertyID, "s1", "Alice")},
	}

	got, ok := Entity("e1", local, remote, Options{})
	require.True(t, ok)
	assert.Nil(t, got.Name, "tombstoned name must not resurface from remote")

	// The tombstone itself is retained as data.
	var sawTombstone bool
	for _, v := range got.Values {
		if v.Property.ID == graph.NamePropertyID {
			assert.True(t, v.IsDeleted)
			sawTombstone = true
		}
	}
	assert.True(t, sawTombstone)
}

func TestRelationsMergeByID(t *testing.T) {
	localRel := relation("r1", "likes", "e1", "e2", "s1")
	localRel.IsLocal = true
	local := &graph.Entity{ID: "e1", Relations: []graph.Relation{localRel}}

	remote := &graph.EntityDTO{
		ID: "e1",
		RelationsOut: []graph.Relation{
			relation("r1", "likes", "e1", "e9", "s1"), // same id, shadowed
			relation("r2", "likes", "e1", "e3", "s1"),
		},
	}

	got, ok := Entity("e1", local, remote, Options{})
	require.True(t, ok)
	require.Len(t, got.Relations, 2)

	byID := make(map[string]graph.Relation)
	for _, r := range got.Relations {
		byID[r.ID] = r
	}
	assert.Equal(t, "e2", byID["r1"].ToEntity.ID, "local relation wins for shared id")
	assert.Equal(t, "e3", byID["r2"].ToEntity.ID)
}

func TestLocalTombstoneSuppressesRemoteRelation(t *testing.T) {
	tomb := relation("r1", graph.TypesPropertyID, "e1", "person", "s1")
	tomb.IsLocal = true
	tomb.IsDeleted = true
	local := &graph.Entity{
		ID:        "e1",
		Values:    []graph.Value{localValue("e1", "p1", "s1", "keep")},
		Relations: []graph.Relation{tomb},
	}
	remote := &graph.EntityDTO{
		ID:           "e1",
		Types:        []graph.EntityRef{{ID: "person"}},
		RelationsOut: []graph.Relation{relation("r1", graph.TypesPropertyID, "e1", "person", "s1")},
	}

	got, ok := Entity("e1", local, remote, Options{})
	require.True(t, ok)
	assert.Empty(t, got.Types, "type declared only by a tombstoned relation must not derive")
}

func TestSpaceFilter(t *testing.T) {
	local := &graph.Entity{
		ID: "e1",
		Values: []graph.Value{
			localValue("e1", "p1", "s1", "in-space"),
			localValue("e1", "p1", "s2", "out-of-space"),
		},
	}
	remote := &graph.EntityDTO{
		ID:     "e1",
		Values: []graph.Value{value("e1", "p2", "s2", "remote-out")},
	}

	got, ok := Entity("e1", local, remote, Options{SpaceID: "s1"})
	require.True(t, ok)
	require.Len(t, got.Values, 1)
	assert.Equal(t, "in-space", got.Values[0].Value)
	assert.Equal(t, []string{"s1"}, got.Spaces)
}

func TestMergeIsIdempotent(t *testing.T) {
	tomb := localValue("e1", "p3", "s1", "gone")
	tomb.IsDeleted = true
	local := &graph.Entity{
		ID: "e1",
		Values: []graph.Value{
			localValue("e1", graph.NamePropertyID, "s1", "Alice"),
			tomb,
		},
		Relations: []graph.Relation{relation("r1", "likes", "e1", "e2", "s1")},
	}
	remote := &graph.EntityDTO{
		ID:   "e1",
		Name: strptr("Bob"),
		Values: []graph.Value{
			value("e1", graph.NamePropertyID, "s1", "Bob"),
			value("e1", "p2", "s1", "remote"),
			value("e1", "p3", "s1", "resurrected"),
		},
		RelationsOut: []graph.Relation{
			relation("r2", "likes", "e1", "e3", "s1"),
		},
	}

	once, ok := Entity("e1", local, remote, Options{})
	require.True(t, ok)
	twice, ok := Entity("e1", &once, remote, Options{})
	require.True(t, ok)

	assert.Equal(t, once, twice, "re-merging a merge result with the same remote must be a no-op")
}

func TestMergeIsDeterministic(t *testing.T) {
	local := &graph.Entity{
		ID: "e1",
		Values: []graph.Value{
			localValue("e1", "b", "s1", "1"),
			localValue("e1", "a", "s1", "2"),
		},
	}
	remote := &graph.EntityDTO{
		ID:     "e1",
		Values: []graph.Value{value("e1", "c", "s1", "3")},
	}

	first, _ := Entity("e1", local, remote, Options{})
	second, _ := Entity("e1", local, remote, Options{})
	assert.Equal(t, first, second)
}
