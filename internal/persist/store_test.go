package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "local.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testValue(id, entityID, spaceID, val string) graph.Value {
	return graph.Value{
		ID:       id,
		EntityID: entityID,
		Property: graph.Property{ID: "p1", DataType: graph.DataTypeText},
		SpaceID:  spaceID,
		Value:    val,
		IsLocal:  true,
	}
}

func testRelation(id, from, to, spaceID string) graph.Relation {
	return graph.Relation{
		ID:         id,
		Type:       graph.EntityRef{ID: "likes"},
		FromEntity: graph.EntityRef{ID: from},
		ToEntity:   graph.EntityRef{ID: to},
		SpaceID:    spaceID,
		IsLocal:    true,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()
}

func TestBulkPutRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	items := []Item{
		ValueItem(testValue("v1", "e1", "s1", "Alice")),
		RelationItem(testRelation("r1", "e1", "e2", "s1")),
	}
	if err := s.BulkPut(ctx, items); err != nil {
		t.Fatalf("BulkPut: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(All) = %d, want 2", len(got))
	}

	// Ordered by id: r1 before v1.
	if got[0].Kind != KindRelation || got[0].Relation == nil || got[0].Relation.ID != "r1" {
		t.Errorf("item[0] = %+v, want relation r1", got[0])
	}
	if got[1].Kind != KindValue || got[1].Value == nil || got[1].Value.Value != "Alice" {
		t.Errorf("item[1] = %+v, want value v1", got[1])
	}
}

func TestBulkPutUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.BulkPut(ctx, []Item{ValueItem(testValue("v1", "e1", "s1", "first"))}); err != nil {
		t.Fatalf("BulkPut: %v", err)
	}
	if err := s.BulkPut(ctx, []Item{ValueItem(testValue("v1", "e1", "s1", "second"))}); err != nil {
		t.Fatalf("BulkPut overwrite: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(All) = %d, want 1", len(got))
	}
	if got[0].Value.Value != "second" {
		t.Errorf("Value = %q, want second", got[0].Value.Value)
	}
}

func TestBulkDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.BulkPut(ctx, []Item{
		ValueItem(testValue("v1", "e1", "s1", "a")),
		ValueItem(testValue("v2", "e1", "s1", "b")),
	}); err != nil {
		t.Fatalf("BulkPut: %v", err)
	}

	if err := s.BulkDelete(ctx, []string{"v1", "unknown"}); err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestDeleteWhereSpace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.BulkPut(ctx, []Item{
		ValueItem(testValue("v1", "e1", "s1", "a")),
		ValueItem(testValue("v2", "e1", "s2", "b")),
		RelationItem(testRelation("r1", "e1", "e2", "s1")),
	}); err != nil {
		t.Fatalf("BulkPut: %v", err)
	}

	if err := s.DeleteWhereSpace(ctx, "s1"); err != nil {
		t.Fatalf("DeleteWhereSpace: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 1 || got[0].ID != "v2" {
		t.Errorf("All = %+v, want only v2", got)
	}
}

func TestPayloadPreservesFlags(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v := testValue("v1", "e1", "s1", "a")
	v.IsDeleted = true
	if err := s.BulkPut(ctx, []Item{ValueItem(v)}); err != nil {
		t.Fatalf("BulkPut: %v", err)
	}

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(All) = %d, want 1", len(got))
	}
	if !got[0].Value.IsDeleted || !got[0].Value.IsLocal {
		t.Errorf("flags lost in roundtrip: %+v", got[0].Value)
	}
}
