package graph

import "testing"

func TestEntityDTOMapping(t *testing.T) {
	name := "Remote"
	dto := EntityDTO{
		ID:     "e1",
		Name:   &name,
		Spaces: []string{"s1"},
		Values: []Value{textValue("e1", NamePropertyID, "s1", "Remote")},
		RelationsOut: []Relation{
			{ID: "r1", Type: EntityRef{ID: "likes"}, FromEntity: EntityRef{ID: "e1"}, ToEntity: EntityRef{ID: "e2"}, SpaceID: "s1"},
		},
	}

	ent := dto.Entity()

	if ent.ID != "e1" {
		t.Errorf("ID = %q, want e1", ent.ID)
	}
	if ent.Name != dto.Name {
		t.Error("Name pointer should pass through")
	}
	if len(ent.Values) != 1 || len(ent.Relations) != 1 {
		t.Errorf("Values/Relations = %d/%d, want 1/1", len(ent.Values), len(ent.Relations))
	}
	for _, v := range ent.Values {
		if v.IsLocal || v.HasBeenPublished || v.IsDeleted {
			t.Errorf("remote value %s carries local lifecycle flags", v.ID)
		}
	}
}

func TestNewLocalValueFlags(t *testing.T) {
	v := NewLocalValue("e1", Property{ID: "name", DataType: DataTypeText}, "s1", "Alice")
	if v.ID == "" {
		t.Error("expected a generated id")
	}
	if !v.IsLocal || v.HasBeenPublished || v.IsDeleted {
		t.Errorf("flags = local:%v published:%v deleted:%v, want local only", v.IsLocal, v.HasBeenPublished, v.IsDeleted)
	}
}

func TestNewLocalRelationFlags(t *testing.T) {
	r := NewLocalRelation(EntityRef{ID: TypesPropertyID}, EntityRef{ID: "e1"}, EntityRef{ID: "person"}, "s1")
	if r.ID == "" {
		t.Error("expected a generated id")
	}
	if !r.IsLocal || r.HasBeenPublished || r.IsDeleted {
		t.Errorf("flags = local:%v published:%v deleted:%v, want local only", r.IsLocal, r.HasBeenPublished, r.IsDeleted)
	}
	if r.FromEntity.ID != "e1" || r.ToEntity.ID != "person" {
		t.Errorf("endpoints = %s -> %s, want e1 -> person", r.FromEntity.ID, r.ToEntity.ID)
	}
}
