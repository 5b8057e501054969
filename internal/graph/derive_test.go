package graph

import (
	"reflect"
	"testing"
)

func textValue(entityID, propertyID, spaceID, val string) Value {
	return Value{
		ID:       entityID + ":" + propertyID + ":" + spaceID,
		EntityID: entityID,
		Property: Property{ID: propertyID, DataType: DataTypeText},
		SpaceID:  spaceID,
		Value:    val,
	}
}

func strPtr(s string) *string { return &s }

func TestDeriveName(t *testing.T) {
	tests := []struct {
		name   string
		values []Value
		want   *string
	}{
		{
			name:   "no values",
			values: nil,
			want:   nil,
		},
		{
			name:   "name value present",
			values: []Value{textValue("e1", NamePropertyID, "s1", "Alice")},
			want:   strPtr("Alice"),
		},
		{
			name:   "non-name values ignored",
			values: []Value{textValue("e1", "age", "s1", "30")},
			want:   nil,
		},
		{
			name: "tombstoned name never contributes",
			values: []Value{
				{EntityID: "e1", Property: Property{ID: NamePropertyID}, SpaceID: "s1", Value: "Alice", IsDeleted: true},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveName(tt.values)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeriveName() = %v, want %v", fmtPtr(got), fmtPtr(tt.want))
			}
		})
	}
}

func TestDeriveDescription(t *testing.T) {
	values := []Value{
		textValue("e1", NamePropertyID, "s1", "Alice"),
		textValue("e1", DescriptionPropertyID, "s1", "a person"),
	}
	got := DeriveDescription(values)
	if got == nil || *got != "a person" {
		t.Errorf("DeriveDescription() = %v, want %q", fmtPtr(got), "a person")
	}
}

func TestDeriveTypes(t *testing.T) {
	typeRel := func(id, to string, toName *string) Relation {
		return Relation{
			ID:       id,
			Type:     EntityRef{ID: TypesPropertyID},
			ToEntity: EntityRef{ID: to, Name: toName},
			SpaceID:  "s1",
		}
	}

	tests := []struct {
		name      string
		relations []Relation
		want      []EntityRef
	}{
		{
			name:      "no relations",
			relations: nil,
			want:      nil,
		},
		{
			name: "type relations collected with name snapshots",
			relations: []Relation{
				typeRel("r1", "person", strPtr("Person")),
				typeRel("r2", "employee", nil),
			},
			want: []EntityRef{
				{ID: "person", Name: strPtr("Person")},
				{ID: "employee"},
			},
		},
		{
			name: "non-type relations ignored",
			relations: []Relation{
				{ID: "r1", Type: EntityRef{ID: "likes"}, ToEntity: EntityRef{ID: "e2"}},
			},
			want: nil,
		},
		{
			name: "duplicate targets collapse to first occurrence",
			relations: []Relation{
				typeRel("r1", "person", strPtr("Person")),
				typeRel("r2", "person", strPtr("Human")),
			},
			want: []EntityRef{{ID: "person", Name: strPtr("Person")}},
		},
		{
			name: "tombstoned type relation skipped",
			relations: []Relation{
				{ID: "r1", Type: EntityRef{ID: TypesPropertyID}, ToEntity: EntityRef{ID: "person"}, IsDeleted: true},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTypes(tt.relations)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeriveTypes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeriveSpaces(t *testing.T) {
	values := []Value{
		textValue("e1", NamePropertyID, "s2", "Alice"),
		textValue("e1", "age", "s1", "30"),
		{EntityID: "e1", Property: Property{ID: "x"}, SpaceID: "s3", IsDeleted: true},
	}
	relations := []Relation{
		{ID: "r1", SpaceID: "s1"},
		{ID: "r2", SpaceID: "s4"},
	}

	got := DeriveSpaces(values, relations)
	want := []string{"s2", "s1", "s4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DeriveSpaces() = %v, want %v", got, want)
	}
}

func TestResolve(t *testing.T) {
	values := []Value{
		textValue("e1", DescriptionPropertyID, "s1", "a person"),
		textValue("e1", NamePropertyID, "s1", "Alice"),
	}
	relations := []Relation{
		{
			ID:       "r1",
			Type:     EntityRef{ID: TypesPropertyID},
			ToEntity: EntityRef{ID: "person", Name: strPtr("Person")},
			SpaceID:  "s1",
		},
	}

	ent := Resolve("e1", values, relations)

	if ent.ID != "e1" {
		t.Errorf("ID = %q, want e1", ent.ID)
	}
	if ent.Name == nil || *ent.Name != "Alice" {
		t.Errorf("Name = %v, want Alice", fmtPtr(ent.Name))
	}
	if ent.Description == nil || *ent.Description != "a person" {
		t.Errorf("Description = %v, want 'a person'", fmtPtr(ent.Description))
	}
	if len(ent.Types) != 1 || ent.Types[0].ID != "person" {
		t.Errorf("Types = %v, want [person]", ent.Types)
	}
	if !reflect.DeepEqual(ent.Spaces, []string{"s1"}) {
		t.Errorf("Spaces = %v, want [s1]", ent.Spaces)
	}
	if len(ent.Values) != 2 || len(ent.Relations) != 1 {
		t.Errorf("Values/Relations = %d/%d, want 2/1", len(ent.Values), len(ent.Relations))
	}
}

func TestEntityIsEmpty(t *testing.T) {
	if !(Entity{ID: "e1"}).IsEmpty() {
		t.Error("bare entity should be empty")
	}
	if (Entity{ID: "e1", Values: []Value{{}}}).IsEmpty() {
		t.Error("entity with a value should not be empty")
	}
	if (Entity{ID: "e1", Spaces: []string{"s1"}}).IsEmpty() {
		t.Error("entity with a space should not be empty")
	}
}

func TestValueKey(t *testing.T) {
	a := textValue("e1", "name", "s1", "Alice")
	b := textValue("e1", "name", "s1", "Bob")
	b.ID = "different-storage-id"
	if a.Key() != b.Key() {
		t.Error("values differing only in payload and storage id must share a key")
	}

	c := textValue("e1", "name", "s2", "Alice")
	if a.Key() == c.Key() {
		t.Error("values in different spaces must not share a key")
	}
}

func fmtPtr(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
