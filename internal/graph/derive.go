package graph

// DeriveName returns the value of the name property from a value set, or nil
// if no live name value exists. Tombstoned values never contribute.
func DeriveName(values []Value) *string {
	return deriveProperty(values, NamePropertyID)
}

// DeriveDescription returns the value of the description property from a
// value set, or nil.
func DeriveDescription(values []Value) *string {
	return deriveProperty(values, DescriptionPropertyID)
}

func deriveProperty(values []Value, propertyID string) *string {
	for _, v := range values {
		if v.IsDeleted {
			continue
		}
		if v.Property.ID == propertyID {
			val := v.Value
			return &val
		}
	}
	return nil
}

// DeriveTypes reads an entity's types from its outgoing relations. A type is
// declared by a relation whose type entity is the types property. Duplicate
// target ids are collapsed, first occurrence wins.
func DeriveTypes(relations []Relation) []EntityRef {
	var types []EntityRef
	seen := make(map[string]bool)

	for _, r := range relations {
		if r.IsDeleted {
			continue
		}
		if r.Type.ID != TypesPropertyID {
			continue
		}
		if seen[r.ToEntity.ID] {
			continue
		}
		seen[r.ToEntity.ID] = true
		types = append(types, EntityRef{ID: r.ToEntity.ID, Name: r.ToEntity.Name})
	}

	return types
}

// DeriveSpaces collects the distinct spaces an entity has data in, in first
// occurrence order across its values then relations.
func DeriveSpaces(values []Value, relations []Relation) []string {
	var spaces []string
	seen := make(map[string]bool)

	add := func(spaceID string) {
		if spaceID == "" || seen[spaceID] {
			return
		}
		seen[spaceID] = true
		spaces = append(spaces, spaceID)
	}

	for _, v := range values {
		if !v.IsDeleted {
			add(v.SpaceID)
		}
	}
	for _, r := range relations {
		if !r.IsDeleted {
			add(r.SpaceID)
		}
	}

	return spaces
}

// Resolve assembles an Entity from a filtered value and relation set,
// deriving name, description, types, and spaces. Callers are responsible for
// having applied tombstone and space filtering already; derivation itself
// skips tombstones so includeDeleted reads still derive from live data only.
func Resolve(id string, values []Value, relations []Relation) Entity {
	return Entity{
		ID:          id,
		Name:        DeriveName(values),
		Description: DeriveDescription(values),
		Types:       DeriveTypes(relations),
		Spaces:      DeriveSpaces(values, relations),
		Values:      values,
		Relations:   relations,
	}
}
