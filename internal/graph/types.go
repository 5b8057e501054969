package graph

// DataType tags the payload carried by a Value.
type DataType string

const (
	DataTypeText     DataType = "TEXT"
	DataTypeNumber   DataType = "NUMBER"
	DataTypeCheckbox DataType = "CHECKBOX"
	DataTypeTime     DataType = "TIME"
	DataTypeURL      DataType = "URL"
	DataTypeRelation DataType = "RELATION"
)

// ValidDataTypes defines the allowed data type tags.
var ValidDataTypes = map[DataType]bool{
	DataTypeText:     true,
	DataTypeNumber:   true,
	DataTypeCheckbox: true,
	DataTypeTime:     true,
	DataTypeURL:      true,
	DataTypeRelation: true,
}

// Well-known system property ids. Name, description, and types are never
// stored on an entity directly - they are derived from values and relations
// addressing these properties.
const (
	NamePropertyID        = "name"
	DescriptionPropertyID = "description"
	TypesPropertyID       = "types"
)

// EntityRef is a lightweight reference to an entity, carrying a denormalized
// name snapshot. The snapshot can go stale independently of the referenced
// entity and is refreshed opportunistically at read time.
type EntityRef struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

// Property identifies the attribute a Value addresses.
type Property struct {
	ID       string   `json:"id"`
	Name     *string  `json:"name"`
	DataType DataType `json:"dataType"`
}

// Value is a typed attribute payload attached to one entity within one space.
//
// Identity for overwrites is the composite key (EntityID, Property.ID,
// SpaceID) - a later write with the same key replaces the earlier one.
// The Id field exists for durable storage addressing only.
type Value struct {
	ID       string   `json:"id"`
	EntityID string   `json:"entityId"`
	Property Property `json:"property"`
	SpaceID  string   `json:"spaceId"`
	Value    string   `json:"value"`

	// Local lifecycle flags. A remote-origin value carries none of them.
	IsLocal          bool `json:"isLocal"`
	HasBeenPublished bool `json:"hasBeenPublished"`
	IsDeleted        bool `json:"isDeleted"`
}

// Key returns the composite identity key for overwrite semantics.
func (v Value) Key() ValueKey {
	return ValueKey{EntityID: v.EntityID, PropertyID: v.Property.ID, SpaceID: v.SpaceID}
}

// ValueKey is the composite identity of a Value. Writing two values with the
// same key results in exactly one resolved value, equal to the second write.
type ValueKey struct {
	EntityID   string
	PropertyID string
	SpaceID    string
}

// Relation is a typed, space-scoped, directed edge between two entities.
// Identity is the relation's own id, not a composite key.
type Relation struct {
	ID         string    `json:"id"`
	Type       EntityRef `json:"type"`
	FromEntity EntityRef `json:"fromEntity"`
	ToEntity   EntityRef `json:"toEntity"`
	SpaceID    string    `json:"spaceId"`

	// Position orders sibling relations. Lexicographic, fractional-index
	// style; empty means unordered.
	Position string `json:"position,omitempty"`
	Verified bool   `json:"verified,omitempty"`

	IsLocal          bool `json:"isLocal"`
	HasBeenPublished bool `json:"hasBeenPublished"`
	IsDeleted        bool `json:"isDeleted"`
}

// Entity is a resolved graph node. Name, Description, and Types are derived
// from the entity's current values and relations at resolution time; two
// resolutions of the same id are value-equal, not referentially equal.
type Entity struct {
	ID          string      `json:"id"`
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Types       []EntityRef `json:"types"`
	Spaces      []string    `json:"spaces"`
	Values      []Value     `json:"values"`
	Relations   []Relation  `json:"relations"`
}

// IsEmpty reports whether the entity resolves to absent: no values, no
// relations, and nothing else known about it.
func (e Entity) IsEmpty() bool {
	return len(e.Values) == 0 && len(e.Relations) == 0 && len(e.Spaces) == 0
}
