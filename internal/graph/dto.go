package graph

// EntityDTO is the wire shape of an entity as returned by the remote source.
// It carries precomputed name/description fields which must not be trusted
// when local edits exist - resolution re-derives them after merging.
type EntityDTO struct {
	ID           string      `json:"id"`
	Name         *string     `json:"name"`
	Description  *string     `json:"description"`
	Types        []EntityRef `json:"types"`
	Spaces       []string    `json:"spaces"`
	Values       []Value     `json:"values"`
	RelationsOut []Relation  `json:"relationsOut"`
}

// Entity maps the DTO into the shared Entity shape. Remote-origin values and
// relations carry no local lifecycle flags.
func (d EntityDTO) Entity() Entity {
	return Entity{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Types:       d.Types,
		Spaces:      d.Spaces,
		Values:      d.Values,
		Relations:   d.RelationsOut,
	}
}

// SearchResultDTO is the wire shape of a server-side search hit. Search
// results are shallow - they carry derived fields but no value/relation sets.
type SearchResultDTO struct {
	ID          string      `json:"id"`
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Types       []EntityRef `json:"types"`
	Spaces      []string    `json:"spaces"`
}
