// Package query evaluates structured filter conditions over an in-memory
// entity set, with sorting and pagination. The condition tree is the same
// shape callers serialize to JSON for server-side querying, so local and
// remote results stay mergeable.
package query

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// Condition is one node of a filter tree. Every supplied field must hold for
// an entity to match; absent fields are unconstrained. AND/OR/NOT compose
// sub-conditions.
type Condition struct {
	ID          *StringFilter `json:"id,omitempty"`
	Name        *StringFilter `json:"name,omitempty"`
	Description *StringFilter `json:"description,omitempty"`

	// Types must each be matched by some declared type of the entity.
	Types []TypeCondition `json:"types,omitempty"`
	// Spaces matches if any space the entity has data in satisfies it.
	Spaces *StringFilter `json:"spaces,omitempty"`

	// Values are conjunctive: every condition must be satisfied by some
	// live value of the entity.
	Values []ValueCondition `json:"values,omitempty"`
	// Relations are conjunctive: every condition must be satisfied by some
	// live outgoing relation.
	Relations []RelationCondition `json:"relations,omitempty"`
	// Backlinks are disjunctive: the entity matches if any condition is
	// satisfied by some incoming relation, found by scanning every other
	// entity's outgoing edges.
	Backlinks []BacklinkCondition `json:"backlinks,omitempty"`

	And []Condition `json:"AND,omitempty"`
	Or  []Condition `json:"OR,omitempty"`
	Not *Condition  `json:"NOT,omitempty"`
}

// TypeCondition matches one declared type by id and/or name.
type TypeCondition struct {
	ID   *StringFilter `json:"id,omitempty"`
	Name *StringFilter `json:"name,omitempty"`
}

// ValueCondition matches one value by property, space, data type and typed
// payload comparator.
type ValueCondition struct {
	PropertyID   *StringFilter   `json:"propertyId,omitempty"`
	PropertyName *StringFilter   `json:"propertyName,omitempty"`
	SpaceID      *StringFilter   `json:"spaceId,omitempty"`
	DataType     *graph.DataType `json:"dataType,omitempty"`
	String       *StringFilter   `json:"string,omitempty"`
	Number       *NumberFilter   `json:"number,omitempty"`
	Boolean      *BooleanFilter  `json:"boolean,omitempty"`
}

// RelationCondition matches one outgoing relation.
type RelationCondition struct {
	TypeID  *StringFilter `json:"typeId,omitempty"`
	ToID    *StringFilter `json:"toId,omitempty"`
	ToName  *StringFilter `json:"toName,omitempty"`
	SpaceID *StringFilter `json:"spaceId,omitempty"`
}

// BacklinkCondition matches one incoming relation.
type BacklinkCondition struct {
	TypeID   *StringFilter `json:"typeId,omitempty"`
	FromID   *StringFilter `json:"fromId,omitempty"`
	FromName *StringFilter `json:"fromName,omitempty"`
	SpaceID  *StringFilter `json:"spaceId,omitempty"`
}

// StringFilter holds string comparators. All matching is case-insensitive
// via Unicode case folding.
//
// Equals is a PREFIX match, not exact equality. Downstream callers depend on
// this behavior, so it stays.
type StringFilter struct {
	Equals     *string       `json:"equals,omitempty"`
	Contains   *string       `json:"contains,omitempty"`
	StartsWith *string       `json:"startsWith,omitempty"`
	EndsWith   *string       `json:"endsWith,omitempty"`
	Fuzzy      *string       `json:"fuzzy,omitempty"`
	In         []string      `json:"in,omitempty"`
	Exists     *bool         `json:"exists,omitempty"`
	Not        *StringFilter `json:"not,omitempty"`
}

// NumberFilter holds numeric comparators over values parsed as floats.
type NumberFilter struct {
	Equals  *float64    `json:"equals,omitempty"`
	GT      *float64    `json:"gt,omitempty"`
	GTE     *float64    `json:"gte,omitempty"`
	LT      *float64    `json:"lt,omitempty"`
	LTE     *float64    `json:"lte,omitempty"`
	Between *[2]float64 `json:"between,omitempty"`
	Exists  *bool       `json:"exists,omitempty"`
}

// BooleanFilter matches checkbox values.
type BooleanFilter struct {
	Equals *bool `json:"equals,omitempty"`
	Exists *bool `json:"exists,omitempty"`
}

// fold case-folds a string for caseless comparison.
func fold(s string) string {
	return cases.Fold().String(s)
}

// matchString applies a StringFilter to a possibly-absent string. A nil
// subject fails every comparator except Exists=false.
func matchString(f *StringFilter, subject *string) bool {
	if f == nil {
		return true
	}
	if f.Exists != nil {
		if *f.Exists != (subject != nil) {
			return false
		}
	}
	if f.Not != nil {
		if matchString(f.Not, subject) {
			return false
		}
	}

	hasComparator := f.Equals != nil || f.Contains != nil || f.StartsWith != nil ||
		f.EndsWith != nil || f.Fuzzy != nil || len(f.In) > 0
	if !hasComparator {
		return true
	}
	if subject == nil {
		return false
	}
	s := fold(*subject)

	if f.Equals != nil && !strings.HasPrefix(s, fold(*f.Equals)) {
		return false
	}
	if f.StartsWith != nil && !strings.HasPrefix(s, fold(*f.StartsWith)) {
		return false
	}
	if f.EndsWith != nil && !strings.HasSuffix(s, fold(*f.EndsWith)) {
		return false
	}
	if f.Contains != nil && !strings.Contains(s, fold(*f.Contains)) {
		return false
	}
	if f.Fuzzy != nil && !strings.Contains(s, fold(*f.Fuzzy)) {
		return false
	}
	if len(f.In) > 0 {
		found := false
		for _, candidate := range f.In {
			if s == fold(candidate) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// matchNumber applies a NumberFilter to a raw string payload.
func matchNumber(f *NumberFilter, raw *string) bool {
	if f == nil {
		return true
	}

	var n float64
	parsed := false
	if raw != nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64); err == nil {
			n = v
			parsed = true
		}
	}

	if f.Exists != nil && *f.Exists != parsed {
		return false
	}

	hasComparator := f.Equals != nil || f.GT != nil || f.GTE != nil ||
		f.LT != nil || f.LTE != nil || f.Between != nil
	if !hasComparator {
		return true
	}
	if !parsed {
		return false
	}

	if f.Equals != nil && n != *f.Equals {
		return false
	}
	if f.GT != nil && !(n > *f.GT) {
		return false
	}
	if f.GTE != nil && !(n >= *f.GTE) {
		return false
	}
	if f.LT != nil && !(n < *f.LT) {
		return false
	}
	if f.LTE != nil && !(n <= *f.LTE) {
		return false
	}
	if f.Between != nil && (n < f.Between[0] || n > f.Between[1]) {
		return false
	}
	return true
}

// matchBoolean applies a BooleanFilter to a raw string payload. Checkbox
// values serialize as "true"/"false" or "1"/"0".
func matchBoolean(f *BooleanFilter, raw *string) bool {
	if f == nil {
		return true
	}

	var b bool
	parsed := false
	if raw != nil {
		switch strings.ToLower(strings.TrimSpace(*raw)) {
		case "true", "1":
			b, parsed = true, true
		case "false", "0":
			b, parsed = false, true
		}
	}

	if f.Exists != nil && *f.Exists != parsed {
		return false
	}
	if f.Equals == nil {
		return true
	}
	return parsed && b == *f.Equals
}
