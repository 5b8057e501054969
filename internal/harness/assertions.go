package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/geobrowser/geogenesis-sub006/internal/store"
)

// AssertionError is returned when an assertion fails. It includes expected
// and actual state to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  expected: %s\n  actual: %s", e.Type, e.Expected, e.Actual)
}

func (r *Result) check(a Assertion) error {
	switch a.Type {
	case AssertEntity:
		return r.checkEntity(a)
	case AssertAbsent:
		if _, ok := r.store.GetEntity(a.ID, store.Options{}); ok {
			return &AssertionError{
				Type:     AssertAbsent,
				Expected: fmt.Sprintf("entity %s absent", a.ID),
				Actual:   "entity resolves",
			}
		}
		return nil
	case AssertPending:
		return checkIDSet(AssertPending, a.IDs, r.Pending)
	case AssertSynced:
		return checkIDSet(AssertSynced, a.IDs, r.Synced)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func (r *Result) checkEntity(a Assertion) error {
	ent, ok := r.store.GetEntity(a.ID, store.Options{})
	if !ok {
		return &AssertionError{
			Type:     AssertEntity,
			Expected: fmt.Sprintf("entity %s resolves", a.ID),
			Actual:   "absent",
		}
	}

	if a.Name != "" {
		if ent.Name == nil || *ent.Name != a.Name {
			return &AssertionError{
				Type:     AssertEntity,
				Expected: fmt.Sprintf("%s name %q", a.ID, a.Name),
				Actual:   fmt.Sprintf("name %s", strOrNil(ent.Name)),
			}
		}
	}
	if a.Unnamed && ent.Name != nil {
		return &AssertionError{
			Type:     AssertEntity,
			Expected: fmt.Sprintf("%s unnamed", a.ID),
			Actual:   fmt.Sprintf("name %q", *ent.Name),
		}
	}
	if a.Description != "" {
		if ent.Description == nil || *ent.Description != a.Description {
			return &AssertionError{
				Type:     AssertEntity,
				Expected: fmt.Sprintf("%s description %q", a.ID, a.Description),
				Actual:   fmt.Sprintf("description %s", strOrNil(ent.Description)),
			}
		}
	}
	if a.Types != nil {
		got := make([]string, len(ent.Types))
		for i, ref := range ent.Types {
			got[i] = ref.ID
		}
		if err := checkIDSet(AssertEntity, a.Types, got); err != nil {
			return &AssertionError{
				Type:     AssertEntity,
				Expected: fmt.Sprintf("%s types %v", a.ID, a.Types),
				Actual:   fmt.Sprintf("types %v", got),
			}
		}
	}
	if a.ValueCount != nil && len(ent.Values) != *a.ValueCount {
		return &AssertionError{
			Type:     AssertEntity,
			Expected: fmt.Sprintf("%s has %d values", a.ID, *a.ValueCount),
			Actual:   fmt.Sprintf("%d values", len(ent.Values)),
		}
	}
	if a.RelationCount != nil && len(ent.Relations) != *a.RelationCount {
		return &AssertionError{
			Type:     AssertEntity,
			Expected: fmt.Sprintf("%s has %d relations", a.ID, *a.RelationCount),
			Actual:   fmt.Sprintf("%d relations", len(ent.Relations)),
		}
	}
	return nil
}

// checkIDSet compares two id sets order-insensitively.
func checkIDSet(typ string, expected, actual []string) error {
	want := append([]string(nil), expected...)
	got := append([]string(nil), actual...)
	sort.Strings(want)
	sort.Strings(got)
	if strings.Join(want, ",") != strings.Join(got, ",") {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("ids %v", want),
			Actual:   fmt.Sprintf("ids %v", got),
		}
	}
	return nil
}

func strOrNil(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%q", *s)
}
