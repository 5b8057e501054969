package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios seed a remote fixture, execute a flow of store mutations and
// sync rounds, and assert on the resulting resolved state.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Remote seeds the in-memory remote source before the flow runs.
	Remote []RemoteEntity `yaml:"remote,omitempty"`

	// Flow contains the mutations and sync rounds to execute, in order.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final resolved state.
	Assertions []Assertion `yaml:"assertions"`
}

// RemoteEntity is a remote fixture entity in wire shape.
type RemoteEntity struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Spaces      []string       `yaml:"spaces,omitempty"`
	Values      []ValueSpec    `yaml:"values,omitempty"`
	Relations   []RelationSpec `yaml:"relations,omitempty"`
}

// ValueSpec describes one value in scenario shorthand.
type ValueSpec struct {
	// ID addresses the value in durable storage. Optional; when empty the
	// harness derives "{entity}:{property}:{space}" so goldens stay stable.
	ID       string `yaml:"id,omitempty"`
	Entity   string `yaml:"entity,omitempty"`
	Property string `yaml:"property"`
	DataType string `yaml:"dataType,omitempty"`
	Space    string `yaml:"space"`
	Value    string `yaml:"value"`
}

// RelationSpec describes one relation in scenario shorthand.
type RelationSpec struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	TypeName string `yaml:"typeName,omitempty"`
	From     string `yaml:"from,omitempty"`
	To       string `yaml:"to"`
	ToName   string `yaml:"toName,omitempty"`
	Space    string `yaml:"space"`
	Position string `yaml:"position,omitempty"`
}

// Step is one flow entry. Op selects the operation; the remaining fields
// carry its arguments.
//
// Supported ops:
//   - "set-value", "delete-value": require Value
//   - "set-relation", "delete-relation": require Relation
//   - "delete-entity": requires Entity
//   - "assign-data-type": requires Property and DataType
//   - "publish": ValueIDs/RelationIDs name the pending items confirmed
//   - "sync": Entities lists the ids to fetch and merge
//   - "drain": processes every mutation event the engine has queued
//   - "clear": wipes the store
//   - "clear-space": requires Space
type Step struct {
	Op string `yaml:"op"`

	Value    *ValueSpec    `yaml:"value,omitempty"`
	Relation *RelationSpec `yaml:"relation,omitempty"`

	Entity   string `yaml:"entity,omitempty"`
	Property string `yaml:"property,omitempty"`
	DataType string `yaml:"dataType,omitempty"`
	Space    string `yaml:"space,omitempty"`

	Entities    []string `yaml:"entities,omitempty"`
	ValueIDs    []string `yaml:"valueIds,omitempty"`
	RelationIDs []string `yaml:"relationIds,omitempty"`
}

// Step op constants.
const (
	OpSetValue       = "set-value"
	OpDeleteValue    = "delete-value"
	OpSetRelation    = "set-relation"
	OpDeleteRelation = "delete-relation"
	OpDeleteEntity   = "delete-entity"
	OpAssignDataType = "assign-data-type"
	OpPublish        = "publish"
	OpSync           = "sync"
	OpDrain          = "drain"
	OpClear          = "clear"
	OpClearSpace     = "clear-space"
)

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "entity": resolve ID and verify derived fields
	// - "absent": ID must not resolve
	// - "pending": store's unpublished entity ids equal IDs exactly
	// - "synced": engine's synced set equals IDs exactly
	Type string `yaml:"type"`

	// ID is the entity id (used by entity, absent).
	ID string `yaml:"id,omitempty"`

	// IDs is the exact expected id set (used by pending, synced).
	IDs []string `yaml:"ids,omitempty"`

	// Name/Description are expected derived fields (used by entity).
	// Empty means "not asserted"; use Unnamed to require absence.
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Unnamed     bool   `yaml:"unnamed,omitempty"`

	// Types is the expected set of type ids, order-insensitive (entity).
	Types []string `yaml:"types,omitempty"`

	// ValueCount/RelationCount pin the live set sizes when non-nil (entity).
	ValueCount    *int `yaml:"valueCount,omitempty"`
	RelationCount *int `yaml:"relationCount,omitempty"`
}

// Assertion type constants.
const (
	AssertEntity  = "entity"
	AssertAbsent  = "absent"
	AssertPending = "pending"
	AssertSynced  = "synced"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, re := range s.Remote {
		if re.ID == "" {
			return fmt.Errorf("remote[%d]: id is required", i)
		}
		for j, rel := range re.Relations {
			if rel.ID == "" {
				return fmt.Errorf("remote[%d].relations[%d]: id is required", i, j)
			}
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Op {
	case OpSetValue, OpDeleteValue:
		if step.Value == nil {
			return fmt.Errorf("flow[%d]: %s requires value", index, step.Op)
		}
		if step.Value.Entity == "" || step.Value.Property == "" || step.Value.Space == "" {
			return fmt.Errorf("flow[%d]: %s value needs entity, property, and space", index, step.Op)
		}
	case OpSetRelation, OpDeleteRelation:
		if step.Relation == nil {
			return fmt.Errorf("flow[%d]: %s requires relation", index, step.Op)
		}
		if step.Relation.ID == "" {
			return fmt.Errorf("flow[%d]: %s relation needs id", index, step.Op)
		}
	case OpDeleteEntity:
		if step.Entity == "" {
			return fmt.Errorf("flow[%d]: delete-entity requires entity", index)
		}
	case OpAssignDataType:
		if step.Property == "" || step.DataType == "" {
			return fmt.Errorf("flow[%d]: assign-data-type requires property and dataType", index)
		}
	case OpPublish:
		if len(step.ValueIDs) == 0 && len(step.RelationIDs) == 0 {
			return fmt.Errorf("flow[%d]: publish requires valueIds or relationIds", index)
		}
	case OpSync:
		if len(step.Entities) == 0 {
			return fmt.Errorf("flow[%d]: sync requires entities", index)
		}
	case OpDrain, OpClear:
	case OpClearSpace:
		if step.Space == "" {
			return fmt.Errorf("flow[%d]: clear-space requires space", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertEntity, AssertAbsent:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for %s", index, a.Type)
		}
	case AssertPending, AssertSynced:
		// An empty IDs list is meaningful: it asserts the set is empty.
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
