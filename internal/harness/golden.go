package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// StateSnapshot captures the final resolved state of a scenario run.
// Serialized with canonical JSON so byte comparison against goldens is
// meaningful.
type StateSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Entities     []graph.Entity `json:"entities"`
	Pending      []string       `json:"pending"`
	Synced       []string       `json:"synced"`
}

// RunWithGolden executes a scenario and compares the final resolved state
// against a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot := StateSnapshot{
		ScenarioName: scenario.Name,
		Entities:     result.Entities,
		Pending:      result.Pending,
		Synced:       result.Synced,
	}
	stateJSON, err := graph.MarshalCanonical(snapshot)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, stateJSON)

	return nil
}
