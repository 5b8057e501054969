package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenarioValid(t *testing.T) {
	path := writeScenarioFile(t, `
name: sample
description: "A complete scenario"
remote:
  - id: e1
    name: Bob
    values:
      - property: name
        space: s1
        value: Bob
flow:
  - op: set-value
    value: { entity: e1, property: name, space: s1, value: Alice }
  - op: sync
    entities: [e1]
assertions:
  - type: entity
    id: e1
    name: Alice
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "sample", scenario.Name)
	require.Len(t, scenario.Flow, 2)
	assert.Equal(t, OpSetValue, scenario.Flow[0].Op)
	require.NotNil(t, scenario.Flow[0].Value)
	assert.Equal(t, "Alice", scenario.Flow[0].Value.Value)
	assert.Equal(t, []string{"e1"}, scenario.Flow[1].Entities)
	require.Len(t, scenario.Remote, 1)
	assert.Equal(t, "Bob", scenario.Remote[0].Name)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenarioRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown field catches typos",
			content: `
name: s
description: d
flow:
  - op: clear
assertion:
  - type: absent
    id: e1
`,
			wantErr: "failed to parse YAML",
		},
		{
			name: "missing name",
			content: `
description: d
flow:
  - op: clear
assertions:
  - type: absent
    id: e1
`,
			wantErr: "name is required",
		},
		{
			name: "empty flow",
			content: `
name: s
description: d
assertions:
  - type: absent
    id: e1
`,
			wantErr: "flow list is required",
		},
		{
			name: "unknown op",
			content: `
name: s
description: d
flow:
  - op: explode
assertions:
  - type: absent
    id: e1
`,
			wantErr: `unknown op "explode"`,
		},
		{
			name: "set-value without value",
			content: `
name: s
description: d
flow:
  - op: set-value
assertions:
  - type: absent
    id: e1
`,
			wantErr: "set-value requires value",
		},
		{
			name: "value missing space",
			content: `
name: s
description: d
flow:
  - op: set-value
    value: { entity: e1, property: name, value: x }
assertions:
  - type: absent
    id: e1
`,
			wantErr: "needs entity, property, and space",
		},
		{
			name: "sync without entities",
			content: `
name: s
description: d
flow:
  - op: sync
assertions:
  - type: absent
    id: e1
`,
			wantErr: "sync requires entities",
		},
		{
			name: "relation without id",
			content: `
name: s
description: d
flow:
  - op: set-relation
    relation: { type: types, from: e1, to: person, space: s1 }
assertions:
  - type: absent
    id: e1
`,
			wantErr: "relation needs id",
		},
		{
			name: "remote entity without id",
			content: `
name: s
description: d
remote:
  - name: Bob
flow:
  - op: clear
assertions:
  - type: absent
    id: e1
`,
			wantErr: "remote[0]: id is required",
		},
		{
			name: "entity assertion without id",
			content: `
name: s
description: d
flow:
  - op: clear
assertions:
  - type: entity
`,
			wantErr: "id is required",
		},
		{
			name: "unknown assertion type",
			content: `
name: s
description: d
flow:
  - op: clear
assertions:
  - type: trace_contains
`,
			wantErr: "unknown assertion type",
		},
		{
			name: "no assertions",
			content: `
name: s
description: d
flow:
  - op: clear
`,
			wantErr: "assertions list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenarioFile(t, tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
