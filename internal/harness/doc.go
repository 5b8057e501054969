// Package harness provides conformance testing for the entity sync engine.
//
// The harness seeds an in-memory remote source, executes a scripted flow of
// store mutations and sync rounds, and validates the final resolved state —
// either through inline assertions or golden snapshots.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	remote:
//	  - id: entity-1
//	    name: Remote Name
//	    spaces: [space-1]
//	    values:
//	      - property: name
//	        space: space-1
//	        value: Remote Name
//	flow:
//	  - op: set-value
//	    value: { entity: entity-1, property: name, space: space-1, value: Local Name }
//	  - op: sync
//	    entities: [entity-1]
//	assertions:
//	  - type: entity
//	    id: entity-1
//	    name: Local Name
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - entity: resolve an id and verify derived name/description/types and
//     live value/relation counts
//   - absent: an id must not resolve under default read options
//   - pending: the store's unpublished entity ids equal the given set
//   - synced: the engine's synced set equals the given set
//
// # Deterministic Testing
//
// Scenario runs are deterministic: sync rounds execute inline rather than
// through the engine's background loop, and locally-created values get ids
// derived from their composite key instead of random ones. This ensures
// identical snapshots across runs for golden file comparison.
package harness
