package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (query not found, sync failure, etc.)
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printEntityText writes a one-entity summary block.
func printEntityText(w io.Writer, ent graph.Entity) {
	fmt.Fprintf(w, "%s\n", ent.ID)
	if ent.Name != nil {
		fmt.Fprintf(w, "  name: %s\n", *ent.Name)
	}
	if ent.Description != nil {
		fmt.Fprintf(w, "  description: %s\n", *ent.Description)
	}
	if len(ent.Types) > 0 {
		fmt.Fprintf(w, "  types: %s\n", strings.Join(refIDs(ent.Types), ", "))
	}
	if len(ent.Spaces) > 0 {
		fmt.Fprintf(w, "  spaces: %s\n", strings.Join(ent.Spaces, ", "))
	}
	fmt.Fprintf(w, "  values: %d, relations: %d\n", len(ent.Values), len(ent.Relations))
}

func refIDs(refs []graph.EntityRef) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		if ref.Name != nil {
			out[i] = fmt.Sprintf("%s (%s)", ref.ID, *ref.Name)
		} else {
			out[i] = ref.ID
		}
	}
	return out
}
