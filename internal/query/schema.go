package query

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// ValidateDocument checks a JSON condition document against the embedded
// condition schema. Unknown fields, wrong shapes and bad enum values all
// surface as positioned CUE errors.
func ValidateDocument(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile condition schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Condition"))
	if !def.Exists() {
		return fmt.Errorf("condition schema: #Condition not found")
	}

	doc := ctx.CompileBytes(data, cue.Filename("condition.json"))
	if err := doc.Err(); err != nil {
		return fmt.Errorf("parse condition document: %w", err)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid condition document: %w", err)
	}
	return nil
}

// ParseCondition validates a JSON condition document and decodes it into a
// Condition tree.
func ParseCondition(data []byte) (*Condition, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode condition document: %w", err)
	}
	return &c, nil
}
