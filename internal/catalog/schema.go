package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Veraticus/the-watts-must-flow/internal/common"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "catalog.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// Validate checks a catalog document against the catalog schema.
// Keys the schema does not name are allowed.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidCatalog, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidCatalog, err)
	}
	return nil
}
