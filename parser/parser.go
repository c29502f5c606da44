package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/awantoch/portflow/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed batch.schema.json
var batchSchema string

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = jsonschema.CompileString("batch.schema.json", batchSchema)
	})
	return compiled, compileErr
}

// ParseBatchFile reads and parses a YAML or JSON batch file.
func ParseBatchFile(path string) (*model.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	batch, err := ParseBatch(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return batch, nil
}

// ParseBatch decodes a YAML or JSON batch and validates it against the batch
// schema. Unknown top-level and item fields are rejected.
func ParseBatch(data []byte) (*model.Batch, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	if err := ValidateBatch(doc); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var batch model.Batch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// ValidateBatch validates a JSON-decoded document against the batch schema.
func ValidateBatch(doc any) error {
	s, err := schema()
	if err != nil {
		return err
	}
	return s.Validate(doc)
}

// decodeDocument normalizes YAML or JSON input to JSON-decoded values.
func decodeDocument(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty batch document")
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid batch document: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid batch document: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
