package model

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Batch is one execution: a list of input items sharing credentials and a token.
type Batch struct {
	Name           string         `yaml:"name,omitempty" json:"name,omitempty"`
	Profile        string         `yaml:"profile,omitempty" json:"profile,omitempty"`
	ContinueOnFail *bool          `yaml:"continue_on_fail,omitempty" json:"continue_on_fail,omitempty"`
	Defaults       map[string]any `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Items          []Item         `yaml:"items" json:"items"`
	// Literal disables parameter expressions for callers whose parameters
	// are final values, such as MCP tool arguments.
	Literal bool `yaml:"-" json:"-"`
}

// Item is one input item. JSON is the item's data, visible to parameter
// expressions as json.*; Params is its parameter bag.
type Item struct {
	JSON   map[string]any `yaml:"json,omitempty" json:"json,omitempty"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// ItemParams merges the batch defaults with item i's parameters; the item wins.
func (b *Batch) ItemParams(i int) map[string]any {
	out := make(map[string]any, len(b.Defaults)+len(b.Items[i].Params))
	maps.Copy(out, b.Defaults)
	maps.Copy(out, b.Items[i].Params)
	return out
}

// Invocation is the history record of one processed item.
type Invocation struct {
	ID         uuid.UUID `json:"id"`
	RunID      uuid.UUID `json:"run_id"`
	Index      int       `json:"index"`
	Operation  string    `json:"operation"`
	Identifier string    `json:"identifier,omitempty"`
	// InvocationIdentifier is the upstream identifier, when the response carried one.
	InvocationIdentifier string           `json:"invocation_identifier,omitempty"`
	Status               InvocationStatus `json:"status"`
	Error                string           `json:"error,omitempty"`
	Output               map[string]any   `json:"output,omitempty"`
	// OutputURL points at the archived output document, if archiving is enabled.
	OutputURL string    `json:"output_url,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

type InvocationStatus string

const (
	InvocationSucceeded InvocationStatus = "SUCCEEDED"
	InvocationFailed    InvocationStatus = "FAILED"
)
