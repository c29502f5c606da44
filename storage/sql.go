package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/awantoch/portflow/model"
	"github.com/google/uuid"
)

// Both SQL backends share one column layout; times are Unix nanoseconds.
const invocationColumns = `id, run_id, idx, operation, identifier, invocation_identifier, status, error, output, output_url, started_at, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvocation(row rowScanner) (*model.Invocation, error) {
	var (
		inv                model.Invocation
		id, runID, status  string
		identifier, invID  string
		errText, outputURL string
		output             []byte
		startedAt, endedAt int64
	)
	if err := row.Scan(&id, &runID, &inv.Index, &inv.Operation, &identifier, &invID, &status,
		&errText, &output, &outputURL, &startedAt, &endedAt); err != nil {
		return nil, err
	}
	var err error
	if inv.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid invocation id %q: %w", id, err)
	}
	if inv.RunID, err = uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	if len(output) > 0 {
		if err := json.Unmarshal(output, &inv.Output); err != nil {
			return nil, fmt.Errorf("failed to unmarshal invocation output: %w", err)
		}
	}
	inv.Identifier = identifier
	inv.InvocationIdentifier = invID
	inv.Status = model.InvocationStatus(status)
	inv.Error = errText
	inv.OutputURL = outputURL
	inv.StartedAt = time.Unix(0, startedAt)
	inv.EndedAt = time.Unix(0, endedAt)
	return &inv, nil
}

// marshalOutput returns nil for a nil output and JSON text otherwise.
func marshalOutput(output map[string]any) (any, error) {
	if output == nil {
		return nil, nil
	}
	b, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invocation output: %w", err)
	}
	return string(b), nil
}
