package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/awantoch/portflow/adapter"
	"github.com/awantoch/portflow/blob"
	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/event"
	"github.com/awantoch/portflow/model"
	"github.com/awantoch/portflow/port"
	"github.com/awantoch/portflow/storage"
	"github.com/awantoch/portflow/templater"
	"github.com/awantoch/portflow/utils"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/awantoch/portflow/engine")

// Engine dispatches a batch of items to their operations. Storage, EventBus
// and BlobStore are optional; when set, every finished item is recorded,
// announced and archived.
type Engine struct {
	Adapters  *adapter.Registry
	Templater *templater.Templater
	EventBus  event.EventBus
	BlobStore blob.BlobStore
	Storage   storage.Storage
	// ContinueOnFail turns item validation and upstream failures into
	// {"error": msg} outputs. A batch may override it.
	ContinueOnFail bool
}

// Credentials are exchanged for the batch's bearer token.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Run is one batch execution request.
type Run struct {
	Client      *port.Client
	Credentials Credentials
	// Profile overrides the batch's profile name when set.
	Profile *port.Profile
	Batch   *model.Batch
}

// Result holds one output per input item, in input order.
type Result struct {
	RunID   uuid.UUID        `json:"run_id"`
	Outputs []map[string]any `json:"outputs"`
}

// NewDefaultEngine creates an engine with the default operations and in-memory
// history and events, and no output archive.
func NewDefaultEngine(ctx context.Context) *Engine {
	return NewEngine(adapter.NewDefaultRegistry(), templater.NewTemplater(), event.NewInProcEventBus(), nil, storage.NewMemoryStorage())
}

// NewEngine creates a new Engine with all dependencies injected.
func NewEngine(
	adapters *adapter.Registry,
	tpl *templater.Templater,
	eventBus event.EventBus,
	blobStore blob.BlobStore,
	store storage.Storage,
) *Engine {
	return &Engine{
		Adapters:  adapters,
		Templater: tpl,
		EventBus:  eventBus,
		BlobStore: blobStore,
		Storage:   store,
	}
}

// Execute fetches a token once, then runs every item in order.
//
// An authentication failure or an unknown operation aborts the batch. Other
// item failures abort it too unless continue-on-fail is in effect. On abort
// the returned Result still carries the run ID and the outputs produced so far.
func (e *Engine) Execute(ctx context.Context, run *Run) (*Result, error) {
	if run == nil || run.Batch == nil {
		return nil, fmt.Errorf("no batch to execute")
	}
	if run.Client == nil {
		return nil, fmt.Errorf("no Port client configured")
	}
	batch := run.Batch
	profile := run.Profile
	if profile == nil {
		p, err := port.LookupProfile(batch.Profile)
		if err != nil {
			return nil, err
		}
		profile = p
	}
	continueOnFail := e.ContinueOnFail
	if batch.ContinueOnFail != nil {
		continueOnFail = *batch.ContinueOnFail
	}

	runID := uuid.New()
	res := &Result{RunID: runID, Outputs: make([]map[string]any, 0, len(batch.Items))}
	ctx = utils.WithRunID(ctx, runID.String())
	ctx, span := tracer.Start(ctx, "portflow.batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("portflow.run_id", runID.String()),
		attribute.String("portflow.profile", profile.Name),
		attribute.Int("portflow.items", len(batch.Items)),
	)

	if len(batch.Items) == 0 {
		return res, nil
	}

	token, err := run.Client.AccessToken(ctx, run.Credentials.ClientID, run.Credentials.ClientSecret)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authentication failed")
		return res, err
	}
	sess := &adapter.Session{Client: run.Client, Token: token, Profile: profile}
	utils.InfoCtx(ctx, "Executing batch", "name", batch.Name, "items", len(batch.Items), "profile", profile.Name)

	for i := range batch.Items {
		out, err := e.executeItem(ctx, sess, batch, i, runID)
		if err != nil {
			if continueOnFail && isItemFailure(err) {
				utils.WarnCtx(ctx, "Item failed, continuing", "index", i, "error", err)
				res.Outputs = append(res.Outputs, map[string]any{"error": err.Error()})
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, fmt.Sprintf("item %d failed", i))
			return res, err
		}
		res.Outputs = append(res.Outputs, out)
	}
	return res, nil
}

// executeItem renders, validates and performs item i.
func (e *Engine) executeItem(ctx context.Context, sess *adapter.Session, batch *model.Batch, i int, runID uuid.UUID) (map[string]any, error) {
	item := batch.Items[i]
	raw := batch.ItemParams(i)
	params := port.Params(raw)
	if e.Templater != nil && !batch.Literal {
		rendered, err := e.Templater.RenderParams(raw, map[string]any{"json": item.JSON, "index": i})
		if err != nil {
			return nil, &port.ValidationError{
				Message: fmt.Sprintf("item %d: %v", i, err),
				Err:     err,
			}
		}
		params = port.Params(rendered)
	}

	operation := params.String(constants.ParamOperation)
	if operation == "" {
		operation = constants.DefaultOperation
	}
	a, err := e.Adapters.Lookup(operation)
	if err != nil {
		return nil, err
	}

	utils.DebugCtx(ctx, "Executing item", "index", i, "operation", operation)
	started := time.Now().UTC()
	out, err := a.Execute(ctx, sess, params)
	inv := &model.Invocation{
		ID:         uuid.New(),
		RunID:      runID,
		Index:      i,
		Operation:  operation,
		Identifier: itemIdentifier(operation, params, sess.Profile),
		Status:     model.InvocationSucceeded,
		Output:     out,
		StartedAt:  started,
		EndedAt:    time.Now().UTC(),
	}
	if err != nil {
		inv.Status = model.InvocationFailed
		inv.Error = err.Error()
	} else if id, ok := out["invocationIdentifier"].(string); ok {
		inv.InvocationIdentifier = id
	}
	e.record(ctx, inv)
	return out, err
}

// record archives, stores and announces inv. Its failures are only logged.
func (e *Engine) record(ctx context.Context, inv *model.Invocation) {
	if e.BlobStore != nil && inv.Output != nil {
		if data, err := json.Marshal(inv.Output); err != nil {
			utils.WarnCtx(ctx, "Failed to encode output for archive", "index", inv.Index, "error", err)
		} else {
			key := fmt.Sprintf("%s/%d.json", inv.RunID, inv.Index)
			url, err := e.BlobStore.Put(ctx, data, constants.ArchiveMIME, key)
			if err != nil {
				utils.WarnCtx(ctx, "Failed to archive output", "index", inv.Index, "error", err)
			} else {
				inv.OutputURL = url
			}
		}
	}
	if e.Storage != nil {
		if err := e.Storage.SaveInvocation(ctx, inv); err != nil {
			utils.ErrorCtx(ctx, "SaveInvocation failed", "index", inv.Index, "error", err)
		}
	}
	if e.EventBus != nil {
		topic := constants.TopicInvocationCompleted
		if inv.Status == model.InvocationFailed {
			topic = constants.TopicInvocationFailed
		}
		evt := &event.InvocationEvent{
			RunID:                inv.RunID.String(),
			InvocationID:         inv.ID.String(),
			Index:                inv.Index,
			Operation:            inv.Operation,
			Identifier:           inv.Identifier,
			InvocationIdentifier: inv.InvocationIdentifier,
			Status:               string(inv.Status),
			Error:                inv.Error,
			Timestamp:            inv.EndedAt,
		}
		if err := e.EventBus.Publish(ctx, topic, evt); err != nil {
			utils.WarnCtx(ctx, "Failed to publish invocation event", "topic", topic, "error", err)
		}
	}
}

// Close releases the event bus and storage.
func (e *Engine) Close() error {
	var errs []error
	if e.EventBus != nil {
		errs = append(errs, e.EventBus.Close())
	}
	if e.Storage != nil {
		errs = append(errs, e.Storage.Close())
	}
	return errors.Join(errs...)
}

// isItemFailure reports whether err is confined to one item.
func isItemFailure(err error) bool {
	var verr *port.ValidationError
	var uerr *port.UpstreamError
	return errors.As(err, &verr) || errors.As(err, &uerr)
}

// itemIdentifier names the agent or invocation an item concerns.
func itemIdentifier(operation string, params port.Params, profile *port.Profile) string {
	switch operation {
	case constants.OpInvokeAgent:
		return params.String(constants.ParamAgentIdentifier)
	case constants.OpGetInvocation:
		if profile == nil {
			profile = port.PortAPIAIProfile
		}
		return params.First(profile.InvocationIDParams...)
	}
	return ""
}
