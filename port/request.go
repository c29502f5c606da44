package port

import (
	"fmt"
	"strings"

	"github.com/awantoch/portflow/constants"
)

// InvocationRequest is the upstream call built for one item. It is not
// modified after it has been sent.
type InvocationRequest struct {
	Operation string
	Method    string
	Path      string
	Query     Query
	// Body is nil for GET requests.
	Body map[string]any
	// Identifier is the agent or invocation identifier, kept for error context.
	Identifier string
}

// Target returns the path with its encoded query string.
func (r *InvocationRequest) Target() string {
	return r.Path + r.Query.Encode()
}

// BuildInvokeAgent builds POST /v1/agent/{agentIdentifier}/invoke.
func BuildInvokeAgent(p Params, profile *Profile) (*InvocationRequest, error) {
	agentID := p.String(constants.ParamAgentIdentifier)
	if strings.TrimSpace(agentID) == "" {
		return nil, &ValidationError{
			Field:       constants.ParamAgentIdentifier,
			Message:     "agent identifier is required",
			Description: "Set the agentIdentifier parameter to the identifier of the agent to invoke.",
		}
	}

	body := map[string]any{}
	if ctxObj, ok := lenientObject(p, constants.ParamContext); ok {
		body["context"] = ctxObj
	}
	prompt := p.String(constants.ParamPrompt)
	if prompt != "" || profile == nil || profile.AlwaysSendPrompt {
		body["prompt"] = prompt
	}
	if labels, ok := lenientObject(p, constants.ParamLabels); ok {
		body["labels"] = labels
	}
	if provider := p.String(constants.ParamProvider); provider != "" {
		body["provider"] = provider
	}
	if model := p.String(constants.ParamModel); model != "" {
		body["model"] = model
	}

	return &InvocationRequest{
		Operation: constants.OpInvokeAgent,
		Method:    constants.HTTPMethodPOST,
		Path:      fmt.Sprintf(constants.PathAgentInvoke, escapeComponent(agentID)),
		Query: Query{
			{Key: constants.QueryInvocationIdentifier, Value: p.String(constants.ParamInvocationIdentifier)},
			{Key: constants.QueryStream, Value: p.Bool(constants.ParamStream)},
			{Key: constants.QueryUseMCP, Value: p.Bool(constants.ParamUseMCP)},
		},
		Body:       body,
		Identifier: agentID,
	}, nil
}

// BuildGeneralInvoke builds POST /v1/ai/invoke. The tools field must be a JSON
// array; anything else fails before a request exists.
func BuildGeneralInvoke(p Params) (*InvocationRequest, error) {
	tools, err := strictArray(p, constants.ParamTools)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"userPrompt": p.String(constants.ParamUserPrompt),
		"tools":      tools,
	}
	if labels, ok := lenientObject(p, constants.ParamGeneralLabels); ok {
		body["labels"] = labels
	}
	optional := []struct{ param, field string }{
		{constants.ParamGeneralProvider, "provider"},
		{constants.ParamGeneralModel, "model"},
		{constants.ParamSystemPrompt, "systemPrompt"},
		{constants.ParamExecutionMode, "executionMode"},
	}
	for _, o := range optional {
		if v := p.String(o.param); v != "" {
			body[o.field] = v
		}
	}

	invocationID := p.String(constants.ParamInvocationIdentifier)
	return &InvocationRequest{
		Operation: constants.OpGeneralInvoke,
		Method:    constants.HTTPMethodPOST,
		Path:      constants.PathAIInvoke,
		Query: Query{
			{Key: constants.QueryInvocationIdentifier, Value: invocationID},
		},
		Body:       body,
		Identifier: invocationID,
	}, nil
}

// BuildGetInvocation builds GET /v1/ai/invoke/{invocationIdentifier}.
func BuildGetInvocation(p Params, profile *Profile) (*InvocationRequest, error) {
	keys := []string{constants.ParamInvocationIdentifier, constants.ParamInvocationID}
	if profile != nil && len(profile.InvocationIDParams) > 0 {
		keys = profile.InvocationIDParams
	}
	var invocationID string
	for _, k := range keys {
		if v := p.String(k); v != "" {
			invocationID = v
			break
		}
	}
	if strings.TrimSpace(invocationID) == "" {
		return nil, &ValidationError{
			Field:       keys[0],
			Message:     "invocation identifier is required",
			Description: "Set the invocation identifier returned by a previous invocation.",
		}
	}
	return &InvocationRequest{
		Operation:  constants.OpGetInvocation,
		Method:     constants.HTTPMethodGET,
		Path:       fmt.Sprintf(constants.PathAIInvocation, escapeComponent(invocationID)),
		Identifier: invocationID,
	}, nil
}
