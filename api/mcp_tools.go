package api

import (
	"context"
	"encoding/json"

	"github.com/awantoch/portflow/constants"
	mcpserver "github.com/awantoch/portflow/mcp"
	"github.com/awantoch/portflow/model"
	mcp "github.com/metoro-io/mcp-golang"
)

// MCPToolOptions names the options listing tool.
const MCPToolOptions = "listOptions"

// BuildMCPToolRegistrations exposes each operation as an MCP tool that runs
// a one-item batch, plus the options listing.
func BuildMCPToolRegistrations(svc InvocationService) []mcpserver.ToolRegistration {
	desc := map[string]string{}
	for _, d := range svc.Operations() {
		desc[d.ID] = d.Action + " (" + d.Description + ")"
	}
	return []mcpserver.ToolRegistration{
		{
			Name:        constants.OpInvokeAgent,
			Description: desc[constants.OpInvokeAgent],
			Handler: func(ctx context.Context, args mcpserver.InvokeAgentArgs) (*mcp.ToolResponse, error) {
				return runTool(ctx, svc, compact(map[string]any{
					constants.ParamOperation:            constants.OpInvokeAgent,
					constants.ParamAgentIdentifier:      args.AgentIdentifier,
					constants.ParamPrompt:               args.Prompt,
					constants.ParamContext:              args.Context,
					constants.ParamLabels:               args.Labels,
					constants.ParamProvider:             args.Provider,
					constants.ParamModel:                args.Model,
					constants.ParamInvocationIdentifier: args.InvocationIdentifier,
					constants.ParamStream:               args.Stream,
					constants.ParamUseMCP:               args.UseMCP,
				}))
			},
		},
		{
			Name:        constants.OpGeneralInvoke,
			Description: desc[constants.OpGeneralInvoke],
			Handler: func(ctx context.Context, args mcpserver.GeneralInvokeArgs) (*mcp.ToolResponse, error) {
				return runTool(ctx, svc, compact(map[string]any{
					constants.ParamOperation:            constants.OpGeneralInvoke,
					constants.ParamUserPrompt:           args.UserPrompt,
					constants.ParamTools:                args.Tools,
					constants.ParamGeneralLabels:        args.Labels,
					constants.ParamGeneralProvider:      args.Provider,
					constants.ParamGeneralModel:         args.Model,
					constants.ParamSystemPrompt:         args.SystemPrompt,
					constants.ParamExecutionMode:        args.ExecutionMode,
					constants.ParamInvocationIdentifier: args.InvocationIdentifier,
				}))
			},
		},
		{
			Name:        constants.OpGetInvocation,
			Description: desc[constants.OpGetInvocation],
			Handler: func(ctx context.Context, args mcpserver.GetInvocationArgs) (*mcp.ToolResponse, error) {
				return runTool(ctx, svc, compact(map[string]any{
					constants.ParamOperation:            constants.OpGetInvocation,
					constants.ParamInvocationIdentifier: args.InvocationIdentifier,
				}))
			},
		},
		{
			Name:        MCPToolOptions,
			Description: constants.DescOptions,
			Handler: func(ctx context.Context, args mcpserver.EmptyArgs) (*mcp.ToolResponse, error) {
				return jsonResponse(svc.Options())
			},
		},
	}
}

// compact drops empty strings and false flags so profile defaults still apply.
func compact(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v == "" || v == false {
			continue
		}
		out[k] = v
	}
	return out
}

func runTool(ctx context.Context, svc InvocationService, params map[string]any) (*mcp.ToolResponse, error) {
	res, err := svc.Execute(ctx, &model.Batch{Literal: true, Items: []model.Item{{Params: params}}})
	if err != nil {
		return nil, err
	}
	return jsonResponse(res.Outputs[0])
}

func jsonResponse(v any) (*mcp.ToolResponse, error) {
	b, err := json.MarshalIndent(v, "", constants.JSONIndent)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResponse(mcp.NewTextContent(string(b))), nil
}
