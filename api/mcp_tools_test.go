package api

import (
	"context"
	"encoding/json"
	"testing"

	mcpserver "github.com/awantoch/portflow/mcp"
	mcp "github.com/metoro-io/mcp-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolText(t *testing.T, resp *mcp.ToolResponse) string {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.Content)
	require.NotNil(t, resp.Content[0].TextContent)
	return resp.Content[0].TextContent.Text
}

func TestBuildMCPToolRegistrations(t *testing.T) {
	fp, srv := newFakePort(t)
	svc := newTestService(t, credsConfig(), srv.URL)
	regs := BuildMCPToolRegistrations(svc)

	byName := map[string]mcpserver.ToolRegistration{}
	for _, r := range regs {
		byName[r.Name] = r
	}
	require.Len(t, byName, 4)
	assert.Contains(t, byName["invokeAgent"].Description, "POST /v1/agent/:agentIdentifier/invoke")

	ctx := context.Background()
	invoke := byName["invokeAgent"].Handler.(func(context.Context, mcpserver.InvokeAgentArgs) (*mcp.ToolResponse, error))
	resp, err := invoke(ctx, mcpserver.InvokeAgentArgs{AgentIdentifier: "triage", Prompt: "hi"})
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(toolText(t, resp)), &out))
	assert.Equal(t, "abc-123", out["invocationIdentifier"])

	get := byName["getInvocation"].Handler.(func(context.Context, mcpserver.GetInvocationArgs) (*mcp.ToolResponse, error))
	resp, err = get(ctx, mcpserver.GetInvocationArgs{InvocationIdentifier: "abc-123"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, toolText(t, resp))

	general := byName["generalInvoke"].Handler.(func(context.Context, mcpserver.GeneralInvokeArgs) (*mcp.ToolResponse, error))
	_, err = general(ctx, mcpserver.GeneralInvokeArgs{UserPrompt: "x", Tools: "not json"})
	assert.ErrorContains(t, err, "tools")

	assert.Contains(t, fp.served(), "POST /v1/agent/triage/invoke")
	assert.Contains(t, fp.served(), "GET /v1/ai/invoke/abc-123")

	opts := byName[MCPToolOptions].Handler.(func(context.Context, mcpserver.EmptyArgs) (*mcp.ToolResponse, error))
	resp, err = opts(ctx, mcpserver.EmptyArgs{})
	require.NoError(t, err)
	assert.Contains(t, toolText(t, resp), `"executionModes"`)
}

func TestMCPTools_ArgumentsAreNotExpressions(t *testing.T) {
	fp, srv := newFakePort(t)
	svc := newTestService(t, credsConfig(), srv.URL)
	var invoke func(context.Context, mcpserver.InvokeAgentArgs) (*mcp.ToolResponse, error)
	for _, r := range BuildMCPToolRegistrations(svc) {
		if r.Name == "invokeAgent" {
			invoke = r.Handler.(func(context.Context, mcpserver.InvokeAgentArgs) (*mcp.ToolResponse, error))
		}
	}
	require.NotNil(t, invoke)

	prompt := "={{ .Values.image }} and {{customer_name}}"
	_, err := invoke(context.Background(), mcpserver.InvokeAgentArgs{AgentIdentifier: "triage", Prompt: prompt})
	require.NoError(t, err)

	fp.mu.Lock()
	defer fp.mu.Unlock()
	require.Len(t, fp.bodies, 1)
	assert.Equal(t, prompt, fp.bodies[0]["prompt"])
}

func TestMCPTools_InvokeAgentQueryFlags(t *testing.T) {
	fp, srv := newFakePort(t)
	svc := newTestService(t, credsConfig(), srv.URL)
	var invoke func(context.Context, mcpserver.InvokeAgentArgs) (*mcp.ToolResponse, error)
	var general func(context.Context, mcpserver.GeneralInvokeArgs) (*mcp.ToolResponse, error)
	for _, r := range BuildMCPToolRegistrations(svc) {
		switch r.Name {
		case "invokeAgent":
			invoke = r.Handler.(func(context.Context, mcpserver.InvokeAgentArgs) (*mcp.ToolResponse, error))
		case "generalInvoke":
			general = r.Handler.(func(context.Context, mcpserver.GeneralInvokeArgs) (*mcp.ToolResponse, error))
		}
	}

	_, err := invoke(context.Background(), mcpserver.InvokeAgentArgs{
		AgentIdentifier: "triage", Prompt: "hi", InvocationIdentifier: "inv-1", UseMCP: true,
	})
	require.NoError(t, err)
	_, err = general(context.Background(), mcpserver.GeneralInvokeArgs{
		UserPrompt: "hi", Tools: `["^list_.*"]`, InvocationIdentifier: "inv-2",
	})
	require.NoError(t, err)

	fp.mu.Lock()
	defer fp.mu.Unlock()
	assert.Contains(t, fp.queries, "/v1/agent/triage/invoke?invocation_identifier=inv-1&use_mcp=true")
	assert.Contains(t, fp.queries, "/v1/ai/invoke?invocation_identifier=inv-2")
}

func TestCompact(t *testing.T) {
	assert.Equal(t, map[string]any{"a": "1", "c": true}, compact(map[string]any{"a": "1", "b": "", "c": true, "d": false}))
}
