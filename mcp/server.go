package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/utils"
	mcp "github.com/metoro-io/mcp-golang"
	mcphttp "github.com/metoro-io/mcp-golang/transport/http"
	mcpstdio "github.com/metoro-io/mcp-golang/transport/stdio"
)

// ToolRegistration holds a tool's registration info for the MCP server.
type ToolRegistration struct {
	Name        string
	Description string
	Handler     any // must be a func(ctx, args) (*mcp.ToolResponse, error)
}

// Serve runs the MCP server until ctx is done. With stdio it speaks on
// stdin/stdout; otherwise it serves HTTP on addr at /mcp.
func Serve(ctx context.Context, stdio bool, addr string, tools []ToolRegistration) error {
	if !stdio {
		return serveHTTP(ctx, addr, tools)
	}
	utils.Info("Starting MCP server on stdio...")
	server := mcp.NewServer(mcpstdio.NewStdioServerTransport())
	if err := RegisterAllTools(server, tools); err != nil {
		return err
	}
	if err := server.Serve(); err != nil {
		return err
	}
	<-ctx.Done()
	utils.Info("Shutting down MCP stdio server")
	return nil
}

// serveHTTP serves until the listener fails or ctx is done, then closes the transport.
func serveHTTP(ctx context.Context, addr string, tools []ToolRegistration) error {
	utils.Info("Starting MCP server on HTTP at %s...", addr)
	transport := mcphttp.NewHTTPTransport(constants.RouteMCP).WithAddr(addr)
	server := mcp.NewServer(transport)
	if err := RegisterAllTools(server, tools); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve() }()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		utils.Info("Shutting down MCP HTTP server")
		return transport.Close()
	}
}

// RegisterAllTools registers all provided tools with the MCP server.
func RegisterAllTools(server *mcp.Server, tools []ToolRegistration) error {
	for _, t := range tools {
		if err := server.RegisterTool(t.Name, t.Description, t.Handler); err != nil {
			return utils.Errorf("failed to register MCP tool %s: %w", t.Name, err)
		}
	}
	return nil
}

// Argument types for the operation tools. JSON-typed fields are JSON text.

type InvokeAgentArgs struct {
	AgentIdentifier string `json:"agentIdentifier" jsonschema:"required,description=Identifier of the Port agent to invoke"`
	Prompt          string `json:"prompt" jsonschema:"required,description=Prompt for the agent"`
	Context         string `json:"context,omitempty" jsonschema:"description=JSON object with additional context"`
	Labels          string `json:"labels,omitempty" jsonschema:"description=JSON object of labels"`
	Provider        string `json:"provider,omitempty" jsonschema:"description=LLM provider"`
	Model           string `json:"model,omitempty" jsonschema:"description=LLM model"`
	// Query flags
	InvocationIdentifier string `json:"invocation_identifier,omitempty" jsonschema:"description=Identifier to assign to the invocation"`
	Stream               bool   `json:"stream,omitempty" jsonschema:"description=Ask Port to stream the response"`
	UseMCP               bool   `json:"use_mcp,omitempty" jsonschema:"description=Let the agent use Port's MCP tools"`
}

type GeneralInvokeArgs struct {
	UserPrompt           string `json:"userPrompt" jsonschema:"required,description=Prompt for the general-purpose interaction"`
	Tools                string `json:"tools,omitempty" jsonschema:"description=JSON array of tool name patterns"`
	Labels               string `json:"labels,omitempty" jsonschema:"description=JSON object of labels"`
	Provider             string `json:"provider,omitempty" jsonschema:"description=LLM provider"`
	Model                string `json:"model,omitempty" jsonschema:"description=LLM model"`
	SystemPrompt         string `json:"systemPrompt,omitempty" jsonschema:"description=System prompt"`
	ExecutionMode        string `json:"executionMode,omitempty" jsonschema:"description=Automatic or Approval Required"`
	InvocationIdentifier string `json:"invocation_identifier,omitempty" jsonschema:"description=Identifier to assign to the invocation"`
}

type GetInvocationArgs struct {
	InvocationIdentifier string `json:"invocation_identifier" jsonschema:"required,description=Identifier returned by a previous invocation"`
}

type EmptyArgs struct{}
