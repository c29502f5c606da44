package constants

// ============================================================================
// OPERATIONS
// ============================================================================

// Operation names, in menu order.
const (
	OpInvokeAgent   = "invokeAgent"
	OpGeneralInvoke = "generalInvoke"
	OpGetInvocation = "getInvocation"
)

// DefaultOperation is used when an item names no operation.
const DefaultOperation = OpInvokeAgent

// SSE event types with special meaning.
const (
	EventInvocationIdentifier = "invocationIdentifier"
	EventExecution            = "execution"
	EventDone                 = "done"
)

// ============================================================================
// PARAMETERS
// ============================================================================

// Parameter names read from an item's parameter bag.
const (
	ParamOperation            = "operation"
	ParamAgentIdentifier      = "agentIdentifier"
	ParamPrompt               = "prompt"
	ParamContext              = "context"
	ParamLabels               = "labels"
	ParamProvider             = "provider"
	ParamModel                = "model"
	ParamInvocationIdentifier = "invocation_identifier"
	ParamInvocationID         = "invocationId"
	ParamStream               = "stream"
	ParamUseMCP               = "use_mcp"
	ParamUserPrompt           = "userPrompt"
	ParamTools                = "tools"
	ParamGeneralLabels        = "generalLabels"
	ParamGeneralProvider      = "generalProvider"
	ParamGeneralModel         = "generalModel"
	ParamSystemPrompt         = "systemPrompt"
	ParamExecutionMode        = "executionMode"
)

// Query string keys sent upstream.
const (
	QueryInvocationIdentifier = "invocation_identifier"
	QueryStream               = "stream"
	QueryUseMCP               = "use_mcp"
)

// Profiles name the two node configurations sharing one core.
const (
	ProfilePortAPIAI = "portApiAi"
	ProfilePortIO    = "portIo"
)

// DefaultToolsPattern matches Port's read-only and run tools.
const DefaultToolsPattern = `["^(list|get|search|track|describe|run_*)_.*"]`

// ============================================================================
// EVENTS
// ============================================================================

// Topics published on the event bus after each item.
const (
	TopicInvocationCompleted = "invocation.completed"
	TopicInvocationFailed    = "invocation.failed"
)

// ArchiveMIME is the content type of archived output documents.
const ArchiveMIME = "application/json"

// ============================================================================
// CLI
// ============================================================================

// Command names
const (
	CmdRun     = "run"
	CmdServe   = "serve"
	CmdMCP     = "mcp"
	CmdAuth    = "auth"
	CmdOptions = "options"
	CmdHistory = "history"
)

// Command descriptions
const (
	DescRoot    = "Invoke Port AI agents and fetch invocation results"
	DescRun     = "Execute a batch file of Port AI operations"
	DescServe   = "Serve the Port AI operations over HTTP"
	DescMCP     = "MCP server commands"
	DescAuth    = "Credential commands"
	DescOptions = "List provider, model and execution mode options"
	DescHistory = "List recorded invocations"
)

// JSONIndent is used for all pretty-printed output.
const JSONIndent = "  "
