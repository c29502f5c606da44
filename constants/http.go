package constants

// HTTP Methods
const (
	HTTPMethodGET  = "GET"
	HTTPMethodPOST = "POST"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
)

// HTTP Headers
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
)

// Port API routes, relative to the normalized base URL.
const (
	PathAccessToken   = "/v1/auth/access_token"
	PathAgentInvoke   = "/v1/agent/%s/invoke"
	PathAIInvoke      = "/v1/ai/invoke"
	PathAIInvocation  = "/v1/ai/invoke/%s"
	VersionPathSuffix = "/v1"
)

// Host HTTP surface
const (
	RouteExecute          = "/execute"
	RouteInvocations      = "/invocations"
	RouteInvocation       = "/invocations/{id}"
	RouteInvocationOutput = "/invocations/{id}/output"
	RouteOperations       = "/operations"
	RouteOptions          = "/options"
	RouteAuthTest         = "/auth/test"
	RouteHealthz          = "/healthz"
	RouteMetrics          = "/metrics"
	RouteMCP              = "/mcp"
)
