package port

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/awantoch/portflow/constants"
)

// Observer receives one callback per upstream call: the operation (or
// "accessToken"), an outcome label and the elapsed time.
type Observer func(operation, outcome string, elapsed time.Duration)

// Client talks to the Port API below a normalized base URL.
type Client struct {
	baseURL   string
	transport Transport
	headers   map[string]string
	observer  Observer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport overrides the default net/http transport.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) { c.transport = t }
}

// WithHeaders adds extra headers to every API call except the token exchange.
// Entries with an empty name are skipped.
func WithHeaders(h map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range h {
			if k == "" {
				continue
			}
			c.headers[k] = v
		}
	}
}

// WithObserver registers a callback for every upstream call.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for baseURL, which is normalized and defaulted.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: BaseURLOrDefault(baseURL),
		headers: map[string]string{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(nil)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AccessToken exchanges client credentials for a bearer token. Every failure,
// including a response without a token, is an *AuthenticationError.
func (c *Client) AccessToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	tokenURL := c.baseURL + constants.PathAccessToken
	resp, err := c.do(ctx, "accessToken", &Request{
		Method: constants.HTTPMethodPOST,
		URL:    tokenURL,
		Headers: map[string]string{
			constants.HeaderAccept:      constants.ContentTypeJSON,
			constants.HeaderContentType: constants.ContentTypeJSON,
		},
		Body: map[string]any{"clientId": clientID, "clientSecret": clientSecret},
	})
	if err != nil {
		return "", &AuthenticationError{URL: tokenURL, BaseURL: c.baseURL, Err: err}
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", &AuthenticationError{URL: tokenURL, BaseURL: c.baseURL, Err: fmt.Errorf("invalid token response: %w", err)}
	}
	token, _ := payload["accessToken"].(string)
	if token == "" {
		return "", &AuthenticationError{
			URL:     tokenURL,
			BaseURL: c.baseURL,
			Err:     fmt.Errorf("response contained no access token: %s", string(resp.Body)),
		}
	}
	return token, nil
}

// InvokeAgent sends an invokeAgent request and decodes its SSE body.
func (c *Client) InvokeAgent(ctx context.Context, token string, req *InvocationRequest) (*InvocationResult, error) {
	resp, err := c.send(ctx, token, req)
	if err != nil {
		return nil, &UpstreamError{
			Operation:  req.Operation,
			Identifier: req.Identifier,
			Message:    fmt.Sprintf("failed to invoke agent %q", req.Identifier),
			Err:        err,
		}
	}
	return DecodeBody(resp.Body), nil
}

// GeneralInvoke sends a generalInvoke request and decodes its SSE body.
func (c *Client) GeneralInvoke(ctx context.Context, token string, req *InvocationRequest) (*InvocationResult, error) {
	resp, err := c.send(ctx, token, req)
	if err != nil {
		return nil, &UpstreamError{
			Operation:  req.Operation,
			Identifier: req.Identifier,
			Message:    "failed to invoke general AI interaction",
			Err:        err,
		}
	}
	return DecodeBody(resp.Body), nil
}

// GetInvocation fetches a previous invocation's result. The JSON object is
// returned unmodified.
func (c *Client) GetInvocation(ctx context.Context, token string, req *InvocationRequest) (map[string]any, error) {
	wrap := func(err error) error {
		return &UpstreamError{
			Operation:  req.Operation,
			Identifier: req.Identifier,
			Message:    fmt.Sprintf("failed to get invocation result %q", req.Identifier),
			Err:        err,
		}
	}
	resp, err := c.send(ctx, token, req)
	if err != nil {
		return nil, wrap(err)
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, wrap(fmt.Errorf("invalid JSON response: %w", err))
	}
	return out, nil
}

// send issues an authenticated API call. Bodies are only attached to non-GET requests.
func (c *Client) send(ctx context.Context, token string, req *InvocationRequest) (*Response, error) {
	headers := map[string]string{
		constants.HeaderAuthorization: "Bearer " + token,
		constants.HeaderAccept:        constants.ContentTypeJSON,
	}
	var body any
	if req.Method != constants.HTTPMethodGET {
		headers[constants.HeaderContentType] = constants.ContentTypeJSON
		if req.Body != nil {
			body = req.Body
		} else {
			body = map[string]any{}
		}
	}
	maps.Copy(headers, c.headers)
	return c.do(ctx, req.Operation, &Request{
		Method:  req.Method,
		URL:     c.baseURL + req.Target(),
		Headers: headers,
		Body:    body,
	})
}

func (c *Client) do(ctx context.Context, operation string, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := c.transport.Do(ctx, req)
	if c.observer != nil {
		c.observer(operation, outcome(resp, err), time.Since(start))
	}
	return resp, err
}

func outcome(resp *Response, err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return strconv.Itoa(se.StatusCode)
	case err != nil:
		return "error"
	case resp != nil:
		return strconv.Itoa(resp.StatusCode)
	default:
		return "unknown"
	}
}
