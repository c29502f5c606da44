package port

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTransport answers every call with a fixed response and records requests.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*Request
	resp     *Response
	err      error
}

func (t *recordingTransport) Do(_ context.Context, req *Request) (*Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	return t.resp, t.err
}

func newPortServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_AccessToken(t *testing.T) {
	srv := newPortServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/auth/access_token", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("X-Team"), "extra headers must not reach the token exchange")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"clientId": "id", "clientSecret": "secret"}, body)
		_, _ = w.Write([]byte(`{"accessToken":"tok"}`))
	})

	c := NewClient(srv.URL+"/v1/", WithHeaders(map[string]string{"X-Team": "a"}))
	assert.Equal(t, srv.URL, c.BaseURL())
	token, err := c.AccessToken(context.Background(), "id", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestClient_AccessToken_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"missing token": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		},
		"empty token": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"accessToken":""}`))
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`nope`))
		},
		"unauthorized": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"bad credentials"}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newPortServer(t, h)
			c := NewClient(srv.URL)
			token, err := c.AccessToken(context.Background(), "id", "secret")
			assert.Empty(t, token)
			var ae *AuthenticationError
			require.True(t, errors.As(err, &ae), "got %v", err)
			assert.Equal(t, srv.URL+"/v1/auth/access_token", ae.URL)
			assert.Contains(t, err.Error(), "Please verify your base URL")
		})
	}
}

func TestClient_AccessToken_StatusIsUnwrappable(t *testing.T) {
	srv := newPortServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := NewClient(srv.URL).AccessToken(context.Background(), "id", "secret")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestClient_InvokeAgent(t *testing.T) {
	srv := newPortServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/agent/triage/invoke", r.URL.Path)
		assert.Equal(t, "stream=true", r.URL.RawQuery)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "a", r.Header.Get("X-Team"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "why is checkout slow?", body["prompt"])
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sampleStream)
	})

	c := NewClient(srv.URL, WithHeaders(map[string]string{"X-Team": "a", "": "skipped"}))
	req, err := BuildInvokeAgent(Params{
		"agentIdentifier": "triage",
		"prompt":          "why is checkout slow?",
		"stream":          true,
	}, PortAPIAIProfile)
	require.NoError(t, err)

	res, err := c.InvokeAgent(context.Background(), "tok", req)
	require.NoError(t, err)
	require.NotNil(t, res.InvocationIdentifier)
	assert.Equal(t, "abc-123", *res.InvocationIdentifier)
	assert.Equal(t, map[string]any{"ok": true}, res.FinalData)
}

func TestClient_InvokeAgent_UpstreamError(t *testing.T) {
	srv := newPortServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})
	req, err := BuildInvokeAgent(Params{"agentIdentifier": "triage", "prompt": "p"}, nil)
	require.NoError(t, err)

	_, err = NewClient(srv.URL).InvokeAgent(context.Background(), "tok", req)
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "invokeAgent", ue.Operation)
	assert.Equal(t, "triage", ue.Identifier)
	assert.Contains(t, err.Error(), `failed to invoke agent "triage"`)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_GeneralInvoke(t *testing.T) {
	tr := &recordingTransport{resp: &Response{StatusCode: 200, Body: []byte("event: execution\ndata: hi\n\n")}}
	c := NewClient("https://example.test/", WithTransport(tr))

	req, err := BuildGeneralInvoke(Params{"userPrompt": "hi", "tools": `["a"]`, "invocation_identifier": "x"})
	require.NoError(t, err)
	res, err := c.GeneralInvoke(context.Background(), "tok", req)
	require.NoError(t, err)
	assert.Equal(t, "hi", res.ExecutionMessage)

	require.Len(t, tr.requests, 1)
	sent := tr.requests[0]
	assert.Equal(t, "POST", sent.Method)
	assert.Equal(t, "https://example.test/v1/ai/invoke?invocation_identifier=x", sent.URL)
	assert.Equal(t, "application/json", sent.Headers["Content-Type"])
	assert.Equal(t, req.Body, sent.Body)
}

func TestClient_GeneralInvoke_InvalidToolsSendsNothing(t *testing.T) {
	tr := &recordingTransport{resp: &Response{StatusCode: 200}}
	c := NewClient("https://example.test", WithTransport(tr))

	req, err := BuildGeneralInvoke(Params{"userPrompt": "hi", "tools": "not json"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Nil(t, req)
	assert.Empty(t, tr.requests)
	assert.Equal(t, "https://example.test", c.BaseURL())
}

func TestClient_GetInvocation(t *testing.T) {
	srv := newPortServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/ai/invoke/inv-9", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"status":"Completed","message":"done"}}`))
	})
	req, err := BuildGetInvocation(Params{"invocation_identifier": "inv-9"}, PortAPIAIProfile)
	require.NoError(t, err)

	out, err := NewClient(srv.URL).GetInvocation(context.Background(), "tok", req)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"ok":     true,
		"result": map[string]any{"status": "Completed", "message": "done"},
	}, out)
}

func TestClient_GetInvocation_Errors(t *testing.T) {
	req, err := BuildGetInvocation(Params{"invocation_identifier": "inv-9"}, nil)
	require.NoError(t, err)

	tr := &recordingTransport{resp: &Response{StatusCode: 200, Body: []byte("<html>")}}
	_, err = NewClient("https://example.test", WithTransport(tr)).GetInvocation(context.Background(), "tok", req)
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Contains(t, err.Error(), `failed to get invocation result "inv-9"`)

	tr = &recordingTransport{err: errors.New("connection refused")}
	_, err = NewClient("https://example.test", WithTransport(tr)).GetInvocation(context.Background(), "tok", req)
	require.True(t, errors.As(err, &ue))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestClient_Observer(t *testing.T) {
	type call struct{ op, outcome string }
	var calls []call
	obs := func(op, outcome string, _ time.Duration) { calls = append(calls, call{op, outcome}) }

	tr := &recordingTransport{err: &StatusError{StatusCode: 429}}
	c := NewClient("https://example.test", WithTransport(tr), WithObserver(obs))
	req, _ := BuildGetInvocation(Params{"invocation_identifier": "x"}, nil)
	_, _ = c.GetInvocation(context.Background(), "tok", req)

	tr.err = nil
	tr.resp = &Response{StatusCode: 200, Body: []byte(`{"accessToken":"t"}`)}
	_, _ = c.AccessToken(context.Background(), "id", "secret")

	assert.Equal(t, []call{{"getInvocation", "429"}, {"accessToken", "200"}}, calls)
}
