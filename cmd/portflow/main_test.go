package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/awantoch/portflow/port"
	"github.com/awantoch/portflow/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSSE = "event: invocationIdentifier\ndata: abc-123\n\nevent: execution\ndata: step 1 done\n\nevent: done\ndata: {\"ok\":true}\n\n"

func captureOutput(f func()) string {
	r, w, _ := os.Pipe()
	utils.SetUserOutput(w)
	f()
	w.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		log.Printf("buf.ReadFrom failed: %v", err)
	}
	utils.SetUserOutput(os.Stdout)
	return buf.String()
}

func captureStderrExit(f func()) (string, int) {
	origExit := exit
	r, w, _ := os.Pipe()
	utils.SetInternalOutput(w)
	exitCode := 0
	exit = func(code int) {
		exitCode = code
		panic("exit")
	}
	func() {
		defer func() {
			if err := recover(); err != nil && err != "exit" {
				panic(err)
			}
		}()
		f()
	}()
	w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		log.Printf("io.Copy failed: %v", err)
	}
	utils.SetInternalOutput(os.Stderr)
	exit = origExit
	return buf.String(), exitCode
}

func execute(args ...string) {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		log.Printf("Execute failed: %v", err)
	}
}

// fakePort points the CLI at an httptest Port API through the environment.
func fakePort(t *testing.T, tokenStatus int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/auth/access_token" {
			w.WriteHeader(tokenStatus)
			_, _ = w.Write([]byte(`{"accessToken":"tok"}`))
			return
		}
		_, _ = w.Write([]byte(sampleSSE))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("PORT_BASE_URL", srv.URL)
	t.Setenv("PORT_CLIENT_ID", "id")
	t.Setenv("PORT_CLIENT_SECRET", "secret")
}

func writeBatch(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "portflow.config.json")
}

func TestOptionsCommand(t *testing.T) {
	out := captureOutput(func() { execute("options", "--config", missingConfig(t)) })
	assert.Contains(t, out, `"providers"`)
	assert.Contains(t, out, `"Approval Required"`)
	assert.Contains(t, out, `"Invoke a Specific Agent"`)
}

func TestRunCommand(t *testing.T) {
	fakePort(t, http.StatusOK)
	batch := writeBatch(t, "items:\n  - params: {agentIdentifier: triage, prompt: hi}\n")

	var code int
	out := captureOutput(func() {
		_, code = captureStderrExit(func() { execute("run", batch, "--config", missingConfig(t)) })
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `"invocationIdentifier": "abc-123"`)
	assert.Contains(t, out, `"run_id"`)
}

func TestRunCommand_BadBatchFile(t *testing.T) {
	_, code := captureStderrExit(func() {
		execute("run", filepath.Join(t.TempDir(), "missing.yaml"), "--config", missingConfig(t))
	})
	assert.Equal(t, exitValidation, code)
}

func TestRunCommand_AuthenticationFailure(t *testing.T) {
	fakePort(t, http.StatusUnauthorized)
	batch := writeBatch(t, "items:\n  - params: {agentIdentifier: triage, prompt: hi}\n")
	stderr, code := captureStderrExit(func() { execute("run", batch, "--config", missingConfig(t)) })
	assert.Equal(t, exitAuthentication, code)
	assert.Contains(t, stderr, "failed to obtain access token")
	assert.NotContains(t, stderr, "secret")
}

func TestAuthTestCommand(t *testing.T) {
	fakePort(t, http.StatusOK)
	var code int
	out := captureOutput(func() {
		_, code = captureStderrExit(func() { execute("auth", "test", "--config", missingConfig(t)) })
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Credentials OK")
}

func TestHistoryCommand(t *testing.T) {
	_, code := captureStderrExit(func() { execute("history", "--run-id", "nope", "--config", missingConfig(t)) })
	assert.Equal(t, exitValidation, code)

	out := captureOutput(func() { execute("history", "--config", missingConfig(t)) })
	assert.Contains(t, out, "[]")
}

func TestHistoryShowAndDelete(t *testing.T) {
	fakePort(t, http.StatusOK)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "portflow.config.json")
	cfg := fmt.Sprintf(`{"storage":{"driver":"sqlite","dsn":%q},"blob":{"driver":"filesystem","directory":%q}}`,
		filepath.Join(dir, "history.db"), filepath.Join(dir, "archive"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	batch := writeBatch(t, "items:\n  - params: {agentIdentifier: triage, prompt: hi}\n")

	out := captureOutput(func() { execute("run", batch, "--config", cfgPath) })
	var res struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	out = captureOutput(func() { execute("history", "--run-id", res.RunID, "--config", cfgPath) })
	var invs []struct {
		ID        string `json:"id"`
		OutputURL string `json:"output_url"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &invs))
	require.Len(t, invs, 1)
	assert.Contains(t, invs[0].OutputURL, "file://")

	out = captureOutput(func() { execute("history", "show", invs[0].ID, "--output", "--config", cfgPath) })
	assert.Contains(t, out, `"invocationIdentifier": "abc-123"`)

	out = captureOutput(func() { execute("history", "delete", invs[0].ID, "--config", cfgPath) })
	assert.Contains(t, out, "Deleted invocation "+invs[0].ID)

	_, code := captureStderrExit(func() { execute("history", "show", invs[0].ID, "--config", cfgPath) })
	assert.Equal(t, exitFailure, code)

	_, code = captureStderrExit(func() { execute("history", "delete", "nope", "--config", cfgPath) })
	assert.Equal(t, exitValidation, code)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitAuthentication, exitCode(&port.AuthenticationError{Err: errors.New("x")}))
	assert.Equal(t, exitValidation, exitCode(&port.ValidationError{Message: "x"}))
	assert.Equal(t, exitValidation, exitCode(&port.UnknownOperationError{Operation: "x"}))
	assert.Equal(t, exitUpstream, exitCode(&port.UpstreamError{Err: errors.New("x")}))
	assert.Equal(t, exitFailure, exitCode(errors.New("x")))
}
