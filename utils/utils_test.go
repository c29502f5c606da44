package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserOutput(t *testing.T) {
	var buf bytes.Buffer
	SetUserOutput(&buf)
	defer SetUserOutput(nil)

	User("hello %s", "port")
	assert.Equal(t, "hello port\n", buf.String())
}

func TestInternalOutputAndErrorf(t *testing.T) {
	var buf bytes.Buffer
	SetInternalOutput(&buf)
	defer SetInternalOutput(nil)

	Info("info %d", 1)
	Warn("warn %d", 2)
	Debug("debug %d", 3)
	err := Errorf("wrapped: %w", errors.New("boom"))

	require.Error(t, err)
	assert.Equal(t, "wrapped: boom", err.Error())
	out := buf.String()
	for _, want := range []string{"info 1", "warn 2", "debug 3", "wrapped: boom"} {
		assert.Contains(t, out, want)
	}
}

func TestContextLoggingIncludesRunID(t *testing.T) {
	var buf bytes.Buffer
	SetInternalOutput(&buf)
	defer SetInternalOutput(nil)

	ctx := WithRunID(context.Background(), "run-42")
	id, ok := RunIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "run-42", id)

	InfoCtx(ctx, "item done", "index", 0)
	ErrorCtx(context.Background(), "item failed", "index", 1)

	out := buf.String()
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "item failed")
	_, ok = RunIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestLoggerWriter(t *testing.T) {
	var lines []string
	w := &LoggerWriter{Fn: func(format string, v ...any) {
		lines = append(lines, fmt.Sprintf(format, v...))
	}, Prefix: "> "}

	n, err := w.Write([]byte("one\n\n  \ntwo\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, []string{"> one", "> two"}, lines)
}

func TestSetMode(t *testing.T) {
	SetMode("debug")
	assert.True(t, IsDebug())
	SetMode("production")
	t.Setenv("PORTFLOW_DEBUG", "")
	assert.False(t, IsDebug())
}

func TestWriteHTTPHelpers(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteHTTPJSON(rec, map[string]any{"ok": true}))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteHTTPError(rec, "bad input", http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Bad Request","message":"bad input","code":400}`, rec.Body.String())
}
