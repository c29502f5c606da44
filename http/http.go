package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/awantoch/portflow/api"
	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/parser"
	"github.com/awantoch/portflow/port"
	"github.com/awantoch/portflow/storage"
	"github.com/awantoch/portflow/telemetry"
	"github.com/awantoch/portflow/utils"
	"github.com/google/uuid"
)

// maxBatchBytes bounds POST /execute bodies.
const maxBatchBytes = 8 << 20

// NewHandler returns the host HTTP surface for svc, instrumented with tracing
// and request metrics.
func NewHandler(svc api.InvocationService) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, telemetry.WrapHandler(name, h))
	}
	handle("POST "+constants.RouteExecute, "execute", executeHandler(svc))
	handle("GET "+constants.RouteInvocations, "invocations", listInvocationsHandler(svc))
	handle("GET "+constants.RouteInvocation, "invocation", getInvocationHandler(svc))
	handle("DELETE "+constants.RouteInvocation, "invocation_delete", deleteInvocationHandler(svc))
	handle("GET "+constants.RouteInvocationOutput, "invocation_output", invocationOutputHandler(svc))
	handle("GET "+constants.RouteOperations, "operations", func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteHTTPJSON(w, svc.Operations())
	})
	handle("GET "+constants.RouteOptions, "options", func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteHTTPJSON(w, svc.Options())
	})
	handle("POST "+constants.RouteAuthTest, "auth_test", authTestHandler(svc))
	mux.HandleFunc("GET "+constants.RouteHealthz, func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteHTTPJSON(w, map[string]string{"status": "ok"})
	})
	mux.Handle("GET "+constants.RouteMetrics, telemetry.MetricsHandler())
	return mux
}

// StartServer serves svc on addr until ctx is done, then shuts down gracefully.
func StartServer(ctx context.Context, addr string, svc api.InvocationService) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(svc),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.New(&utils.LoggerWriter{Fn: utils.Warn, Prefix: "http: "}, "", 0),
	}
	errCh := make(chan error, 1)
	go func() {
		utils.Info("Listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		utils.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// executeResponse is the body of POST /execute, also on failure.
type executeResponse struct {
	RunID   string           `json:"run_id,omitempty"`
	Outputs []map[string]any `json:"outputs"`
	Error   string           `json:"error,omitempty"`
}

// POST /execute with a JSON batch body.
func executeHandler(svc api.InvocationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBatchBytes))
		if err != nil {
			utils.WriteHTTPError(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		batch, err := parser.ParseBatch(body)
		if err != nil {
			utils.WriteHTTPError(w, fmt.Sprintf("invalid batch: %v", err), http.StatusBadRequest)
			return
		}
		res, err := svc.Execute(r.Context(), batch)
		resp := executeResponse{Outputs: []map[string]any{}}
		if res != nil {
			resp.RunID = res.RunID.String()
			resp.Outputs = res.Outputs
		}
		if err != nil {
			resp.Error = err.Error()
			writeJSONStatus(w, StatusCode(err), resp)
			return
		}
		_ = utils.WriteHTTPJSON(w, resp)
	}
}

// GET /invocations?run_id=&operation=&limit=
func listInvocationsHandler(svc api.InvocationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var filter storage.ListFilter
		if v := q.Get("run_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				utils.WriteHTTPError(w, "invalid run_id", http.StatusBadRequest)
				return
			}
			filter.RunID = id
		}
		filter.Operation = q.Get("operation")
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				utils.WriteHTTPError(w, "invalid limit", http.StatusBadRequest)
				return
			}
			filter.Limit = n
		}
		invs, err := svc.ListInvocations(r.Context(), filter)
		if err != nil {
			utils.WriteHTTPError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = utils.WriteHTTPJSON(w, invs)
	}
}

// GET /invocations/{id}
func getInvocationHandler(svc api.InvocationService) http.HandlerFunc {
	return withInvocationID(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		inv, err := svc.GetInvocation(r.Context(), id)
		if writeLookupError(w, err) {
			return
		}
		_ = utils.WriteHTTPJSON(w, inv)
	})
}

// GET /invocations/{id}/output
func invocationOutputHandler(svc api.InvocationService) http.HandlerFunc {
	return withInvocationID(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		out, err := svc.InvocationOutput(r.Context(), id)
		if writeLookupError(w, err) {
			return
		}
		_ = utils.WriteHTTPJSON(w, out)
	})
}

// DELETE /invocations/{id}
func deleteInvocationHandler(svc api.InvocationService) http.HandlerFunc {
	return withInvocationID(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if writeLookupError(w, svc.DeleteInvocation(r.Context(), id)) {
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func withInvocationID(h func(http.ResponseWriter, *http.Request, uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			utils.WriteHTTPError(w, "invalid invocation id", http.StatusBadRequest)
			return
		}
		h(w, r, id)
	}
}

// writeLookupError writes the response for a failed history lookup and
// reports whether it did.
func writeLookupError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, storage.ErrNotFound):
		utils.WriteHTTPError(w, "invocation not found", http.StatusNotFound)
	default:
		utils.WriteHTTPError(w, err.Error(), http.StatusInternalServerError)
	}
	return true
}

// POST /auth/test
func authTestHandler(svc api.InvocationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.TestCredentials(r.Context()); err != nil {
			utils.WriteHTTPError(w, err.Error(), StatusCode(err))
			return
		}
		_ = utils.WriteHTTPJSON(w, map[string]string{"status": "ok"})
	}
}

// StatusCode maps an execution error to an HTTP status.
func StatusCode(err error) int {
	var (
		verr *port.ValidationError
		uoe  *port.UnknownOperationError
		aerr *port.AuthenticationError
		uerr *port.UpstreamError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &uoe):
		return http.StatusBadRequest
	case errors.As(err, &aerr):
		return http.StatusUnauthorized
	case errors.As(err, &uerr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
