package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/event"
	porthttp "github.com/awantoch/portflow/http"
	"github.com/awantoch/portflow/utils"
	"github.com/spf13/cobra"
)

// newServeCmd creates the 'serve' subcommand.
func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   constants.CmdServe,
		Short: constants.DescServe,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			svc, cfg, cleanup, err := initService(ctx)
			if err != nil {
				utils.Error("Failed to initialize: %v", err)
				exit(exitFailure)
				return
			}
			defer cleanup()
			if err := svc.WatchEvents(ctx, logInvocationEvent); err != nil {
				utils.Warn("Failed to watch invocation events: %v", err)
			}
			if addr == "" {
				addr = fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
			}
			if err := porthttp.StartServer(ctx, addr, svc); err != nil {
				utils.Error("Server failed: %v", err)
				cleanup()
				exit(exitFailure)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to http.host:http.port from config)")
	return cmd
}

// logInvocationEvent is the serve command's sink for invocation events.
func logInvocationEvent(topic string, evt *event.InvocationEvent) {
	fields := []any{"topic", topic, "run_id", evt.RunID, "index", evt.Index, "operation", evt.Operation, "status", evt.Status}
	if evt.InvocationIdentifier != "" {
		fields = append(fields, "invocation_identifier", evt.InvocationIdentifier)
	}
	if evt.Error != "" {
		fields = append(fields, "error", evt.Error)
	}
	utils.InfoCtx(context.Background(), "Invocation event", fields...)
}
