package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/awantoch/portflow/api"
	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/mcp"
	"github.com/awantoch/portflow/utils"
	"github.com/spf13/cobra"
)

// newMCPCmd creates the 'mcp' command group.
func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   constants.CmdMCP,
		Short: constants.DescMCP,
	}
	cmd.AddCommand(newMCPServeCmd())
	return cmd
}

func newMCPServeCmd() *cobra.Command {
	var (
		stdio bool
		addr  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Port AI operations as MCP tools",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			// stdout belongs to the protocol on stdio
			if stdio && !debug {
				utils.SetUserOutput(io.Discard)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			svc, _, cleanup, err := initService(ctx)
			if err != nil {
				utils.Error("Failed to initialize: %v", err)
				exit(exitFailure)
				return
			}
			defer cleanup()
			if err := mcp.Serve(ctx, stdio, addr, api.BuildMCPToolRegistrations(svc)); err != nil {
				utils.Error("MCP server failed: %v", err)
				cleanup()
				exit(exitFailure)
			}
		},
	}
	cmd.Flags().BoolVar(&stdio, "stdio", true, "Serve on stdin/stdout instead of HTTP")
	cmd.Flags().StringVar(&addr, "addr", "localhost:3030", "Listen address for the HTTP transport")
	return cmd
}
