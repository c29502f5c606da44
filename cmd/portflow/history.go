package main

import (
	"encoding/json"

	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/storage"
	"github.com/awantoch/portflow/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newHistoryCmd creates the 'history' subcommand.
func newHistoryCmd() *cobra.Command {
	var (
		runID     string
		operation string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   constants.CmdHistory,
		Short: constants.DescHistory,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			filter := storage.ListFilter{Operation: operation, Limit: limit}
			if runID != "" {
				id, err := uuid.Parse(runID)
				if err != nil {
					utils.Error("Invalid run ID %q: %v", runID, err)
					exit(exitValidation)
					return
				}
				filter.RunID = id
			}
			svc, _, cleanup, err := initService(cmd.Context())
			if err != nil {
				utils.Error("Failed to initialize: %v", err)
				exit(exitFailure)
				return
			}
			defer cleanup()
			invs, err := svc.ListInvocations(cmd.Context(), filter)
			if err != nil {
				utils.Error("Failed to list invocations: %v", err)
				cleanup()
				exit(exitFailure)
				return
			}
			out, err := json.MarshalIndent(invs, "", constants.JSONIndent)
			if err != nil {
				utils.Error("Failed to encode invocations: %v", err)
				return
			}
			utils.User("%s", out)
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "Only show invocations of this run")
	cmd.Flags().StringVar(&operation, "operation", "", "Only show invocations of this operation")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of invocations (0 for all)")
	cmd.AddCommand(newHistoryShowCmd(), newHistoryDeleteCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var output bool
	cmd := &cobra.Command{
		Use:   "show <invocation id>",
		Short: "Show one recorded invocation",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, ok := parseInvocationID(args[0])
			if !ok {
				return
			}
			svc, _, cleanup, err := initService(cmd.Context())
			if err != nil {
				utils.Error("Failed to initialize: %v", err)
				exit(exitFailure)
				return
			}
			defer cleanup()
			var v any
			if output {
				v, err = svc.InvocationOutput(cmd.Context(), id)
			} else {
				v, err = svc.GetInvocation(cmd.Context(), id)
			}
			if err != nil {
				utils.Error("Failed to read invocation %s: %v", id, err)
				cleanup()
				exit(exitFailure)
				return
			}
			out, err := json.MarshalIndent(v, "", constants.JSONIndent)
			if err != nil {
				utils.Error("Failed to encode invocation: %v", err)
				return
			}
			utils.User("%s", out)
		},
	}
	cmd.Flags().BoolVar(&output, "output", false, "Print only the output, read from the archive when one was written")
	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <invocation id>",
		Short: "Delete one recorded invocation",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, ok := parseInvocationID(args[0])
			if !ok {
				return
			}
			svc, _, cleanup, err := initService(cmd.Context())
			if err != nil {
				utils.Error("Failed to initialize: %v", err)
				exit(exitFailure)
				return
			}
			defer cleanup()
			if err := svc.DeleteInvocation(cmd.Context(), id); err != nil {
				utils.Error("Failed to delete invocation %s: %v", id, err)
				cleanup()
				exit(exitFailure)
				return
			}
			utils.User("Deleted invocation %s", id)
		},
	}
}

// parseInvocationID exits with the validation code when s is not a UUID.
func parseInvocationID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		utils.Error("Invalid invocation ID %q: %v", s, err)
		exit(exitValidation)
		return uuid.Nil, false
	}
	return id, true
}
