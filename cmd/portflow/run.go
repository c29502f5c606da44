package main

import (
	"encoding/json"
	"errors"

	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/parser"
	"github.com/awantoch/portflow/port"
	"github.com/awantoch/portflow/utils"
	"github.com/spf13/cobra"
)

// Exit codes for 'run'.
const (
	exitFailure        = 1
	exitAuthentication = 2
	exitValidation     = 3
	exitUpstream       = 4
)

// newRunCmd creates the 'run' subcommand.
func newRunCmd() *cobra.Command {
	var (
		profile        string
		continueOnFail bool
	)
	cmd := &cobra.Command{
		Use:   constants.CmdRun + " <batch file>",
		Short: constants.DescRun,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			batch, err := parser.ParseBatchFile(args[0])
			if err != nil {
				utils.Error("Failed to parse batch: %v", err)
				exit(exitValidation)
				return
			}
			if profile != "" {
				batch.Profile = profile
			}
			if cmd.Flags().Changed("continue-on-fail") {
				batch.ContinueOnFail = &continueOnFail
			}

			svc, _, cleanup, err := initService(cmd.Context())
			if err != nil {
				utils.Error("Failed to initialize: %v", err)
				exit(exitFailure)
				return
			}
			defer cleanup()

			res, runErr := svc.Execute(cmd.Context(), batch)
			if res != nil {
				out, err := json.MarshalIndent(res, "", constants.JSONIndent)
				if err != nil {
					utils.Error("Failed to encode outputs: %v", err)
					exit(exitFailure)
					return
				}
				utils.User("%s", out)
			}
			if runErr != nil {
				utils.Error("Run failed: %v", runErr)
				cleanup()
				exit(exitCode(runErr))
			}
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Profile to use (portApiAi or portIo); overrides the batch file")
	cmd.Flags().BoolVar(&continueOnFail, "continue-on-fail", false, "Record item failures as outputs instead of aborting")
	return cmd
}

func exitCode(err error) int {
	var (
		aerr *port.AuthenticationError
		verr *port.ValidationError
		uoe  *port.UnknownOperationError
		uerr *port.UpstreamError
	)
	switch {
	case errors.As(err, &aerr):
		return exitAuthentication
	case errors.As(err, &verr), errors.As(err, &uoe):
		return exitValidation
	case errors.As(err, &uerr):
		return exitUpstream
	default:
		return exitFailure
	}
}
