package main

import (
	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/utils"
	"github.com/spf13/cobra"
)

// newAuthCmd creates the 'auth' command group.
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   constants.CmdAuth,
		Short: constants.DescAuth,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Exchange the configured credentials for an access token",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			svc, _, cleanup, err := initService(cmd.Context())
			if err != nil {
				utils.Error("Failed to initialize: %v", err)
				exit(exitFailure)
				return
			}
			defer cleanup()
			if err := svc.TestCredentials(cmd.Context()); err != nil {
				utils.Error("Credential test failed: %v", err)
				cleanup()
				exit(exitCode(err))
				return
			}
			utils.User("Credentials OK")
		},
	})
	return cmd
}
