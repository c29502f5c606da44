package main

import (
	"encoding/json"

	"github.com/awantoch/portflow/adapter"
	"github.com/awantoch/portflow/api"
	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/utils"
	"github.com/spf13/cobra"
)

// newOptionsCmd creates the 'options' subcommand. It needs no credentials.
func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   constants.CmdOptions,
		Short: constants.DescOptions,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var ops []adapter.Description
			for _, a := range adapter.NewDefaultRegistry().All() {
				ops = append(ops, a.Describe())
			}
			out, err := json.MarshalIndent(struct {
				api.Options
				Operations []adapter.Description `json:"operations"`
			}{api.DefaultOptions(), ops}, "", constants.JSONIndent)
			if err != nil {
				utils.Error("Failed to encode options: %v", err)
				exit(exitFailure)
				return
			}
			utils.User("%s", out)
		},
	}
}
