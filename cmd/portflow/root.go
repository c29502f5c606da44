package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/awantoch/portflow/api"
	"github.com/awantoch/portflow/config"
	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/telemetry"
	"github.com/awantoch/portflow/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	exit       = os.Exit
	configPath string
	debug      bool
)

// NewRootCmd creates the root 'portflow' command with persistent flags and subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "portflow",
		Short:         constants.DescRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.ConfigFileName, "Path to portflow config JSON")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logs")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		if debug {
			utils.SetMode("debug")
		}
	}
	rootCmd.AddCommand(
		newRunCmd(),
		newAuthCmd(),
		newOptionsCmd(),
		newHistoryCmd(),
		newServeCmd(),
		newMCPCmd(),
	)
	return rootCmd
}

// initService loads the config and builds the service from it.
func initService(ctx context.Context) (*api.Service, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return svc, cfg, cleanup, nil
}

// loadConfig reads the config file, falling back to defaults when it is missing.
func loadConfig() (*config.Config, error) {
	cfg, found, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if !found {
		utils.Debug("Config file %s not found, using defaults", configPath)
	}
	if strings.EqualFold(cfg.Log.Level, "debug") && !utils.IsDebug() {
		utils.SetMode("debug")
	}
	return cfg, nil
}

// newService starts tracing and builds the service for cfg. The returned
// cleanup closes both and may be called more than once.
func newService(ctx context.Context, cfg *config.Config) (*api.Service, func(), error) {
	shutdown, err := telemetry.Init(ctx, cfg.Tracing)
	if err != nil {
		return nil, nil, err
	}
	svc, err := api.NewService(ctx, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, err
	}
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if err := svc.Close(); err != nil {
				utils.Warn("Failed to close service: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				utils.Warn("Failed to flush traces: %v", err)
			}
		})
	}
	return svc, cleanup, nil
}
