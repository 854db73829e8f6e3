// Package cli содержит операторские команды contestctl.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// Execute запускает CLI
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "contestctl",
		Short:         "Operator tools for the contest participation system",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewEndContestsCmd(&configPath))
	cmd.AddCommand(NewDistributeCmd(&configPath))
	return cmd
}
