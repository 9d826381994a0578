package main

import (
	"github.com/spf13/cobra"
)

// envFile is shared by every subcommand, so it lives on the root's
// persistent flag set.
var envFile string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "raas",
		Short:         "Lumina Results-as-a-Service backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file to load before reading the environment (default .env when present)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newPipelineCommand())
	return root
}

func envFiles() []string {
	if envFile != "" {
		return []string{envFile}
	}
	return nil
}
