package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp("")
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}
			a.sugar.Info("schema ensured")
			return nil
		},
	}
}
