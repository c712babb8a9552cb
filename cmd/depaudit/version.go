package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"depaudit/internal/config"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := config.NewBuildInfo()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "depaudit %s (commit %s, built %s)\n",
				info.Version, info.Commit, info.BuildTime)
			return err
		},
	}
}
