package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sabio/subsurface-console/pkg/platform"
)

// Version is stamped at build time
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "console %s (platform %s)\n", Version, platform.DefaultBaseURL)
			return err
		},
	}
}
