package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litescript/lunie/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lunie version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lunie v%s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
