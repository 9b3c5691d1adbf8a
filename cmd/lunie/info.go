package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litescript/lunie/internal/phase"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the phase record for the selected date",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "print the record and shading parameters as JSON")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	sess, _, done, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	target := sess.State().Target()
	rec, ok, err := sess.Lookup(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", phase.FormatDatasetDate(target), phase.ErrNoData)
	}

	if asJSON {
		return phase.Export(rec, target, sess.State().Options().Hemisphere).WriteJSON(cmd.OutOrStdout())
	}
	fmt.Fprintln(cmd.OutOrStdout(), rec.InfoLine())
	return nil
}
