package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litescript/lunie/internal/phase"
	"github.com/litescript/lunie/internal/phasedb"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the CSV dataset into a SQLite database",
	Long: `Import every record of the phase dataset into the database named by
--db. Dates already in the database are kept; only new dates are added.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DB == "" {
		return errors.New("no database: pass --db or set db in the config")
	}
	log, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	path := cfg.DatasetPath()
	store, report, err := phase.LoadFile(path)
	if err != nil {
		return err
	}
	if report.BadDates > 0 || report.Duplicates > 0 {
		log.Warn("Dropped %d rows with bad dates and %d duplicate dates", report.BadDates, report.Duplicates)
	}

	db, err := phasedb.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	added, err := db.Import(ctx, store.Records())
	if err != nil {
		return err
	}
	total, err := db.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new of %d records from %s into %s (%d total)\n",
		added, store.Len(), path, db.Path(), total)
	return nil
}
