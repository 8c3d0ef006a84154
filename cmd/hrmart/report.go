package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the latest run report",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := st.LatestRunReport(context.Background())
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no runs recorded yet")
		}
		if err != nil {
			return err
		}

		printReport(report)
		return nil
	},
}
