package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/hrmart/internal/model"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Audit loaded dimensions for SCD2 validity-window overlaps",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		m, err := loadModel()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var violations []model.OverlapViolation
		for _, name := range m.DimensionNames() {
			found, err := st.CheckOverlaps(ctx, name)
			if err != nil {
				return fmt.Errorf("checking %s: %w", name, err)
			}
			violations = append(violations, found...)
		}

		printViolations(violations)
		if len(violations) > 0 {
			os.Exit(1)
		}
		return nil
	},
}
