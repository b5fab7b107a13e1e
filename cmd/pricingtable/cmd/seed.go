package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/pricingtable/internal/core/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Import catalog data and pricing rules from a YAML fixture file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := setupLogger(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open fixtures: %w", err)
		}
		defer f.Close()

		fixtures, err := store.ParseFixtures(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		database, _, st, err := openStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer database.Close()

		sum, err := st.Seed(cmd.Context(), fixtures)
		if err != nil {
			return err
		}
		logger.Info("fixtures imported",
			"file", args[0],
			"categories", sum.Categories,
			"products", sum.Products,
			"users", sum.Users,
			"options", sum.Options,
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
