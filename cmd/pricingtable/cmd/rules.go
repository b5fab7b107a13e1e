package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/pricingtable/internal/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [PRODUCT_ID]",
	Short: "Print stored rule sets as JSON",
	Long: `rules prints the rule sets stored for a product, or with --option the
rule sets of a global option, as a JSON object keyed by rule set key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().String("option", "", "global option name instead of a product")
}

func runRules(cmd *cobra.Command, args []string) error {
	option, _ := cmd.Flags().GetString("option")
	if (option == "") == (len(args) == 0) {
		return fmt.Errorf("specify either PRODUCT_ID or --option")
	}

	var productID types.ID
	if option == "" {
		id, err := types.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id %q: %w", args[0], err)
		}
		productID = id
	}

	logger, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	database, _, st, err := openStore(cmd.Context(), logger)
	if err != nil {
		return err
	}
	defer database.Close()

	var sets []types.RuleSet
	if option != "" {
		sets, err = st.OptionRuleSets(cmd.Context(), option)
	} else {
		sets, err = st.ProductRuleSets(cmd.Context(), productID)
	}
	if err != nil {
		return err
	}

	data, err := types.EncodeRuleSets(sets)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = cmd.OutOrStdout().Write(out.Bytes())
	return err
}
