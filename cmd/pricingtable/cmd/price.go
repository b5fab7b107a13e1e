package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/solatis/pricingtable/internal/core/api"
	"github.com/solatis/pricingtable/internal/core/config"
	"github.com/solatis/pricingtable/internal/types"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Evaluate the pricing tables of one product",
	Long: `price prints the rule sets, pricing tables and prices for a product as JSON.

By default it evaluates against --db-url directly. With --remote it calls a
running service instead, authenticating with --api-key.`,
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
	priceCmd.Flags().Int64("product", 0, "product id (required)")
	priceCmd.Flags().Int64("user", 0, "viewing user id (0 for anonymous)")
	priceCmd.Flags().Float64("price", -1, "override the catalog price")
	priceCmd.Flags().String("timezone", "UTC", "store timezone for rule set date windows")
	priceCmd.Flags().String("locale", "en-US", "display locale (BCP 47)")
	priceCmd.Flags().Bool("show-lowest-price", false, "compute the lowest available price")
	priceCmd.Flags().String("remote", "", "address of a running pricing table service")
	priceCmd.Flags().String("api-key", "", "API key for --remote")
	_ = priceCmd.MarkFlagRequired("product")
}

func runPrice(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger(cmd)
	if err != nil {
		return err
	}

	productID, _ := cmd.Flags().GetInt64("product")
	userID, _ := cmd.Flags().GetInt64("user")
	req := &api.ProductPricingRequest{ProductID: types.ID(productID), UserID: types.ID(userID)}
	if cmd.Flags().Changed("price") {
		price, _ := cmd.Flags().GetFloat64("price")
		req.Price = &price
	}

	var resp *api.ProductPricingResponse
	if remote, _ := cmd.Flags().GetString("remote"); remote != "" {
		apiKey, _ := cmd.Flags().GetString("api-key")
		resp, err = priceRemote(cmd.Context(), remote, apiKey, req)
	} else {
		resp, err = priceLocal(cmd, logger, req)
	}
	if err != nil {
		return err
	}

	logger.Debug("product priced", "product_id", productID, "rule_sets", len(resp.RuleSetKeys))
	return writeJSON(cmd.OutOrStdout(), resp)
}

func priceLocal(cmd *cobra.Command, logger *slog.Logger, req *api.ProductPricingRequest) (*api.ProductPricingResponse, error) {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, _, st, err := openStore(ctx, logger)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	engine, formatter, err := newEngine(cfg, st, logger)
	if err != nil {
		return nil, err
	}
	service, err := api.NewPricingService(engine, st, formatter, api.WithServiceLogger(logger))
	if err != nil {
		return nil, err
	}
	return service.ProductPricing(ctx, req)
}

func priceRemote(ctx context.Context, addr, apiKey string, req *api.ProductPricingRequest) (*api.ProductPricingResponse, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	if apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-api-key", apiKey)
	}
	return api.NewPricingTableClient(conn).ProductPricing(ctx, req)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
