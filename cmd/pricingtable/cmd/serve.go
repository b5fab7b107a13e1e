package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/pricingtable/internal/core/api"
	"github.com/solatis/pricingtable/internal/core/auth"
	"github.com/solatis/pricingtable/internal/core/config"
	"github.com/solatis/pricingtable/internal/core/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC pricing table service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().String("timezone", "UTC", "store timezone for rule set date windows")
	serveCmd.Flags().String("locale", "en-US", "display locale (BCP 47)")
	serveCmd.Flags().Bool("show-lowest-price", false, "compute the lowest available price")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set PT_HMAC_SECRET environment variable)")
	}

	database, queries, st, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	engine, formatter, err := newEngine(cfg, st, logger)
	if err != nil {
		return err
	}

	service, err := api.NewPricingService(engine, st, formatter, api.WithServiceLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, auth.NewAuthenticator(secrets, queries), logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting pricing table service",
		"version", Version,
		"host", cfg.Host,
		"port", cfg.Port,
		"timezone", cfg.Timezone,
		"locale", cfg.Locale,
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		return grpcServer.Shutdown(context.Background())
	}
}
