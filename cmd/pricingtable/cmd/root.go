package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/solatis/pricingtable/internal/core/config"
	"github.com/solatis/pricingtable/internal/core/db"
	"github.com/solatis/pricingtable/internal/core/store"
	"github.com/solatis/pricingtable/internal/display"
	"github.com/solatis/pricingtable/internal/pricing"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "pricingtable",
	Short: "Dynamic pricing table service",
	Long: `pricingtable selects the quantity discount rule sets that apply to a product,
renders them as pricing tables and computes adjusted and lowest prices.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger from --log-level and --log-format.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (expected json or text)", format)
	}
}

// setupLogger configures the default logger for a command.
func setupLogger(cmd *cobra.Command) (*slog.Logger, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), logLevel, logFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// openDatabase opens --db-url.
func openDatabase(ctx context.Context) (*sqlx.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("--db-url required")
	}
	database, err := db.Open(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// openStore opens a migrated database and its rule store.
func openStore(ctx context.Context, logger *slog.Logger) (*sqlx.DB, *db.Queries, *store.Store, error) {
	database, err := openDatabase(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.RequireMigrated(ctx, database); err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, store.New(queries, logger), nil
}

// newEngine builds the pricing engine and display formatter from cfg.
func newEngine(cfg *config.PricingTableConfig, repo pricing.Repository, logger *slog.Logger) (*pricing.Engine, *display.Formatter, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	formatter, err := display.NewFormatter(cfg.Locale, cfg.CurrencySymbol, cfg.PriceDecimals)
	if err != nil {
		return nil, nil, err
	}
	engine := pricing.NewEngine(repo,
		pricing.WithLocation(loc),
		pricing.WithRounding(pricing.FixedDecimals(cfg.PriceDecimals)),
		pricing.WithShowLowestPrice(cfg.ShowLowestPrice),
		pricing.WithLogger(logger),
	)
	return engine, formatter, nil
}
