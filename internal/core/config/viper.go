package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"host":              "pricing_table.host",
	"port":              "pricing_table.port",
	"timezone":          "pricing_table.timezone",
	"locale":            "pricing_table.locale",
	"show-lowest-price": "pricing_table.show_lowest_price",
}

// LoadConfig loads configuration using viper.
// CLI flags > environment > config file > defaults precedence. flags may be
// nil; only flags that were changed on the command line take effect.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*PricingTableConfig, error) {
	v := viper.New()

	def := DefaultPricingTableConfig()
	v.SetDefault("pricing_table.host", def.Host)
	v.SetDefault("pricing_table.port", def.Port)
	v.SetDefault("pricing_table.request_timeout", def.RequestTimeout.String())
	v.SetDefault("pricing_table.price_decimals", def.PriceDecimals)
	v.SetDefault("pricing_table.show_lowest_price", def.ShowLowestPrice)
	v.SetDefault("pricing_table.timezone", def.Timezone)
	v.SetDefault("pricing_table.locale", def.Locale)
	v.SetDefault("pricing_table.currency_symbol", def.CurrencySymbol)

	v.SetEnvPrefix("PT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &PricingTableConfig{
		Host:            v.GetString("pricing_table.host"),
		Port:            v.GetInt("pricing_table.port"),
		RequestTimeout:  v.GetDuration("pricing_table.request_timeout"),
		PriceDecimals:   v.GetInt("pricing_table.price_decimals"),
		ShowLowestPrice: v.GetBool("pricing_table.show_lowest_price"),
		Timezone:        v.GetString("pricing_table.timezone"),
		Locale:          v.GetString("pricing_table.locale"),
		CurrencySymbol:  v.GetString("pricing_table.currency_symbol"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, timeout, decimals and timezone.
func validateConfig(cfg *PricingTableConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("request_timeout must be at most 5m, got %v", cfg.RequestTimeout)
	}
	if cfg.PriceDecimals < 0 || cfg.PriceDecimals > 8 {
		return fmt.Errorf("price_decimals must be between 0 and 8, got %d", cfg.PriceDecimals)
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	if cfg.Locale == "" {
		return fmt.Errorf("locale must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("pricing_table.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use PT_HMAC_SECRET environment variable)")
	}
	return nil
}
