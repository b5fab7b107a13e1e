// Package config provides configuration management for the pricing table service.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// PricingTableConfig holds configuration for the pricing table gRPC service
// and the engine it drives.
type PricingTableConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration

	// PriceDecimals is the store's price precision, used for rounding
	// adjusted prices and for displaying prices.
	PriceDecimals   int
	ShowLowestPrice bool

	// Timezone is the IANA name of the store timezone. Rule set date
	// windows start and end at midnight in this zone.
	Timezone       string
	Locale         string
	CurrencySymbol string
}

// DefaultPricingTableConfig returns configuration with default values.
func DefaultPricingTableConfig() *PricingTableConfig {
	return &PricingTableConfig{
		Host:            "0.0.0.0",
		Port:            50051,
		RequestTimeout:  30 * time.Second,
		PriceDecimals:   2,
		ShowLowestPrice: false,
		Timezone:        "UTC",
		Locale:          "en-US",
		CurrencySymbol:  "$",
	}
}

// Location resolves the configured store timezone.
func (c *PricingTableConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports PT_HMAC_SECRET (single) and PT_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check PT_HMAC_SECRET and PT_HMAC_SECRET_* for conflicts)", secretID)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv("PT_HMAC_SECRET"); val != "" {
		if err := add("PT_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old and new keys valid during rotation.
	for i := 1; ; i++ {
		key := fmt.Sprintf("PT_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecret decodes a base64-encoded HMAC secret.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 lowercase hex chars.
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	id, encoded, ok := strings.Cut(strings.TrimSpace(envValue), ":")
	if !ok {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	if len(id) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars")
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = ParseHMACSecret(encoded)
	if err != nil {
		return "", nil, err
	}
	return id, secret, nil
}
