package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/solatis/pricingtable/internal/core/auth"
	"github.com/solatis/pricingtable/internal/core/config"
	"github.com/solatis/pricingtable/internal/types"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage storefront API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue an API key for a storefront",
	RunE:  runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke API_KEY_ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := setupLogger(cmd)
		if err != nil {
			return err
		}
		database, queries, _, err := openStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := auth.RevokeAPIKey(cmd.Context(), queries, args[0]); err != nil {
			return err
		}
		logger.Info("api key revoked", "api_key_id", args[0])
		return nil
	},
}

var keysSecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate a value for PT_HMAC_SECRET",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := newHMACSecret()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "PT_HMAC_SECRET=%s\n", value)
		return nil
	},
}

func init() {
	keysCreateCmd.Flags().String("storefront", "", "storefront the key is issued to (required)")
	keysCreateCmd.Flags().String("name", "", "human readable key name")
	keysCreateCmd.Flags().String("secret-id", "", "HMAC secret to sign with (defaults to the only configured secret)")
	_ = keysCreateCmd.MarkFlagRequired("storefront")

	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd, keysSecretCmd)
	rootCmd.AddCommand(keysCmd)
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger(cmd)
	if err != nil {
		return err
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	secretID, _ := cmd.Flags().GetString("secret-id")
	if secretID == "" {
		if secretID, err = onlySecretID(secrets); err != nil {
			return err
		}
	}

	database, queries, _, err := openStore(cmd.Context(), logger)
	if err != nil {
		return err
	}
	defer database.Close()

	storefront, _ := cmd.Flags().GetString("storefront")
	name, _ := cmd.Flags().GetString("name")
	issued, err := auth.IssueAPIKey(cmd.Context(), queries, secrets, secretID, storefront, name)
	if err != nil {
		return err
	}

	logger.Info("api key issued", "api_key_id", issued.ID, "storefront", storefront)
	fmt.Fprintf(cmd.OutOrStdout(), "api_key_id: %s\napi_key: %s\n", issued.ID, issued.Key)
	return nil
}

// onlySecretID returns the secret ID when exactly one secret is configured.
func onlySecretID(secrets map[string][]byte) (string, error) {
	switch len(secrets) {
	case 0:
		return "", fmt.Errorf("no HMAC secrets configured (set PT_HMAC_SECRET environment variable)")
	case 1:
		for id := range secrets {
			return id, nil
		}
	}
	ids := make([]string, 0, len(secrets))
	for id := range secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return "", fmt.Errorf("multiple HMAC secrets configured, choose one with --secret-id (%v)", ids)
}

// newHMACSecret returns a fresh <secret_id>:<base64_secret> pair.
func newHMACSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return types.NewSecretID() + ":" + base64.StdEncoding.EncodeToString(buf), nil
}
