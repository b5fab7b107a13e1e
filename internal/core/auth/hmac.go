package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/solatis/pricingtable/internal/types"
)

// apiKeyPrefix and apiKeyVersion lead every key: pt-v1-<secret_id>-<random_data>.
const (
	apiKeyPrefix  = "pt"
	apiKeyVersion = "v1"
	randomBytes   = 32
)

// ParseAPIKey extracts secret_id and random_data from an API key.
// Returns ErrInvalidKeyFormat if the format doesn't match.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != apiKeyPrefix || parts[1] != apiKeyVersion {
		return "", "", ErrInvalidKeyFormat
	}

	secretID, randomData = parts[2], parts[3]
	if len(secretID) != 32 || len(randomData) != 2*randomBytes {
		return "", "", ErrInvalidKeyFormat
	}
	if !isLowerHex(secretID) || !isLowerHex(randomData) {
		return "", "", ErrInvalidKeyFormat
	}

	return secretID, randomData, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ComputeHMAC computes the HMAC-SHA256 signature of an API key.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// FormatAPIKey constructs an API key from its components.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("%s-%s-%s-%s", apiKeyPrefix, apiKeyVersion, secretID, randomData)
}

// IssuedKey is a newly created API key. Key is shown once and never stored.
type IssuedKey struct {
	ID         string
	Storefront string
	Name       string
	Key        string
}

// IssueAPIKey generates a key for storefront signed with the secret
// secretID and records its hash.
func IssueAPIKey(ctx context.Context, q Queries, secrets map[string][]byte, secretID, storefront, name string) (*IssuedKey, error) {
	secret, ok := secrets[secretID]
	if !ok {
		return nil, ErrUnknownKey
	}
	if storefront == "" {
		return nil, fmt.Errorf("storefront must not be empty")
	}

	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	issued := &IssuedKey{
		ID:         types.NewAPIKeyID(),
		Storefront: storefront,
		Name:       name,
		Key:        FormatAPIKey(secretID, hex.EncodeToString(buf)),
	}

	_, err := q.Exec(ctx, "insert-api-key",
		issued.ID, storefront, name, secretID, ComputeHMAC(secret, issued.Key), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyStore, err)
	}
	return issued, nil
}

// RevokeAPIKey marks a key revoked. Revoking twice is a no-op.
func RevokeAPIKey(ctx context.Context, q Queries, apiKeyID string) error {
	if _, err := q.Exec(ctx, "revoke-api-key", time.Now().UTC(), apiKeyID); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyStore, err)
	}
	return nil
}
