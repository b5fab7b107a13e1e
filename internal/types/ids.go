package types

import (
	"strings"

	"github.com/google/uuid"
)

// NewNoticeID generates a UUIDv7 identifier for a queued notice.
// Panics if the random source fails.
func NewNoticeID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewAPIKeyID generates a UUIDv7 identifier for a storefront API key row.
// Panics if the random source fails.
func NewAPIKeyID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewSecretID generates a secret identifier in the format used by
// PT_HMAC_SECRET: a UUIDv7 rendered as 32 hex chars without hyphens.
func NewSecretID() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
}
