package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/pricingtable/internal/core/db"
)

const testSecretID = "0123456789abcdef0123456789abcdef"

var testSecrets = map[string][]byte{
	testSecretID: []byte("0123456789abcdef0123456789abcdef-secret"),
}

func newQueries(t *testing.T) *db.Queries {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = db.MigrateUp(ctx, database)
	require.NoError(t, err)
	q, err := db.LoadQueries(database)
	require.NoError(t, err)
	return q
}

func TestParseAPIKey(t *testing.T) {
	random := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid", key: FormatAPIKey(testSecretID, random)},
		{name: "wrong prefix", key: "tk-v1-" + testSecretID + "-" + random, wantErr: true},
		{name: "wrong version", key: "pt-v2-" + testSecretID + "-" + random, wantErr: true},
		{name: "short secret id", key: "pt-v1-0123-" + random, wantErr: true},
		{name: "short random", key: "pt-v1-" + testSecretID + "-abcd", wantErr: true},
		{name: "uppercase hex", key: "pt-v1-" + strings.ToUpper(testSecretID) + "-" + random, wantErr: true},
		{name: "extra part", key: FormatAPIKey(testSecretID, random) + "-x", wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, randomData, err := ParseAPIKey(tt.key)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidKeyFormat)
				return
			}
			require.NoError(t, err)
			require.Equal(t, testSecretID, secretID)
			require.Equal(t, random, randomData)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	q := newQueries(t)
	a := NewAuthenticator(testSecrets, q)

	issued, err := IssueAPIKey(ctx, q, testSecrets, testSecretID, "shop-eu", "checkout")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(issued.Key, "pt-v1-"+testSecretID+"-"))

	storefront, err := a.Authenticate(ctx, issued.Key)
	require.NoError(t, err)
	require.Equal(t, "shop-eu", storefront)

	forged := FormatAPIKey(testSecretID, strings.Repeat("0", 64))
	_, err = a.Authenticate(ctx, forged)
	require.ErrorIs(t, err, ErrInvalidKey)

	other := FormatAPIKey("fedcba9876543210fedcba9876543210", strings.Repeat("0", 64))
	_, err = a.Authenticate(ctx, other)
	require.ErrorIs(t, err, ErrUnknownKey)

	require.NoError(t, RevokeAPIKey(ctx, q, issued.ID))
	require.NoError(t, RevokeAPIKey(ctx, q, issued.ID))
	_, err = a.Authenticate(ctx, issued.Key)
	require.ErrorIs(t, err, ErrKeyRevoked)
}

func TestIssueAPIKey_UnknownSecret(t *testing.T) {
	_, err := IssueAPIKey(context.Background(), newQueries(t), testSecrets, "fedcba9876543210fedcba9876543210", "shop", "")
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestShouldUpdateLastUsed(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		lastUsed time.Time
		valid    bool
		want     bool
	}{
		{name: "never used", want: true},
		{name: "used seconds ago", lastUsed: now.Add(-30 * time.Second), valid: true, want: false},
		{name: "used minutes ago", lastUsed: now.Add(-2 * time.Minute), valid: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lastUsed := sqlNullTime(tt.lastUsed, tt.valid)
			if got := shouldUpdateLastUsed(lastUsed, now); got != tt.want {
				t.Errorf("shouldUpdateLastUsed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnaryInterceptor(t *testing.T) {
	ctx := context.Background()
	q := newQueries(t)
	a := NewAuthenticator(testSecrets, q)
	interceptor := a.UnaryInterceptor()

	issued, err := IssueAPIKey(ctx, q, testSecrets, testSecretID, "shop-us", "")
	require.NoError(t, err)

	var seen string
	handler := func(ctx context.Context, req any) (any, error) {
		seen = StorefrontFromContext(ctx)
		return "ok", nil
	}
	pricing := &grpc.UnaryServerInfo{FullMethod: "/pricingtable.v1.PricingTableService/GetProductPricing"}

	t.Run("valid key", func(t *testing.T) {
		md := metadata.Pairs("x-api-key", issued.Key)
		resp, err := interceptor(metadata.NewIncomingContext(ctx, md), nil, pricing, handler)
		require.NoError(t, err)
		require.Equal(t, "ok", resp)
		require.Equal(t, "shop-us", seen)
	})

	t.Run("missing metadata", func(t *testing.T) {
		_, err := interceptor(ctx, nil, pricing, handler)
		require.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := interceptor(metadata.NewIncomingContext(ctx, metadata.MD{}), nil, pricing, handler)
		require.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("health bypass", func(t *testing.T) {
		health := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
		_, err := interceptor(ctx, nil, health, handler)
		require.NoError(t, err)
	})

	t.Run("revoked key", func(t *testing.T) {
		require.NoError(t, RevokeAPIKey(ctx, q, issued.ID))
		md := metadata.Pairs("x-api-key", issued.Key)
		_, err := interceptor(metadata.NewIncomingContext(ctx, md), nil, pricing, handler)
		require.Equal(t, codes.PermissionDenied, status.Code(err))
	})
}

func TestStatusCode(t *testing.T) {
	require.Equal(t, codes.Unavailable, statusCode(ErrKeyStore))
	require.Equal(t, codes.PermissionDenied, statusCode(ErrKeyRevoked))
	require.Equal(t, codes.Unauthenticated, statusCode(ErrUnknownKey))
	require.Equal(t, codes.Unauthenticated, statusCode(ErrInvalidKeyFormat))
}

func sqlNullTime(t time.Time, valid bool) sql.NullTime {
	return sql.NullTime{Time: t, Valid: valid}
}
