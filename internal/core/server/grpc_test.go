package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/pricingtable/internal/core/api"
	"github.com/solatis/pricingtable/internal/core/auth"
	"github.com/solatis/pricingtable/internal/core/config"
	"github.com/solatis/pricingtable/internal/core/db"
)

const testSecretID = "0123456789abcdef0123456789abcdef"

// echoServer answers every call with the authenticated storefront.
type echoServer struct{}

func (echoServer) GetProductPricing(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"storefront": auth.StorefrontFromContext(ctx)})
}

func (echoServer) GetNotices(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	_, hasDeadline := ctx.Deadline()
	return structpb.NewStruct(map[string]any{"deadline": hasDeadline})
}

func startServer(t *testing.T) (*grpc.ClientConn, string) {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = db.MigrateUp(ctx, database)
	require.NoError(t, err)
	queries, err := db.LoadQueries(database)
	require.NoError(t, err)

	secrets := map[string][]byte{testSecretID: []byte("0123456789abcdef0123456789abcdef-secret")}
	issued, err := auth.IssueAPIKey(ctx, queries, secrets, testSecretID, "shop-eu", "test")
	require.NoError(t, err)

	srv, err := NewGRPCServer(config.DefaultPricingTableConfig(), echoServer{}, auth.NewAuthenticator(secrets, queries), nil)
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	go srv.Serve(listener)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, issued.Key
}

func TestGRPCServer(t *testing.T) {
	conn, key := startServer(t)
	ctx := context.Background()

	t.Run("health without key", func(t *testing.T) {
		resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
		require.NoError(t, err)
		require.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
	})

	t.Run("missing key", func(t *testing.T) {
		out := new(structpb.Struct)
		err := conn.Invoke(ctx, api.MethodGetProductPricing, &structpb.Struct{}, out)
		require.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("authenticated", func(t *testing.T) {
		out := new(structpb.Struct)
		authed := metadata.AppendToOutgoingContext(ctx, "x-api-key", key)
		require.NoError(t, conn.Invoke(authed, api.MethodGetProductPricing, &structpb.Struct{}, out))
		require.Equal(t, "shop-eu", out.GetFields()["storefront"].GetStringValue())
	})

	t.Run("request timeout applied", func(t *testing.T) {
		out := new(structpb.Struct)
		authed := metadata.AppendToOutgoingContext(ctx, "x-api-key", key)
		require.NoError(t, conn.Invoke(authed, api.MethodGetNotices, &structpb.Struct{}, out))
		require.True(t, out.GetFields()["deadline"].GetBoolValue())
	})
}

func TestNewGRPCServer_Validation(t *testing.T) {
	authn := auth.NewAuthenticator(nil, nil)
	_, err := NewGRPCServer(nil, echoServer{}, authn, nil)
	require.Error(t, err)
	_, err = NewGRPCServer(config.DefaultPricingTableConfig(), nil, authn, nil)
	require.Error(t, err)
	_, err = NewGRPCServer(config.DefaultPricingTableConfig(), echoServer{}, nil, nil)
	require.Error(t, err)
}

func TestTimeoutInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/x/y"}
	var deadline time.Time
	var bounded bool
	handler := func(ctx context.Context, _ any) (any, error) {
		deadline, bounded = ctx.Deadline()
		return nil, nil
	}

	_, err := TimeoutInterceptor(time.Second)(context.Background(), nil, info, handler)
	require.NoError(t, err)
	require.True(t, bounded)
	require.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)

	_, err = TimeoutInterceptor(0)(context.Background(), nil, info, handler)
	require.NoError(t, err)
	require.False(t, bounded, "zero timeout leaves the context unbounded")
}
