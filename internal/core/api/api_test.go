package api

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/pricingtable/internal/core/db"
	"github.com/solatis/pricingtable/internal/core/store"
	"github.com/solatis/pricingtable/internal/display"
	"github.com/solatis/pricingtable/internal/pricing"
	"github.com/solatis/pricingtable/internal/types"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	database *sqlx.DB
	service  *PricingService
	client   *PricingTableClient
}

func newFixture(t *testing.T, opts ...pricing.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = db.MigrateUp(ctx, database)
	require.NoError(t, err)
	queries, err := db.LoadQueries(database)
	require.NoError(t, err)

	st := store.New(queries, nil)
	f, err := os.Open("testdata/catalog.yaml")
	require.NoError(t, err)
	defer f.Close()
	fixtures, err := store.ParseFixtures(f)
	require.NoError(t, err)
	_, err = st.Seed(ctx, fixtures)
	require.NoError(t, err)

	opts = append([]pricing.Option{
		pricing.WithShowLowestPrice(true),
		pricing.WithLocation(time.UTC),
	}, opts...)
	engine := pricing.NewEngine(st, opts...)
	formatter, err := display.NewFormatter("en-US", "$", 2)
	require.NoError(t, err)
	service, err := NewPricingService(engine, st, formatter, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterPricingTableServer(server, service)
	go server.Serve(listener)
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &fixture{database: database, service: service, client: NewPricingTableClient(conn)}
}

func TestProductPricing_Anonymous(t *testing.T) {
	fx := newFixture(t)

	resp, err := fx.client.ProductPricing(context.Background(), &ProductPricingRequest{ProductID: 10})
	require.NoError(t, err)

	require.Equal(t, types.ID(10), resp.ProductID)
	require.Equal(t, 100.0, resp.BasePrice)
	require.Equal(t, []string{"set_1", "set_9"}, resp.RuleSetKeys)
	require.Equal(t, []AdjustedPrice{
		{RuleSetKey: "set_1", Price: 80, Label: "$80.00"},
		{RuleSetKey: "set_9", Price: 95, Label: "$95.00"},
	}, resp.AdjustedPrices)
	require.NotNil(t, resp.LowestPrice)
	require.Equal(t, 80.0, *resp.LowestPrice)
	require.Equal(t, "As low as $80.00", resp.LowestLabel)

	require.Len(t, resp.Tables, 2)
	require.Equal(t, []display.Row{
		{Quantity: "1 - 4", Discount: "10% Discount"},
		{Quantity: "5 or more", Discount: "20% Discount"},
	}, resp.Tables[0].Rows)
}

func TestProductPricing_RoleRestricted(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	resp, err := fx.client.ProductPricing(ctx, &ProductPricingRequest{ProductID: 10, UserID: 3})
	require.NoError(t, err)
	require.Equal(t, []string{"set_1", "set_2", "set_9"}, resp.RuleSetKeys)
	require.Equal(t, 50.0, *resp.LowestPrice)

	resp, err = fx.client.ProductPricing(ctx, &ProductPricingRequest{ProductID: 10, UserID: 4})
	require.NoError(t, err)
	require.Equal(t, []string{"set_1", "set_9"}, resp.RuleSetKeys)
}

func TestProductPricing_LowestFollowsFilteredTables(t *testing.T) {
	dropSet1 := func(_ *types.EvaluationContext, sets []types.RuleSet) []types.RuleSet {
		var kept []types.RuleSet
		for _, rs := range sets {
			if rs.Key != "set_1" {
				kept = append(kept, rs)
			}
		}
		return kept
	}
	fx := newFixture(t, pricing.WithRuleSetFilter(dropSet1))

	resp, err := fx.client.ProductPricing(context.Background(), &ProductPricingRequest{ProductID: 10})
	require.NoError(t, err)
	require.Equal(t, []string{"set_9"}, resp.RuleSetKeys)
	require.NotNil(t, resp.LowestPrice)
	require.Equal(t, 95.0, *resp.LowestPrice)
	require.Equal(t, "As low as $95.00", resp.LowestLabel)
}

func TestProductPricing_PriceOverride(t *testing.T) {
	fx := newFixture(t)

	price := 50.0
	resp, err := fx.client.ProductPricing(context.Background(), &ProductPricingRequest{ProductID: 10, Price: &price})
	require.NoError(t, err)
	require.Equal(t, 50.0, resp.BasePrice)
	require.Equal(t, 40.0, *resp.LowestPrice)
}

func TestProductPricing_NoRules(t *testing.T) {
	fx := newFixture(t)

	resp, err := fx.client.ProductPricing(context.Background(), &ProductPricingRequest{ProductID: 11})
	require.NoError(t, err)
	require.Empty(t, resp.RuleSetKeys)
	require.Empty(t, resp.Tables)
	require.Nil(t, resp.LowestPrice)
}

func TestProductPricing_Errors(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.client.ProductPricing(ctx, &ProductPricingRequest{ProductID: 404})
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = fx.client.ProductPricing(ctx, &ProductPricingRequest{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	bogus, err := structpb.NewStruct(map[string]any{"product_id": 10, "sku": "x"})
	require.NoError(t, err)
	_, err = fx.service.GetProductPricing(ctx, bogus)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	fx.database.Close()
	_, err = fx.client.ProductPricing(ctx, &ProductPricingRequest{ProductID: 10})
	require.Equal(t, codes.Unavailable, status.Code(err))
}

func TestNotices(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	resp, err := fx.client.Notices(ctx, &NoticesRequest{UserID: 3, CategoryID: 14, ShopPage: true, CategoryPage: true})
	require.NoError(t, err)
	require.Len(t, resp.Notices, 2)
	require.Equal(t, display.NoticeRoleDiscount, resp.Notices[0].Kind)
	require.Equal(t, "Hi Ada, as a wholesale customer you receive a 15 percent discount on all products.", resp.Notices[0].Message)
	require.Equal(t, display.NoticeCategoryDiscount, resp.Notices[1].Kind)
	require.Equal(t, "You will receive $2.00 discount on all products within the Hats category.", resp.Notices[1].Message)

	resp, err = fx.client.Notices(ctx, &NoticesRequest{UserID: 4, CategoryID: 12, ShopPage: true, CategoryPage: true})
	require.NoError(t, err)
	require.Empty(t, resp.Notices)

	resp, err = fx.client.Notices(ctx, &NoticesRequest{CategoryID: 14})
	require.NoError(t, err)
	require.Empty(t, resp.Notices, "category notice needs a category page")
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{err: nil, want: codes.OK},
		{err: errInvalidRequest, want: codes.InvalidArgument},
		{err: types.ErrProductNotFound, want: codes.NotFound},
		{err: types.ErrStorage, want: codes.Unavailable},
		{err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{err: context.Canceled, want: codes.Canceled},
		{err: types.ErrUnknownOption, want: codes.Internal},
	}
	for _, tt := range tests {
		if got := status.Code(toStatus(tt.err)); got != tt.want {
			t.Errorf("toStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
