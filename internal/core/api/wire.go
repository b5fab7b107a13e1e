package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and method names on the wire.
const (
	ServiceName             = "pricingtable.v1.PricingTableService"
	MethodGetProductPricing = "/" + ServiceName + "/GetProductPricing"
	MethodGetNotices        = "/" + ServiceName + "/GetNotices"
)

// PricingTableServer is the server API of the pricing table service.
// Payloads are google.protobuf.Struct messages carrying the JSON forms of
// the request and response types in this package.
type PricingTableServer interface {
	GetProductPricing(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetNotices(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the pricing table service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PricingTableServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProductPricing", Handler: unaryHandler(MethodGetProductPricing, PricingTableServer.GetProductPricing)},
		{MethodName: "GetNotices", Handler: unaryHandler(MethodGetNotices, PricingTableServer.GetNotices)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricingtable/v1/pricing_table.proto",
}

// RegisterPricingTableServer registers srv with s.
func RegisterPricingTableServer(s grpc.ServiceRegistrar, srv PricingTableServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryMethod func(PricingTableServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PricingTableServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PricingTableServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GetProductPricing implements PricingTableServer.
func (s *PricingService) GetProductPricing(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ProductPricingRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}
	resp, err := s.ProductPricing(ctx, &req)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := encodeStruct(resp)
	return out, toStatus(err)
}

// GetNotices implements PricingTableServer.
func (s *PricingService) GetNotices(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req NoticesRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}
	resp, err := s.Notices(ctx, &req)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := encodeStruct(resp)
	return out, toStatus(err)
}

// decodeStruct converts a Struct payload into dest, rejecting unknown fields.
func decodeStruct(in *structpb.Struct, dest any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return nil
}

// encodeStruct converts src into a Struct payload.
func encodeStruct(src any) (*structpb.Struct, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// PricingTableClient calls the pricing table service.
type PricingTableClient struct {
	cc grpc.ClientConnInterface
}

// NewPricingTableClient creates a client over cc.
func NewPricingTableClient(cc grpc.ClientConnInterface) *PricingTableClient {
	return &PricingTableClient{cc: cc}
}

// ProductPricing calls GetProductPricing.
func (c *PricingTableClient) ProductPricing(ctx context.Context, req *ProductPricingRequest, opts ...grpc.CallOption) (*ProductPricingResponse, error) {
	var resp ProductPricingResponse
	if err := c.invoke(ctx, MethodGetProductPricing, req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Notices calls GetNotices.
func (c *PricingTableClient) Notices(ctx context.Context, req *NoticesRequest, opts ...grpc.CallOption) (*NoticesResponse, error) {
	var resp NoticesResponse
	if err := c.invoke(ctx, MethodGetNotices, req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *PricingTableClient) invoke(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := encodeStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return err
	}
	data, err := protojson.Marshal(out)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(data, resp)
}
