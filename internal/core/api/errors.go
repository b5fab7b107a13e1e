package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/pricingtable/internal/types"
)

// errInvalidRequest marks request payloads that cannot be served.
var errInvalidRequest = errors.New("invalid request")

// toStatus maps service errors to gRPC status errors.
// Auth errors are mapped in the auth interceptor.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, types.ErrProductNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrStorage):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
