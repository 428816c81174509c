package grpc

import (
	"context"
	"crypto/subtle"
	"strings"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

// APIKeyUnaryInterceptor admits calls carrying the shared internal key in the
// x-api-key metadata. Health checks are always admitted.
func APIKeyUnaryInterceptor(apiKey string) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			if err := validateIncomingAPIKey(ctx, apiKey); err != nil {
				return nil, err
			}
		}
		return handler(ctx, req)
	}
}

func APIKeyStreamInterceptor(apiKey string) gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, info *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) error {
		if !strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			if err := validateIncomingAPIKey(ss.Context(), apiKey); err != nil {
				return err
			}
		}
		return handler(srv, ss)
	}
}

func validateIncomingAPIKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return status.Error(codes.Unavailable, "internal api is disabled")
	}

	presented := incomingAPIKeyFromMetadata(ctx)
	if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
		return status.Error(codes.Unauthenticated, "unauthorized")
	}
	return nil
}

func incomingAPIKeyFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("x-api-key")
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
