package grpc

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type SessionServer struct {
	sessionService service.SessionService
}

func NewSessionServer(sessionService service.SessionService) *SessionServer {
	return &SessionServer{sessionService: sessionService}
}

// ValidateAccessToken answers {valid:false} for any rejected token; only a
// missing signing secret is reported as an error.
func (s *SessionServer) ValidateAccessToken(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	accessToken := strings.TrimSpace(req.GetValue())
	if accessToken == "" {
		return nil, status.Error(codes.InvalidArgument, "access token is required")
	}

	payload, err := s.sessionService.ValidateAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, service.ErrServerMisconfigured) {
			logrus.WithError(err).Error("Validate access token failed: server misconfigured (grpc)")
			return nil, status.Error(codes.Internal, "server misconfigured")
		}
		logrus.Debug("Validate access token rejected (grpc)")
		return structpb.NewStruct(map[string]any{"valid": false})
	}

	return structpb.NewStruct(map[string]any{
		"valid":     true,
		"userId":    strconv.FormatUint(payload.UserID, 10),
		"expiresAt": payload.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *SessionServer) RevokeSession(ctx context.Context, req *wrapperspb.UInt64Value) (*emptypb.Empty, error) {
	userID := req.GetValue()
	if userID == 0 {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}

	if err := s.sessionService.RevokeSession(ctx, userID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			logrus.WithField("user_id", userID).Warn("Revoke session failed: session not found (grpc)")
			return nil, status.Error(codes.NotFound, "session not found")
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Revoke session failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	logrus.WithField("user_id", userID).Info("Session revoked (grpc)")
	return &emptypb.Empty{}, nil
}

// NewServer builds the gRPC server with the session service, the standard
// health service and the API key interceptors.
func NewServer(sessionService service.SessionService, apiKey string) (*gogrpc.Server, *health.Server) {
	grpcServer := gogrpc.NewServer(
		gogrpc.ChainUnaryInterceptor(APIKeyUnaryInterceptor(apiKey)),
		gogrpc.ChainStreamInterceptor(APIKeyStreamInterceptor(apiKey)),
	)
	RegisterSessionServiceServer(grpcServer, NewSessionServer(sessionService))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(SessionServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return grpcServer, healthServer
}
