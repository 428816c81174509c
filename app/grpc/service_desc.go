package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const SessionServiceName = "jobtracker.session.v1.SessionService"

const (
	validateAccessTokenMethod = "/" + SessionServiceName + "/ValidateAccessToken"
	revokeSessionMethod       = "/" + SessionServiceName + "/RevokeSession"
)

// SessionServiceServer is the internal surface sibling services call. Messages
// are protobuf well-known types, so no generated code is needed.
type SessionServiceServer interface {
	ValidateAccessToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	RevokeSession(ctx context.Context, req *wrapperspb.UInt64Value) (*emptypb.Empty, error)
}

var SessionServiceDesc = gogrpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "ValidateAccessToken", Handler: validateAccessTokenHandler},
		{MethodName: "RevokeSession", Handler: revokeSessionHandler},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "jobtracker/session/v1/session.proto",
}

func RegisterSessionServiceServer(s gogrpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

func validateAccessTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).ValidateAccessToken(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: validateAccessTokenMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).ValidateAccessToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func revokeSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).RevokeSession(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: revokeSessionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).RevokeSession(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionClient calls SessionService on a sibling connection.
type SessionClient struct {
	cc gogrpc.ClientConnInterface
}

func NewSessionClient(cc gogrpc.ClientConnInterface) *SessionClient {
	return &SessionClient{cc: cc}
}

func (c *SessionClient) ValidateAccessToken(ctx context.Context, accessToken string, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, validateAccessTokenMethod, wrapperspb.String(accessToken), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionClient) RevokeSession(ctx context.Context, userID uint64, opts ...gogrpc.CallOption) error {
	return c.cc.Invoke(ctx, revokeSessionMethod, wrapperspb.UInt64(userID), new(emptypb.Empty), opts...)
}
