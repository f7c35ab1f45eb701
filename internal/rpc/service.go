// Package rpc defines the duet.Gateway gRPC service. Every method takes and
// returns a google.protobuf.Struct; the typed messages in messages.go map
// onto those structs through their json tags.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "duet.Gateway"

const (
	MethodLogin         = "/" + ServiceName + "/Login"
	MethodChangePin     = "/" + ServiceName + "/ChangePin"
	MethodPing          = "/" + ServiceName + "/Ping"
	MethodQuery         = "/" + ServiceName + "/Query"
	MethodInsert        = "/" + ServiceName + "/Insert"
	MethodDelete        = "/" + ServiceName + "/Delete"
	MethodPresignUpload = "/" + ServiceName + "/PresignUpload"
)

// PublicMethods do not require an access token.
var PublicMethods = map[string]bool{
	MethodLogin: true,
	MethodPing:  true,
}

// GatewayServer is implemented by the server.
type GatewayServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePin(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Query(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Insert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PresignUpload(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// GatewayClient is the client side of GatewayServer.
type GatewayClient interface {
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ChangePin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Insert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	PresignUpload(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type gatewayClient struct {
	cc grpc.ClientConnInterface
}

func NewGatewayClient(cc grpc.ClientConnInterface) GatewayClient {
	return &gatewayClient{cc: cc}
}

func (c *gatewayClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLogin, in, opts)
}

func (c *gatewayClient) ChangePin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodChangePin, in, opts)
}

func (c *gatewayClient) Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodPing, in, opts)
}

func (c *gatewayClient) Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodQuery, in, opts)
}

func (c *gatewayClient) Insert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodInsert, in, opts)
}

func (c *gatewayClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodDelete, in, opts)
}

func (c *gatewayClient) PresignUpload(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodPresignUpload, in, opts)
}

type serverMethod func(GatewayServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call serverMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GatewayServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GatewayServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes duet.Gateway for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, GatewayServer.Login)},
		{MethodName: "ChangePin", Handler: unaryHandler(MethodChangePin, GatewayServer.ChangePin)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, GatewayServer.Ping)},
		{MethodName: "Query", Handler: unaryHandler(MethodQuery, GatewayServer.Query)},
		{MethodName: "Insert", Handler: unaryHandler(MethodInsert, GatewayServer.Insert)},
		{MethodName: "Delete", Handler: unaryHandler(MethodDelete, GatewayServer.Delete)},
		{MethodName: "PresignUpload", Handler: unaryHandler(MethodPresignUpload, GatewayServer.PresignUpload)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "duet/gateway",
}

// RegisterGatewayServer registers srv on s.
func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&ServiceDesc, srv)
}
