package engine

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Сервис описан вручную поверх google.protobuf.Struct, JSON тот же, что у HTTP-фасада.
const (
	PayByBankService = "quantumpay.v1.PayByBank"

	methodListBanks    = "/" + PayByBankService + "/ListBanks"
	methodConnect      = "/" + PayByBankService + "/Connect"
	methodRecentEvents = "/" + PayByBankService + "/RecentEvents"
)

// ErrorKindTrailer: trailer с domain.ErrorKind неуспешного вызова.
const ErrorKindTrailer = "x-error-kind"

type PayByBankServer interface {
	ListBanks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Connect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RecentEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var PayByBankServiceDesc = grpc.ServiceDesc{
	ServiceName: PayByBankService,
	HandlerType: (*PayByBankServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListBanks", Handler: unaryHandler(methodListBanks, PayByBankServer.ListBanks)},
		{MethodName: "Connect", Handler: unaryHandler(methodConnect, PayByBankServer.Connect)},
		{MethodName: "RecentEvents", Handler: unaryHandler(methodRecentEvents, PayByBankServer.RecentEvents)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quantumpay/v1/paybybank.proto",
}

func RegisterPayByBankServer(s grpc.ServiceRegistrar, srv PayByBankServer) {
	s.RegisterService(&PayByBankServiceDesc, srv)
}

type unaryMethod func(PayByBankServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PayByBankServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PayByBankServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PayByBankClient: тонкий клиент поверх grpc.ClientConn.
type PayByBankClient struct {
	cc grpc.ClientConnInterface
}

func NewPayByBankClient(cc grpc.ClientConnInterface) *PayByBankClient {
	return &PayByBankClient{cc: cc}
}

func (c *PayByBankClient) ListBanks(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodListBanks, in, opts...)
}

func (c *PayByBankClient) Connect(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodConnect, in, opts...)
}

func (c *PayByBankClient) RecentEvents(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodRecentEvents, in, opts...)
}

func (c *PayByBankClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
