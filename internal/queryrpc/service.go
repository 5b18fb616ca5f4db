// Package queryrpc exposes the first-player query over gRPC. Requests and
// responses are protobuf well-known wrapper types.
package queryrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "gameofthree.v1.GameQueryService"

	isFirstToPlayMethod = "/" + ServiceName + "/IsFirstToPlay"
)

// QueryServer is the server API for GameQueryService.
type QueryServer interface {
	// IsFirstToPlay takes a participant identity and reports whether it holds
	// the first slot of the live session.
	IsFirstToPlay(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "IsFirstToPlay",
			Handler:    isFirstToPlayHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterQueryServer registers srv on s.
func RegisterQueryServer(s grpc.ServiceRegistrar, srv QueryServer) {
	s.RegisterService(&serviceDesc, srv)
}

func isFirstToPlayHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).IsFirstToPlay(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: isFirstToPlayMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).IsFirstToPlay(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
