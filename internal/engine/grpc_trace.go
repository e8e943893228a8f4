package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const grpcTraceKey = "x-trace-id"

// UnaryTraceInterceptor: Trace-ID из метаданных gRPC вызова (та же логика, что и в HTTP).
func UnaryTraceInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	logger = logger.Named("grpc")
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		// В gRPC заголовки обычно в нижнем регистре
		var traceID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(grpcTraceKey); len(ids) > 0 {
				traceID = ids[0]
			}
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(grpcTraceKey, traceID))

		resp, err := handler(WithTraceID(ctx, traceID), req)

		logger.Info("call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.String("trace_id", traceID),
		)
		return resp, err
	}
}
