package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// BankLister и EventReader: то, что gRPC-фасаду нужно от реестра и журнала.
type BankLister interface {
	List() []domain.Bank
}

type EventReader interface {
	Recent(ctx context.Context, limit int) ([]domain.ConnectionEvent, error)
}

// Connector: то, что фасадам нужно от симулятора.
type Connector interface {
	AttemptConnection(ctx context.Context, bankID string) (*Result, error)
}

// GRPCGatewayServer: второй транспорт к тем же операциям, что и HTTP.
type GRPCGatewayServer struct {
	banks      BankLister
	connector  Connector
	events     EventReader
	eventLimit int
	logger     *zap.Logger
}

func NewGRPCGatewayServer(banks BankLister, connector Connector, events EventReader, eventLimit int, logger *zap.Logger) *GRPCGatewayServer {
	return &GRPCGatewayServer{
		banks:      banks,
		connector:  connector,
		events:     events,
		eventLimit: eventLimit,
		logger:     logger.Named("grpc"),
	}
}

func (s *GRPCGatewayServer) ListBanks(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return ToStruct(NewBanksResponse(s.banks.List()))
}

func (s *GRPCGatewayServer) Connect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in ConnectRequest
	if err := FromStruct(req, &in); err != nil || in.ID() == "" {
		return nil, s.statusError(ctx, &domain.ConnectError{Kind: domain.KindInvalidRequest, Message: "bankId is required"})
	}

	res, err := s.connector.AttemptConnection(ctx, in.ID())
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return ToStruct(ConnectResponse{Success: true, SessionID: res.SessionID, Account: &res.Account})
}

func (s *GRPCGatewayServer) RecentEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in EventsRequest
	if err := FromStruct(req, &in); err != nil {
		return nil, s.statusError(ctx, &domain.ConnectError{Kind: domain.KindInvalidRequest, Message: "invalid request"})
	}
	limit := s.eventLimit
	if in.Limit > 0 && in.Limit < limit {
		limit = in.Limit
	}

	events, err := s.events.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("recent events failed", zap.Error(err))
		return nil, s.statusError(ctx, err)
	}
	return ToStruct(EventsResponse{Events: events})
}

// statusError переводит доменную ошибку в gRPC статус, вид ошибки уходит в trailer.
func (s *GRPCGatewayServer) statusError(ctx context.Context, err error) error {
	kind := domain.KindOf(err)
	msg := err.Error()
	var cErr *domain.ConnectError
	if errors.As(err, &cErr) {
		msg = cErr.Message
	}
	if kind == domain.KindServerError && cErr == nil {
		msg = "internal server error"
	}

	_ = grpc.SetTrailer(ctx, metadata.Pairs(ErrorKindTrailer, string(kind)))
	return status.Error(CodeFor(kind), msg)
}

// CodeFor: аналог domain.StatusFor для gRPC.
func CodeFor(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindBankNotFound, domain.KindInvalidRequest:
		return codes.InvalidArgument
	case domain.KindTimeout:
		return codes.DeadlineExceeded
	case domain.KindRateLimited:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

// ToStruct конвертирует JSON-модель в protobuf Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "marshal response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "convert response: %v", err)
	}
	return out, nil
}

// FromStruct: обратная конвертация Struct в JSON-модель.
func FromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		return nil
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("engine: marshal struct: %w", err)
	}
	return json.Unmarshal(raw, v)
}
