package flow

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/engine"
)

// GRPCClient: тот же API поверх gRPC-фасада.
type GRPCClient struct {
	client *engine.PayByBankClient
}

func NewGRPCClient(cc grpc.ClientConnInterface) *GRPCClient {
	return &GRPCClient{client: engine.NewPayByBankClient(cc)}
}

func (c *GRPCClient) Banks(ctx context.Context) ([]engine.BankView, error) {
	out, err := c.client.ListBanks(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("flow: list banks: %w", err)
	}
	var resp engine.BanksResponse
	if err := engine.FromStruct(out, &resp); err != nil {
		return nil, err
	}
	return resp.Banks, nil
}

// Connect: доменный отказ приходит как статус с trailer x-error-kind, иначе это сбой транспорта.
func (c *GRPCClient) Connect(ctx context.Context, bankID string) (*engine.ConnectResponse, error) {
	req, err := structpb.NewStruct(map[string]any{"bankId": bankID})
	if err != nil {
		return nil, fmt.Errorf("flow: build connect request: %w", err)
	}

	var trailer metadata.MD
	out, err := c.client.Connect(ctx, req, grpc.Trailer(&trailer))
	if err != nil {
		kinds := trailer.Get(engine.ErrorKindTrailer)
		if len(kinds) == 0 {
			return nil, fmt.Errorf("flow: connect: %w", err)
		}
		return &engine.ConnectResponse{
			Success: false,
			Error:   kinds[0],
			Message: status.Convert(err).Message(),
		}, nil
	}

	var resp engine.ConnectResponse
	if err := engine.FromStruct(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) RecentEvents(ctx context.Context) ([]domain.ConnectionEvent, error) {
	out, err := c.client.RecentEvents(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("flow: recent events: %w", err)
	}
	var resp engine.EventsResponse
	if err := engine.FromStruct(out, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}
