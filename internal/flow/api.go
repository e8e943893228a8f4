package flow

import (
	"context"

	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/engine"
)

// API: то, что сценарию нужно от бэкенда. Реализации: HTTPClient и GRPCClient.
//
// Connect возвращает ответ и для неуспешных исходов (Success=false, Message от сервера).
// Ошибка означает сбой транспорта.
type API interface {
	Banks(ctx context.Context) ([]engine.BankView, error)
	Connect(ctx context.Context, bankID string) (*engine.ConnectResponse, error)
	RecentEvents(ctx context.Context) ([]domain.ConnectionEvent, error)
}
