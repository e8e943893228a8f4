package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/engine"
)

// HTTPClient ходит в HTTP-фасад.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient. Таймаут клиента должен перекрывать задержку таймаут-банка.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Banks(ctx context.Context) ([]engine.BankView, error) {
	var out engine.BanksResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/banks", nil, &out); err != nil {
		return nil, err
	}
	return out.Banks, nil
}

// Connect: не-2xx ответ не ошибка, сообщение сервера уходит в ConnectResponse.
func (c *HTTPClient) Connect(ctx context.Context, bankID string) (*engine.ConnectResponse, error) {
	payload, err := json.Marshal(engine.ConnectRequest{BankID: bankID})
	if err != nil {
		return nil, fmt.Errorf("flow: encode connect request: %w", err)
	}

	var out engine.ConnectResponse
	status, err := c.do(ctx, http.MethodPost, "/api/connect", payload, &out)
	switch {
	case status == 0:
		return nil, err
	case err == nil:
		return &out, nil
	}
	// Тело ошибки могло не разобраться: баннер возьмет текст по умолчанию
	out.Success = false
	return &out, nil
}

func (c *HTTPClient) RecentEvents(ctx context.Context) ([]domain.ConnectionEvent, error) {
	var out engine.EventsResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/events/recent", nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// do возвращает HTTP-статус (0: запрос не дошел) и декодирует тело в ret при любом статусе.
func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte, ret any) (int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("flow: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("flow: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	decodeErr := json.NewDecoder(resp.Body).Decode(ret)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("flow: %s %s: status %d", method, path, resp.StatusCode)
	}
	if decodeErr != nil {
		return resp.StatusCode, fmt.Errorf("flow: decode %s: %w", path, decodeErr)
	}
	return resp.StatusCode, nil
}
