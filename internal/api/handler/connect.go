package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/engine"
)

// maxConnectBody: тело запроса содержит только bankId.
const maxConnectBody = 4 << 10

type ConnectHandler struct {
	connector engine.Connector
	logger    *zap.Logger
}

func NewConnectHandler(connector engine.Connector, logger *zap.Logger) *ConnectHandler {
	return &ConnectHandler{connector: connector, logger: logger.Named("connect")}
}

// Connect симулирует подключение к банку
// POST /api/connect {"bankId": "chase"}
func (h *ConnectHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req engine.ConnectRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConnectBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, domain.KindInvalidRequest, "Request body must be JSON with a bankId field.", "")
		return
	}
	if req.ID() == "" {
		writeError(w, domain.KindInvalidRequest, "bankId is required.", "")
		return
	}

	res, err := h.connector.AttemptConnection(r.Context(), req.ID())
	if err != nil {
		if r.Context().Err() != nil {
			// Клиент отключился, отвечать некому
			h.logger.Debug("client gone before response", zap.String("bank_id", req.ID()))
			return
		}
		var cErr *domain.ConnectError
		if errors.As(err, &cErr) {
			writeError(w, cErr.Kind, cErr.Message, cErr.SessionID)
			return
		}
		h.logger.Error("connect failed", zap.Error(err), zap.String("trace_id", engine.ExtractTraceID(r.Context())))
		writeError(w, domain.KindServerError, "Internal server error.", "")
		return
	}

	writeJSON(w, http.StatusOK, engine.ConnectResponse{
		Success:   true,
		SessionID: res.SessionID,
		Account:   &res.Account,
	})
}
