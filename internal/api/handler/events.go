package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/engine"
)

type EventHandler struct {
	events       engine.EventReader
	defaultLimit int
	logger       *zap.Logger
}

func NewEventHandler(events engine.EventReader, defaultLimit int, logger *zap.Logger) *EventHandler {
	return &EventHandler{events: events, defaultLimit: defaultLimit, logger: logger.Named("events")}
}

// Recent возвращает последние события, новые первыми
// GET /api/events/recent?limit=...
func (h *EventHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		writeError(w, domain.KindInvalidRequest, "limit must be a positive integer.", "")
		return
	}

	events, err := h.events.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read recent events", zap.Error(err))
		writeError(w, domain.KindServerError, "Failed to read events.", "")
		return
	}
	if events == nil {
		events = []domain.ConnectionEvent{}
	}
	writeJSON(w, http.StatusOK, engine.EventsResponse{Events: events})
}

// parseLimit: пустое значение дает лимит по умолчанию, иначе значение, зажатое в [1, default].
func (h *EventHandler) parseLimit(raw string) (int, bool) {
	if raw == "" {
		return h.defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return max(1, min(n, h.defaultLimit)), true
}
