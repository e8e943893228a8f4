package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/engine"
)

// writeJSON пишет JSON-ответ. Ошибку энкодера игнорируем: заголовок уже ушел клиенту.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError: единая форма неуспешного ответа {success:false, error, message}.
func writeError(w http.ResponseWriter, kind domain.ErrorKind, msg, sessionID string) {
	writeJSON(w, domain.StatusFor(kind), engine.ConnectResponse{
		Success:   false,
		SessionID: sessionID,
		Error:     string(kind),
		Message:   msg,
	})
}

// NotFound: JSON 404 для неизвестных /api/* маршрутов.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, engine.ConnectResponse{
		Error:   "not_found",
		Message: "No API route for " + r.Method + " " + r.URL.Path,
	})
}

// Health: проверка живости для балансировщика.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
