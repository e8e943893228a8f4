package domain

import "time"

// Outcome — тип записи в журнале событий.
type Outcome string

const (
	OutcomeAttempt Outcome = "attempt"
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"

	// OutcomeRaw помечает строку файла журнала, которую не удалось разобрать как JSON.
	OutcomeRaw Outcome = "raw"
)

// ConnectionEvent — одна строка журнала. Только добавляется, никогда не изменяется.
type ConnectionEvent struct {
	SessionID string       `json:"sessionId,omitempty"` // Связывает attempt и терминальное событие
	BankID    string       `json:"bankId,omitempty"`
	Timestamp time.Time    `json:"timestamp,omitzero"`
	Outcome   Outcome      `json:"outcome"`
	Detail    *EventDetail `json:"detail,omitempty"`

	// Raw заполняется только для битых строк файла (Outcome == OutcomeRaw)
	Raw string `json:"raw,omitempty"`
}

// EventDetail — полезная нагрузка терминального события.
type EventDetail struct {
	Error       ErrorKind `json:"error,omitempty"`
	Message     string    `json:"message,omitempty"`
	AccountID   string    `json:"accountId,omitempty"`
	Institution string    `json:"institution,omitempty"`
	DurationMs  int64     `json:"durationMs"`
}

// IsTerminal — true для success/error.
func (e ConnectionEvent) IsTerminal() bool {
	return e.Outcome == OutcomeSuccess || e.Outcome == OutcomeError
}
