package eventlog

import (
	"context"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// Store: основное хранилище журнала. Реализаций две (FileStore и RingStore),
// процесс использует ровно одну, выбранную конфигом.
type Store interface {
	// Append добавляет событие в конец журнала
	Append(ctx context.Context, event domain.ConnectionEvent) error
	// Recent возвращает не более limit событий, самые свежие первыми
	Recent(ctx context.Context, limit int) ([]domain.ConnectionEvent, error)
}

// reverseTail переворачивает хвост слайса: последние limit элементов, новые первыми.
func reverseTail(events []domain.ConnectionEvent, limit int) []domain.ConnectionEvent {
	if limit <= 0 {
		return []domain.ConnectionEvent{}
	}
	n := min(limit, len(events))
	out := make([]domain.ConnectionEvent, 0, n)
	for i := len(events) - 1; i >= len(events)-n; i-- {
		out = append(out, events[i])
	}
	return out
}
