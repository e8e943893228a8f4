package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// RingStore: кольцевой буфер фиксированной емкости, без файла.
// При переполнении вытесняется самое старое событие.
type RingStore struct {
	mu    sync.Mutex
	buf   []domain.ConnectionEvent
	start int // Индекс самого старого элемента
	size  int
}

func NewRingStore(capacity int) (*RingStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("eventlog: ring capacity must be positive, got %d", capacity)
	}
	return &RingStore{buf: make([]domain.ConnectionEvent, capacity)}, nil
}

func (r *RingStore) Append(_ context.Context, event domain.ConnectionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = event
		r.size++
		return nil
	}
	// Полный буфер: перезаписываем самый старый и сдвигаем начало
	r.buf[r.start] = event
	r.start = (r.start + 1) % len(r.buf)
	return nil
}

func (r *RingStore) Recent(_ context.Context, limit int) ([]domain.ConnectionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := make([]domain.ConnectionEvent, r.size)
	for i := 0; i < r.size; i++ {
		ordered[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return reverseTail(ordered, limit), nil
}

// Len: текущее число событий в буфере.
func (r *RingStore) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
