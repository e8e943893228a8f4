package eventlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xela07ax/quantumpay/internal/domain"
)

const maxLineSize = 1 << 20

// FileStore пишет по одному JSON-объекту на строку в файл текущего дня
// (events-YYYY-MM-DD.log). Ротация: просто смена имени файла в полночь UTC.
type FileStore struct {
	dir string
	now func() time.Time
	mu  sync.RWMutex // Append под Lock, Recent под RLock
}

type FileStoreOption func(*FileStore)

// WithClock подменяет часы (для тестов ротации).
func WithClock(now func() time.Time) FileStoreOption {
	return func(s *FileStore) {
		s.now = now
	}
}

func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("eventlog: create log dir: %w", err)
	}
	s := &FileStore{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PathFor: имя файла журнала для даты t.
func (s *FileStore) PathFor(t time.Time) string {
	return filepath.Join(s.dir, "events-"+t.UTC().Format(time.DateOnly)+".log")
}

func (s *FileStore) Append(_ context.Context, event domain.ConnectionEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventlog: marshal event: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	// O_APPEND: ОС гарантирует запись в конец, строки разных процессов не перемешиваются
	f, err := os.OpenFile(s.PathFor(s.now()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("eventlog: open day file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("eventlog: append: %w", err)
	}
	return f.Close()
}

// Recent перечитывает файл текущего дня целиком. Битые строки возвращаются как raw-записи,
// недописанный хвост без '\n' пропускается.
func (s *FileStore) Recent(_ context.Context, limit int) ([]domain.ConnectionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.PathFor(s.now()))
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.ConnectionEvent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("eventlog: open day file: %w", err)
	}
	defer f.Close()

	var events []domain.ConnectionEvent
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	sc.Split(completeLines)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		events = append(events, parseLine(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: scan day file: %w", err)
	}

	return reverseTail(events, limit), nil
}

// completeLines: как bufio.ScanLines, но строку без перевода строки в конце файла
// не отдает: ее может дописывать другой процесс.
func completeLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && bytes.IndexByte(data, '\n') < 0 {
		return 0, nil, nil
	}
	return bufio.ScanLines(data, atEOF)
}

// parseLine не теряет строки: все, что не похоже на событие, уходит в Raw.
func parseLine(line []byte) domain.ConnectionEvent {
	var e domain.ConnectionEvent
	if err := json.Unmarshal(line, &e); err != nil || e.Outcome == "" {
		return domain.ConnectionEvent{Outcome: domain.OutcomeRaw, Raw: string(line)}
	}
	return e
}
