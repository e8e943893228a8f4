package flow

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/quantumpay/internal/domain"
	"github.com/xela07ax/quantumpay/internal/engine"
)

const (
	DefaultPollInterval = 5 * time.Second
	fallbackErrorText   = "Connection failed"
)

// Snapshot: состояние экрана для отрисовки.
type Snapshot struct {
	State    State
	Banks    []engine.BankView
	Selected *engine.BankView
	Loading  bool
	Banner   *Banner
	Events   []domain.ConnectionEvent
}

// Flow: четыре экрана Bill → Intro → FindBank → ShareData.
// Пока открыт ShareData, события подтягиваются в фоне; Close останавливает опрос.
type Flow struct {
	api          API
	logger       *zap.Logger
	pollInterval time.Duration
	onUpdate     func(Snapshot)

	mu       sync.Mutex
	state    State
	banks    []engine.BankView
	selected *engine.BankView
	loading  bool
	banner   *Banner
	events   []domain.ConnectionEvent
	closed   bool

	stopPoll context.CancelFunc
	pollDone chan struct{}
}

type Option func(*Flow)

func WithPollInterval(d time.Duration) Option {
	return func(f *Flow) {
		f.pollInterval = d
	}
}

// WithOnUpdate вызывается после каждого изменения состояния (вне мьютекса).
func WithOnUpdate(fn func(Snapshot)) Option {
	return func(f *Flow) {
		f.onUpdate = fn
	}
}

func New(api API, logger *zap.Logger, opts ...Option) *Flow {
	f := &Flow{
		api:          api,
		logger:       logger.Named("flow"),
		pollInterval: DefaultPollInterval,
		state:        StateBill,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PayByBank: Bill → Intro.
func (f *Flow) PayByBank() error {
	if err := f.advance(StateBill, StateIntro); err != nil {
		return err
	}
	f.notify()
	return nil
}

// Next: Intro → FindBank. Список банков загружается один раз.
// Ошибка загрузки не блокирует переход: экран покажет пустой список.
func (f *Flow) Next(ctx context.Context) error {
	if err := f.advance(StateIntro, StateFindBank); err != nil {
		return err
	}

	f.mu.Lock()
	loaded := len(f.banks) > 0
	f.mu.Unlock()

	if !loaded {
		banks, err := f.api.Banks(ctx)
		if err != nil {
			f.logger.Warn("failed to fetch banks", zap.Error(err))
			banks = nil
		}
		f.mu.Lock()
		f.banks = banks
		f.mu.Unlock()
	}
	f.notify()
	return nil
}

// SelectBank: FindBank → ShareData, сразу запускает опрос событий.
func (f *Flow) SelectBank(bankID string) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state != StateFindBank {
		f.mu.Unlock()
		return fmt.Errorf("%w: select bank from %s", ErrInvalidTransition, f.state)
	}
	idx := slices.IndexFunc(f.banks, func(b engine.BankView) bool { return b.ID == bankID })
	if idx < 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownBank, bankID)
	}
	bank := f.banks[idx]
	f.selected = &bank
	f.state = StateShareData

	ctx, cancel := context.WithCancel(context.Background())
	f.stopPoll = cancel
	f.pollDone = make(chan struct{})
	go f.poll(ctx, f.pollDone)
	f.mu.Unlock()

	f.notify()
	return nil
}

// Connect: действие пользователя на экране ShareData. На время вызова выставляется Loading.
func (f *Flow) Connect(ctx context.Context) (Banner, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return Banner{}, ErrClosed
	case f.state != StateShareData || f.selected == nil:
		f.mu.Unlock()
		return Banner{}, fmt.Errorf("%w: connect from %s", ErrInvalidTransition, f.state)
	case f.loading:
		f.mu.Unlock()
		return Banner{}, ErrConnectInProgress
	}
	f.loading = true
	f.banner = nil
	bankID := f.selected.ID
	f.mu.Unlock()
	f.notify()

	resp, err := f.api.Connect(ctx, bankID)
	banner := bannerFor(resp, err)

	f.mu.Lock()
	f.loading = false
	f.banner = &banner
	f.mu.Unlock()
	f.notify()

	return banner, nil
}

func bannerFor(resp *engine.ConnectResponse, err error) Banner {
	switch {
	case err != nil:
		return Banner{Kind: BannerError, Text: err.Error()}
	case resp == nil:
		return Banner{Kind: BannerError, Text: fallbackErrorText}
	case resp.Success && resp.Account != nil:
		return Banner{Kind: BannerSuccess, Text: fmt.Sprintf("Connected: %s %s", resp.Account.Institution, resp.Account.Mask)}
	case resp.Message != "":
		return Banner{Kind: BannerError, Text: resp.Message}
	default:
		return Banner{Kind: BannerError, Text: fallbackErrorText}
	}
}

// Snapshot возвращает копию текущего состояния.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	s := Snapshot{
		State:   f.state,
		Banks:   slices.Clone(f.banks),
		Loading: f.loading,
		Events:  slices.Clone(f.events),
	}
	if f.selected != nil {
		b := *f.selected
		s.Selected = &b
	}
	if f.banner != nil {
		b := *f.banner
		s.Banner = &b
	}
	return s
}

// Close останавливает опрос и дожидается выхода горутины. Повторный вызов безопасен.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	stop, done := f.stopPoll, f.pollDone
	f.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
}

func (f *Flow) advance(from, to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.state != from {
		return fmt.Errorf("%w: %s -> %s from %s", ErrInvalidTransition, from, to, f.state)
	}
	f.state = to
	return nil
}

func (f *Flow) poll(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		f.loadEvents(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (f *Flow) loadEvents(ctx context.Context) {
	events, err := f.api.RecentEvents(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		f.logger.Debug("failed to fetch events", zap.Error(err))
		events = nil
	}

	f.mu.Lock()
	f.events = events
	f.mu.Unlock()
	f.notify()
}

func (f *Flow) notify() {
	if f.onUpdate == nil {
		return
	}
	f.onUpdate(f.Snapshot())
}
