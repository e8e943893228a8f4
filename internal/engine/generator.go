package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// Generator: источник случайных идентификаторов и синтетических данных счета.
// Вынесен в интерфейс, чтобы тесты могли зафиксировать выдачу.
type Generator interface {
	SessionID() string
	AccountID() string
	Mask() string
	Balances() domain.Balances
}

// RandGenerator: ChaCha8 под мьютексом. С одинаковым seed выдает одинаковую последовательность.
type RandGenerator struct {
	mu  sync.Mutex
	src *rand.ChaCha8
	rng *rand.Rand
}

// NewSeededGenerator: детерминированный генератор (тесты, воспроизводимые демо).
func NewSeededGenerator(seed uint64) *RandGenerator {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:8], seed)
	return newRandGenerator(s)
}

// NewGenerator: генератор с криптослучайным seed.
func NewGenerator() *RandGenerator {
	var s [32]byte
	if _, err := crand.Read(s[:]); err != nil {
		panic(fmt.Sprintf("engine: crypto/rand unavailable: %v", err))
	}
	return newRandGenerator(s)
}

func newRandGenerator(seed [32]byte) *RandGenerator {
	src := rand.NewChaCha8(seed)
	return &RandGenerator{src: src, rng: rand.New(src)}
}

func (g *RandGenerator) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.uuidLocked().String()
}

func (g *RandGenerator) AccountID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return "acc_" + strings.ReplaceAll(g.uuidLocked().String(), "-", "")[:16]
}

// Mask: видны только последние 4 цифры номера.
func (g *RandGenerator) Mask() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("****%04d", g.rng.IntN(10000))
}

// Balances: available от 100.00 до 10 000.00, current = available + холды до 500.00.
func (g *RandGenerator) Balances() domain.Balances {
	g.mu.Lock()
	availableCents := 10_000 + g.rng.Int64N(990_001)
	pendingCents := g.rng.Int64N(50_001)
	g.mu.Unlock()

	available := decimal.New(availableCents, -2)
	current := available.Add(decimal.New(pendingCents, -2)).Round(2)
	return domain.Balances{
		Available: available.InexactFloat64(),
		Current:   current.InexactFloat64(),
	}
}

func (g *RandGenerator) uuidLocked() uuid.UUID {
	// ChaCha8.Read не возвращает ошибок
	id, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		panic(fmt.Sprintf("engine: uuid from chacha8: %v", err))
	}
	return id
}
