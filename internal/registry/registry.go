package registry

import (
	"fmt"

	"github.com/xela07ax/quantumpay/internal/domain"
)

// DefaultBanks: каталог демо-стенда. partnerbank всегда отвечает 500, slowbank отвечает таймаутом.
var DefaultBanks = []domain.Bank{
	{ID: "partnerbank", Name: "Partner Bank", FailMode: domain.FailServerError},
	{ID: "chase", Name: "Chase", FailMode: domain.FailNone},
	{ID: "wellsfargo", Name: "Wells Fargo", FailMode: domain.FailNone},
	{ID: "bofa", Name: "Bank of America", FailMode: domain.FailNone},
	{ID: "citi", Name: "Citi", FailMode: domain.FailNone},
	{ID: "ally", Name: "Ally", FailMode: domain.FailNone},
	{ID: "capitalone", Name: "Capital One", FailMode: domain.FailNone},
	{ID: "truist", Name: "Truist", FailMode: domain.FailNone},
	{ID: "santander", Name: "Santander", FailMode: domain.FailNone},
	{ID: "slowbank", Name: "Slow Bank", FailMode: domain.FailTimeout},
}

// Registry: read-only реестр банков. Инициализируется один раз при старте,
// поэтому мьютекс не нужен: после New никто не пишет.
type Registry struct {
	ordered []domain.Bank
	byID    map[string]domain.Bank
}

// New строит реестр. Дубликаты ID считаются ошибкой сборки каталога.
func New(banks []domain.Bank) (*Registry, error) {
	r := &Registry{
		ordered: make([]domain.Bank, 0, len(banks)),
		byID:    make(map[string]domain.Bank, len(banks)),
	}
	for _, b := range banks {
		if b.ID == "" {
			return nil, fmt.Errorf("registry: bank %q has empty id", b.Name)
		}
		if _, dup := r.byID[b.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate bank id %q", b.ID)
		}
		if b.FailMode == "" {
			b.FailMode = domain.FailNone
		}
		r.ordered = append(r.ordered, b)
		r.byID[b.ID] = b
	}
	return r, nil
}

// MustDefault: реестр с демо-каталогом.
func MustDefault() *Registry {
	r, err := New(DefaultBanks)
	if err != nil {
		panic(err)
	}
	return r
}

// List возвращает копию, порядок стабилен между вызовами.
func (r *Registry) List() []domain.Bank {
	out := make([]domain.Bank, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Find(id string) (domain.Bank, bool) {
	b, ok := r.byID[id]
	return b, ok
}
