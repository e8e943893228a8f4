package registry

import (
	"testing"

	"github.com/xela07ax/quantumpay/internal/domain"
)

func TestListIsStableAndCopied(t *testing.T) {
	r := MustDefault()

	first := r.List()
	second := r.List()
	if len(first) != len(DefaultBanks) {
		t.Fatalf("len=%d want %d", len(first), len(DefaultBanks))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order changed at %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	// Мутация результата не должна затрагивать реестр
	first[0].Name = "mutated"
	if r.List()[0].Name == "mutated" {
		t.Fatal("List must return a copy")
	}
}

func TestFind(t *testing.T) {
	r := MustDefault()

	testCases := []struct {
		id       string
		found    bool
		failMode domain.FailMode
	}{
		{"chase", true, domain.FailNone},
		{"partnerbank", true, domain.FailServerError},
		{"slowbank", true, domain.FailTimeout},
		{"nope", false, ""},
		{"", false, ""},
	}

	for _, tc := range testCases {
		b, ok := r.Find(tc.id)
		if ok != tc.found {
			t.Fatalf("Find(%q) found=%v want %v", tc.id, ok, tc.found)
		}
		if ok && b.FailMode != tc.failMode {
			t.Fatalf("Find(%q) failMode=%s want %s", tc.id, b.FailMode, tc.failMode)
		}
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]domain.Bank{{ID: "a", Name: "A"}, {ID: "a", Name: "A2"}})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
	_, err = New([]domain.Bank{{Name: "no id"}})
	if err == nil {
		t.Fatal("expected empty id error")
	}
}

func TestNewDefaultsFailMode(t *testing.T) {
	r, err := New([]domain.Bank{{ID: "x", Name: "X"}})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := r.Find("x")
	if b.FailMode != domain.FailNone {
		t.Fatalf("failMode=%q want none", b.FailMode)
	}
}
