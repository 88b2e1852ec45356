package slug

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubLookup struct {
	slugs map[int64]string
	err   error
}

func (s *stubLookup) SlugsLike(_ context.Context, base string, excludeID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []string
	for id, sl := range s.slugs {
		if id == excludeID {
			continue
		}
		if sl == base || strings.HasPrefix(sl, base+"-") {
			out = append(out, sl)
		}
	}
	return out, nil
}

func TestDerive(t *testing.T) {
	cases := map[string]string{
		"Air Test!!":              "air-test",
		"  Air   Max  90 ":        "air-max-90",
		"Zapatos Niño Talla 32":   "zapatos-nino-talla-32",
		"--Already--Hyphenated--": "already-hyphenated",
		"Tab\tand\nnewline":       "tab-and-newline",
		"a - b":                   "a-b",
	}
	for in, want := range cases {
		if got := Derive(in); got != want {
			t.Errorf("Derive(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDerive_Fallback(t *testing.T) {
	for _, in := range []string{"", "   ", "!!!", "---", "★☆"} {
		if got := Derive(in); got != Fallback {
			t.Errorf("Derive(%q) = %q, want fallback %q", in, got, Fallback)
		}
	}
}

func TestEnsureUnique_SequentialProducts(t *testing.T) {
	lookup := &stubLookup{slugs: map[int64]string{}}
	ctx := context.Background()

	first, err := EnsureUnique(ctx, lookup, "air-test", 0)
	if err != nil {
		t.Fatalf("EnsureUnique: %v", err)
	}
	if first != "air-test" {
		t.Fatalf("expected air-test, got %s", first)
	}
	lookup.slugs[1] = first

	second, err := EnsureUnique(ctx, lookup, "air-test", 0)
	if err != nil {
		t.Fatalf("EnsureUnique: %v", err)
	}
	if second != "air-test-1" {
		t.Fatalf("expected air-test-1, got %s", second)
	}
}

func TestEnsureUnique_FillsSmallestGap(t *testing.T) {
	lookup := &stubLookup{slugs: map[int64]string{
		1: "shoe",
		2: "shoe-1",
		3: "shoe-3",
		4: "shoe-box",
		5: "shoe-02",
	}}

	got, err := EnsureUnique(context.Background(), lookup, "shoe", 0)
	if err != nil {
		t.Fatalf("EnsureUnique: %v", err)
	}
	if got != "shoe-2" {
		t.Fatalf("expected shoe-2, got %s", got)
	}
}

func TestEnsureUnique_BaseFreeDespiteLongerSlugs(t *testing.T) {
	lookup := &stubLookup{slugs: map[int64]string{1: "air-test-shoe", 2: "air-test-2"}}

	got, err := EnsureUnique(context.Background(), lookup, "air-test", 0)
	if err != nil {
		t.Fatalf("EnsureUnique: %v", err)
	}
	if got != "air-test" {
		t.Fatalf("expected air-test, got %s", got)
	}
}

func TestEnsureUnique_ExcludesSelf(t *testing.T) {
	lookup := &stubLookup{slugs: map[int64]string{7: "runner"}}

	got, err := EnsureUnique(context.Background(), lookup, "runner", 7)
	if err != nil {
		t.Fatalf("EnsureUnique: %v", err)
	}
	if got != "runner" {
		t.Fatalf("expected runner to be kept for its own product, got %s", got)
	}
}

func TestEnsureUnique_LookupError(t *testing.T) {
	boom := errors.New("db down")
	if _, err := EnsureUnique(context.Background(), &stubLookup{err: boom}, "x", 0); !errors.Is(err, boom) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}
