// Package slug derives URL-safe product identifiers from display names and
// picks the first free variant among the slugs already stored.
package slug

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/storefront/catalog-api/internal/core/ports"
)

// Fallback is used when a name yields no usable characters.
const Fallback = "product"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// Derive turns a product name into a base slug: accents are folded, the text
// is lowercased and trimmed, whitespace runs become one hyphen, anything
// outside [a-z0-9-] is dropped and hyphen runs are collapsed and trimmed.
// It never returns an empty string.
func Derive(name string) string {
	s := strings.ToLower(strings.TrimSpace(foldAccents(name)))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return Fallback
	}
	return s
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// EnsureUnique returns base if it is free, otherwise base-n for the smallest
// n >= 1 not already taken. The product being updated (excludeID) does not
// count as a collision.
func EnsureUnique(ctx context.Context, lookup ports.SlugLookup, base string, excludeID int64) (string, error) {
	existing, err := lookup.SlugsLike(ctx, base, excludeID)
	if err != nil {
		return "", err
	}
	return pick(base, existing), nil
}

func pick(base string, existing []string) string {
	taken := make(map[int]struct{}, len(existing))
	prefix := base + "-"
	for _, s := range existing {
		if s == base {
			taken[0] = struct{}{}
			continue
		}
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		suffix := s[len(prefix):]
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 || strconv.Itoa(n) != suffix {
			continue
		}
		taken[n] = struct{}{}
	}

	for n := 0; ; n++ {
		if _, ok := taken[n]; ok {
			continue
		}
		if n == 0 {
			return base
		}
		return prefix + strconv.Itoa(n)
	}
}
