// Package validation holds input rules shared by services: slugs, passwords and struct tags.
package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SlugPattern matches identifiers made of letters, digits, underscores and hyphens.
var SlugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var (
	slugInvalidChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators   = regexp.MustCompile(`[-\s]+`)
)

// maxSlugBase leaves room for the timestamp and counter suffixes inside a 255-char column.
const maxSlugBase = 200

// maxSlugAttempts bounds the counter search.
const maxSlugAttempts = 1000

// IsSlug reports whether s matches SlugPattern.
func IsSlug(s string) bool {
	return SlugPattern.MatchString(s)
}

// Slugify lowercases s, strips accents and non-ASCII characters, and joins words with hyphens.
// It returns "" when nothing usable remains.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range folded {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	out := strings.ToLower(b.String())
	out = slugInvalidChars.ReplaceAllString(out, "")
	out = slugSeparators.ReplaceAllString(strings.TrimSpace(out), "-")
	out = strings.Trim(out, "-_")
	if len(out) > maxSlugBase {
		out = strings.TrimRight(out[:maxSlugBase], "-_")
	}
	return out
}

// SlugOrPlaceholder slugifies s and falls back to placeholder when the result is empty.
func SlugOrPlaceholder(s, placeholder string) string {
	if slug := Slugify(s); slug != "" {
		return slug
	}
	return placeholder
}

// ExistsFunc reports whether candidate is already taken in the caller's scope.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// UniqueSlug returns base if it is free, otherwise base-1, base-2 and so on.
// Two writers can still pick the same candidate; the unique index decides.
func UniqueSlug(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	candidate := base
	for i := 1; i <= maxSlugAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

// TimestampedSlug builds "<slug>-<YYYYMMDDHHMMSSffffff>" from title, using
// placeholder when the title has no usable characters.
func TimestampedSlug(title, placeholder string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s-%s%06d", SlugOrPlaceholder(title, placeholder),
		now.Format("20060102150405"), now.Nanosecond()/1000)
}
