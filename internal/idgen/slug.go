// Package idgen turns human-written issue and sprint names into slugs: the
// filesystem-safe identifiers used as directory and file names on the board.
package idgen

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxSlugLength caps slugs well below common filesystem name limits.
const DefaultMaxSlugLength = 64

// ErrEmptySlug is returned when a name contains nothing a slug can be built from.
var ErrEmptySlug = errors.New("name has no letters or digits to build a slug from")

// nonAlphanumericRegex matches any run of characters that may not appear in a slug.
var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// SlugGenerator converts names to slugs joined by a fixed separator.
type SlugGenerator struct {
	separator     string
	maxSlugLength int
}

// NewSlugGenerator returns a generator using "_" as separator, the form used
// for issue directories.
func NewSlugGenerator() *SlugGenerator {
	return &SlugGenerator{separator: "_", maxSlugLength: DefaultMaxSlugLength}
}

// WithSeparator returns a copy of g joining words with sep.
func (g *SlugGenerator) WithSeparator(sep string) *SlugGenerator {
	c := *g
	c.separator = sep
	return &c
}

// Slug lowercases name, folds accented letters to their base letter, and joins
// the remaining alphanumeric words with the separator.
//
//	"Fix login bug"   -> "fix_login_bug"
//	"Déjà vu: 2 bugs" -> "deja_vu_2_bugs"
func (g *SlugGenerator) Slug(name string) (string, error) {
	folded, _, err := transform.String(foldAccents(), name)
	if err != nil {
		folded = name
	}

	words := strings.Fields(nonAlphanumericRegex.ReplaceAllString(strings.ToLower(folded), " "))
	if len(words) == 0 {
		return "", ErrEmptySlug
	}

	slug := strings.Join(words, g.separator)
	if g.maxSlugLength > 0 && len(slug) > g.maxSlugLength {
		truncated := slug[:g.maxSlugLength]
		if cut := strings.LastIndex(truncated, g.separator); cut > g.maxSlugLength/2 {
			truncated = truncated[:cut]
		}
		slug = strings.Trim(truncated, g.separator)
	}
	return slug, nil
}

// Slug is a shorthand for NewSlugGenerator().Slug(name).
func Slug(name string) (string, error) {
	return NewSlugGenerator().Slug(name)
}

// IsSlug reports whether s is already in canonical "_"-separated slug form.
func IsSlug(s string) bool {
	got, err := Slug(s)
	return err == nil && got == s
}

// foldAccents decomposes characters and drops the combining marks, so "é"
// becomes "e" before the alphanumeric filter runs.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
