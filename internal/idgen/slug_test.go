package idgen

import (
	"errors"
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Fix login bug", "fix_login_bug"},
		{"uppercase", "FIX THE BUG", "fix_the_bug"},
		{"numbers", "Fix issue 123", "fix_issue_123"},
		{"punctuation", "Fix: login (timeout)", "fix_login_timeout"},
		{"hyphens", "fix-login-bug", "fix_login_bug"},
		{"already slug", "fix_login_bug", "fix_login_bug"},
		{"accents", "Déjà vu: 2 bugs", "deja_vu_2_bugs"},
		{"surrounding junk", "  --Refactor parser!!  ", "refactor_parser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Slug(tt.input)
			if err != nil {
				t.Fatalf("Slug(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "!!!", "---"} {
		if _, err := Slug(input); !errors.Is(err, ErrEmptySlug) {
			t.Errorf("Slug(%q) error = %v, want ErrEmptySlug", input, err)
		}
	}
}

func TestSlugTruncatesAtWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 30)
	got, err := Slug(long)
	if err != nil {
		t.Fatalf("Slug: %v", err)
	}
	if len(got) > DefaultMaxSlugLength {
		t.Errorf("len(slug) = %d, want <= %d", len(got), DefaultMaxSlugLength)
	}
	if strings.HasSuffix(got, "_") || strings.HasSuffix(got, "_wor") {
		t.Errorf("slug %q was not cut at a word boundary", got)
	}
}

func TestWithSeparator(t *testing.T) {
	got, err := NewSlugGenerator().WithSeparator("-").Slug("Sprint 12 Kickoff")
	if err != nil {
		t.Fatalf("Slug: %v", err)
	}
	if got != "sprint-12-kickoff" {
		t.Errorf("got %q, want sprint-12-kickoff", got)
	}
}

func TestIsSlug(t *testing.T) {
	if !IsSlug("fix_login_bug") {
		t.Error("fix_login_bug should be a slug")
	}
	if IsSlug("Fix login bug") {
		t.Error("Fix login bug should not be a slug")
	}
}
