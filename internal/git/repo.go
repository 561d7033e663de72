// Package git records board changes as git commits. It shells out to the git
// binary rather than linking a git implementation, so the user's own config
// (identity, signing, hooks) applies to every commit.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotARepository is returned when no .git marker is found.
var ErrNotARepository = errors.New("not a git repository")

// NotARepositoryError names the directory that was checked.
type NotARepositoryError struct {
	Dir string
}

func (e *NotARepositoryError) Error() string {
	return fmt.Sprintf("%s is not a git repository (no .git found)", e.Dir)
}

func (e *NotARepositoryError) Is(target error) bool { return target == ErrNotARepository }

// CheckRepository reports whether dir itself is a repository root. The .git
// marker may be a directory or, in a worktree or submodule, a file.
func CheckRepository(dir string) error {
	if _, err := os.Lstat(filepath.Join(dir, ".git")); err != nil {
		return &NotARepositoryError{Dir: dir}
	}
	return nil
}

// FindRepoRoot walks up from dir to the nearest repository root.
func FindRepoRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	for cur := abs; ; {
		if CheckRepository(cur) == nil {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", &NotARepositoryError{Dir: abs}
		}
		cur = parent
	}
}
