package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ripi-dev/ripi/internal/board"
	"github.com/ripi-dev/ripi/internal/debug"
)

// Committer snapshots board changes into the repository rooted at RepoRoot.
type Committer struct {
	RepoRoot string
	// Author overrides the commit author ("Name <email>") when set.
	Author string
	// LockWait is how long a git step keeps retrying while another process
	// holds the index lock. Zero fails on the first attempt.
	LockWait time.Duration
}

// NewCommitter returns a committer for the repository containing dir.
func NewCommitter(dir string) (*Committer, error) {
	root, err := FindRepoRoot(dir)
	if err != nil {
		return nil, err
	}
	return &Committer{RepoRoot: root}, nil
}

// Commit stages paths and records them under msg. With no paths every
// pending change in the working tree is included.
//
// A path that no longer exists (the old location of a moved, closed or
// deleted issue) is removed from the index instead of added, so it need not
// have been tracked before.
func (c *Committer) Commit(ctx context.Context, paths []string, msg string) error {
	if len(paths) == 0 {
		if _, err := c.run(ctx, "add", "-A"); err != nil {
			return err
		}
	}
	for _, p := range paths {
		rel, err := c.rel(p)
		if err != nil {
			return err
		}
		if _, statErr := os.Lstat(p); statErr == nil {
			_, err = c.run(ctx, "add", "-A", "--", rel)
		} else {
			_, err = c.run(ctx, "rm", "-r", "-q", "--cached", "--ignore-unmatch", "--", rel)
		}
		if err != nil {
			return err
		}
	}

	args := []string{"commit", "-m", msg}
	if c.Author != "" {
		args = append(args, "--author", c.Author)
	}
	if _, err := c.run(ctx, args...); err != nil {
		return err
	}
	debug.Logf("committed %d path(s): %s\n", len(paths), msg)
	return nil
}

// HasChanges reports whether the working tree has anything to commit.
func (c *Committer) HasChanges(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// gitCmd creates a git command running at the repository root.
func (c *Committer) gitCmd(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.RepoRoot
	cmd.Env = append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_TEMPLATE_DIR=",
	)
	return cmd
}

func newLockRetryBackoff(maxElapsed time.Duration) backoff.BackOff {
	if maxElapsed <= 0 {
		return &backoff.StopBackOff{}
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = maxElapsed
	return bo
}

// isLockContention reports whether git failed only because another git
// process holds the index lock.
func isLockContention(stderr string) bool {
	return strings.Contains(stderr, "index.lock") && strings.Contains(stderr, "File exists")
}

// run executes git, retrying for up to LockWait while the index is locked by
// another process.
func (c *Committer) run(ctx context.Context, args ...string) (string, error) {
	var out string
	err := backoff.Retry(func() error {
		stdout, stderr, err := c.runOnce(ctx, args...)
		if err == nil {
			out = stdout
			return nil
		}
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = strings.TrimSpace(stdout)
		}
		wrapped := &board.IOError{
			Op:   "git " + args[0] + " in",
			Path: c.RepoRoot,
			Err:  fmt.Errorf("%w: %s", err, msg),
		}
		if isLockContention(stderr) {
			debug.Logf("git %s: index locked, retrying\n", args[0])
			return wrapped
		}
		return backoff.Permanent(wrapped)
	}, backoff.WithContext(newLockRetryBackoff(c.LockWait), ctx))
	if err != nil {
		return "", err
	}
	return out, nil
}

func (c *Committer) runOnce(ctx context.Context, args ...string) (string, string, error) {
	cmd := c.gitCmd(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// rel makes p relative to the repository root. Paths outside it are refused
// before git gets a chance to.
func (c *Committer) rel(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	rel, err := filepath.Rel(c.RepoRoot, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &board.IOError{Op: "commit path outside repository", Path: p, Err: fmt.Errorf("not under %s", c.RepoRoot)}
	}
	return rel, nil
}
