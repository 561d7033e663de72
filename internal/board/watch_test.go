package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ripi-dev/ripi/internal/types"
)

// startWatch runs Watch in the background and returns a channel that receives
// one value per onChange call.
func startWatch(t *testing.T, b *Board) <-chan struct{} {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- b.Watch(ctx, 20*time.Millisecond, func() { changes <- struct{}{} })
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	return changes
}

func waitChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatchReportsCreateAndMove(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	changes := startWatch(t, b)

	_, err := b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)
	waitChange(t, changes)

	_, err = b.Move(ctx, "fix_login_bug", types.StageDoing)
	require.NoError(t, err)
	waitChange(t, changes)
}

func TestWatchReportsStatusOfExistingIssue(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	_, err := b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)

	changes := startWatch(t, b)
	_, err = b.SetStatus(ctx, "fix_login_bug", statusPtr(types.StatusDoing))
	require.NoError(t, err)
	waitChange(t, changes)
}

func TestWatchStopsOnCancel(t *testing.T) {
	b := newTestBoard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Watch(ctx, time.Millisecond, func() {}))
}

func TestWatchDirs(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	res, err := b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageBacklog})
	require.NoError(t, err)

	dirs := b.watchDirs()
	require.Contains(t, dirs, b.Stages().Path(types.StageBacklog))
	require.Contains(t, dirs, res.Issue.Path)
	require.NotContains(t, dirs, b.Stages().ArchivePath())
}
