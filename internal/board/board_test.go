package board

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripi-dev/ripi/internal/types"
)

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	b := New(t.TempDir())
	_, err := b.Init(context.Background())
	require.NoError(t, err)
	return b
}

func statusPtr(s types.Status) *types.Status { return &s }

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := New(filepath.Join(t.TempDir(), "nested", "board"))

	res, err := b.Init(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Paths, len(types.Stages())+1)

	for _, st := range types.Stages() {
		dir := b.Stages().Path(st)
		assert.DirExists(t, dir)
		assert.FileExists(t, filepath.Join(dir, types.StageMarker))
	}
	assert.DirExists(t, b.Stages().ArchivePath())

	res, err = b.Init(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Paths, "second init must create nothing")
}

func TestEnsureLeavesExistingStagesAlone(t *testing.T) {
	b := New(t.TempDir())
	todo := b.Stages().Path(types.StageTodo)
	require.NoError(t, os.Mkdir(todo, 0o755))

	created, err := b.Stages().Ensure()
	require.NoError(t, err)
	assert.NotContains(t, created, todo)
	assert.NoFileExists(t, filepath.Join(todo, types.StageMarker))
}

func TestCreateWritesDescription(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)

	res, err := b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)

	want := filepath.Join(b.Root(), "todo", "fix_login_bug")
	assert.Equal(t, "fix_login_bug", res.Issue.Name)
	assert.Equal(t, want, res.Issue.Path)
	assert.Equal(t, []string{want}, res.Paths)

	desc, err := res.Issue.Description()
	require.NoError(t, err)
	assert.Equal(t, "# Fix login bug\n", desc)

	status, err := res.Issue.Status()
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestCreateWithStatus(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)

	res, err := b.Create(ctx, "Ship it", CreateOptions{Stage: types.StageDoing, Status: statusPtr(types.StatusDoing)})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(res.Issue.Path, "Doing"))

	status, err := res.Issue.Status()
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, types.StatusDoing, *status)
}

func TestCreateRejectsDuplicateAcrossStages(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)

	_, err := b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)

	_, err = b.Create(ctx, "fix LOGIN bug!", CreateOptions{Stage: types.StageBacklog})
	require.ErrorIs(t, err, ErrAlreadyExists)

	var exists *AlreadyExistsError
	require.True(t, errors.As(err, &exists))
	assert.Equal(t, filepath.Join(b.Root(), "todo", "fix_login_bug"), exists.Location)
	assert.NoDirExists(t, filepath.Join(b.Root(), "backlog", "fix_login_bug"))
}

func TestCreateRejectsUnknownStage(t *testing.T) {
	b := newTestBoard(t)
	_, err := b.Create(context.Background(), "Anything", CreateOptions{Stage: types.Stage("done")})
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestIndexAddLeavesIndexUnchangedOnCollision(t *testing.T) {
	b := New(t.TempDir())
	idx := NewIndex(b.Stages())

	first := NewIssue("a", filepath.Join(b.Root(), "todo", "a"), types.StageTodo)
	require.NoError(t, idx.Add(first))

	dup := NewIssue("a", filepath.Join(b.Root(), "doing", "a"), types.StageDoing)
	err := idx.Add(dup)
	require.ErrorIs(t, err, ErrAlreadyExists)

	assert.Equal(t, 1, idx.Len())
	got, ok := idx.Get("a")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestRebuildFailsOnDuplicateNameOnDisk(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	require.NoError(t, os.Mkdir(filepath.Join(b.Root(), "todo", "dup"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(b.Root(), "staging", "dup"), 0o755))

	_, err := b.Rebuild(ctx)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRebuildTreatsMissingStageAsEmpty(t *testing.T) {
	ctx := context.Background()
	b := New(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(b.Root(), "doing", "only_one"), 0o755))

	idx, err := b.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	assert.Len(t, idx.InStage(types.StageDoing), 1)
	assert.Empty(t, idx.InStage(types.StageTodo))
}

func TestRebuildIgnoresFilesAndArchive(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	require.NoError(t, os.WriteFile(filepath.Join(b.Root(), "todo", "notes.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(b.Stages().ArchivePath(), "old"), 0o755))

	idx, err := b.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestRebuildsAreCounted(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	assert.Equal(t, 0, b.Rebuilds())

	_, err := b.Create(ctx, "one", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Rebuilds())

	_, err = b.Resolve(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Rebuilds())

	_, err = b.Archived(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Rebuilds(), "listing the archive is not a rebuild")
}

func TestResolveByNameAndPathAgree(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	_, err := b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)

	inputs := []string{
		"fix_login_bug",
		"todo/fix_login_bug",
		"todo/../todo/fix_login_bug/",
		filepath.Join(b.Root(), "todo", "fix_login_bug"),
	}
	var paths []string
	for _, in := range inputs {
		issue, err := b.Resolve(ctx, in)
		require.NoError(t, err, in)
		paths = append(paths, issue.Path)
	}
	for _, p := range paths[1:] {
		assert.Equal(t, paths[0], p)
	}
}

func TestResolveFailures(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	_, err := b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(b.Root(), "elsewhere", "todo"), 0o755))

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrNoMatch},
		{"unknown name", "nope", ErrNoMatch},
		{"unknown path", "todo/nope", ErrNoMatch},
		{"wrong stage", "doing/fix_login_bug", ErrNoMatch},
		{"not under a stage", "random/fix_login_bug", ErrInvalidStage},
		{"stage-named dir elsewhere", "elsewhere/todo/fix_login_bug", ErrInvalidStage},
		{"archive is not a stage", ".closed/fix_login_bug", ErrInvalidStage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Resolve(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStatusFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptionFile), []byte("# x\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "attachments"), 0o755))

	status, err := StatusFromDirectory(dir)
	require.NoError(t, err)
	assert.Nil(t, status, "description and subdirectories are not markers")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Todo"), nil, 0o644))
	status, err = StatusFromDirectory(dir)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, types.StatusTodo, *status)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Doing"), nil, 0o644))
	_, err = StatusFromDirectory(dir)
	require.ErrorIs(t, err, ErrMultipleStatusMarkers)
	var multi *MultipleStatusMarkersError
	require.True(t, errors.As(err, &multi))
	assert.ElementsMatch(t, []string{"Todo", "Doing"}, multi.Files)
}

func TestStatusFromDirectoryCountsSymlinkedMarkers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Todo"), nil, 0o644))
	if err := os.Symlink("Todo", filepath.Join(dir, "Doing")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	status, err := StatusFromDirectory(dir)
	assert.Nil(t, status)
	require.ErrorIs(t, err, ErrMultipleStatusMarkers)
	var multi *MultipleStatusMarkersError
	require.True(t, errors.As(err, &multi))
	assert.ElementsMatch(t, []string{"Todo", "Doing"}, multi.Files)
}

func TestStatusFromDirectoryRejectsLoneSymlinkOutsideVocabulary(t *testing.T) {
	dir := t.TempDir()
	if err := os.Symlink(DescriptionFile, filepath.Join(dir, "Blocked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := StatusFromDirectory(dir)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatusFromDirectoryInvalidMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Blocked"), nil, 0o644))

	_, err := StatusFromDirectory(dir)
	require.ErrorIs(t, err, ErrInvalidStatus)
	assert.Contains(t, err.Error(), "Todo, Doing")
}

func TestStatusFromMissingDirectory(t *testing.T) {
	_, err := StatusFromDirectory(filepath.Join(t.TempDir(), "gone"))
	assert.ErrorIs(t, err, ErrIO)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	_, err := b.Create(ctx, "Task", CreateOptions{Stage: types.StageTodo, Status: statusPtr(types.StatusTodo)})
	require.NoError(t, err)

	res, err := b.SetStatus(ctx, "task", statusPtr(types.StatusDoing))
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(res.Issue.Path, "Todo"))
	assert.FileExists(t, filepath.Join(res.Issue.Path, "Doing"))

	_, err = b.SetStatus(ctx, "task", nil)
	require.NoError(t, err)
	status, err := res.Issue.Status()
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestSetStatusRefusesCorruptDirectory(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	res, err := b.Create(ctx, "Task", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(res.Issue.Path, "Todo"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(res.Issue.Path, "Doing"), nil, 0o644))

	_, err = b.SetStatus(ctx, "task", nil)
	require.ErrorIs(t, err, ErrMultipleStatusMarkers)
	assert.FileExists(t, filepath.Join(res.Issue.Path, "Todo"))
	assert.FileExists(t, filepath.Join(res.Issue.Path, "Doing"))
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	created, err := b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)

	res, err := b.Move(ctx, "todo/fix_login_bug", types.StageDoing)
	require.NoError(t, err)
	assert.Equal(t, types.StageDoing, res.Issue.Stage)
	assert.NoDirExists(t, created.Issue.Path)
	assert.FileExists(t, filepath.Join(res.Issue.Path, DescriptionFile))
	assert.Equal(t, []string{created.Issue.Path, res.Issue.Path}, res.Paths)

	_, err = b.Resolve(ctx, "todo/fix_login_bug")
	assert.ErrorIs(t, err, ErrNoMatch)

	noop, err := b.Move(ctx, "fix_login_bug", types.StageDoing)
	require.NoError(t, err)
	assert.Empty(t, noop.Paths)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	created, err := b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageStaging})
	require.NoError(t, err)

	res, err := b.Close(ctx, "fix_login_bug")
	require.NoError(t, err)
	assert.True(t, res.Issue.Archived)
	assert.Empty(t, res.Issue.Stage)
	assert.Equal(t, filepath.Join(b.Stages().ArchivePath(), "fix_login_bug"), res.Issue.Path)
	assert.NoDirExists(t, created.Issue.Path)

	idx, err := b.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())

	archived, err := b.Archived(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "fix_login_bug", archived[0].Name)

	// A second issue with the same name can be created, but not closed.
	_, err = b.Create(ctx, "Fix login bug", CreateOptions{Stage: types.StageTodo})
	require.NoError(t, err)
	_, err = b.Close(ctx, "fix_login_bug")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.DirExists(t, filepath.Join(b.Root(), "todo", "fix_login_bug"))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	created, err := b.Create(ctx, "Throwaway", CreateOptions{Stage: types.StageBacklog, Status: statusPtr(types.StatusTodo)})
	require.NoError(t, err)

	_, err = b.Delete(ctx, "backlog/throwaway")
	require.NoError(t, err)
	assert.NoDirExists(t, created.Issue.Path)

	_, err = b.Delete(ctx, "throwaway")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestIssueWriteDoesNotOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "todo", "x")
	issue := NewIssue("x", dir, types.StageTodo)
	require.NoError(t, issue.Write())

	err := issue.Write()
	require.ErrorIs(t, err, ErrIO)
	assert.Contains(t, err.Error(), DescriptionFile)
}

func TestStageSetContainsIsStructural(t *testing.T) {
	s := NewStageSet("/board")
	assert.True(t, s.Contains("/board/todo"))
	assert.True(t, s.Contains("todo"))
	assert.True(t, s.Contains("/board/doing/../todo/"))
	assert.False(t, s.Contains("/elsewhere/todo"))
	assert.False(t, s.Contains("/board/.closed"))
	assert.False(t, s.Contains("/board"))
}

func TestCreateWithBody(t *testing.T) {
	b := newTestBoard(t)
	res, err := b.Create(context.Background(), "Fix login bug", CreateOptions{
		Stage: types.StageBacklog,
		Body:  "Users get logged out after 5 minutes.\n",
	})
	require.NoError(t, err)

	desc, err := res.Issue.Description()
	require.NoError(t, err)
	assert.Equal(t, "# Fix login bug\n\nUsers get logged out after 5 minutes.\n", desc)
}
