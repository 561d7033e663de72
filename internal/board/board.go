// Package board keeps a kanban board on the filesystem consistent.
//
// A board is a root directory holding one directory per stage. Every issue is
// a directory directly inside exactly one stage, named by its slug. The tree is
// the database: nothing is persisted besides it. Each operation rebuilds the
// name index from the tree (Board.Rebuild), checks the invariant it needs,
// then mutates the tree.
//
// The package never reads the process working directory. The board root is
// given once to New and every path is derived from it.
package board

import (
	"context"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ripi-dev/ripi/internal/debug"
	"github.com/ripi-dev/ripi/internal/idgen"
	"github.com/ripi-dev/ripi/internal/telemetry"
	"github.com/ripi-dev/ripi/internal/types"
)

// Board is a kanban board rooted at one directory.
type Board struct {
	root     string
	stages   *StageSet
	inst     *telemetry.BoardInstruments
	rebuilds int
}

// Result describes a completed mutation.
type Result struct {
	// Issue is the issue as it stands after the operation.
	Issue *Issue
	// Paths lists every path the operation created, changed or removed, for
	// the commit adapter. Empty when the operation was a no-op.
	Paths []string
}

// CreateOptions controls where a new issue lands.
type CreateOptions struct {
	Stage  types.Stage
	Status *types.Status
	// Body is optional text written under the description heading.
	Body string
}

// New returns the board rooted at root. root is made absolute and, when
// possible, symlink-free, so that path comparisons are structural.
func New(root string) *Board {
	root = canonicalizePath(root)
	return &Board{
		root:   root,
		stages: NewStageSet(root),
		inst:   telemetry.NewBoardInstruments(),
	}
}

// Root returns the canonical board root.
func (b *Board) Root() string { return b.root }

// Stages returns the board's stage set.
func (b *Board) Stages() *StageSet { return b.stages }

// Init creates the board root if needed and ensures every stage directory.
// It is idempotent.
func (b *Board) Init(ctx context.Context) (res *Result, err error) {
	ctx, span, start := b.inst.Op(ctx, "init")
	defer func() { b.inst.Done(ctx, span, start, err) }()

	if err := os.MkdirAll(b.root, dirPerms); err != nil {
		return nil, ioErr("create board root", b.root, err)
	}
	created, err := b.stages.Ensure()
	if err != nil {
		return nil, err
	}
	return &Result{Paths: created}, nil
}

// Rebuild scans every stage directory and returns a fresh index. It is the
// only way to obtain an index, and every call is counted (see Rebuilds).
func (b *Board) Rebuild(ctx context.Context) (idx *Index, err error) {
	ctx, span, start := b.inst.Op(ctx, "rebuild")
	defer func() { b.inst.Done(ctx, span, start, err) }()

	b.rebuilds++
	idx, err = scan(b.stages)
	if err != nil {
		return nil, err
	}
	b.inst.Rebuilt(ctx, idx.Len())
	debug.Logf("index rebuilt: %d issues (rebuild #%d)\n", idx.Len(), b.rebuilds)
	return idx, nil
}

// Rebuilds returns how many times this board has rebuilt its index.
func (b *Board) Rebuilds() int { return b.rebuilds }

// List rebuilds the index; it exists so read-only commands name what they do.
func (b *Board) List(ctx context.Context) (*Index, error) {
	return b.Rebuild(ctx)
}

// Archived lists the issues in the archive root. Archived issues are outside
// the index, so this does not count as a rebuild.
func (b *Board) Archived(ctx context.Context) (issues []*Issue, err error) {
	ctx, span, start := b.inst.Op(ctx, "archived")
	defer func() { b.inst.Done(ctx, span, start, err) }()

	return scanArchive(b.stages)
}

// Resolve rebuilds the index and resolves input against it.
func (b *Board) Resolve(ctx context.Context, input string) (*Issue, error) {
	idx, err := b.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Resolve(input)
}

// Create adds a new issue titled title to opts.Stage. The slug of the title is
// its name; a name already present in any stage is an AlreadyExistsError and
// nothing is written.
func (b *Board) Create(ctx context.Context, title string, opts CreateOptions) (res *Result, err error) {
	ctx, span, start := b.inst.Op(ctx, "create", attribute.String("board.stage", string(opts.Stage)))
	defer func() { b.inst.Done(ctx, span, start, err) }()

	stageDir := b.stages.Path(opts.Stage)
	if stageDir == "" {
		return nil, &InvalidStageError{Path: string(opts.Stage)}
	}
	name, err := idgen.Slug(title)
	if err != nil {
		return nil, err
	}

	idx, err := b.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	issue := NewIssue(name, filepath.Join(stageDir, name), opts.Stage)
	issue.Title = title
	issue.Body = opts.Body
	if err := idx.Add(issue); err != nil {
		return nil, err
	}

	if err := issue.Write(); err != nil {
		return nil, err
	}
	if opts.Status != nil {
		if err := writeStatus(issue.Path, opts.Status); err != nil {
			return nil, err
		}
	}
	return &Result{Issue: issue, Paths: []string{issue.Path}}, nil
}

// Close moves the issue into the archive root. The archive is flat, so a
// second issue closed under the same name is an AlreadyExistsError.
func (b *Board) Close(ctx context.Context, input string) (res *Result, err error) {
	ctx, span, start := b.inst.Op(ctx, "close")
	defer func() { b.inst.Done(ctx, span, start, err) }()

	issue, err := b.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	archive := b.stages.ArchivePath()
	target := filepath.Join(archive, issue.Name)
	if _, err := os.Lstat(target); err == nil {
		return nil, &AlreadyExistsError{Name: issue.Name, Location: target}
	}
	if err := os.MkdirAll(archive, dirPerms); err != nil {
		return nil, ioErr("create archive dir", archive, err)
	}
	if err := os.Rename(issue.Path, target); err != nil {
		return nil, ioErr("archive issue", issue.Path, err)
	}

	closed := &Issue{Name: issue.Name, Title: issue.Title, Path: target, Archived: true}
	return &Result{Issue: closed, Paths: []string{issue.Path, target}}, nil
}

// Delete removes the issue directory and everything in it.
func (b *Board) Delete(ctx context.Context, input string) (res *Result, err error) {
	ctx, span, start := b.inst.Op(ctx, "delete")
	defer func() { b.inst.Done(ctx, span, start, err) }()

	issue, err := b.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(issue.Path); err != nil {
		return nil, ioErr("delete issue dir", issue.Path, err)
	}
	return &Result{Issue: issue, Paths: []string{issue.Path}}, nil
}

// Move relocates the issue into stage st. Moving to the stage it is already
// in is a no-op with no paths.
func (b *Board) Move(ctx context.Context, input string, st types.Stage) (res *Result, err error) {
	ctx, span, start := b.inst.Op(ctx, "move", attribute.String("board.stage", string(st)))
	defer func() { b.inst.Done(ctx, span, start, err) }()

	stageDir := b.stages.Path(st)
	if stageDir == "" {
		return nil, &InvalidStageError{Path: string(st)}
	}
	issue, err := b.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	if issue.Stage == st {
		return &Result{Issue: issue}, nil
	}

	target := filepath.Join(stageDir, issue.Name)
	if _, err := os.Lstat(target); err == nil {
		return nil, &AlreadyExistsError{Name: issue.Name, Location: target}
	}
	if err := os.Rename(issue.Path, target); err != nil {
		return nil, ioErr("move issue", issue.Path, err)
	}

	moved := &Issue{Name: issue.Name, Title: issue.Title, Path: target, Stage: st}
	return &Result{Issue: moved, Paths: []string{issue.Path, target}}, nil
}

// SetStatus replaces the issue's status marker; nil clears it. An issue whose
// directory already holds an invalid or ambiguous marker is refused as is.
func (b *Board) SetStatus(ctx context.Context, input string, status *types.Status) (res *Result, err error) {
	ctx, span, start := b.inst.Op(ctx, "status")
	defer func() { b.inst.Done(ctx, span, start, err) }()

	issue, err := b.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := writeStatus(issue.Path, status); err != nil {
		return nil, err
	}
	return &Result{Issue: issue, Paths: []string{issue.Path}}, nil
}

// canonicalizePath makes path absolute and resolves symlinks, falling back to
// the best form available when either step fails.
func canonicalizePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	canonical, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return absPath
	}
	return canonical
}
