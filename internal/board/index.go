package board

import (
	"os"
	"path/filepath"

	"github.com/ripi-dev/ripi/internal/debug"
	"github.com/ripi-dev/ripi/internal/types"
)

// Index maps issue names to issues. It is a cache of the stage directories
// with the lifetime of one command: build it with Board.Rebuild, use it, drop it.
type Index struct {
	stages *StageSet
	byName map[string]*Issue
	order  []*Issue
}

// NewIndex returns an empty index over stages.
func NewIndex(stages *StageSet) *Index {
	return &Index{stages: stages, byName: make(map[string]*Issue)}
}

// Add inserts issue. A name that is already indexed is an AlreadyExistsError
// naming the existing location, and the index is left as it was. There is no
// replace.
func (x *Index) Add(issue *Issue) error {
	if existing, ok := x.byName[issue.Name]; ok {
		return &AlreadyExistsError{Name: issue.Name, Location: existing.Path}
	}
	x.byName[issue.Name] = issue
	x.order = append(x.order, issue)
	return nil
}

// Get looks up an issue by name.
func (x *Index) Get(name string) (*Issue, bool) {
	issue, ok := x.byName[name]
	return issue, ok
}

// Len returns the number of indexed issues.
func (x *Index) Len() int { return len(x.order) }

// Issues returns every issue in stage order, then directory order.
func (x *Index) Issues() []*Issue {
	out := make([]*Issue, len(x.order))
	copy(out, x.order)
	return out
}

// InStage returns the issues held by stage st.
func (x *Index) InStage(st types.Stage) []*Issue {
	var out []*Issue
	for _, issue := range x.order {
		if issue.Stage == st {
			out = append(out, issue)
		}
	}
	return out
}

// Resolve finds the single issue input refers to. input is either a bare
// name, or a path (relative to the board root, or absolute) whose last
// segment is the name:
//
//  1. a bare name present in the index resolves directly;
//  2. otherwise the last path segment is looked up, and the path is accepted
//     only if its parent is a stage directory and the whole cleaned path is
//     the location the index recorded for that name.
//
// A path naming a real issue from the wrong stage is refused: the issue
// returned always lives where the caller said it does.
func (x *Index) Resolve(input string) (*Issue, error) {
	if input == "" {
		return nil, &NoMatchError{Input: input}
	}
	if issue, ok := x.byName[input]; ok {
		debug.Logf("resolve %q: matched by name\n", input)
		return issue, nil
	}

	p := x.stages.abs(input)
	issue, ok := x.byName[filepath.Base(p)]
	if !ok {
		return nil, &NoMatchError{Input: input}
	}
	if !x.stages.Contains(filepath.Dir(p)) {
		return nil, &InvalidStageError{Path: input}
	}
	if p != issue.Path {
		return nil, &NoMatchError{Input: input}
	}
	debug.Logf("resolve %q: matched by path %s\n", input, p)
	return issue, nil
}

// scan builds a fresh index from the stage directories, one level deep. Every
// child directory of a stage is an issue. A stage directory that does not
// exist yet is an empty stage.
func scan(stages *StageSet) (*Index, error) {
	idx := NewIndex(stages)
	for _, st := range types.Stages() {
		dir := stages.Path(st)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				debug.Logf("stage %s missing, treating as empty\n", dir)
				continue
			}
			return nil, ioErr("read stage dir", dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			issue := NewIssue(e.Name(), filepath.Join(dir, e.Name()), st)
			if err := idx.Add(issue); err != nil {
				return nil, err
			}
		}
	}
	return idx, nil
}

// scanArchive lists the archived issues. They are not part of the index.
func scanArchive(stages *StageSet) ([]*Issue, error) {
	dir := stages.ArchivePath()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ioErr("read archive dir", dir, err)
	}
	var out []*Issue
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		out = append(out, &Issue{Name: e.Name(), Path: filepath.Join(dir, e.Name()), Archived: true})
	}
	return out, nil
}
