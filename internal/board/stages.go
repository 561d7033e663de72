package board

import (
	"os"
	"path/filepath"

	"github.com/ripi-dev/ripi/internal/types"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// StageSet is the fixed, ordered set of stage directories under one board
// root, plus the archive root. It is the only authority on which directories
// may hold issues.
type StageSet struct {
	root string
	dirs []stageDir
}

type stageDir struct {
	stage types.Stage
	path  string
}

// NewStageSet lays the stages out under root. root should already be absolute
// and clean; Board takes care of that.
func NewStageSet(root string) *StageSet {
	s := &StageSet{root: root}
	for _, st := range types.Stages() {
		s.dirs = append(s.dirs, stageDir{stage: st, path: filepath.Join(root, string(st))})
	}
	return s
}

// Root returns the board root.
func (s *StageSet) Root() string { return s.root }

// Path returns the directory of stage st, or "" if st is not a stage.
func (s *StageSet) Path(st types.Stage) string {
	for _, d := range s.dirs {
		if d.stage == st {
			return d.path
		}
	}
	return ""
}

// Paths returns every stage directory in board order.
func (s *StageSet) Paths() []string {
	out := make([]string, len(s.dirs))
	for i, d := range s.dirs {
		out[i] = d.path
	}
	return out
}

// ArchivePath returns the hidden directory that receives closed issues.
func (s *StageSet) ArchivePath() string {
	return filepath.Join(s.root, types.ArchiveDir)
}

// Contains reports whether path is exactly one of the stage directories.
// Relative paths are taken relative to the board root. The comparison is on
// the cleaned path, never on the base name alone, so "elsewhere/todo" is not
// a stage.
func (s *StageSet) Contains(path string) bool {
	_, ok := s.StageOf(path)
	return ok
}

// StageOf returns the stage whose directory is exactly path.
func (s *StageSet) StageOf(path string) (types.Stage, bool) {
	p := s.abs(path)
	for _, d := range s.dirs {
		if d.path == p {
			return d.stage, true
		}
	}
	return "", false
}

// Ensure creates every missing stage directory and the archive root, each
// with an empty marker file in it. Existing directories are left untouched, so a
// second call changes nothing. The returned paths are the ones created.
//
// There is no rollback: if the third stage fails, the first two stay on disk
// and calling Ensure again finishes the job.
func (s *StageSet) Ensure() ([]string, error) {
	var created []string
	for _, d := range s.dirs {
		if isDir(d.path) {
			continue
		}
		if err := os.Mkdir(d.path, dirPerms); err != nil {
			return created, ioErr("create stage dir", d.path, err)
		}
		marker := filepath.Join(d.path, types.StageMarker)
		if err := os.WriteFile(marker, nil, filePerms); err != nil {
			return created, ioErr("create stage marker", marker, err)
		}
		created = append(created, d.path)
	}

	archive := s.ArchivePath()
	if !isDir(archive) {
		if err := os.Mkdir(archive, dirPerms); err != nil {
			return created, ioErr("create archive dir", archive, err)
		}
		marker := filepath.Join(archive, types.StageMarker)
		if err := os.WriteFile(marker, nil, filePerms); err != nil {
			return created, ioErr("create archive marker", marker, err)
		}
		created = append(created, archive)
	}
	return created, nil
}

// abs resolves path against the board root and cleans it.
func (s *StageSet) abs(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	return filepath.Clean(path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
