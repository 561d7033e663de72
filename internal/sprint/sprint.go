// Package sprint stores time-boxed sprints next to the board, one TOML file
// per sprint under <board>/.sprints/.
package sprint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ripi-dev/ripi/internal/board"
	"github.com/ripi-dev/ripi/internal/idgen"
	"github.com/ripi-dev/ripi/internal/timeparsing"
)

// Dir is the directory, under the board root, holding sprint files.
const Dir = ".sprints"

// ErrInvalidRange is returned when a sprint ends before it starts.
var ErrInvalidRange = errors.New("sprint ends before it starts")

// Sprint is a named date range. Dates are kept in their YYYY-MM-DD form so the
// files stay readable and diff cleanly.
type Sprint struct {
	Name  string `toml:"name" json:"name"`
	Start string `toml:"start" json:"start"`
	End   string `toml:"end" json:"end"`

	// Slug is derived from Name and names the file; it is not stored.
	Slug string `toml:"-" json:"slug"`
}

// New validates the dates and returns the sprint.
func New(name, start, end string) (*Sprint, error) {
	slug, err := idgen.NewSlugGenerator().WithSeparator("-").Slug(name)
	if err != nil {
		return nil, fmt.Errorf("sprint name %q: %w", name, err)
	}
	s := &Sprint{Name: strings.TrimSpace(name), Start: start, End: end, Slug: slug}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks both dates and their order. A one-day sprint (start == end)
// is allowed.
func (s *Sprint) Validate() error {
	start, err := timeparsing.ParseDate(s.Start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := timeparsing.ParseDate(s.End)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, s.Start, s.End)
	}
	return nil
}

// Days returns the number of calendar days covered, both ends included.
func (s *Sprint) Days() int {
	start, err1 := timeparsing.ParseDate(s.Start)
	end, err2 := timeparsing.ParseDate(s.End)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Contains reports whether the calendar day of t falls inside the sprint.
func (s *Sprint) Contains(t time.Time) bool {
	day := timeparsing.FormatDate(t.UTC())
	return s.Start <= day && day <= s.End
}

// Store reads and writes sprint files for one board.
type Store struct {
	dir string
}

// NewStore returns the store for the board rooted at root.
func NewStore(root string) *Store {
	return &Store{dir: filepath.Join(root, Dir)}
}

// Dir returns the sprint directory.
func (st *Store) Dir() string { return st.dir }

func (st *Store) path(slug string) string {
	return filepath.Join(st.dir, slug+".toml")
}

// Create writes a new sprint file and returns its path. A sprint with the same
// slug is an AlreadyExistsError.
func (st *Store) Create(s *Sprint) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return "", &board.IOError{Op: "create sprint dir", Path: st.dir, Err: err}
	}

	path := st.path(s.Slug)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G304 -- path under board root
	if err != nil {
		if os.IsExist(err) {
			return "", &board.AlreadyExistsError{Name: s.Slug, Location: path}
		}
		return "", &board.IOError{Op: "create sprint file", Path: path, Err: err}
	}
	if err := writeSprint(f, s, path); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// writeSprint encodes s into w and closes it. A failed close is reported,
// since the file may be truncated.
func writeSprint(w io.WriteCloser, s *Sprint, path string) error {
	if err := toml.NewEncoder(w).Encode(s); err != nil {
		_ = w.Close()
		return &board.IOError{Op: "write sprint file", Path: path, Err: err}
	}
	if err := w.Close(); err != nil {
		return &board.IOError{Op: "close sprint file", Path: path, Err: err}
	}
	return nil
}

// Get loads the sprint named by slug.
func (st *Store) Get(slug string) (*Sprint, error) {
	path := st.path(slug)
	var s Sprint
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &board.NoMatchError{Input: slug}
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	s.Slug = slug
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// List returns every sprint ordered by start date, then slug. A missing
// directory means no sprints.
func (st *Store) List() ([]*Sprint, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &board.IOError{Op: "read sprint dir", Path: st.dir, Err: err}
	}

	var out []*Sprint
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		s, err := st.Get(strings.TrimSuffix(e.Name(), ".toml"))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

// Current returns the sprints that contain now.
func (st *Store) Current(now time.Time) ([]*Sprint, error) {
	all, err := st.List()
	if err != nil {
		return nil, err
	}
	var out []*Sprint
	for _, s := range all {
		if s.Contains(now) {
			out = append(out, s)
		}
	}
	return out, nil
}
