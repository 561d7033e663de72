package board

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ripi-dev/ripi/internal/types"
)

// DescriptionFile is the document every issue directory carries. Its first
// line is a markdown heading naming the issue.
const DescriptionFile = "description.md"

// Issue is one unit of work. The directory at Path is the issue: moving or
// removing the directory moves or removes the issue.
type Issue struct {
	// Name is the slug, unique across all stages. It is always the base name of Path.
	Name string `json:"name"`
	// Title is the human-written name. Only known for issues created in this
	// process; issues read back from disk carry just the slug.
	Title string `json:"title,omitempty"`
	// Path is the absolute location of the issue directory.
	Path string `json:"path"`
	// Stage is the stage whose directory holds Path; empty for archived issues.
	Stage types.Stage `json:"stage,omitempty"`
	// Archived is set once the issue has been moved into the archive root.
	Archived bool `json:"archived,omitempty"`
	// Body is written under the heading when the issue is created.
	Body string `json:"-"`
}

// NewIssue returns the issue named name living at path in stage st.
func NewIssue(name, path string, st types.Stage) *Issue {
	return &Issue{Name: name, Path: path, Stage: st}
}

// DescriptionPath returns the location of the issue's description document.
func (i *Issue) DescriptionPath() string {
	return filepath.Join(i.Path, DescriptionFile)
}

// Heading returns the first line written to a new description document.
func (i *Issue) Heading() string {
	title := i.Title
	if title == "" {
		title = i.Name
	}
	return "# " + title
}

// Write creates the issue directory, with any missing parents, then the
// description document inside it.
//
// The two steps are not atomic. If the directory cannot be created the
// document is never attempted; if the document fails, the directory stays
// on disk and the error says so.
func (i *Issue) Write() error {
	if err := os.MkdirAll(i.Path, dirPerms); err != nil {
		return ioErr("create issue dir", i.Path, err)
	}

	desc := i.DescriptionPath()
	f, err := os.OpenFile(desc, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerms) // #nosec G304 -- path under board root
	if err != nil {
		return ioErr("create issue description", desc, err)
	}
	if _, err := fmt.Fprintln(f, i.Heading()); err != nil {
		_ = f.Close()
		return ioErr("write description title at", desc, err)
	}
	if body := strings.TrimSpace(i.Body); body != "" {
		if _, err := fmt.Fprintf(f, "\n%s\n", body); err != nil {
			_ = f.Close()
			return ioErr("write description body at", desc, err)
		}
	}
	if err := f.Close(); err != nil {
		return ioErr("write description title at", desc, err)
	}
	return nil
}

// Status derives the issue's status from its directory.
func (i *Issue) Status() (*types.Status, error) {
	return StatusFromDirectory(i.Path)
}

// Description reads the description document.
func (i *Issue) Description() (string, error) {
	data, err := os.ReadFile(i.DescriptionPath()) // #nosec G304 -- path under board root
	if err != nil {
		return "", ioErr("read issue description", i.DescriptionPath(), err)
	}
	return string(data), nil
}
