package types

import (
	"fmt"
	"strings"
)

// Status is the marker an issue directory carries to say where work on it stands.
// It is persisted as an empty file, named by FileName, inside the issue directory.
type Status int

// Status values, in declaration order. The order is the order used when the
// vocabulary is listed in error messages.
const (
	StatusTodo  Status = iota // issue must be done and is waiting to begin
	StatusDoing               // issue is in execution
)

// statusFiles maps every Status to the file name that represents it on disk.
// It is the single source of truth for the vocabulary; init checks that it is
// a bijection so an unknown name can never map to two values.
var statusFiles = []struct {
	status Status
	file   string
}{
	{StatusTodo, "Todo"},
	{StatusDoing, "Doing"},
}

var (
	statusByFile = make(map[string]Status, len(statusFiles))
	fileByStatus = make(map[Status]string, len(statusFiles))
)

func init() {
	for _, entry := range statusFiles {
		if _, dup := statusByFile[entry.file]; dup {
			panic(fmt.Sprintf("types: status file name %q declared twice", entry.file))
		}
		if _, dup := fileByStatus[entry.status]; dup {
			panic(fmt.Sprintf("types: status %d declared twice", entry.status))
		}
		statusByFile[entry.file] = entry.status
		fileByStatus[entry.status] = entry.file
	}
}

// Statuses returns the whole vocabulary in declaration order.
func Statuses() []Status {
	out := make([]Status, 0, len(statusFiles))
	for _, entry := range statusFiles {
		out = append(out, entry.status)
	}
	return out
}

// StatusNames returns the marker file names in declaration order.
func StatusNames() []string {
	out := make([]string, 0, len(statusFiles))
	for _, entry := range statusFiles {
		out = append(out, entry.file)
	}
	return out
}

// ParseStatus maps a marker file name back to its Status. Matching is exact:
// "todo" is not "Todo", because the file name on disk is what is being parsed.
func ParseStatus(name string) (Status, error) {
	if s, ok := statusByFile[name]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("status %q is not one of %s", name, strings.Join(StatusNames(), ", "))
}

// IsValid reports whether s belongs to the vocabulary.
func (s Status) IsValid() bool {
	_, ok := fileByStatus[s]
	return ok
}

// FileName returns the marker file name for s, or "" for values outside the vocabulary.
func (s Status) FileName() string {
	return fileByStatus[s]
}

func (s Status) String() string {
	if name, ok := fileByStatus[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText encodes the status as its marker file name.
func (s Status) MarshalText() ([]byte, error) {
	name, ok := fileByStatus[s]
	if !ok {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText parses a marker file name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
