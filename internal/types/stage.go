// Package types holds the value types shared by the board, the CLI and the
// hooks: stage identifiers and the status vocabulary.
package types

import (
	"fmt"
	"strings"
)

// Stage identifies one kanban column. Its value is the directory name of the
// column under the board root.
type Stage string

// Stage identifiers, in board order.
const (
	StageBacklog Stage = "backlog"
	StageTodo    Stage = "todo"
	StageDoing   Stage = "doing"
	StageStaging Stage = "staging"
	StageClosed  Stage = "closed"
)

// ArchiveDir is the hidden directory, next to the stages, that receives closed
// issues. It is not a stage: nothing under it is indexed.
const ArchiveDir = ".closed"

// StageMarker is the empty file placed in a freshly created stage directory so
// an empty stage can be told apart from a directory that is not a stage.
const StageMarker = ".kanban"

var stages = []Stage{StageBacklog, StageTodo, StageDoing, StageStaging, StageClosed}

// Stages returns every stage in board order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// ParseStage accepts a stage identifier, case-insensitively.
func ParseStage(s string) (Stage, error) {
	want := Stage(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range stages {
		if st == want {
			return st, nil
		}
	}
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = string(st)
	}
	return "", fmt.Errorf("unknown stage %q (valid: %s)", s, strings.Join(names, ", "))
}

// Index returns the position of s in board order, or -1.
func (s Stage) Index() int {
	for i, st := range stages {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) String() string { return string(s) }
