package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ripi-dev/ripi/internal/types"
)

// Sentinel errors. Every error returned by this package matches exactly one of
// them under errors.Is, so callers can branch on the failure class without
// parsing messages.
var (
	// ErrInvalidStage is returned when a path does not lie directly under a
	// recognized stage directory, or a stage name is unknown.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrAlreadyExists is returned when a name is already taken on the board.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNoMatch is returned when an input resolves to no issue.
	ErrNoMatch = errors.New("no matching issue")

	// ErrInvalidStatus is returned when a status marker file has a name
	// outside the status vocabulary.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrMultipleStatusMarkers is returned when an issue directory holds more
	// than one status marker.
	ErrMultipleStatusMarkers = errors.New("multiple status markers")

	// ErrIO wraps filesystem failures.
	ErrIO = errors.New("i/o failure")
)

// AlreadyExistsError names the issue that collided and where it already lives.
type AlreadyExistsError struct {
	Name     string
	Location string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("issue %s (%s) already exists, rename it before continuing", e.Name, e.Location)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// NoMatchError carries the user input verbatim.
type NoMatchError struct {
	Input string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("input %q doesn't match any issue", e.Input)
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }

// InvalidStageError reports a path or stage name that is not a recognized stage.
type InvalidStageError struct {
	Path string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("%q isn't in a recognized stage directory", e.Path)
}

func (e *InvalidStageError) Is(target error) bool { return target == ErrInvalidStage }

// InvalidStatusError reports a marker file whose name is not in the vocabulary.
type InvalidStatusError struct {
	Dir  string
	Name string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("status %q in %s is incorrect. Possible values are %s",
		e.Name, e.Dir, strings.Join(types.StatusNames(), ", "))
}

func (e *InvalidStatusError) Is(target error) bool { return target == ErrInvalidStatus }

// MultipleStatusMarkersError lists every marker found, in directory listing order.
type MultipleStatusMarkersError struct {
	Dir   string
	Files []string
}

func (e *MultipleStatusMarkersError) Error() string {
	return fmt.Sprintf("status can't be more than one in %s. Found %s", e.Dir, strings.Join(e.Files, ", "))
}

func (e *MultipleStatusMarkersError) Is(target error) bool { return target == ErrMultipleStatusMarkers }

// IOError wraps an underlying filesystem error with the attempted action and path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("could not %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

func ioErr(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
