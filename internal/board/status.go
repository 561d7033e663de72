package board

import (
	"os"
	"path/filepath"

	"github.com/ripi-dev/ripi/internal/types"
)

// StatusFromDirectory derives an issue's status from the non-directory
// entries directly inside dir (symlinks count), ignoring the description document:
//
//   - no marker: nil, the issue has no status yet
//   - one marker: its parsed Status, or an InvalidStatusError
//   - more: a MultipleStatusMarkersError listing all of them
//
// It never writes. The ambiguous case is an error rather than a pick because
// any pick would silently hide a corrupted board.
func StatusFromDirectory(dir string) (*types.Status, error) {
	markers, err := statusMarkers(dir)
	if err != nil {
		return nil, err
	}

	switch len(markers) {
	case 0:
		return nil, nil
	case 1:
		status, err := types.ParseStatus(markers[0])
		if err != nil {
			return nil, &InvalidStatusError{Dir: dir, Name: markers[0]}
		}
		return &status, nil
	default:
		return nil, &MultipleStatusMarkersError{Dir: dir, Files: markers}
	}
}

// statusMarkers lists candidate marker file names in directory order.
func statusMarkers(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioErr("read issue dir", dir, err)
	}
	var markers []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == DescriptionFile {
			continue
		}
		markers = append(markers, e.Name())
	}
	return markers, nil
}

// writeStatus replaces the marker in dir. The directory must currently hold
// zero or one valid marker; a corrupt directory is refused untouched. A nil
// status only clears.
func writeStatus(dir string, status *types.Status) error {
	current, err := StatusFromDirectory(dir)
	if err != nil {
		return err
	}
	if current != nil {
		old := filepath.Join(dir, current.FileName())
		if err := os.Remove(old); err != nil {
			return ioErr("remove status marker", old, err)
		}
	}
	if status == nil {
		return nil
	}
	if !status.IsValid() {
		return &InvalidStatusError{Dir: dir, Name: status.String()}
	}
	marker := filepath.Join(dir, status.FileName())
	if err := os.WriteFile(marker, nil, filePerms); err != nil {
		return ioErr("create status marker", marker, err)
	}
	return nil
}
