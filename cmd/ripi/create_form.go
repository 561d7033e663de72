package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/ripi-dev/ripi/internal/types"
)

var errFormAborted = errors.New("form aborted")

// runCreateForm asks for the issue interactively, starting from whatever was
// already given on the command line.
func runCreateForm(in createInput) (createInput, error) {
	stageOptions := make([]huh.Option[string], 0, len(types.Stages()))
	for _, st := range types.Stages() {
		stageOptions = append(stageOptions, huh.NewOption(string(st), string(st)))
	}

	statusOptions := []huh.Option[string]{huh.NewOption("None", "")}
	for _, name := range types.StatusNames() {
		statusOptions = append(statusOptions, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description("Becomes the issue name, e.g. \"Fix login bug\" -> fix_login_bug").
				Placeholder("e.g., Fix login bug").
				Value(&in.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),

			huh.NewText().
				Title("Description").
				Description("Written under the title in description.md (optional)").
				CharLimit(5000).
				Value(&in.Body),

			huh.NewSelect[string]().
				Title("Stage").
				Options(stageOptions...).
				Value(&in.Stage),

			huh.NewSelect[string]().
				Title("Status").
				Options(statusOptions...).
				Value(&in.Status),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return in, errFormAborted
		}
		return in, fmt.Errorf("form error: %w", err)
	}
	in.Title = strings.TrimSpace(in.Title)
	return in, nil
}
