package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// outputJSON writes data as pretty-printed JSON to w.
func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}

// outputJSONError outputs an error as JSON to stderr and exits with code 1.
func outputJSONError(err error, code string) {
	errObj := map[string]string{"error": err.Error()}
	if code != "" {
		errObj["code"] = code
	}
	encoder := json.NewEncoder(os.Stderr)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(errObj) // Best effort: if JSON encoding fails, error is already printed to stderr
	os.Exit(1)
}
