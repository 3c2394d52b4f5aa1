package ics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFilename is the name of the generated calendar file.
const DefaultFilename = "random_events.ics"

// DefaultOutputPath returns ~/Downloads/random_events.ics.
func DefaultOutputPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, "Downloads", DefaultFilename), nil
}

// WriteFile writes data to path in one step.
//
// Implementation details:
//   - Ensures the parent directory exists (0755).
//   - Writes to a temp file in the same directory, syncs and renames it, so
//     a failed write never leaves a partial calendar at path.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return errors.New("output path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".randcal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
