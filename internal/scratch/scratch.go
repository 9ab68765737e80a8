// Package scratch manages the temporary folder that holds rendered images
// between download and upload.
package scratch

import (
	"fmt"
	"os"

	"percy-figma/internal/logger"
)

// DefaultDir is the scratch folder, relative to the working directory.
const DefaultDir = "percy_figma_images"

// Ensure creates dir if it does not exist. An existing directory is fine.
func Ensure(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
	}
	return nil
}

// Remove deletes dir and everything under it. A missing dir is not an error.
func Remove(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove scratch directory %s: %w", dir, err)
	}
	logger.Info("[INFO] Deleted folder: %s\n", dir)
	return nil
}
