package common

import (
	"fmt"
	"os"
)

// EnsureDirectories creates the directories the service writes to.
// Idempotent; called once from the entry point before services start.
func EnsureDirectories(config *Config) error {
	dirs := []string{
		config.Storage.Badger.Path,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
