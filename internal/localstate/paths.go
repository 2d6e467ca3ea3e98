// Package localstate resolves where the local build target keeps its data.
package localstate

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	envHome    = "SAKINA_HOME" // override for tests and custom installs
	dirName    = ".sakina"     // default under $HOME
	dbFilename = "sakina.db"
)

// DataDir returns the directory where local state is stored (~/.sakina).
func DataDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DBPath returns the absolute path to the SQLite database file.
func DBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}

// EnsureParent creates the directory holding path with 0700 permissions.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
