package localstate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvHome overrides the data directory. A leading ~ is expanded.
	EnvHome = "DISCOVERY_HOME"

	dirName    = ".mymichlin"
	dbFilename = "discovery.db"
)

// DataDir returns the directory holding the local database, DISCOVERY_HOME
// or ~/.mymichlin, creating it with 0700 permissions.
func DataDir() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return dir, nil
}

func dataDir() (string, error) {
	custom := strings.TrimSpace(os.Getenv(EnvHome))
	if custom != "" && custom != "~" && !strings.HasPrefix(custom, "~/") {
		return filepath.Clean(custom), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	if custom == "" {
		return filepath.Join(home, dirName), nil
	}
	return filepath.Join(home, strings.TrimPrefix(custom, "~")), nil
}

// DBPath returns the SQLite database file inside DataDir.
func DBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}
