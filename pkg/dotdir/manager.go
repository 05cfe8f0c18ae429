// Package dotdir manages the .satchel/ and ~/.satchel directories.
//
// The directory holds the config.toml file and, by default, the persisted
// vector index artifacts under index/.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the satchel directory.
	dirName = ".satchel"

	// indexDirName is the default subdirectory for persisted index artifacts.
	indexDirName = "index"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .satchel/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.satchel/ dir
//  3. Home ~/.satchel/ dir
//  4. If none found, attempt to create ~/.satchel/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating satchel directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// IndexDir returns the default index artifact directory inside the resolved
// .satchel/ directory, creating it if needed.
func (m *Manager) IndexDir(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, indexDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating index directory %s: %w", dir, err)
	}

	return dir, nil
}

// localDirExists checks whether a .satchel/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
