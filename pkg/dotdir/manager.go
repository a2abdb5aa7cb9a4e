// Package dotdir manages the .aikit/ and ~/.aikit directories.
//
// The directory holds the persistent config.toml and the saved chat session
// used by the CLI to resume conversations across invocations.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the aikit directory.
	dirName = ".aikit"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .aikit/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.aikit/ dir
//  3. Home ~/.aikit/ dir
//
// Returns an empty string when no override is given and neither directory
// exists; callers fall back to defaults in that case.
func (m *Manager) Target(overrideDir string) (string, error) {
	switch {
	case overrideDir != "":
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating aikit directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return filepath.Abs(filepath.Join(cwd, dirName))

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir := filepath.Join(home, dirName)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return "", nil
		}
		return filepath.Abs(dir)
	}
}

// Ensure resolves the target directory like Target but creates ~/.aikit/
// when nothing else resolves, so commands that persist state always have a
// home.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil || target != "" {
		return target, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating aikit directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

// localDirExists checks whether a .aikit/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
