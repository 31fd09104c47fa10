// Package project provides project discovery and settings resolution.
package project

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/jimasp/behave-vsc-sub002/internal/behaveconfig"
	"github.com/jimasp/behave-vsc-sub002/internal/config"
)

// ErrNoProjectRoot is returned when no project marker is found.
var ErrNoProjectRoot = errors.New("no .behaverun directory or behave configuration file found (or any parent up to the root)")

// FindRoot walks up from the current working directory until it finds a
// project root.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds a directory
// containing a .behaverun settings directory or a behave configuration file.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if isRoot(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}

func isRoot(dir string) bool {
	if info, err := os.Stat(filepath.Join(dir, config.DirName)); err == nil && info.IsDir() {
		return true
	}
	for _, name := range behaveconfig.FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
