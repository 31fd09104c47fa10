package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/sirupsen/logrus"

	"github.com/jimasp/behave-vsc-sub002/internal/config"
	"github.com/jimasp/behave-vsc-sub002/internal/paths"
)

// Files whose presence marks behave's base directory.
const (
	StepsDirName    = "steps"
	EnvironmentFile = "environment.py"
)

// FindFeatureFolders returns the absolute folders under workDir that contain
// feature files, sorted. Folders matching an excluded pattern, or below one,
// are skipped. Patterns are matched against workDir-relative slash paths.
func FindFeatureFolders(workDir string, excluded []string) ([]string, error) {
	matches, err := zglob.Glob(filepath.Join(workDir, "**", "*"+paths.FeatureExt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to search for feature files: %w", err)
	}

	seen := make(map[string]bool)
	var folders []string
	for _, match := range matches {
		dir := filepath.Dir(match)
		if seen[dir] {
			continue
		}
		seen[dir] = true

		rel, err := filepath.Rel(workDir, dir)
		if err != nil {
			continue
		}
		if IsExcluded(filepath.ToSlash(rel), excluded) {
			continue
		}
		folders = append(folders, dir)
	}

	sort.Strings(folders)
	return folders, nil
}

// IsExcluded reports whether relPath, or any folder above it, matches one of
// the glob patterns.
func IsExcluded(relPath string, patterns []string) bool {
	if relPath == "." || relPath == "" {
		return false
	}
	parts := strings.Split(relPath, "/")
	for i := range parts {
		candidate := strings.Join(parts[:i+1], "/")
		for _, pattern := range patterns {
			if globMatch(pattern, candidate) {
				return true
			}
		}
	}
	return false
}

func globMatch(pattern, p string) bool {
	if ok, err := zglob.Match(pattern, p); err == nil && ok {
		return true
	}
	// "**/x" must also match "x" at the top level.
	ok, err := zglob.Match(pattern, "/"+p)
	return err == nil && ok
}

// FindBaseDir finds behave's base directory: starting at the project
// relative startRel, walk up until a folder contains a steps folder or an
// environment.py file. The search stops at the project root's parent.
// The result is project relative.
func FindBaseDir(projectRoot, startRel string) (string, error) {
	root := filepath.Clean(projectRoot)
	stop := filepath.Dir(root)

	dir := filepath.Join(root, filepath.FromSlash(startRel))
	if filepath.IsAbs(startRel) {
		dir = filepath.Clean(startRel)
	}

	for dir != stop {
		if exists(filepath.Join(dir, StepsDirName)) || exists(filepath.Join(dir, EnvironmentFile)) {
			rel, err := filepath.Rel(root, dir)
			if err != nil {
				return "", err
			}
			if rel == "." {
				rel = ""
			}
			return filepath.ToSlash(rel), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find a %q folder or %s for %q", StepsDirName, EnvironmentFile, startRel)
}

// StepsFolders returns the project-relative steps folders in lookup order:
// imported step folders as declared, then the base dir's steps folder last.
// Imported folders that do not exist are skipped with a warning. Repeated
// folders keep their first position.
func StepsFolders(projectRoot, baseDir string, imported config.ImportedSteps, log *logrus.Entry) []string {
	var folders []string
	seen := make(map[string]bool)
	add := func(p string) {
		if seen[p] {
			log.Warnf("steps folder %q is listed more than once", p)
			return
		}
		seen[p] = true
		folders = append(folders, p)
	}

	for _, step := range imported {
		if !exists(filepath.Join(projectRoot, filepath.FromSlash(step.RelativePath))) {
			log.Warnf("imported steps path %q not found and will be ignored", step.RelativePath)
			continue
		}
		add(step.RelativePath)
	}

	add(joinRel(baseDir, StepsDirName))
	return folders
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
