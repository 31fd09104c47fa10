package project

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jimasp/behave-vsc-sub002/internal/config"
	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
)

// Project represents a loaded behaverun project.
type Project struct {
	Root     string
	Settings *config.Settings
	Config   *EffectiveConfig
	Warnings []string
}

// Name returns the project name.
func (p *Project) Name() string {
	return p.Config.ProjectName
}

// LoadProject finds and loads a project from the current directory.
func LoadProject(log *logrus.Entry) (*Project, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root, log)
}

// LoadProjectFrom loads settings from a project root and resolves its
// effective configuration. Settings warnings are logged and kept on the
// project.
func LoadProjectFrom(root string, log *logrus.Entry) (*Project, error) {
	settings, warnings, err := config.LoadForProject(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return newProject(root, settings, warnings, log)
}

// LoadProjectWithSettings loads a project root using an explicit settings
// file instead of the one under the project's settings directory.
func LoadProjectWithSettings(root, settingsPath string, log *logrus.Entry) (*Project, error) {
	settings, warnings, err := config.LoadAndValidate(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return newProject(root, settings, warnings, log)
}

func newProject(root string, settings *config.Settings, warnings []string, log *logrus.Entry) (*Project, error) {
	for _, w := range warnings {
		log.Warn(w)
	}

	cfg, err := Resolve(settings, root, log)
	if err != nil {
		return nil, err
	}

	return &Project{
		Root:     cfg.ProjectRoot,
		Settings: settings,
		Config:   cfg,
		Warnings: warnings,
	}, nil
}

// LoadProjects loads several project roots. Project names must be unique
// because they key run results.
func LoadProjects(roots []string, logger *logrus.Logger) ([]*Project, error) {
	projects := make([]*Project, 0, len(roots))
	names := make(map[string]string)
	for _, root := range roots {
		p, err := LoadProjectFrom(root, logger.WithField("project", root))
		if err != nil {
			return nil, err
		}
		if prev, dup := names[p.Name()]; dup {
			return nil, behaverrors.Configf("projects %q and %q share the name %q", prev, p.Root, p.Name())
		}
		names[p.Name()] = p.Root
		projects = append(projects, p)
	}
	return projects, nil
}
