package project

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jimasp/behave-vsc-sub002/internal/behaveconfig"
	"github.com/jimasp/behave-vsc-sub002/internal/config"
	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/paths"
)

// DefaultFeaturesDir is behave's default features folder.
const DefaultFeaturesDir = "features"

// EffectiveConfig is the fully resolved, immutable configuration of one
// project for one run. All paths are project relative with "/" separators
// unless stated otherwise.
type EffectiveConfig struct {
	ProjectRoot string `yaml:"projectRoot"` // absolute
	ProjectName string `yaml:"projectName"`

	WorkingDir    string `yaml:"workingDir"`
	WorkingDirAbs string `yaml:"-"`

	// ConfigFile is the behave configuration file that declared paths.
	ConfigFile     string   `yaml:"configFile,omitempty"`
	RawConfigPaths []string `yaml:"rawConfigPaths,omitempty"`
	ConfigPaths    []string `yaml:"configPaths,omitempty"`
	// OutsidePaths are declared paths outside the project root, absolute.
	OutsidePaths []string `yaml:"outsidePaths,omitempty"`

	BaseDir        string   `yaml:"baseDir"`
	FeatureFolders []string `yaml:"featureFolders"`
	StepsFolders   []string `yaml:"stepsFolders"`

	Env           map[string]string    `yaml:"env"`
	ImportedSteps config.ImportedSteps `yaml:"importedSteps,omitempty"`
	Profiles      []config.RunProfile  `yaml:"runProfiles,omitempty"`

	RunParallel           bool          `yaml:"runParallel"`
	RunProjectsInParallel bool          `yaml:"runProjectsInParallel"`
	JustMyCode            bool          `yaml:"justMyCode"`
	XRay                  bool          `yaml:"xRay"`
	RunnerCommand         []string      `yaml:"runnerCommand"`
	PythonExecutable      string        `yaml:"pythonExecutable"`
	ResultsTimeout        time.Duration `yaml:"resultsTimeout"`
	ExcludedPaths         []string      `yaml:"excludedPaths"`
}

// Profile returns the named run profile.
func (c *EffectiveConfig) Profile(name string) (*config.RunProfile, bool) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], true
		}
	}
	return nil, false
}

// Resolve merges settings, behave's declared config paths and the project
// layout into an EffectiveConfig. Later sources win: defaults, then
// settings, then the behave configuration file.
func Resolve(s *config.Settings, projectRoot string, log *logrus.Entry) (*EffectiveConfig, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, behaverrors.WrapConfig(err, "invalid project root")
	}

	workRel := paths.Normalise(s.BehaveWorkingDirectory)
	workAbs := filepath.Join(root, filepath.FromSlash(workRel))
	if info, err := os.Stat(workAbs); err != nil || !info.IsDir() {
		return nil, behaverrors.Configf("behave working directory %q not found", workAbs)
	}

	declared, err := behaveconfig.Read(workAbs)
	if err != nil {
		return nil, behaverrors.WrapConfig(err, "failed to read behave configuration")
	}

	cfg := &EffectiveConfig{
		ProjectRoot:           root,
		ProjectName:           filepath.Base(root),
		WorkingDir:            workRel,
		WorkingDirAbs:         workAbs,
		ConfigFile:            declared.File,
		RawConfigPaths:        declared.Paths,
		Env:                   s.BaseEnv(),
		ImportedSteps:         s.ImportedSteps,
		Profiles:              s.RunProfiles,
		RunParallel:           deref(s.RunParallel, false),
		RunProjectsInParallel: deref(s.RunMultiRootProjectsInParallel, true),
		JustMyCode:            deref(s.JustMyCode, true),
		XRay:                  s.XRay,
		RunnerCommand:         []string(s.RunnerCommand),
		PythonExecutable:      s.PythonExecutable,
		ResultsTimeout:        s.ResultsTimeout,
		ExcludedPaths:         s.ExcludedPaths,
	}

	logDeclared(declared, log)

	for _, r := range paths.Resolve(declared.Paths, workAbs, root) {
		if !exists(r.Abs) {
			log.Warnf("ignoring invalid path %q in config file %s", r.Raw, declared.File)
			continue
		}
		if r.OutsideProject {
			log.Warnf("path %q in config file %s is outside the project", r.Raw, declared.File)
			cfg.OutsidePaths = append(cfg.OutsidePaths, r.Rel)
			continue
		}
		cfg.ConfigPaths = append(cfg.ConfigPaths, r.Rel)
	}

	baseStart := joinRel(workRel, DefaultFeaturesDir)
	if len(cfg.ConfigPaths) > 0 {
		baseStart = cfg.ConfigPaths[0]
	} else if len(cfg.OutsidePaths) > 0 {
		baseStart = cfg.OutsidePaths[0]
	}
	baseDir, err := FindBaseDir(root, baseStart)
	if err != nil {
		return nil, behaverrors.WrapConfig(err, "could not determine behave base directory")
	}
	cfg.BaseDir = baseDir

	cfg.FeatureFolders, err = featureFolders(cfg)
	if err != nil {
		return nil, err
	}
	cfg.StepsFolders = StepsFolders(root, baseDir, s.ImportedSteps, log)

	log.WithFields(logrus.Fields{
		"workingDir":     cfg.WorkingDir,
		"baseDir":        cfg.BaseDir,
		"featureFolders": cfg.FeatureFolders,
		"stepsFolders":   cfg.StepsFolders,
	}).Debug("resolved project configuration")

	return cfg, nil
}

// featureFolders uses the declared config paths directly when none of them
// is the working directory itself; otherwise feature folders are found on
// disk and unioned with the declared paths. Declared paths outside the
// project follow, as absolute paths.
func featureFolders(cfg *EffectiveConfig) ([]string, error) {
	declared := len(cfg.ConfigPaths) > 0 || len(cfg.OutsidePaths) > 0
	if declared && !contains(cfg.ConfigPaths, cfg.WorkingDir) {
		return appendOutside(paths.Optimise(cfg.ConfigPaths), cfg.OutsidePaths), nil
	}

	found, err := FindFeatureFolders(cfg.WorkingDirAbs, cfg.ExcludedPaths)
	if err != nil {
		return nil, behaverrors.WrapConfig(err, "failed to find feature folders")
	}

	rel := make([]string, 0, len(found)+len(cfg.ConfigPaths))
	for _, dir := range found {
		r, err := filepath.Rel(cfg.ProjectRoot, dir)
		if err != nil {
			continue
		}
		if r == "." {
			r = ""
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	rel = append(rel, cfg.ConfigPaths...)

	folders := paths.Optimise(rel)
	if len(folders) == 0 {
		folders = []string{joinRel(cfg.WorkingDir, DefaultFeaturesDir)}
	}
	return appendOutside(folders, cfg.OutsidePaths), nil
}

// appendOutside adds outside paths not covered by an earlier one.
func appendOutside(folders, outside []string) []string {
	var kept []string
	for _, p := range outside {
		covered := false
		for _, k := range kept {
			if paths.IsUnder(p, k) {
				covered = true
				break
			}
		}
		if !covered {
			kept = append(kept, p)
		}
	}
	return append(folders, kept...)
}

func logDeclared(d *behaveconfig.Declared, log *logrus.Entry) {
	switch {
	case d.LastExisting == "":
		log.Info("no behave config file found, using default paths")
	case !d.HasPaths():
		log.Infof("behave config file %q did not set paths, using default paths", d.LastExisting)
	default:
		log.Infof("behave config file %q sets paths: %q", d.File, d.Paths)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func deref(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
