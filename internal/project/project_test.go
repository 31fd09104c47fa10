package project

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jimasp/behave-vsc-sub002/internal/config"
	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/logging"
)

// layout creates files (paths ending in "/" are folders) under root.
func layout(t *testing.T, root string, entries ...string) {
	t.Helper()
	for _, e := range entries {
		p := filepath.Join(root, filepath.FromSlash(e))
		if e[len(e)-1] == '/' {
			if err := os.MkdirAll(p, 0755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFindRootFrom(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root, ".behaverun/", "a/b/c/")

	got, err := FindRootFrom(filepath.Join(root, "a", "b", "c"))
	if err != nil {
		t.Fatalf("FindRootFrom() error = %v", err)
	}
	if got != root {
		t.Errorf("FindRootFrom() = %q, want %q", got, root)
	}
}

func TestFindRootFrom_BehaveIni(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root, "behave.ini", "features/")

	got, err := FindRootFrom(filepath.Join(root, "features"))
	if err != nil {
		t.Fatalf("FindRootFrom() error = %v", err)
	}
	if got != root {
		t.Errorf("FindRootFrom() = %q, want %q", got, root)
	}
}

func TestFindFeatureFolders(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root,
		"my.feature",
		"tests/features/a.feature",
		"tests/features/web/a.feature",
		"tests/features2/a.feature",
		"tests/pytest/unittest.py",
		".venv/lib/site/x.feature",
		"node_modules/pkg/y.feature",
	)

	got, err := FindFeatureFolders(root, config.DefaultExcludedPaths)
	if err != nil {
		t.Fatalf("FindFeatureFolders() error = %v", err)
	}

	want := []string{
		root,
		filepath.Join(root, "tests", "features"),
		filepath.Join(root, "tests", "features", "web"),
		filepath.Join(root, "tests", "features2"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindFeatureFolders() = %v, want %v", got, want)
	}
}

func TestIsExcluded(t *testing.T) {
	t.Parallel()
	patterns := []string{"**/.venv"}
	for _, p := range []string{
		".venv",
		"folder/.venv",
		"folder/folder/.venv",
		"folder/folder/.venv/some",
		"folder/folder/.venv/something/deeper",
	} {
		if !IsExcluded(p, patterns) {
			t.Errorf("IsExcluded(%q) = false, want true", p)
		}
	}
	for _, p := range []string{"", "venv", "features/.venvx"} {
		if IsExcluded(p, patterns) {
			t.Errorf("IsExcluded(%q) = true, want false", p)
		}
	}
}

func TestFindBaseDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root,
		"features/steps/",
		"features/sub/a.feature",
		"other/environment.py",
		"other/deep/x/",
	)

	tests := []struct {
		start string
		want  string
	}{
		{"features", "features"},
		{"features/sub", "features"},
		{"other/deep/x", "other"},
	}
	for _, tt := range tests {
		got, err := FindBaseDir(root, tt.start)
		if err != nil {
			t.Errorf("FindBaseDir(%q) error = %v", tt.start, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FindBaseDir(%q) = %q, want %q", tt.start, got, tt.want)
		}
	}
}

func TestFindBaseDir_NotFound(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root, "features/a.feature")

	if _, err := FindBaseDir(root, "features"); err == nil {
		t.Error("FindBaseDir() error = nil, want error")
	}
}

func TestStepsFolders_Order(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root, "lib2/steps/", "lib1/steps/", "features/steps/")

	imported := config.ImportedSteps{
		{RelativePath: "lib2/steps", StepFilesRx: ".*"},
		{RelativePath: "missing/steps", StepFilesRx: ".*"},
		{RelativePath: "lib1/steps", StepFilesRx: ".*"},
		{RelativePath: "features/steps", StepFilesRx: ".*"},
	}

	got := StepsFolders(root, "features", imported, logging.Discard())
	want := []string{"lib2/steps", "lib1/steps", "features/steps"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StepsFolders() = %v, want %v", got, want)
	}
}

func TestResolve_Defaults(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root, "features/steps/s.py", "features/a.feature", "features/sub/b.feature")

	cfg, err := Resolve(config.Default(), root, logging.Discard())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if cfg.WorkingDir != "" {
		t.Errorf("WorkingDir = %q, want empty", cfg.WorkingDir)
	}
	if cfg.BaseDir != "features" {
		t.Errorf("BaseDir = %q, want features", cfg.BaseDir)
	}
	if !reflect.DeepEqual(cfg.FeatureFolders, []string{"features"}) {
		t.Errorf("FeatureFolders = %v, want [features]", cfg.FeatureFolders)
	}
	if !reflect.DeepEqual(cfg.StepsFolders, []string{"features/steps"}) {
		t.Errorf("StepsFolders = %v, want [features/steps]", cfg.StepsFolders)
	}
	if cfg.RunParallel || !cfg.RunProjectsInParallel || !cfg.JustMyCode {
		t.Errorf("flags = parallel %v, projects %v, justMyCode %v", cfg.RunParallel, cfg.RunProjectsInParallel, cfg.JustMyCode)
	}
	if cfg.ProjectName != filepath.Base(root) {
		t.Errorf("ProjectName = %q", cfg.ProjectName)
	}
}

func TestResolve_DeclaredPathsReplaceDiscovery(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root,
		"work/bdd/steps/",
		"work/bdd/a.feature",
		"work/bdd/nested/b.feature",
		"work/more/c.feature",
		"work/unlisted/d.feature",
	)
	writeFile(t, filepath.Join(root, "work", "behave.ini"), "[behave]\npaths = bdd\n  more\n  bdd/nested\n  missing\n")

	s := config.Default()
	s.BehaveWorkingDirectory = "work"
	cfg, err := Resolve(s, root, logging.Discard())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if cfg.ConfigFile != "behave.ini" {
		t.Errorf("ConfigFile = %q, want behave.ini", cfg.ConfigFile)
	}
	if !reflect.DeepEqual(cfg.ConfigPaths, []string{"work/bdd", "work/more"}) {
		t.Errorf("ConfigPaths = %v, want [work/bdd work/more]", cfg.ConfigPaths)
	}
	if !reflect.DeepEqual(cfg.FeatureFolders, []string{"work/bdd", "work/more"}) {
		t.Errorf("FeatureFolders = %v", cfg.FeatureFolders)
	}
	if cfg.BaseDir != "work/bdd" {
		t.Errorf("BaseDir = %q, want work/bdd", cfg.BaseDir)
	}
	if !reflect.DeepEqual(cfg.StepsFolders, []string{"work/bdd/steps"}) {
		t.Errorf("StepsFolders = %v", cfg.StepsFolders)
	}
}

func TestResolve_OutsidePathsAreFeatureFolders(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	root := filepath.Join(base, "proj")
	layout(t, base,
		"proj/features/a.feature",
		"shared/features/steps/",
		"shared/features/x.feature",
		"shared/features/nested/y.feature",
	)
	writeFile(t, filepath.Join(root, "behave.ini"), "[behave]\npaths = ../shared/features\n  ../shared/features/nested\n")

	cfg, err := Resolve(config.Default(), root, logging.Discard())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	outside := filepath.ToSlash(filepath.Join(base, "shared", "features"))
	if len(cfg.ConfigPaths) != 0 {
		t.Errorf("ConfigPaths = %v, want none", cfg.ConfigPaths)
	}
	if !reflect.DeepEqual(cfg.OutsidePaths, []string{outside}) {
		t.Errorf("OutsidePaths = %v", cfg.OutsidePaths)
	}
	if !reflect.DeepEqual(cfg.FeatureFolders, []string{outside}) {
		t.Errorf("FeatureFolders = %v, want [%s]", cfg.FeatureFolders, outside)
	}
	if cfg.BaseDir != "../shared/features" {
		t.Errorf("BaseDir = %q, want ../shared/features", cfg.BaseDir)
	}
}

func TestResolve_WorkingDirPathMeansDiscovery(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root,
		"W/steps/",
		"W/features/a.feature",
		"W/extra/b.feature",
	)
	writeFile(t, filepath.Join(root, "W", "behave.ini"), "[behave]\npaths = features\n  .\n")

	s := config.Default()
	s.BehaveWorkingDirectory = "W"
	cfg, err := Resolve(s, root, logging.Discard())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.ConfigPaths, []string{"W"}) {
		t.Errorf("ConfigPaths = %v, want [W]", cfg.ConfigPaths)
	}
	if !reflect.DeepEqual(cfg.FeatureFolders, []string{"W"}) {
		t.Errorf("FeatureFolders = %v, want [W]", cfg.FeatureFolders)
	}
}

func TestResolve_LegacyEnvAlias(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root, "features/steps/")

	s := config.Default()
	s.EnvVarOverrides = map[string]string{"USERNAME": "bob"}
	cfg, err := Resolve(s, root, logging.Discard())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.Env, map[string]string{"USERNAME": "bob"}) {
		t.Errorf("Env = %v", cfg.Env)
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing working dir", func(t *testing.T) {
		s := config.Default()
		s.BehaveWorkingDirectory = "nope"
		_, err := Resolve(s, t.TempDir(), logging.Discard())
		if !behaverrors.IsConfig(err) {
			t.Errorf("Resolve() error = %v, want configuration error", err)
		}
	})

	t.Run("no steps folder", func(t *testing.T) {
		root := t.TempDir()
		layout(t, root, "features/a.feature")
		_, err := Resolve(config.Default(), root, logging.Discard())
		if !behaverrors.IsConfig(err) {
			t.Errorf("Resolve() error = %v, want configuration error", err)
		}
	})
}

func TestLoadProjectFrom_UnknownSettingsKey(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	layout(t, root, "features/steps/")
	writeFile(t, filepath.Join(root, ".behaverun", "settings.json"), `{"nonsense": true}`)

	_, err := LoadProjectFrom(root, logging.Discard())
	if !behaverrors.IsConfig(err) {
		t.Errorf("LoadProjectFrom() error = %v, want configuration error", err)
	}
}

func TestLoadProjects_DuplicateNames(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	a := filepath.Join(base, "one", "proj")
	b := filepath.Join(base, "two", "proj")
	layout(t, a, "features/steps/")
	layout(t, b, "features/steps/")

	_, err := LoadProjects([]string{a, b}, logging.New(os.Stderr, false))
	var be *behaverrors.Error
	if !errors.As(err, &be) || be.Kind != behaverrors.KindConfig {
		t.Errorf("LoadProjects() error = %v, want configuration error", err)
	}
}
