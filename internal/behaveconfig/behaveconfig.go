// Package behaveconfig reads the "paths" setting from behave's own
// configuration files.
package behaveconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
)

// FileNames lists behave configuration files in order of precedence.
// The first file that sets paths wins.
var FileNames = []string{
	"behave.ini",
	".behaverc",
	"setup.cfg",
	"tox.ini",
	"pyproject.toml",
}

const (
	sectionName = "behave"
	pathsKey    = "paths"
)

// Declared is the result of reading behave configuration files in a
// working directory.
type Declared struct {
	// File is the name of the file that set paths, empty when none did.
	File string
	// LastExisting is the lowest precedence configuration file that exists,
	// used in diagnostics when no file sets paths.
	LastExisting string
	// Paths are the declared paths, as written, in declaration order.
	Paths []string
}

// HasPaths reports whether a configuration file set any paths.
func (d *Declared) HasPaths() bool {
	return d != nil && len(d.Paths) > 0
}

// Read scans workDir for behave configuration files and returns the paths
// from the first one (by precedence) that declares them. Missing files are
// not an error; a file that cannot be parsed is.
func Read(workDir string) (*Declared, error) {
	d := &Declared{}

	for _, name := range FileNames {
		path := filepath.Join(workDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		d.LastExisting = name

		var paths []string
		if name == "pyproject.toml" {
			paths, err = ParseTOML(data)
		} else {
			paths, err = ParseINI(data)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		if len(paths) > 0 {
			d.File = name
			d.Paths = paths
			return d, nil
		}
	}

	return d, nil
}

// ParseINI returns the paths set in the [behave] section of an INI style
// file. Values may continue on following indented lines, one path per line.
// Only an exact "[behave]" header matches, so "[behave ]" is ignored.
func ParseINI(data []byte) ([]string, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		SkipUnrecognizableLines:    true,
		SpaceBeforeInlineComment:   true,
	}, maskInexactSections(data))
	if err != nil {
		return nil, err
	}

	section, err := cfg.GetSection(sectionName)
	if err != nil {
		return nil, nil
	}
	if !section.HasKey(pathsKey) {
		return nil, nil
	}

	return splitPaths(section.Key(pathsKey).Value()), nil
}

// maskInexactSections renames section headers that only match "behave"
// after trimming, because behave itself does not match them.
func maskInexactSections(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		trimmed := strings.TrimSpace(string(line))
		if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
			continue
		}
		inner := trimmed[1 : len(trimmed)-1]
		if inner != sectionName && strings.TrimSpace(inner) == sectionName {
			lines[i] = []byte("[" + sectionName + "_unmatched]")
		}
	}
	return bytes.Join(lines, []byte("\n"))
}

type pyproject struct {
	Tool struct {
		Behave map[string]any `toml:"behave"`
	} `toml:"tool"`
}

// ParseTOML returns the paths set in the [tool.behave] table of a
// pyproject.toml file. Paths may be a string or an array of strings.
func ParseTOML(data []byte) ([]string, error) {
	var doc pyproject
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}

	switch v := doc.Tool.Behave[pathsKey].(type) {
	case nil:
		return nil, nil
	case string:
		return splitPaths(v), nil
	case []any:
		var out []string
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tool.behave.paths: expected string, got %T", item)
			}
			out = append(out, splitPaths(s)...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tool.behave.paths: expected string or array, got %T", v)
	}
}

func splitPaths(value string) []string {
	var out []string
	for _, line := range strings.Split(value, "\n") {
		p := strings.TrimSpace(line)
		if p == "" {
			continue
		}
		out = append(out, normalisePath(p))
	}
	return out
}

func normalisePath(p string) string {
	if strings.HasPrefix(p, "./") {
		return p[2:]
	}
	return strings.ReplaceAll(p, "/./", "/")
}
