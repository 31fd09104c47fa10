package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/google/shlex"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
	"github.com/jimasp/behave-vsc-sub002/internal/paths"
	"github.com/jimasp/behave-vsc-sub002/internal/schema"
)

// DirName is the name of the per-project settings directory.
const DirName = ".behaverun"

// FileNames are the settings file names looked up in DirName, in order.
var FileNames = []string{"settings.json", "settings.yaml", "settings.yml"}

// Find returns the settings file of a project, if any.
func Find(projectRoot string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(projectRoot, DirName, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Load reads and parses a settings file. YAML files are recognised by
// extension; anything else is parsed as JSON.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(data, isYAML(path))
}

// LoadWithDefaults reads a settings file and applies default values.
func LoadWithDefaults(path string) (*Settings, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyDefaults(s)
	return s, nil
}

// LoadAndValidate reads a settings file, applies defaults, validates, and
// returns warnings. All failures are configuration errors.
func LoadAndValidate(path string) (*Settings, []string, error) {
	s, err := LoadWithDefaults(path)
	if err != nil {
		return nil, nil, asConfigError(err, path)
	}

	warnings, err := Validate(s)
	if err != nil {
		return nil, warnings, asConfigError(err, path)
	}
	return s, warnings, nil
}

// LoadForProject loads and validates the settings of a project. A project
// without a settings file gets the defaults.
func LoadForProject(projectRoot string) (*Settings, []string, error) {
	path, ok := Find(projectRoot)
	if !ok {
		return Default(), nil, nil
	}
	return LoadAndValidate(path)
}

// Parse decodes settings from JSON or YAML data. Unknown keys, schema
// violations and type mismatches are errors.
func Parse(data []byte, yamlFormat bool) (*Settings, error) {
	doc := map[string]any{}
	if yamlFormat {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse settings file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse settings file: %w", err)
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	if unknown := detectUnknownFields(doc); len(unknown) > 0 {
		return nil, behaverrors.Config(strings.Join(unknown, "; "))
	}

	normalised, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalise settings: %w", err)
	}
	if err := schema.ValidateSettings(normalised); err != nil {
		return nil, behaverrors.WrapConfig(err, "invalid settings")
	}

	delete(doc, "$schema")
	if obj, ok := doc["importedSteps"].(map[string]any); ok {
		doc["importedSteps"] = importedStepsList(obj, importedStepsOrder(data, yamlFormat))
	}
	s, err := decode(doc)
	if err != nil {
		return nil, err
	}
	s.ImportedSteps = normaliseImportedSteps(s.ImportedSteps)
	return s, nil
}

func decode(doc map[string]any) (*Settings, error) {
	var s Settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &s,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			commandLineHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, behaverrors.WrapConfig(err, "invalid settings")
	}
	return &s, nil
}

var commandLineType = reflect.TypeOf(CommandLine{})

// importedStepsList converts the object form of importedSteps to the list
// form. Folders follow order, then any remaining folders sorted.
func importedStepsList(obj map[string]any, order []string) []any {
	keys := make([]string, 0, len(obj))
	seen := make(map[string]bool, len(obj))
	for _, k := range order {
		if _, ok := obj[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range obj {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	list := make([]any, 0, len(keys))
	for _, k := range keys {
		list = append(list, map[string]any{
			"relativePath": k,
			"stepFilesRx":  obj[k],
		})
	}
	return list
}

// importedStepsOrder returns the folders of an object form importedSteps
// in the order the settings file declares them.
func importedStepsOrder(data []byte, yamlFormat bool) []string {
	if yamlFormat {
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil || len(root.Content) == 0 {
			return nil
		}
		top := root.Content[0]
		if top.Kind != yaml.MappingNode {
			return nil
		}
		for i := 0; i+1 < len(top.Content); i += 2 {
			if top.Content[i].Value != "importedSteps" || top.Content[i+1].Kind != yaml.MappingNode {
				continue
			}
			value := top.Content[i+1]
			keys := make([]string, 0, len(value.Content)/2)
			for j := 0; j+1 < len(value.Content); j += 2 {
				keys = append(keys, value.Content[j].Value)
			}
			return keys
		}
		return nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil
	}
	raw, ok := top["importedSteps"]
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, _ := tok.(string)
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}

// commandLineHook splits a shell-style string into an argument list.
func commandLineHook(from, to reflect.Type, data any) (any, error) {
	if to != commandLineType || from.Kind() != reflect.String {
		return data, nil
	}
	args, err := shlex.Split(data.(string))
	if err != nil {
		return nil, fmt.Errorf("invalid command line %q: %w", data, err)
	}
	return args, nil
}

// normaliseImportedSteps trims entries, converts folders to slash form and
// drops repeated folders, keeping the first.
func normaliseImportedSteps(steps ImportedSteps) ImportedSteps {
	if steps == nil {
		return nil
	}
	out := make(ImportedSteps, 0, len(steps))
	seen := make(map[string]bool)
	for _, step := range steps {
		step.RelativePath = paths.Normalise(step.RelativePath)
		step.StepFilesRx = strings.TrimSpace(step.StepFilesRx)
		if step.RelativePath != "" && seen[step.RelativePath] {
			continue
		}
		seen[step.RelativePath] = true
		out = append(out, step)
	}
	return out
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func asConfigError(err error, path string) error {
	if behaverrors.IsConfig(err) {
		return err
	}
	return behaverrors.WrapConfig(err, fmt.Sprintf("failed to load settings %s", path))
}
