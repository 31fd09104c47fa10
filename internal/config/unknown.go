package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// detectUnknownFields compares a decoded settings document with the known
// settings fields. Unknown keys are rejected rather than ignored.
func detectUnknownFields(doc map[string]any) []string {
	var unknown []string

	known := getFields(reflect.TypeOf(Settings{}))
	for _, key := range sortedKeys(doc) {
		if key == "$schema" {
			continue // $schema is explicitly allowed and ignored
		}
		if !known[key] {
			unknown = append(unknown, fmt.Sprintf("unknown field %q at root level", key))
		}
	}

	if profiles, ok := doc["runProfiles"].([]any); ok {
		unknown = append(unknown, checkProfilesUnknownFields(profiles)...)
	}

	if steps, ok := doc["importedSteps"].([]any); ok {
		knownStep := getFields(reflect.TypeOf(ImportedStep{}))
		for i, raw := range steps {
			step, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range sortedKeys(step) {
				if !knownStep[key] {
					unknown = append(unknown, fmt.Sprintf("unknown field %q in importedSteps[%d]", key, i))
				}
			}
		}
	}

	return unknown
}

func checkProfilesUnknownFields(profiles []any) []string {
	var unknown []string

	knownProfile := getFields(reflect.TypeOf(RunProfile{}))
	knownRunner := getFields(reflect.TypeOf(CustomRunner{}))
	for i, raw := range profiles {
		profile, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		label := fmt.Sprintf("runProfiles[%d]", i)
		if name, ok := profile["name"].(string); ok && name != "" {
			label = fmt.Sprintf("run profile %q", name)
		}
		for _, key := range sortedKeys(profile) {
			if !knownProfile[key] {
				unknown = append(unknown, fmt.Sprintf("unknown field %q in %s", key, label))
			}
		}
		runner, ok := profile["customRunner"].(map[string]any)
		if !ok {
			continue
		}
		for _, key := range sortedKeys(runner) {
			if !knownRunner[key] {
				unknown = append(unknown, fmt.Sprintf("unknown field %q in %s customRunner", key, label))
			}
		}
	}

	return unknown
}

// getFields returns a map of known settings key names for a struct type.
func getFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		// Extract field name from tag (before comma)
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
