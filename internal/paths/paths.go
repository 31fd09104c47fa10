// Package paths resolves declared feature paths into a minimal set of
// project-relative feature folders.
package paths

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FeatureExt is the file extension of feature files.
const FeatureExt = ".feature"

// Resolved is a declared path after resolution against the working directory.
type Resolved struct {
	// Raw is the path as declared.
	Raw string
	// Abs is the absolute, cleaned path.
	Abs string
	// Rel is the project-relative path using "/" separators. The project
	// root itself is "". For paths outside the project this is the slash
	// form of Abs.
	Rel string
	// OutsideProject is set when the path is not under the project root.
	OutsideProject bool
}

// Resolve resolves raw paths relative to workingDir (unless absolute) and
// removes redundant entries: equal paths keep the first occurrence and an
// ancestor absorbs any of its descendants. Surviving entries keep the order
// in which they were first declared.
//
// A path naming a feature file resolves to the folder containing it.
// Paths outside projectRoot are kept with OutsideProject set.
func Resolve(raw []string, workingDir, projectRoot string) []Resolved {
	var result []Resolved

	for _, r := range raw {
		res, ok := resolveOne(r, workingDir, projectRoot)
		if !ok {
			continue
		}

		absorbed := false
		for _, kept := range result {
			if isAncestorOrSelf(kept.Abs, res.Abs) {
				absorbed = true
				break
			}
		}
		if absorbed {
			continue
		}

		survivors := result[:0]
		for _, kept := range result {
			if !isAncestorOrSelf(res.Abs, kept.Abs) {
				survivors = append(survivors, kept)
			}
		}
		result = append(survivors, res)
	}

	return result
}

// RelPaths returns the Rel field of each resolved path.
func RelPaths(resolved []Resolved) []string {
	out := make([]string, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, r.Rel)
	}
	return out
}

func resolveOne(raw, workingDir, projectRoot string) (Resolved, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Resolved{}, false
	}

	native := filepath.FromSlash(strings.ReplaceAll(trimmed, `\`, "/"))
	abs := native
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(workingDir, native)
	}
	abs = filepath.Clean(abs)

	if isFile(abs) {
		abs = filepath.Dir(abs)
	}

	res := Resolved{Raw: raw, Abs: abs}
	rel, err := filepath.Rel(filepath.Clean(projectRoot), abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		res.OutsideProject = true
		res.Rel = filepath.ToSlash(abs)
		return res, true
	}
	if rel == "." {
		rel = ""
	}
	res.Rel = filepath.ToSlash(rel)
	return res, true
}

// isFile treats an existing regular file, or a missing path with a feature
// extension, as a file.
func isFile(p string) bool {
	info, err := os.Stat(p)
	if err == nil {
		return info.Mode().IsRegular()
	}
	return strings.HasSuffix(strings.ToLower(p), FeatureExt)
}

func isAncestorOrSelf(ancestor, p string) bool {
	if ancestor == p {
		return true
	}
	rel, err := filepath.Rel(ancestor, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// IsUnder reports whether the slash path p equals dir or is beneath it.
// The empty dir is the project root and contains every relative path.
func IsUnder(p, dir string) bool {
	if dir == "" {
		return !strings.HasPrefix(p, "/")
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// Optimise returns the smallest sorted set of folders that covers all the
// given project-relative folders. The project root "" is kept as a distinct,
// non-recursive entry: it only covers feature files directly in the root.
func Optimise(relPaths []string) []string {
	split := make([]string, 0, len(relPaths))
	seen := make(map[string]bool)
	for _, p := range relPaths {
		p = Normalise(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		split = append(split, p)
	}

	sort.SliceStable(split, func(i, j int) bool {
		return depth(split[i]) < depth(split[j])
	})

	var short []string
	for _, p := range split {
		covered := false
		for _, s := range short {
			if s != "" && IsUnder(p, s) {
				covered = true
				break
			}
		}
		if !covered {
			short = append(short, p)
		}
	}

	sort.Strings(short)
	return short
}

func depth(p string) int {
	if p == "" {
		return 0
	}
	return strings.Count(p, "/") + 1
}

// Normalise converts a user supplied relative path to slash form without
// leading "./", leading or trailing separators.
func Normalise(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}
