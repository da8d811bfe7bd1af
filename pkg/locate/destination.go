// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package locate

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Status describes how a destination directory was obtained.
type Status string

const (
	// StatusFoundExisting means a suitable directory already existed (or an
	// explicit override was honored).
	StatusFoundExisting Status = "found_existing"
	// StatusCreatedInModels means a loras subdirectory was created beneath an
	// existing models directory.
	StatusCreatedInModels Status = "created_in_models"
	// StatusCreatedFallback means models/loras was created under the starting
	// directory because nothing better was found.
	StatusCreatedFallback Status = "created_fallback"
	// StatusError means directory creation failed.
	StatusError Status = "error"
)

// destScanDepth bounds the destination search descent from each root.
const destScanDepth = 4

// destAncestorLevels is how many parents of the starting directory join the
// search roots.
const destAncestorLevels = 6

// workspaceDir is a well-known absolute workspace path included when present.
// Variable so tests can point it elsewhere.
var workspaceDir = "/workspace"

// Environment variables that force the destination outright.
var destOverrideVars = []string{"LORA_TARGET_DIR", "LORAS_DIR"}

// ignoredDirs are never descended into and never become candidates.
var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"__pycache__":  true,
}

func skipDir(name string) bool {
	return ignoredDirs[name] || strings.HasPrefix(name, ".")
}

func loraLike(name string) bool {
	low := strings.ToLower(name)
	return strings.Contains(low, "lora") || strings.Contains(low, "lycoris")
}

// Score rates a candidate destination path on name and position heuristics.
// It is a pure function of the path string.
func Score(path string) int {
	low := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	var parts []string
	for _, p := range strings.Split(low, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return 0
	}
	leaf := parts[len(parts)-1]
	score := 0
	switch leaf {
	case "loras", "lora", "lycoris":
		score += 100
	default:
		if loraLike(leaf) {
			score += 70
		}
	}
	for _, p := range parts {
		if p == "models" {
			score += 40
			break
		}
	}
	if len(parts) >= 2 && parts[len(parts)-2] == "models" {
		score += 30
	}
	return score
}

// ResolveDestination picks or creates the local directory for downloaded
// adapter artifacts, starting from start (the current directory when empty).
//
// Resolution order, first match winning: an environment override (always
// trusted and reported as found), the best-scored existing lora-like
// directory, a fresh loras folder under the deepest existing models
// directory, and finally <start>/models/loras.
func ResolveDestination(start string) (string, Status) {
	if start == "" {
		start, _ = os.Getwd()
	}
	start, _ = filepath.Abs(start)

	for _, v := range destOverrideVars {
		dir := os.Getenv(v)
		if dir == "" {
			continue
		}
		target := expandHome(dir)
		target, _ = filepath.Abs(target)
		if err := os.MkdirAll(target, 0o755); err != nil {
			return target, StatusError
		}
		return target, StatusFoundExisting
	}

	loraDirs, modelsDirs := scanCandidates(searchRoots(start))

	if len(loraDirs) > 0 {
		return bestLoraDir(loraDirs), StatusFoundExisting
	}
	if len(modelsDirs) > 0 {
		target := filepath.Join(deepestModelsDir(modelsDirs), "loras")
		if err := os.MkdirAll(target, 0o755); err == nil {
			return target, StatusCreatedInModels
		}
		// Creation beneath models failed; fall through to the fallback.
	}
	fallback := filepath.Join(start, "models", "loras")
	if err := os.MkdirAll(fallback, 0o755); err != nil {
		return fallback, StatusError
	}
	return fallback, StatusCreatedFallback
}

// searchRoots is the starting directory, its ancestors, and the workspace
// path when it exists.
func searchRoots(start string) []string {
	var roots []string
	seen := make(map[string]bool)
	cur := start
	for i := 0; i <= destAncestorLevels; i++ {
		if !seen[cur] {
			seen[cur] = true
			roots = append(roots, cur)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	if fi, err := os.Stat(workspaceDir); err == nil && fi.IsDir() && !seen[workspaceDir] {
		roots = append(roots, workspaceDir)
	}
	return roots
}

// scanCandidates walks each root to destScanDepth collecting lora-like
// directories and directories named exactly "models".
func scanCandidates(roots []string) (loraDirs, modelsDirs []string) {
	type item struct {
		path  string
		depth int
	}
	seenLora := make(map[string]bool)
	seenModels := make(map[string]bool)
	for _, root := range roots {
		if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
			continue
		}
		stack := []item{{root, 0}}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			entries, err := os.ReadDir(cur.path)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if !e.IsDir() || skipDir(e.Name()) {
					continue
				}
				full := filepath.Join(cur.path, e.Name())
				if strings.EqualFold(e.Name(), "models") && !seenModels[full] {
					seenModels[full] = true
					modelsDirs = append(modelsDirs, full)
				}
				if loraLike(e.Name()) && !seenLora[full] {
					seenLora[full] = true
					loraDirs = append(loraDirs, full)
				}
				if cur.depth+1 < destScanDepth {
					stack = append(stack, item{full, cur.depth + 1})
				}
			}
		}
	}
	return loraDirs, modelsDirs
}

// bestLoraDir picks the highest-scored candidate, preferring the shorter
// absolute path on ties.
func bestLoraDir(dirs []string) string {
	sorted := append([]string(nil), dirs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := Score(sorted[i]), Score(sorted[j])
		if si != sj {
			return si > sj
		}
		return len(sorted[i]) < len(sorted[j])
	})
	return sorted[0]
}

// deepestModelsDir picks the most deeply nested models directory, preferring
// the shorter path on ties.
func deepestModelsDir(dirs []string) string {
	sorted := append([]string(nil), dirs...)
	seps := func(p string) int { return strings.Count(p, string(os.PathSeparator)) }
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := seps(sorted[i]), seps(sorted[j])
		if di != dj {
			return di > dj
		}
		return len(sorted[i]) < len(sorted[j])
	})
	return sorted[0]
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
