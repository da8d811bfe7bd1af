// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package locate discovers training run directories and resolves local
// destination directories for downloaded adapter artifacts.
package locate

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CheckpointSuffix is the file extension of per-epoch adapter checkpoints.
const CheckpointSuffix = ".safetensors"

// DefaultCheckpointName is preferred when an epoch folder holds several
// checkpoint files.
const DefaultCheckpointName = "adapter_model" + CheckpointSuffix

// epochPrefix marks a subdirectory as holding one epoch's checkpoint.
const epochPrefix = "epoch"

// MaxScanDepth bounds the run autosearch descent from each root.
const MaxScanDepth = 6

// RunDirectory is the immediate parent of one or more epoch folders.
// Epochs and ModTime are display attributes; FindRuns imposes no ranking.
type RunDirectory struct {
	Path    string
	Epochs  []int
	ModTime time.Time
}

// IsCheckpoint reports whether name carries the checkpoint suffix.
func IsCheckpoint(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), CheckpointSuffix)
}

// IsEpochFolder reports whether name looks like an epoch folder.
func IsEpochFolder(name string) bool {
	return strings.HasPrefix(name, epochPrefix)
}

// ParseEpoch extracts the first maximal run of decimal digits from an epoch
// folder name. ok is false when the name holds no digits or the run does not
// fit in an int.
func ParseEpoch(name string) (n int, ok bool) {
	start, end := -1, len(name)
	for i, r := range name {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
		} else if start != -1 {
			end = i
			break
		}
	}
	if start == -1 {
		return 0, false
	}
	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortEpochFolders orders folder names by their parsed epoch number.
// Names without digits sort after every numbered name.
func SortEpochFolders(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ni, oki := ParseEpoch(names[i])
		nj, okj := ParseEpoch(names[j])
		switch {
		case oki && okj:
			return ni < nj
		case oki:
			return true
		default:
			return false
		}
	})
}

// hasCheckpointFile reports whether dir holds at least one regular file with
// the checkpoint suffix. Unreadable dirs count as empty.
func hasCheckpointFile(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && IsCheckpoint(e.Name()) {
			return true
		}
	}
	return false
}

// FindRuns scans each root with a depth-bounded worklist and returns the
// distinct run directories in discovery order. A directory qualifies the
// moment one of its immediate `epoch*` children contains a checkpoint file;
// the recorded path is that parent, not the epoch folder. Exceeding maxDepth
// truncates descent without skipping siblings. Missing or unreadable
// directories are treated as empty.
func FindRuns(roots []string, maxDepth int) []RunDirectory {
	type item struct {
		path  string
		depth int
	}
	var runs []RunDirectory
	seen := make(map[string]bool)
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
			continue
		}
		stack := []item{{abs, 0}}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			entries, err := os.ReadDir(cur.path)
			if err != nil {
				continue
			}
			recorded := seen[cur.path]
			var children []string
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				child := filepath.Join(cur.path, e.Name())
				if !recorded && IsEpochFolder(e.Name()) && hasCheckpointFile(child) {
					seen[cur.path] = true
					recorded = true
					runs = append(runs, describeRun(cur.path))
				}
				children = append(children, child)
			}
			if cur.depth+1 < maxDepth {
				// Reversed so the pop order follows directory-listing order.
				for i := len(children) - 1; i >= 0; i-- {
					stack = append(stack, item{children[i], cur.depth + 1})
				}
			}
		}
	}
	return runs
}

// describeRun computes the display attributes of a discovered run directory.
func describeRun(path string) RunDirectory {
	run := RunDirectory{Path: path, Epochs: EpochNumbers(path)}
	if fi, err := os.Stat(path); err == nil {
		run.ModTime = fi.ModTime()
	}
	return run
}

// EpochFolders lists the epoch subdirectory names of a run directory in
// numeric order.
func EpochFolders(runDir string) []string {
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && IsEpochFolder(e.Name()) {
			names = append(names, e.Name())
		}
	}
	SortEpochFolders(names)
	return names
}

// EpochNumbers lists the parseable epoch numbers of a run directory in
// ascending order. Folders without digits are excluded.
func EpochNumbers(runDir string) []int {
	var nums []int
	for _, name := range EpochFolders(runDir) {
		if n, ok := ParseEpoch(name); ok {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums
}

// DefaultCheckpoint returns the default checkpoint filename inside the
// lowest-numbered epoch folder: adapter_model.safetensors when present
// (case-insensitive), otherwise the first suffix match in directory-listing
// order. ok is false when no checkpoint file exists there.
func DefaultCheckpoint(runDir string) (name string, ok bool) {
	folders := EpochFolders(runDir)
	if len(folders) == 0 {
		return "", false
	}
	entries, err := os.ReadDir(filepath.Join(runDir, folders[0]))
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() || !IsCheckpoint(e.Name()) {
			continue
		}
		if strings.EqualFold(e.Name(), DefaultCheckpointName) {
			return e.Name(), true
		}
		if name == "" {
			name = e.Name()
		}
	}
	return name, name != ""
}

// Default epoch-range clamps applied when the user supplies neither bound.
// They guard against sweeping in every checkpoint of a long run.
const (
	rangeClampLow  = 10
	rangeClampHigh = 200
)

// DefaultRange derives the epoch range to use when no bounds were supplied.
func DefaultRange(minEpoch, maxEpoch int) (from, to int) {
	if maxEpoch < rangeClampLow {
		return minEpoch, maxEpoch
	}
	from = minEpoch
	if from < rangeClampLow {
		from = rangeClampLow
	}
	to = maxEpoch
	if to > rangeClampHigh {
		to = rangeClampHigh
	}
	return from, to
}

// NormalizeRange swaps inverted bounds rather than rejecting them. swapped
// lets the caller surface a warning.
func NormalizeRange(from, to int) (lo, hi int, swapped bool) {
	if from > to {
		return to, from, true
	}
	return from, to, false
}
