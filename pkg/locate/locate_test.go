// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package locate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// mktree creates nested directories under root. Entries ending in a path
// separator become directories; others become files.
func mktree(t *testing.T, root string, entries ...string) {
	t.Helper()
	for _, e := range entries {
		full := filepath.Join(root, strings.TrimSuffix(e, "/"))
		if strings.HasSuffix(e, "/") {
			if err := os.MkdirAll(full, 0o755); err != nil {
				t.Fatal(err)
			}
		} else {
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func runPaths(runs []RunDirectory) []string {
	var paths []string
	for _, r := range runs {
		paths = append(paths, r.Path)
	}
	return paths
}

func TestFindRuns(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    []string // relative to root
	}{
		{
			name:    "single run",
			entries: []string{"run1/epoch1/adapter_model.safetensors"},
			want:    []string{"run1"},
		},
		{
			name: "parent recorded once despite several epoch folders",
			entries: []string{
				"run1/epoch1/adapter_model.safetensors",
				"run1/epoch2/adapter_model.safetensors",
			},
			want: []string{"run1"},
		},
		{
			name: "epoch folder without checkpoint ignored",
			entries: []string{
				"run1/epoch1/notes.txt",
				"run2/epoch1/adapter_model.safetensors",
			},
			want: []string{"run2"},
		},
		{
			name: "non-epoch sibling does not qualify",
			entries: []string{
				"run1/checkpoints/adapter_model.safetensors",
			},
			want: nil,
		},
		{
			name: "run at depth six found",
			entries: []string{
				"a/b/c/d/e/epoch3/adapter_model.safetensors",
			},
			want: []string{"a/b/c/d/e"},
		},
		{
			name: "run beyond depth six not found",
			entries: []string{
				"a/b/c/d/e/f/epoch3/adapter_model.safetensors",
			},
			want: nil,
		},
		{
			name: "descent truncated without skipping siblings",
			entries: []string{
				"deep/a/b/c/d/e/f/epoch1/adapter_model.safetensors",
				"shallow/epoch1/adapter_model.safetensors",
			},
			want: []string{"shallow"},
		},
		{
			name: "suffix matched case-insensitively",
			entries: []string{
				"run1/epoch1/ADAPTER.SafeTensors",
			},
			want: []string{"run1"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			mktree(t, root, tc.entries...)
			var want []string
			for _, w := range tc.want {
				want = append(want, filepath.Join(root, w))
			}
			got := runPaths(FindRuns([]string{root}, MaxScanDepth))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("FindRuns diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindRunsDeduplicatesAcrossRoots(t *testing.T) {
	root := t.TempDir()
	mktree(t, root, "run1/epoch1/adapter_model.safetensors")
	got := FindRuns([]string{root, root, filepath.Join(root, "run1")}, MaxScanDepth)
	if len(got) != 1 {
		t.Errorf("FindRuns returned %d runs, want 1: %v", len(got), runPaths(got))
	}
}

func TestFindRunsMissingRoot(t *testing.T) {
	got := FindRuns([]string{filepath.Join(t.TempDir(), "nope")}, MaxScanDepth)
	if len(got) != 0 {
		t.Errorf("FindRuns on missing root = %v, want none", runPaths(got))
	}
}

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   int
		wantOK bool
	}{
		{"plain", "epoch12", 12, true},
		{"zero", "epoch0", 0, true},
		{"first maximal digit run", "epoch12_of_400", 12, true},
		{"digits only", "42", 42, true},
		{"no digits", "epoch_final", 0, false},
		{"empty", "", 0, false},
		{"digit run too large for int", "epoch9999999999999999999999999", 0, false},
		{"leading zeros within range", "epoch007", 7, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseEpoch(tc.in)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("ParseEpoch(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestSortEpochFoldersDigitlessLast(t *testing.T) {
	names := []string{"epoch_final", "epoch10", "epoch2", "epochX", "epoch1"}
	SortEpochFolders(names)
	want := []string{"epoch1", "epoch2", "epoch10", "epoch_final", "epochX"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("SortEpochFolders diff (-want +got):\n%s", diff)
	}
}

func TestDefaultCheckpoint(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    string
		wantOK  bool
	}{
		{
			name: "prefers adapter_model",
			entries: []string{
				"epoch1/aaa.safetensors",
				"epoch1/Adapter_Model.safetensors",
			},
			want:   "Adapter_Model.safetensors",
			wantOK: true,
		},
		{
			name: "first match otherwise",
			entries: []string{
				"epoch1/bbb.safetensors",
				"epoch1/ccc.safetensors",
			},
			want:   "bbb.safetensors",
			wantOK: true,
		},
		{
			name: "sniffs lowest-numbered epoch",
			entries: []string{
				"epoch10/late.safetensors",
				"epoch2/early.safetensors",
			},
			want:   "early.safetensors",
			wantOK: true,
		},
		{
			name:    "no checkpoint files",
			entries: []string{"epoch1/notes.txt"},
			want:    "",
			wantOK:  false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			mktree(t, root, tc.entries...)
			got, ok := DefaultCheckpoint(root)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("DefaultCheckpoint = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestDefaultRange(t *testing.T) {
	tests := []struct {
		name             string
		min, max         int
		wantFrom, wantTo int
	}{
		{"short run kept whole", 1, 9, 1, 9},
		{"lower bound clamps up", 1, 50, 10, 50},
		{"upper bound clamps down", 20, 300, 20, 200},
		{"both clamps", 1, 500, 10, 200},
		{"min already above clamp", 15, 30, 15, 30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			from, to := DefaultRange(tc.min, tc.max)
			if from != tc.wantFrom || to != tc.wantTo {
				t.Errorf("DefaultRange(%d, %d) = (%d, %d), want (%d, %d)",
					tc.min, tc.max, from, to, tc.wantFrom, tc.wantTo)
			}
		})
	}
}

func TestNormalizeRange(t *testing.T) {
	lo, hi, swapped := NormalizeRange(5, 2)
	if lo != 2 || hi != 5 || !swapped {
		t.Errorf("NormalizeRange(5, 2) = (%d, %d, %v), want (2, 5, true)", lo, hi, swapped)
	}
	lo, hi, swapped = NormalizeRange(2, 5)
	if lo != 2 || hi != 5 || swapped {
		t.Errorf("NormalizeRange(2, 5) = (%d, %d, %v), want (2, 5, false)", lo, hi, swapped)
	}
}
