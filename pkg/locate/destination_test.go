// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package locate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		path string
		want int
	}{
		{"exact loras leaf", "/x/loras", 100},
		{"exact lora leaf", "/x/lora", 100},
		{"exact lycoris leaf", "/x/lycoris", 100},
		{"leaf containing lora", "/x/my_loras_v2", 70},
		{"models in path only", "/x/models/checkpoints", 40},
		{"models parent of loras", "/x/models/loras", 170},
		{"models deeper in path", "/x/models/a/loras", 140},
		{"unrelated", "/x/stuff", 0},
		{"case-insensitive", "/x/Models/LoRAs", 170},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.path); got != tc.want {
				t.Errorf("Score(%q) = %d, want %d", tc.path, got, tc.want)
			}
		})
	}
}

// deepStart nests the starting directory far enough below the temp root that
// the ancestor search roots never leave the per-test sandbox.
func deepStart(t *testing.T) string {
	t.Helper()
	start := filepath.Join(t.TempDir(), "a", "b", "c", "d", "e", "f", "g")
	if err := os.MkdirAll(start, 0o755); err != nil {
		t.Fatal(err)
	}
	return start
}

func clearOverrides(t *testing.T) {
	t.Helper()
	t.Setenv("LORA_TARGET_DIR", "")
	t.Setenv("LORAS_DIR", "")
	orig := workspaceDir
	workspaceDir = filepath.Join(t.TempDir(), "no-workspace")
	t.Cleanup(func() { workspaceDir = orig })
}

func TestResolveDestinationEnvOverride(t *testing.T) {
	start := deepStart(t)
	override := filepath.Join(t.TempDir(), "my", "loras")
	t.Setenv("LORA_TARGET_DIR", override)
	got, status := ResolveDestination(start)
	if status != StatusFoundExisting {
		t.Fatalf("status = %q, want %q", status, StatusFoundExisting)
	}
	if got != override {
		t.Errorf("path = %q, want %q", got, override)
	}
	if fi, err := os.Stat(override); err != nil || !fi.IsDir() {
		t.Errorf("override directory was not created: %v", err)
	}
}

func TestResolveDestinationPrefersModelsLoras(t *testing.T) {
	clearOverrides(t)
	start := deepStart(t)
	mktree(t, start, "loras/", "models/loras/")
	got, status := ResolveDestination(start)
	if status != StatusFoundExisting {
		t.Fatalf("status = %q, want %q", status, StatusFoundExisting)
	}
	want := filepath.Join(start, "models", "loras")
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestResolveDestinationBreaksScoreTiesOnShorterPath(t *testing.T) {
	clearOverrides(t)
	start := deepStart(t)
	mktree(t, start, "deeper/nested/loras/", "loras/")
	got, status := ResolveDestination(start)
	if status != StatusFoundExisting {
		t.Fatalf("status = %q, want %q", status, StatusFoundExisting)
	}
	want := filepath.Join(start, "loras")
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestResolveDestinationCreatesUnderModels(t *testing.T) {
	clearOverrides(t)
	start := deepStart(t)
	mktree(t, start, "models/checkpoints/")
	got, status := ResolveDestination(start)
	if status != StatusCreatedInModels {
		t.Fatalf("status = %q, want %q", status, StatusCreatedInModels)
	}
	want := filepath.Join(start, "models", "loras")
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
	if fi, err := os.Stat(want); err != nil || !fi.IsDir() {
		t.Errorf("loras directory was not created: %v", err)
	}
}

func TestResolveDestinationFallback(t *testing.T) {
	clearOverrides(t)
	start := deepStart(t)
	got, status := ResolveDestination(start)
	if status != StatusCreatedFallback {
		t.Fatalf("status = %q, want %q", status, StatusCreatedFallback)
	}
	want := filepath.Join(start, "models", "loras")
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestResolveDestinationIgnoresDotAndVendorDirs(t *testing.T) {
	clearOverrides(t)
	start := deepStart(t)
	mktree(t, start,
		".hidden/loras/",
		"node_modules/loras/",
		"venv/models/",
	)
	_, status := ResolveDestination(start)
	if status != StatusCreatedFallback {
		t.Errorf("status = %q, want %q (ignored dirs must not become candidates)", status, StatusCreatedFallback)
	}
}
