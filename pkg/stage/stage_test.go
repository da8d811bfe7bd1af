// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
)

func writeBilly(t *testing.T, fs billy.Filesystem, path, content string) {
	t.Helper()
	if err := util.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readBilly(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	f, err := fs.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestRunStagesRangeUnderNormalizedNames(t *testing.T) {
	runFS, repoFS := memfs.New(), memfs.New()
	writeBilly(t, runFS, "epoch1/adapter_model.safetensors", "one")
	writeBilly(t, runFS, "epoch2/adapter_model.safetensors", "two")
	writeBilly(t, runFS, "epoch3/adapter_model.safetensors", "three")

	res, err := Run(runFS, repoFS, Plan{From: 1, To: 2, FileName: "adapter_model.safetensors"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"epoch1.safetensors", "epoch2.safetensors"}
	if diff := cmp.Diff(want, res.Staged); diff != "" {
		t.Errorf("Staged diff (-want +got):\n%s", diff)
	}
	if got := readBilly(t, repoFS, "epoch1.safetensors"); got != "one" {
		t.Errorf("epoch1.safetensors = %q, want %q", got, "one")
	}
	if _, err := repoFS.Stat("epoch3.safetensors"); err == nil {
		t.Error("epoch3.safetensors staged, but epoch 3 is outside the range")
	}
}

func TestRunSkipsMissingEpochs(t *testing.T) {
	runFS, repoFS := memfs.New(), memfs.New()
	writeBilly(t, runFS, "epoch1/adapter_model.safetensors", "one")
	writeBilly(t, runFS, "epoch3/adapter_model.safetensors", "three")

	res, err := Run(runFS, repoFS, Plan{From: 1, To: 3, FileName: "adapter_model.safetensors"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"epoch2.safetensors"}, res.Skipped); diff != "" {
		t.Errorf("Skipped diff (-want +got):\n%s", diff)
	}
	if len(res.Staged) != 2 {
		t.Errorf("Staged %d files, want 2", len(res.Staged))
	}
}

func TestRunIncludesFinalArtifact(t *testing.T) {
	runFS, repoFS := memfs.New(), memfs.New()
	writeBilly(t, runFS, "epoch1/adapter_model.safetensors", "one")
	writeBilly(t, runFS, "final.safetensors", "final")

	res, err := Run(runFS, repoFS, Plan{From: 1, To: 1, FileName: "adapter_model.safetensors"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"epoch1.safetensors", "final.safetensors"}
	if diff := cmp.Diff(want, res.Staged); diff != "" {
		t.Errorf("Staged diff (-want +got):\n%s", diff)
	}
	if got := readBilly(t, repoFS, "final.safetensors"); got != "final" {
		t.Errorf("final.safetensors = %q, want %q", got, "final")
	}
}

func TestRunNothingStaged(t *testing.T) {
	runFS, repoFS := memfs.New(), memfs.New()
	_, err := Run(runFS, repoFS, Plan{From: 1, To: 5, FileName: "adapter_model.safetensors"})
	if err != ErrNothingStaged {
		t.Errorf("Run = %v, want ErrNothingStaged", err)
	}
}
