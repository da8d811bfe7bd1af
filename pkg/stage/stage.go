// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package stage copies the selected epoch checkpoints from a run directory
// into the local repository clone under normalized names.
package stage

import (
	"fmt"
	"io"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/google/lora-wizard/pkg/locate"
	"github.com/pkg/errors"
)

// FinalArtifactName is the optional end-of-run artifact copied alongside the
// per-epoch checkpoints.
const FinalArtifactName = "final" + locate.CheckpointSuffix

// Plan selects which epoch checkpoints to stage.
type Plan struct {
	// From and To bound the epoch numbers, inclusive.
	From, To int
	// FileName is the checkpoint file expected inside each epoch folder.
	FileName string
}

// Result reports what was staged. Individual file failures are counted and
// skipped rather than aborting the batch.
type Result struct {
	Staged  []string
	Skipped []string
}

// ErrNothingStaged is returned when no file in the plan's range could be
// copied.
var ErrNothingStaged = errors.New("no files to stage in the specified range")

// Run copies runFS's epoch<N>/<FileName> to epoch<N>.safetensors in repoFS
// for every N in the plan's range, plus final.safetensors when present.
// Both filesystems are rooted at their respective directories.
func Run(runFS, repoFS billy.Filesystem, plan Plan) (Result, error) {
	var res Result
	for n := plan.From; n <= plan.To; n++ {
		src := path.Join(fmt.Sprintf("epoch%d", n), plan.FileName)
		dst := fmt.Sprintf("epoch%d%s", n, locate.CheckpointSuffix)
		if err := copyFile(runFS, repoFS, src, dst); err != nil {
			res.Skipped = append(res.Skipped, dst)
			continue
		}
		res.Staged = append(res.Staged, dst)
	}
	if _, err := runFS.Stat(FinalArtifactName); err == nil {
		if err := copyFile(runFS, repoFS, FinalArtifactName, FinalArtifactName); err == nil {
			res.Staged = append(res.Staged, FinalArtifactName)
		} else {
			res.Skipped = append(res.Skipped, FinalArtifactName)
		}
	}
	if len(res.Staged) == 0 {
		return res, ErrNothingStaged
	}
	return res, nil
}

func copyFile(srcFS, dstFS billy.Filesystem, src, dst string) error {
	in, err := srcFS.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer in.Close()
	out, err := dstFS.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copying %s", src)
	}
	return out.Close()
}
