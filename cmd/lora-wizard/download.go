// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cheggaaa/pb"
	"github.com/google/lora-wizard/internal/retryx"
	"github.com/google/lora-wizard/internal/settings"
	"github.com/google/lora-wizard/pkg/hub"
	"github.com/google/lora-wizard/pkg/locate"
	"github.com/google/lora-wizard/pkg/stage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func runDownload(cmd *cobra.Command) error {
	ctx := cmd.Context()
	s, err := settings.Load()
	if err != nil {
		return err
	}
	endpoint, err := apiEndpoint(s)
	if err != nil {
		return err
	}
	api, user, _, err := authenticate(ctx, endpoint)
	if err != nil {
		return err
	}
	repoID, err := chooseDownloadRepo(ctx, api, user, s.RepoMenuLimit)
	if err != nil {
		return err
	}
	names, err := api.ListRepoFiles(ctx, repoID)
	if err != nil {
		return errors.Wrapf(err, "listing files in %s", repoID)
	}
	checkpoints := filterCheckpoints(names)
	if len(checkpoints) == 0 {
		return errors.Errorf("%s contains no checkpoint files", repoID)
	}
	sortCheckpoints(checkpoints)
	picked, err := chooseFiles(checkpoints)
	if err != nil {
		return err
	}
	dest, err := resolveTarget(s)
	if err != nil {
		return err
	}
	say("Saving to %s", dest)
	var downloaded int
	for _, name := range picked {
		err := retryx.Do(ctx, retryx.DefaultAttempts, retryx.DefaultBaseDelay, func() error {
			return downloadOne(ctx, api, repoID, name, dest)
		})
		if err != nil {
			warn("failed to download %s: %v", name, err)
			continue
		}
		downloaded++
	}
	if downloaded == 0 {
		return errors.New("no files were downloaded")
	}
	ok("Downloaded %d of %d file(s) to %s", downloaded, len(picked), dest)
	return nil
}

func chooseDownloadRepo(ctx context.Context, api hub.API, user *hub.User, limit int) (string, error) {
	models, err := api.ListModels(ctx, user.Name)
	if err != nil {
		warn("could not list repositories: %v", err)
	}
	if len(models) > limit {
		models = models[:limit]
	}
	options := make([]string, 0, len(models)+1)
	for _, m := range models {
		options = append(options, m.RepoID())
	}
	options = append(options, "Enter a repository name manually")
	choice, err := promptChoice("Download from which repository?", options)
	if err != nil {
		return "", err
	}
	if choice < len(models) {
		return models[choice].RepoID(), nil
	}
	repoID, err := promptLine("Repository (user/name)", "")
	if err != nil {
		return "", err
	}
	if err := hub.ValidateRepoID(repoID); err != nil {
		return "", err
	}
	return repoID, nil
}

func filterCheckpoints(names []string) []string {
	var out []string
	for _, name := range names {
		if locate.IsCheckpoint(filepath.Base(name)) {
			out = append(out, name)
		}
	}
	return out
}

// sortCheckpoints orders the final artifact first, then ascending by epoch
// number, with digitless names last and name order breaking ties.
func sortCheckpoints(names []string) {
	rank := func(name string) (final bool, epoch int) {
		base := filepath.Base(name)
		if base == stage.FinalArtifactName {
			return true, 0
		}
		if n, ok := locate.ParseEpoch(base); ok {
			return false, n
		}
		return false, int(^uint(0) >> 1)
	}
	sort.SliceStable(names, func(i, j int) bool {
		fi, ei := rank(names[i])
		fj, ej := rank(names[j])
		if fi != fj {
			return fi
		}
		if ei != ej {
			return ei < ej
		}
		return names[i] < names[j]
	})
}

// epochBounds returns the lowest and highest epoch number among the listed
// checkpoints. ok is false when none of them carries an epoch number.
func epochBounds(checkpoints []string) (minEpoch, maxEpoch int, ok bool) {
	for _, name := range checkpoints {
		n, found := locate.ParseEpoch(filepath.Base(name))
		if !found {
			continue
		}
		if !ok || n < minEpoch {
			minEpoch = n
		}
		if !ok || n > maxEpoch {
			maxEpoch = n
		}
		ok = true
	}
	return minEpoch, maxEpoch, ok
}

// chooseFiles runs the selection step: a single file (with an optional name
// filter) or every checkpoint within an epoch range.
func chooseFiles(checkpoints []string) ([]string, error) {
	mode, err := promptChoice("What should be downloaded?", []string{
		"A single file",
		"All checkpoints in an epoch range",
	})
	if err != nil {
		return nil, err
	}
	if mode == 0 {
		filter, err := promptLine("Filter by name (empty for all)", "")
		if err != nil {
			return nil, err
		}
		shown := checkpoints
		if filter != "" {
			var matched []string
			for _, name := range checkpoints {
				if strings.Contains(strings.ToLower(name), strings.ToLower(filter)) {
					matched = append(matched, name)
				}
			}
			if len(matched) == 0 {
				warn("no files match %q; showing everything", filter)
			} else {
				shown = matched
			}
		}
		choice, err := promptChoice("Pick a file", shown)
		if err != nil {
			return nil, err
		}
		return []string{shown[choice]}, nil
	}
	minEpoch, maxEpoch, ok := epochBounds(checkpoints)
	if !ok {
		return nil, errors.New("no epoch-numbered checkpoints to pick a range from")
	}
	say("Epochs available: %d-%d", minEpoch, maxEpoch)
	defFrom, defTo := locate.DefaultRange(minEpoch, maxEpoch)
	from, err := promptInt("First epoch", defFrom)
	if err != nil {
		return nil, err
	}
	to, err := promptInt("Last epoch", defTo)
	if err != nil {
		return nil, err
	}
	lo, hi, swapped := locate.NormalizeRange(from, to)
	if swapped {
		warn("range was inverted; using %d-%d", lo, hi)
	}
	var picked []string
	for _, name := range checkpoints {
		n, ok := locate.ParseEpoch(filepath.Base(name))
		if !ok {
			continue
		}
		if n >= lo && n <= hi {
			picked = append(picked, name)
		}
	}
	if len(picked) == 0 {
		return nil, errors.Errorf("no checkpoints in epochs %d-%d", lo, hi)
	}
	return picked, nil
}

// resolveTarget picks the local directory files land in: an explicit
// configured target wins, otherwise the destination heuristics run from the
// current directory.
func resolveTarget(s settings.Settings) (string, error) {
	if s.TargetDir != "" {
		if err := os.MkdirAll(s.TargetDir, 0o755); err != nil {
			return "", errors.Wrapf(err, "creating %s", s.TargetDir)
		}
		return s.TargetDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "getting working directory")
	}
	dest, status := locate.ResolveDestination(cwd)
	switch status {
	case locate.StatusFoundExisting:
		say("Using model directory %s", dest)
	case locate.StatusCreatedInModels:
		say("Created %s under an existing models directory", dest)
	case locate.StatusCreatedFallback:
		warn("no model directory found; created %s", dest)
	default:
		return "", errors.Errorf("could not prepare a destination directory near %s", cwd)
	}
	return dest, nil
}

// downloadOne streams a single repository file into dest, drawing a byte
// progress bar. A partial download is removed so retries start clean.
func downloadOne(ctx context.Context, api hub.API, repoID, name, dest string) error {
	f, err := api.DownloadFile(ctx, repoID, name)
	if err != nil {
		return err
	}
	defer f.Body.Close()
	target := filepath.Join(dest, filepath.Base(name))
	out, err := os.Create(target)
	if err != nil {
		return errors.Wrapf(err, "creating %s", target)
	}
	bar := pb.New64(f.Size).SetUnits(pb.U_BYTES)
	bar.Prefix(filepath.Base(name) + " ")
	bar.Start()
	_, err = io.Copy(out, bar.NewProxyReader(f.Body))
	bar.Finish()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(target)
		return errors.Wrapf(err, "writing %s", target)
	}
	return nil
}
