// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/lora-wizard/internal/askpass"
	"github.com/google/lora-wizard/internal/cleanup"
	"github.com/google/lora-wizard/internal/gitx"
	"github.com/google/lora-wizard/internal/retryx"
	"github.com/google/lora-wizard/internal/settings"
	"github.com/google/lora-wizard/pkg/hub"
	"github.com/google/lora-wizard/pkg/locate"
	"github.com/google/lora-wizard/pkg/stage"
	"github.com/google/lora-wizard/pkg/traininfo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func runUpload(cmd *cobra.Command) error {
	ctx := cmd.Context()
	s, err := settings.Load()
	if err != nil {
		return err
	}
	endpoint, err := apiEndpoint(s)
	if err != nil {
		return err
	}
	api, user, token, err := authenticate(ctx, endpoint)
	if err != nil {
		return err
	}
	repoID, err := chooseUploadRepo(ctx, api, user, s.RepoMenuLimit)
	if err != nil {
		return err
	}
	dir, err := prepareClone(ctx, endpoint, repoID, token, s, user)
	if err != nil {
		return err
	}
	runDir, err := chooseRun(s.SearchRoots)
	if err != nil {
		return err
	}
	plan, err := chooseStagePlan(runDir)
	if err != nil {
		return err
	}
	res, err := stage.Run(osfs.New(runDir), osfs.New(dir), plan)
	if err != nil {
		return errors.Wrap(err, "staging checkpoints")
	}
	ok("Staged %d file(s)", len(res.Staged))
	for _, name := range res.Skipped {
		warn("skipped %s (missing or unreadable)", name)
	}
	writeTrainingInfo(runDir, dir)
	msg := fmt.Sprintf("Add epochs %d-%d", plan.From, plan.To)
	if err := gitx.CommitAll(ctx, dir, msg); err != nil {
		if errors.Is(err, gitx.ErrNothingToCommit) {
			warn("repository already contains these files; nothing to push")
			return nil
		}
		return err
	}
	if err := pushWithAskpass(ctx, dir, token); err != nil {
		return err
	}
	cleanup.Unregister(dir)
	ok("Done: %s", urlJoin(endpoint, repoID))
	return nil
}

// chooseUploadRepo walks the repository step: create a new repository or pick
// an existing one from the account's listing (capped at limit entries), with
// manual entry as an escape hatch.
func chooseUploadRepo(ctx context.Context, api hub.API, user *hub.User, limit int) (string, error) {
	mode, err := promptChoice("Where should the checkpoints go?", []string{
		"Create a new repository",
		"Use an existing repository",
	})
	if err != nil {
		return "", err
	}
	if mode == 0 {
		return createRepo(ctx, api, user)
	}
	models, err := api.ListModels(ctx, user.Name)
	if err != nil {
		warn("could not list repositories: %v", err)
	}
	if len(models) == 0 {
		say("No repositories found for %s", user.Name)
		return createRepo(ctx, api, user)
	}
	if len(models) > limit {
		models = models[:limit]
	}
	options := make([]string, 0, len(models)+1)
	for _, m := range models {
		options = append(options, m.RepoID())
	}
	options = append(options, "Enter a repository name manually")
	choice, err := promptChoice("Pick a repository", options)
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

func createRepo(ctx context.Context, api hub.API, user *hub.User) (string, error) {
	name, err := promptLine("New repository name", "")
	if err != nil {
		return "", err
	}
	repoID := user.Name + "/" + name
	if err := hub.ValidateRepoID(repoID); err != nil {
		return "", err
	}
	private, err := promptYesNo("Make it private?", true)
	if err != nil {
		return "", err
	}
	if err := api.CreateRepo(ctx, hub.CreateRepoRequest{Name: name, Private: private, Type: "model"}); err != nil {
		return "", errors.Wrapf(err, "creating repository %s", repoID)
	}
	ok("Repository %s is ready", repoID)
	return repoID, nil
}

// prepareClone ensures ./<name> is a work tree tracking repoID: an existing
// matching clone may be reused (with a best-effort pull) or recreated, and a
// fresh clone is made otherwise. Identity and large-file tracking are
// configured before returning.
func prepareClone(ctx context.Context, endpoint *url.URL, repoID, token string, s settings.Settings, user *hub.User) (string, error) {
	dir := filepath.Base(repoID)
	repoURL := urlJoin(endpoint, repoID)
	if _, err := os.Stat(dir); err == nil {
		reusable := gitx.IsRepo(dir) && gitx.ValidateRemote(dir, repoURL) == nil
		if reusable {
			reuse, err := promptYesNo(fmt.Sprintf("Reuse existing clone %s?", dir), true)
			if err != nil {
				return "", err
			}
			if reuse {
				if err := gitx.Pull(ctx, dir, token, nil); err != nil {
					warn("pull failed, continuing with local state: %v", err)
				}
				return finishCloneSetup(ctx, dir, s, user)
			}
		} else {
			remove, err := promptYesNo(fmt.Sprintf("%s exists but is not a clone of %s; delete it?", dir, repoID), false)
			if err != nil {
				return "", err
			}
			if !remove {
				return "", errors.Errorf("refusing to touch %s", dir)
			}
		}
		if err := os.RemoveAll(dir); err != nil {
			return "", errors.Wrapf(err, "removing %s", dir)
		}
	}
	// A fresh clone stays registered for cleanup until the push lands, so an
	// interrupt mid-clone or mid-upload removes the partial state.
	cleanup.Register(dir)
	sp := newSpinner("Cloning " + repoID)
	err := gitx.CloneWithProgress(ctx, gitx.AuthURL(endpoint, repoID, token), dir, token, nil, sp.Tick)
	sp.Stop()
	if err != nil {
		return "", err
	}
	ok("Cloned %s", repoID)
	return finishCloneSetup(ctx, dir, s, user)
}

func finishCloneSetup(ctx context.Context, dir string, s settings.Settings, user *hub.User) (string, error) {
	name, email := s.GitName, s.GitEmail
	if name == "" {
		name = user.Name
	}
	if email == "" {
		email = user.Name + "@users.noreply.huggingface.co"
	}
	if err := gitx.SetIdentity(dir, name, email); err != nil {
		return "", err
	}
	if err := gitx.InstallLFS(ctx, dir, "*"+locate.CheckpointSuffix); err != nil {
		return "", err
	}
	return dir, nil
}

// chooseRun scans the configured roots for training runs and lets the user
// pick one, falling back to a manually entered path.
func chooseRun(roots []string) (string, error) {
	runs := locate.FindRuns(roots, locate.MaxScanDepth)
	if len(runs) == 0 {
		say("No training runs found under %s", strings.Join(roots, ", "))
		return promptRunPath()
	}
	options := make([]string, 0, len(runs)+1)
	for _, r := range runs {
		options = append(options, describeRun(r))
	}
	options = append(options, "Enter a path manually")
	choice, err := promptChoice("Pick a training run", options)
	if err != nil {
		return "", err
	}
	if choice < len(runs) {
		return runs[choice].Path, nil
	}
	return promptRunPath()
}

func promptRunPath() (string, error) {
	path, err := promptLine("Training run directory", "")
	if err != nil {
		return "", err
	}
	if len(locate.EpochNumbers(path)) == 0 {
		return "", errors.Errorf("%s contains no epoch folders", path)
	}
	return path, nil
}

func describeRun(r locate.RunDirectory) string {
	epochs := "none"
	if n := len(r.Epochs); n > 0 {
		epochs = fmt.Sprintf("%d-%d (%d total)", r.Epochs[0], r.Epochs[n-1], n)
	}
	return fmt.Sprintf("%s  epochs: %s  modified: %s", r.Path, epochs, r.ModTime.Format("2006-01-02 15:04"))
}

// chooseStagePlan asks for the epoch range and the in-epoch checkpoint
// filename, clamping and normalizing the bounds.
func chooseStagePlan(runDir string) (stage.Plan, error) {
	nums := locate.EpochNumbers(runDir)
	if len(nums) == 0 {
		return stage.Plan{}, errors.Errorf("%s contains no epoch folders", runDir)
	}
	minEpoch, maxEpoch := nums[0], nums[len(nums)-1]
	say("Epochs available: %d-%d", minEpoch, maxEpoch)
	defFrom, defTo := locate.DefaultRange(minEpoch, maxEpoch)
	from, err := promptInt("First epoch to upload", defFrom)
	if err != nil {
		return stage.Plan{}, err
	}
	to, err := promptInt("Last epoch to upload", defTo)
	if err != nil {
		return stage.Plan{}, err
	}
	lo, hi, swapped := locate.NormalizeRange(from, to)
	if swapped {
		warn("range was inverted; using %d-%d", lo, hi)
	}
	defName := locate.DefaultCheckpointName
	if name, found := locate.DefaultCheckpoint(runDir); found {
		defName = name
	}
	name, err := promptLine("Checkpoint filename within each epoch folder", defName)
	if err != nil {
		return stage.Plan{}, err
	}
	return stage.Plan{From: lo, To: hi, FileName: name}, nil
}

// writeTrainingInfo aggregates training configs near the run and drops a
// human-readable report into the clone. Best-effort: a run without configs
// just skips the report.
func writeTrainingInfo(runDir, cloneDir string) {
	rec := traininfo.Collect(runDir)
	if rec.Len() == 0 {
		warn("no training configs found near %s; skipping training_info.txt", runDir)
		return
	}
	path := filepath.Join(cloneDir, "training_info.txt")
	if err := rec.WriteFile(path); err != nil {
		warn("could not write %s: %v", path, err)
		return
	}
	ok("Wrote training_info.txt (%d settings from %s)", rec.Len(), strings.Join(rec.Sources, ", "))
}

// pushWithAskpass publishes the clone using a transient credential helper so
// git never prompts, retrying transient failures with backoff.
func pushWithAskpass(ctx context.Context, dir, token string) error {
	ap, err := askpass.Create(token)
	if err != nil {
		return err
	}
	cleanup.Register(ap.Path())
	defer func() {
		ap.Remove()
		cleanup.Unregister(ap.Path())
	}()
	say("Pushing to the hub (this may take a while for large files)")
	return retryx.Do(ctx, retryx.DefaultAttempts, retryx.DefaultBaseDelay, func() error {
		return gitx.Push(ctx, dir, token, ap.Env())
	})
}

func urlJoin(endpoint *url.URL, repoID string) string {
	u := *endpoint
	u.Path = "/" + strings.TrimPrefix(repoID, "/")
	return u.String()
}
