// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package gitx provides wizard-specific git abstractions. Transfer
// operations (clone, pull, push) go through native git so that large-file
// storage filters apply; repository introspection and identity configuration
// use go-git.
package gitx

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/google/lora-wizard/internal/secretx"
	"github.com/pkg/errors"
)

var (
	nativeGitAvailable     bool
	nativeGitAvailableOnce sync.Once
	lfsAvailable           bool
	lfsAvailableOnce       sync.Once
)

// NativeGitAvailable returns true if the git command is available in PATH.
func NativeGitAvailable() bool {
	nativeGitAvailableOnce.Do(func() {
		_, err := exec.LookPath("git")
		nativeGitAvailable = err == nil
	})
	return nativeGitAvailable
}

// LFSAvailable returns true if the git-lfs command is available in PATH.
func LFSAvailable() bool {
	lfsAvailableOnce.Do(func() {
		_, err := exec.LookPath("git-lfs")
		lfsAvailable = err == nil
	})
	return lfsAvailable
}

// AuthURL builds a clone URL carrying the token as an oauth2 credential.
func AuthURL(endpoint *url.URL, repoID, token string) string {
	u := *endpoint
	u.User = url.UserPassword("oauth2", token)
	u.Path = "/" + strings.TrimPrefix(repoID, "/")
	return u.String()
}

// run executes a git subcommand in dir with prompting disabled, returning
// combined output on failure with the token masked.
func run(ctx context.Context, dir, token string, extraEnv []string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, extraEnv...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		msg := secretx.Mask(strings.TrimSpace(out.String()), token)
		return errors.Wrapf(err, "git %s: %s", args[0], msg)
	}
	return nil
}

// CloneWithProgress clones url into dir with native git, invoking tick at a
// short interval while the subprocess runs so the caller can redraw a
// spinner. This is a blocking wait with a UI refresh, not true concurrency.
func CloneWithProgress(ctx context.Context, cloneURL, dir, token string, extraEnv []string, tick func()) error {
	cmd := exec.CommandContext(ctx, "git", "clone", cloneURL, dir)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, extraEnv...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "starting git clone")
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	for {
		select {
		case err := <-done:
			if err != nil {
				msg := secretx.Mask(strings.TrimSpace(out.String()), token)
				return errors.Wrapf(err, "git clone: %s", msg)
			}
			return nil
		case <-time.After(100 * time.Millisecond):
			if tick != nil {
				tick()
			}
		}
	}
}

// Pull fast-forwards dir. Failures are returned for the caller to ignore or
// surface; an up-to-date tree is not an error.
func Pull(ctx context.Context, dir, token string, extraEnv []string) error {
	return run(ctx, dir, token, extraEnv, "pull")
}

// InstallLFS enables large-file-storage filters and tracks pattern in dir.
// The .gitattributes change is committed immediately; a no-op commit (the
// pattern was already tracked) is not an error.
func InstallLFS(ctx context.Context, dir, pattern string) error {
	if err := run(ctx, dir, "", nil, "lfs", "install"); err != nil {
		return err
	}
	if err := run(ctx, dir, "", nil, "lfs", "track", pattern); err != nil {
		return err
	}
	if err := run(ctx, dir, "", nil, "add", ".gitattributes"); err != nil {
		return err
	}
	// Nothing staged when the pattern was tracked before; that is fine.
	_ = run(ctx, dir, "", nil, "commit", "-m", "Enable Git LFS")
	return nil
}

// ErrNothingToCommit is returned by CommitAll when the tree is clean.
var ErrNothingToCommit = errors.New("nothing to commit")

// CommitAll stages everything in dir and commits it.
func CommitAll(ctx context.Context, dir, message string) error {
	if err := run(ctx, dir, "", nil, "add", "."); err != nil {
		return err
	}
	if err := run(ctx, dir, "", nil, "commit", "-m", message); err != nil {
		if strings.Contains(err.Error(), "nothing to commit") {
			return ErrNothingToCommit
		}
		return err
	}
	return nil
}

// Push publishes dir's commits. The askpass environment should be supplied
// via extraEnv so git never prompts.
func Push(ctx context.Context, dir, token string, extraEnv []string) error {
	return run(ctx, dir, token, extraEnv, "push")
}

// IsRepo reports whether dir is a git repository work tree.
func IsRepo(dir string) bool {
	_, err := git.PlainOpen(dir)
	return err == nil
}

// ErrRemoteNotTracked is returned when an existing local repository does not
// track the desired remote.
var ErrRemoteNotTracked = errors.New("existing repository does not track desired remote")

// ValidateRemote opens the repository at dir and verifies that its origin
// remote points at repoURL, ignoring embedded credentials.
func ValidateRemote(dir, repoURL string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return errors.Wrap(err, "opening repository")
	}
	cfg, err := repo.Config()
	if err != nil {
		return errors.Wrap(err, "reading repository config")
	}
	want, err := canonicalURL(repoURL)
	if err != nil {
		return err
	}
	remote, ok := cfg.Remotes[git.DefaultRemoteName]
	if !ok {
		return ErrRemoteNotTracked
	}
	for _, raw := range remote.URLs {
		got, err := canonicalURL(raw)
		if err != nil {
			continue
		}
		if got == want {
			return nil
		}
	}
	return ErrRemoteNotTracked
}

// SetIdentity writes the commit identity into the repository-local config.
func SetIdentity(dir, name, email string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return errors.Wrap(err, "opening repository")
	}
	cfg, err := repo.Config()
	if err != nil {
		return errors.Wrap(err, "reading repository config")
	}
	cfg.User.Name = name
	cfg.User.Email = email
	return errors.Wrap(repo.SetConfig(cfg), "writing repository config")
}

// canonicalURL normalizes a repository URL for comparison: credentials are
// stripped, the host lowercased, and any trailing slash or .git dropped.
func canonicalURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "parsing remote URL")
	}
	u.User = nil
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), ".git")
	return u.String(), nil
}
