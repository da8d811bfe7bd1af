// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package settings loads wizard configuration from an optional TOML file
// with environment variable overrides.
package settings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// configRelPath is the config file location under the user config dir.
const configRelPath = "lora-wizard/config.toml"

// DefaultRepoMenuLimit caps how many existing repositories the picker lists.
const DefaultRepoMenuLimit = 10

// defaultSearchRoots are scanned for training runs when no roots are
// configured.
var defaultSearchRoots = []string{
	"/workspace/output_folder",
	"/workspace/diffusion_pipe_working_folder/output_folder",
	"/workspace",
}

// Settings holds operator-tunable behavior. Zero values mean "use default".
type Settings struct {
	// SearchRoots are the directories scanned for training runs.
	SearchRoots []string `toml:"search_roots"`
	// TargetDir, when set, bypasses download destination resolution.
	TargetDir string `toml:"target_dir"`
	// GitName and GitEmail set the commit identity for uploads.
	GitName  string `toml:"git_name"`
	GitEmail string `toml:"git_email"`
	// Endpoint overrides the hub API base URL.
	Endpoint string `toml:"endpoint"`
	// RepoMenuLimit caps the existing-repository picker length.
	RepoMenuLimit int `toml:"repo_menu_limit"`
}

// Load reads the config file if present, applies environment overrides, and
// fills in defaults. A missing config file is not an error; a malformed one
// is.
func Load() (Settings, error) {
	var s Settings
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, configRelPath)
		if b, err := os.ReadFile(path); err == nil {
			if err := toml.Unmarshal(b, &s); err != nil {
				return Settings{}, errors.Wrapf(err, "parsing %s", path)
			}
		}
	}
	applyEnv(&s)
	if len(s.SearchRoots) == 0 {
		s.SearchRoots = append([]string(nil), defaultSearchRoots...)
	}
	if s.RepoMenuLimit <= 0 {
		s.RepoMenuLimit = DefaultRepoMenuLimit
	}
	return s, nil
}

func applyEnv(s *Settings) {
	if v := os.Getenv("SEARCH_ROOTS"); strings.TrimSpace(v) != "" {
		s.SearchRoots = strings.Fields(v)
	}
	for _, key := range []string{"LORA_TARGET_DIR", "LORAS_DIR"} {
		if v := os.Getenv(key); v != "" {
			s.TargetDir = v
			break
		}
	}
	if v := os.Getenv("GIT_NAME"); v != "" {
		s.GitName = v
	}
	if v := os.Getenv("GIT_EMAIL"); v != "" {
		s.GitEmail = v
	}
	if v := os.Getenv("HF_ENDPOINT"); v != "" {
		s.Endpoint = v
	}
}
