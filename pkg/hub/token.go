// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Environment variables that may carry the access token, in priority order.
var tokenEnvVars = []string{"HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"}

// tokenCachePaths are the on-disk token locations relative to the home
// directory, in priority order. The first is also where SaveToken writes.
var tokenCachePaths = []string{
	filepath.Join(".cache", "huggingface", "token"),
	filepath.Join(".huggingface", "token"),
}

// FindToken resolves the access token from the environment or the local
// token cache. source names where it came from; ok is false when no token
// is available and the caller should prompt.
func FindToken() (token, source string, ok bool) {
	for _, v := range tokenEnvVars {
		if t := strings.TrimSpace(os.Getenv(v)); t != "" {
			return t, "$" + v, true
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", false
	}
	for _, rel := range tokenCachePaths {
		path := filepath.Join(home, rel)
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if t := strings.TrimSpace(string(b)); t != "" {
			return t, path, true
		}
	}
	return "", "", false
}

// SaveToken writes the token to the primary cache location with owner-only
// permissions so later runs skip the prompt.
func SaveToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("empty token")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap(err, "resolving home directory")
	}
	path := filepath.Join(home, tokenCachePaths[0])
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "creating token cache directory")
	}
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		return errors.Wrap(err, "writing token cache")
	}
	return nil
}
