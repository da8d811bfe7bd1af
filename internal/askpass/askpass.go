// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package askpass satisfies git's non-interactive credential prompt with a
// transient helper script holding the access token.
package askpass

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// File is a transient executable script that prints the token when git asks
// for credentials. It holds the token in cleartext and therefore must be
// removed before exit regardless of exit path.
type File struct {
	path string
	once sync.Once
}

// Create writes the helper script with owner-only permissions.
func Create(token string) (*File, error) {
	if token == "" {
		return nil, errors.New("askpass: empty token")
	}
	path := filepath.Join(os.TempDir(), fmt.Sprintf("hf-askpass-%s.sh", uuid.NewString()))
	script := "#!/bin/sh\necho \"" + token + "\"\n"
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil {
		return nil, errors.Wrap(err, "writing askpass script")
	}
	return &File{path: path}, nil
}

// Path returns the script location.
func (f *File) Path() string { return f.path }

// Env returns the variables that route git credential prompts through the
// script and disable terminal prompting.
func (f *File) Env() []string {
	return []string{
		"GIT_ASKPASS=" + f.path,
		"GIT_TERMINAL_PROMPT=0",
	}
}

// Remove deletes the script. Safe to call more than once.
func (f *File) Remove() {
	f.once.Do(func() {
		if _, err := os.Stat(f.path); err == nil {
			os.Remove(f.path)
		}
	})
}
