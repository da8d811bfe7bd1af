// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package askpass

import (
	"os"
	"runtime"
	"strings"
	"testing"
)

func TestCreateWritesOwnerOnlyScript(t *testing.T) {
	f, err := Create("hf_testtoken1234")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Remove()

	content, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "hf_testtoken1234") {
		t.Error("script does not echo the token")
	}
	if runtime.GOOS != "windows" {
		fi, err := os.Stat(f.Path())
		if err != nil {
			t.Fatal(err)
		}
		if perm := fi.Mode().Perm(); perm != 0o700 {
			t.Errorf("script mode = %o, want 0700", perm)
		}
	}
}

func TestEnvDisablesTerminalPrompt(t *testing.T) {
	f, err := Create("hf_testtoken1234")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Remove()
	env := strings.Join(f.Env(), "\n")
	if !strings.Contains(env, "GIT_ASKPASS="+f.Path()) {
		t.Errorf("env missing GIT_ASKPASS: %q", env)
	}
	if !strings.Contains(env, "GIT_TERMINAL_PROMPT=0") {
		t.Errorf("env missing GIT_TERMINAL_PROMPT=0: %q", env)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	f, err := Create("hf_testtoken1234")
	if err != nil {
		t.Fatal(err)
	}
	f.Remove()
	f.Remove()
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Errorf("script still present after Remove: %v", err)
	}
}

func TestCreateRejectsEmptyToken(t *testing.T) {
	if _, err := Create(""); err == nil {
		t.Error("Create with empty token succeeded, want error")
	}
}
