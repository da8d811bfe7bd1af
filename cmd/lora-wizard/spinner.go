// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// spinner is a single-line terminal spinner redrawn by explicit Tick calls;
// it owns no goroutine.
type spinner struct {
	label string
	frame int
}

func newSpinner(label string) *spinner {
	return &spinner{label: label}
}

func (s *spinner) Tick() {
	fmt.Fprintf(os.Stderr, "\r%s %s", spinnerFrames[s.frame%len(spinnerFrames)], s.label)
	s.frame++
}

func (s *spinner) Stop() {
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.label)+2))
}
