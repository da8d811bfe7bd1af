// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// maxRepoIDLen is the hub's repository identifier length limit.
const maxRepoIDLen = 96

// segmentPattern admits letters, numbers, dash, underscore and dot, with no
// leading or trailing dash/dot.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ValidateRepoID checks a repository identifier of the form "name" or
// "namespace/name" against the hub's naming rules.
func ValidateRepoID(repoID string) error {
	if repoID == "" || len(repoID) > maxRepoIDLen {
		return errors.Errorf("repository ID length must be 1..%d characters", maxRepoIDLen)
	}
	if strings.Count(repoID, "/") > 1 {
		return errors.New("format must be namespace/name or just name")
	}
	for _, part := range strings.Split(repoID, "/") {
		switch {
		case part == "":
			return errors.New("empty namespace or repository name")
		case !segmentPattern.MatchString(part):
			return errors.New("allowed: letters, numbers, dash, underscore, dot; no leading or trailing dash/dot")
		case strings.Contains(part, "--") || strings.Contains(part, ".."):
			return errors.New(`"--" and ".." are not allowed`)
		}
	}
	return nil
}
