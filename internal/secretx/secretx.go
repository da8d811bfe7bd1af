// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package secretx masks sensitive values in text destined for logs or errors.
package secretx

import "strings"

// minMaskLen is the shortest token worth masking; shorter values would leak
// more through the retained prefix/suffix than masking hides.
const minMaskLen = 8

// Mask replaces every occurrence of token in text with a redacted form that
// keeps only the first and last four characters.
func Mask(text, token string) string {
	if len(token) < minMaskLen {
		return text
	}
	masked := token[:4] + "..." + token[len(token)-4:]
	return strings.ReplaceAll(text, token, masked)
}
