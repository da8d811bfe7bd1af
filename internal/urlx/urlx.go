// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package urlx provides small URL construction helpers.
package urlx

import (
	"net/url"
	"path"
)

// MustParse will call url.Parse and panic if there is an error, returning on success.
func MustParse(rawURL string) *url.URL {
	if u, err := url.Parse(rawURL); err != nil {
		panic(err)
	} else {
		return u
	}
}

// Join resolves the given path elements against base without mutating it.
func Join(base *url.URL, elems ...string) *url.URL {
	u := *base
	u.Path = path.Join(append([]string{"/", u.Path}, elems...)...)
	return &u
}
