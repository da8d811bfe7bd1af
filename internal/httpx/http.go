// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package httpx provides a simpler http.Client abstraction and decorators.
package httpx

import "net/http"

// BasicClient is a simpler http.Client that only requires a Do method.
type BasicClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ BasicClient = http.DefaultClient

// WithUserAgent is a basic HTTP client that adds a User-Agent header.
type WithUserAgent struct {
	BasicClient
	UserAgent string
}

var _ BasicClient = &WithUserAgent{}

// Do adds the User-Agent header and sends the request.
func (c *WithUserAgent) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.UserAgent)
	return c.BasicClient.Do(req)
}

// WithBearerToken is a basic HTTP client that attaches a bearer credential
// to every request. An empty token leaves requests anonymous.
type WithBearerToken struct {
	BasicClient
	Token string
}

var _ BasicClient = &WithBearerToken{}

// Do adds the Authorization header and sends the request.
func (c *WithBearerToken) Do(req *http.Request) (*http.Response, error) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.BasicClient.Do(req)
}
