// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package httpxtest provides test doubles for httpx.BasicClient.
package httpxtest

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

// Call is one expected request and its canned result.
type Call struct {
	Method   string
	URL      string
	Response *http.Response
	Error    error
}

// MockClient replays canned responses in order, failing the test on any
// unexpected or mismatched request.
type MockClient struct {
	T         *testing.T
	Calls     []Call
	callCount int
}

// Do validates the request against the next expected call and returns its
// canned result.
func (m *MockClient) Do(req *http.Request) (*http.Response, error) {
	m.T.Helper()
	if m.callCount >= len(m.Calls) {
		m.T.Fatalf("unexpected request: %s %s", req.Method, req.URL)
	}
	call := m.Calls[m.callCount]
	m.callCount++
	if call.Method != "" && call.Method != req.Method {
		m.T.Errorf("request %d method = %s, want %s", m.callCount, req.Method, call.Method)
	}
	if call.URL != "" && call.URL != req.URL.String() {
		m.T.Errorf("request %d URL = %s, want %s", m.callCount, req.URL, call.URL)
	}
	return call.Response, call.Error
}

// CallCount returns how many requests were served.
func (m *MockClient) CallCount() int { return m.callCount }

// Body wraps a string as a response body.
func Body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
