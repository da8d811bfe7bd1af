// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/lora-wizard/internal/httpx"
	"github.com/google/lora-wizard/pkg/hub"
	"github.com/pkg/errors"
)

const userAgent = "lora-wizard"

func newHubClient(endpoint *url.URL, token string) *hub.HTTPClient {
	return &hub.HTTPClient{
		Client: &httpx.WithBearerToken{
			BasicClient: &httpx.WithUserAgent{BasicClient: http.DefaultClient, UserAgent: userAgent},
			Token:       token,
		},
		Endpoint: endpoint,
	}
}

// authenticate resolves a token (env, cache, or interactive prompt), verifies
// it against the hub, and returns an authenticated client plus the account it
// belongs to. A stale cached token gets one interactive retry.
func authenticate(ctx context.Context, endpoint *url.URL) (hub.API, *hub.User, string, error) {
	token, source, found := hub.FindToken()
	prompted := false
	if found {
		say("Using access token from %s", source)
	} else {
		var err error
		token, err = promptSecret("Hugging Face access token (write scope)")
		if err != nil {
			return nil, nil, "", err
		}
		if token == "" {
			return nil, nil, "", errors.New("an access token is required")
		}
		prompted = true
	}
	for {
		api := newHubClient(endpoint, token)
		user, err := api.WhoAmI(ctx)
		if err == nil {
			ok("Authenticated as %s", user.Name)
			if prompted {
				if save, err := promptYesNo("Save token for future runs?", true); err == nil && save {
					if err := hub.SaveToken(token); err != nil {
						warn("could not save token: %v", err)
					}
				}
			}
			return api, user, token, nil
		}
		if prompted {
			return nil, nil, "", errors.Wrap(err, "verifying access token")
		}
		// The cached or env token is stale; ask once for a fresh one.
		warn("stored token was rejected: %v", err)
		var perr error
		token, perr = promptSecret("Hugging Face access token (write scope)")
		if perr != nil {
			return nil, nil, "", perr
		}
		if token == "" {
			return nil, nil, "", errors.New("an access token is required")
		}
		prompted = true
	}
}
