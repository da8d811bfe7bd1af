// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package hub is a client for the Hugging Face Hub model-hosting API.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/google/lora-wizard/internal/httpx"
	"github.com/google/lora-wizard/internal/urlx"
	"github.com/pkg/errors"
)

// DefaultEndpoint is the hosted hub instance.
var DefaultEndpoint = urlx.MustParse("https://huggingface.co")

// User identifies the authenticated account.
type User struct {
	Name string `json:"name"`
}

// Model is one repository entry from a listing.
type Model struct {
	ID      string `json:"id"`
	ModelID string `json:"modelId"`
}

// RepoID returns the namespaced repository identifier, tolerating either
// field the listing API populates.
func (m Model) RepoID() string {
	if m.ModelID != "" {
		return m.ModelID
	}
	return m.ID
}

// CreateRepoRequest describes a repository to create.
type CreateRepoRequest struct {
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Private      bool   `json:"private"`
	Type         string `json:"type"`
}

// File is a downloadable repository file.
type File struct {
	Body io.ReadCloser
	Size int64 // -1 when the server does not advertise a length
}

// API is the hosting-platform surface the wizard consumes.
type API interface {
	WhoAmI(context.Context) (*User, error)
	CreateRepo(context.Context, CreateRepoRequest) error
	ListModels(ctx context.Context, author string) ([]Model, error)
	ListRepoFiles(ctx context.Context, repoID string) ([]string, error)
	DownloadFile(ctx context.Context, repoID, filename string) (*File, error)
}

// HTTPClient is an API implementation backed by the hub HTTP API. Credentials
// are supplied by the underlying client (httpx.WithBearerToken).
type HTTPClient struct {
	Client httpx.BasicClient
	// Endpoint overrides DefaultEndpoint when set.
	Endpoint *url.URL
}

var _ API = &HTTPClient{}

func (c *HTTPClient) endpoint() *url.URL {
	if c.Endpoint != nil {
		return c.Endpoint
	}
	return DefaultEndpoint
}

func (c *HTTPClient) get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return c.Client.Do(req)
}

// WhoAmI verifies the credential and resolves the account it belongs to.
func (c *HTTPClient) WhoAmI(ctx context.Context) (*User, error) {
	resp, err := c.get(ctx, urlx.Join(c.endpoint(), "api", "whoami-v2"))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("hub error: %v", resp.Status)
	}
	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, errors.Wrap(err, "decoding whoami response")
	}
	if u.Name == "" {
		return nil, errors.New("hub returned no user name")
	}
	return &u, nil
}

// CreateRepo creates a model repository. An already-existing repository is
// not an error.
func (c *HTTPClient) CreateRepo(ctx context.Context, req CreateRepoRequest) error {
	if req.Type == "" {
		req.Type = "model"
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	u := urlx.Join(c.endpoint(), "api", "repos", "create")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusConflict:
		// Repository already exists.
		return nil
	default:
		return errors.Errorf("hub error creating repository: %v", resp.Status)
	}
}

// ListModels lists the model repositories owned by author.
func (c *HTTPClient) ListModels(ctx context.Context, author string) ([]Model, error) {
	u := urlx.Join(c.endpoint(), "api", "models")
	q := u.Query()
	q.Set("author", author)
	u.RawQuery = q.Encode()
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("hub error listing repositories: %v", resp.Status)
	}
	var models []Model
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, errors.Wrap(err, "decoding model list")
	}
	return models, nil
}

type sibling struct {
	RFilename string `json:"rfilename"`
}

type modelInfo struct {
	Siblings []sibling `json:"siblings"`
}

// ListRepoFiles lists the file names inside a repository.
func (c *HTTPClient) ListRepoFiles(ctx context.Context, repoID string) ([]string, error) {
	resp, err := c.get(ctx, urlx.Join(c.endpoint(), "api", "models", repoID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("hub error listing files of %s: %v", repoID, resp.Status)
	}
	var info modelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "decoding repository file list")
	}
	files := make([]string, 0, len(info.Siblings))
	for _, s := range info.Siblings {
		files = append(files, s.RFilename)
	}
	return files, nil
}

// DownloadFile streams one repository file. The caller owns Body.
func (c *HTTPClient) DownloadFile(ctx context.Context, repoID, filename string) (*File, error) {
	resp, err := c.get(ctx, urlx.Join(c.endpoint(), repoID, "resolve", "main", filename))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("hub error downloading %s from %s: %v", filename, repoID, resp.Status)
	}
	return &File{Body: resp.Body, Size: resp.ContentLength}, nil
}
