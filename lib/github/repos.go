// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// User is a GitHub account.
type User struct {
	Login   string `json:"login"`
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// Repository is the subset of a GitHub repository the crew uses.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	CloneURL      string `json:"clone_url"`
	DefaultBranch string `json:"default_branch"`
	Owner         User   `json:"owner"`
}

// CreateRepositoryRequest is the body of POST /user/repos.
type CreateRepositoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`

	// AutoInit creates an initial commit with a README, so the
	// repository can be cloned and pushed to immediately.
	AutoInit bool `json:"auto_init"`
}

// AuthenticatedUser returns the account that owns the token.
func (client *Client) AuthenticatedUser(ctx context.Context) (*User, error) {
	var user User
	if err := client.get(ctx, "/user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateRepository creates a repository owned by the authenticated
// user.
func (client *Client) CreateRepository(ctx context.Context, request CreateRepositoryRequest) (*Repository, error) {
	if strings.TrimSpace(request.Name) == "" {
		return nil, errors.New("github: repository name is required")
	}
	client.logger.Info("creating GitHub repository",
		"name", request.Name,
		"private", request.Private,
	)
	var repository Repository
	if err := client.post(ctx, "/user/repos", request, &repository); err != nil {
		return nil, err
	}
	return &repository, nil
}

// AuthenticatedCloneURL embeds token into an HTTPS clone URL so git can
// push without a credential helper. The result is a secret; log
// cloneURL instead.
func AuthenticatedCloneURL(cloneURL, token string) (string, error) {
	parsed, err := url.Parse(cloneURL)
	if err != nil {
		return "", fmt.Errorf("github: parsing clone URL: %w", err)
	}
	if parsed.Scheme != "https" {
		return "", fmt.Errorf("github: clone URL %q is not HTTPS", cloneURL)
	}
	parsed.User = url.UserPassword("x-access-token", token)
	return parsed.String(), nil
}
