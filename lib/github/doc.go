// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package github provides the small slice of the GitHub REST API the
// crew needs: identify the token's user and create a repository for the
// generated project.
//
// The client authenticates with a personal access token. It backs off
// once on rate-limit responses (Retry-After or X-RateLimit-Reset) and
// blocks preemptively when the previous response said the limit is
// exhausted. Non-2xx responses become *APIError.
//
// All requests are made over HTTPS. The client refuses non-HTTPS base URLs.
package github
