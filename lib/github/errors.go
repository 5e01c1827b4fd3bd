// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the GitHub REST API.
type APIError struct {
	StatusCode int

	// Message is GitHub's top-level description, or the raw body when
	// the response was not JSON.
	Message string

	DocumentationURL string

	// Errors lists field failures. GitHub sends them on 422 responses.
	Errors []ValidationError
}

// ValidationError is one field failure of a 422 response.
type ValidationError struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "github: HTTP %d: %s", err.StatusCode, err.Message)
	for _, field := range err.Errors {
		detail := field.Message
		if detail == "" {
			detail = field.Code
		}
		fmt.Fprintf(&builder, "; %s.%s: %s", field.Resource, field.Field, detail)
	}
	return builder.String()
}

func statusOf(err error) (int, *APIError) {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return 0, nil
	}
	return apiError.StatusCode, apiError
}

// IsUnauthorized reports a 401: the token is missing, expired or revoked.
func IsUnauthorized(err error) bool {
	status, _ := statusOf(err)
	return status == http.StatusUnauthorized
}

// IsNotFound reports a 404.
func IsNotFound(err error) bool {
	status, _ := statusOf(err)
	return status == http.StatusNotFound
}

// IsRateLimited reports a primary (403 with a rate limit message) or
// secondary (429) rate limit.
func IsRateLimited(err error) bool {
	status, apiError := statusOf(err)
	switch status {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return isRateLimitMessage(apiError.Message)
	}
	return false
}

// IsValidationFailed reports a 422.
func IsValidationFailed(err error) bool {
	status, _ := statusOf(err)
	return status == http.StatusUnprocessableEntity
}

// IsNameTaken reports a 422 whose name field says the repository
// already exists on the account.
func IsNameTaken(err error) bool {
	status, apiError := statusOf(err)
	if status != http.StatusUnprocessableEntity {
		return false
	}
	for _, field := range apiError.Errors {
		if field.Field == "name" && strings.Contains(strings.ToLower(field.Message), "already exists") {
			return true
		}
	}
	return false
}

// parseAPIError decodes GitHub's {"message", "documentation_url",
// "errors"} body, falling back to the trimmed raw body.
func parseAPIError(statusCode int, body []byte) *APIError {
	var wire struct {
		Message          string            `json:"message"`
		DocumentationURL string            `json:"documentation_url"`
		Errors           []ValidationError `json:"errors"`
	}
	if json.Unmarshal(body, &wire) != nil || wire.Message == "" {
		return &APIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	}
	return &APIError{
		StatusCode:       statusCode,
		Message:          wire.Message,
		DocumentationURL: wire.DocumentationURL,
		Errors:           wire.Errors,
	}
}

func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "abuse detection")
}
