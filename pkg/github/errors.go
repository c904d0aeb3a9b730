package github

import "errors"

// Sentinel errors for upstream failures. Callers classify with errors.Is;
// none of these are retried locally.
var (
	// ErrNotFound indicates an unknown owner, repository, or pull request.
	ErrNotFound = errors.New("github: not found")

	// ErrRateLimited indicates the API rate limit is exhausted.
	ErrRateLimited = errors.New("github: rate limited")

	// ErrAuthentication indicates a missing, invalid, or insufficient credential.
	ErrAuthentication = errors.New("github: authentication failed")
)
