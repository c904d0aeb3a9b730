// Package types contains shared data structures used across the reviewer system.
//
//nolint:revive // "types" is a standard Go package name for shared data structures
package types

import "time"

// PullRequest represents a GitHub pull request.
type PullRequest struct {
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Title              string
	Body               string
	State              string
	Author             string
	Owner              string
	Repository         string
	RequestedReviewers []string
	Number             int
	ChangedFiles       int
	Additions          int
	Deletions          int
	Draft              bool
}

// ChangedFile represents a file changed in a pull request.
type ChangedFile struct {
	Filename  string
	Status    string // "added", "modified", "removed", "renamed"
	Additions int
	Deletions int
}

// Review represents a submitted review on a pull request.
type Review struct {
	SubmittedAt time.Time // zero when GitHub reports no submission time
	Author      string
	State       string
	ID          int64
}

// ReviewComment represents a line-level comment attached to a review.
type ReviewComment struct {
	CreatedAt time.Time
	Author    string
	Body      string
	Path      string
	CommitID  string
	ID        int64
	PRNumber  int
	Line      int
}

// ReviewedPull is one pull request a reviewer has reviewed, together with
// the comments they left on it.
type ReviewedPull struct {
	SubmittedAt time.Time
	Comments    []ReviewComment
	PRNumber    int
}

// ReviewStats aggregates a reviewer's activity within a time window.
type ReviewStats struct {
	LastReviewAt        time.Time
	TotalReviews        int
	TotalComments       int
	AverageResponseTime time.Duration
	RelatedFileChanges  int
}

// ReviewHistory is a reviewer's chronological review record for one
// repository. Built fresh on every call, never persisted.
type ReviewHistory struct {
	Reviewer User
	Reviews  []ReviewedPull
	Stats    ReviewStats
}

// User identifies a GitHub account, optionally with a display name.
type User struct {
	Login string
	Name  string
}

// ReviewerCandidate is a scored candidate produced by one ranking call.
type ReviewerCandidate struct {
	Login          string
	Name           string
	RecentComments []string
	Stats          ReviewStats
	Score          float64
	PendingReviews int
}

// RateLimit is a read-only snapshot of the upstream rate limit state.
type RateLimit struct {
	ResetAt   time.Time
	Limit     int
	Remaining int
	Used      int
}

// PullRequestRef identifies one pull request.
type PullRequestRef struct {
	Owner  string
	Repo   string
	Number int
}

// PullRequestDetails bundles everything known about one pull request.
type PullRequestDetails struct {
	PR      PullRequest
	Files   []ChangedFile
	Reviews []Review
}
