package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// prRecord is the wire shape shared by the list and get PR endpoints.
type prRecord struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	RequestedReviewers []struct {
		Login string `json:"login"`
	} `json:"requested_reviewers"`
	Number       int  `json:"number"`
	ChangedFiles int  `json:"changed_files"`
	Additions    int  `json:"additions"`
	Deletions    int  `json:"deletions"`
	Draft        bool `json:"draft"`
}

func (r *prRecord) toPullRequest(owner, repo string) types.PullRequest {
	reviewers := make([]string, 0, len(r.RequestedReviewers))
	for _, reviewer := range r.RequestedReviewers {
		reviewers = append(reviewers, reviewer.Login)
	}
	return types.PullRequest{
		Number:             r.Number,
		Title:              r.Title,
		Body:               r.Body,
		State:              r.State,
		Author:             r.User.Login,
		Owner:              owner,
		Repository:         repo,
		CreatedAt:          parseGitHubTime(r.CreatedAt),
		UpdatedAt:          parseGitHubTime(r.UpdatedAt),
		RequestedReviewers: reviewers,
		ChangedFiles:       r.ChangedFiles,
		Additions:          r.Additions,
		Deletions:          r.Deletions,
		Draft:              r.Draft,
	}
}

// ListPullRequests fetches pull requests for a repository in all states,
// most recently updated first. Pagination is followed up to maxPages pages.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string) ([]types.PullRequest, error) {
	slog.Info("Fetching pull requests for repository", "component", "api", "owner", owner, "repo", repo)

	var all []types.PullRequest
	for page := 1; page <= maxPages; page++ {
		apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls?state=all&sort=updated&direction=desc&per_page=%d&page=%d",
			apiBase, owner, repo, perPageLimit, page)

		var records []prRecord
		if err := c.getJSON(ctx, apiURL, "list pull requests", &records); err != nil {
			return nil, err
		}

		for i := range records {
			all = append(all, records[i].toPullRequest(owner, repo))
		}
		if len(records) < perPageLimit {
			break
		}
	}
	return all, nil
}

// PullRequest fetches a single pull request.
func (c *Client) PullRequest(ctx context.Context, owner, repo string, prNumber int) (*types.PullRequest, error) {
	slog.Info("Fetching pull request details", "component", "api", "owner", owner, "repo", repo, "pr", prNumber)

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", apiBase, owner, repo, prNumber)
	var record prRecord
	if err := c.getJSON(ctx, apiURL, "get pull request", &record); err != nil {
		return nil, err
	}

	pr := record.toPullRequest(owner, repo)
	return &pr, nil
}

// ListFiles fetches the changed-file list for a pull request.
func (c *Client) ListFiles(ctx context.Context, owner, repo string, prNumber int) ([]types.ChangedFile, error) {
	slog.Info("Fetching changed files for PR", "component", "api", "owner", owner, "repo", repo, "pr", prNumber)

	var all []types.ChangedFile
	for page := 1; page <= maxPages; page++ {
		apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			apiBase, owner, repo, prNumber, perPageLimit, page)

		var files []struct {
			Filename  string `json:"filename"`
			Status    string `json:"status"`
			Additions int    `json:"additions"`
			Deletions int    `json:"deletions"`
		}
		if err := c.getJSON(ctx, apiURL, "list pull request files", &files); err != nil {
			return nil, err
		}

		for _, f := range files {
			all = append(all, types.ChangedFile{
				Filename:  f.Filename,
				Status:    f.Status,
				Additions: f.Additions,
				Deletions: f.Deletions,
			})
		}
		if len(files) < perPageLimit {
			break
		}
	}
	return all, nil
}

// ListReviews fetches all reviews submitted on a pull request.
func (c *Client) ListReviews(ctx context.Context, owner, repo string, prNumber int) ([]types.Review, error) {
	slog.Info("Fetching reviews for PR", "component", "api", "owner", owner, "repo", repo, "pr", prNumber)

	var all []types.Review
	for page := 1; page <= maxPages; page++ {
		apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews?per_page=%d&page=%d",
			apiBase, owner, repo, prNumber, perPageLimit, page)

		var reviews []struct {
			User struct {
				Login string `json:"login"`
			} `json:"user"`
			State       string `json:"state"`
			SubmittedAt string `json:"submitted_at"`
			ID          int64  `json:"id"`
		}
		if err := c.getJSON(ctx, apiURL, "list pull request reviews", &reviews); err != nil {
			return nil, err
		}

		for _, r := range reviews {
			all = append(all, types.Review{
				ID:          r.ID,
				Author:      r.User.Login,
				State:       r.State,
				SubmittedAt: parseGitHubTime(r.SubmittedAt),
			})
		}
		if len(reviews) < perPageLimit {
			break
		}
	}
	return all, nil
}

// ListReviewComments fetches the line-level comments attached to one review.
func (c *Client) ListReviewComments(ctx context.Context, owner, repo string, prNumber int, reviewID int64) ([]types.ReviewComment, error) {
	slog.Info("Fetching review comments", "component", "api", "owner", owner, "repo", repo, "pr", prNumber, "review", reviewID)

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews/%d/comments?per_page=%d",
		apiBase, owner, repo, prNumber, reviewID, perPageLimit)

	var comments []struct {
		User struct {
			Login string `json:"login"`
		} `json:"user"`
		Body      string `json:"body"`
		Path      string `json:"path"`
		CommitID  string `json:"commit_id"`
		CreatedAt string `json:"created_at"`
		ID        int64  `json:"id"`
		Line      int    `json:"line"`
	}
	if err := c.getJSON(ctx, apiURL, "list review comments", &comments); err != nil {
		return nil, err
	}

	result := make([]types.ReviewComment, 0, len(comments))
	for _, cm := range comments {
		result = append(result, types.ReviewComment{
			ID:        cm.ID,
			PRNumber:  prNumber,
			Author:    cm.User.Login,
			Body:      cm.Body,
			Path:      cm.Path,
			Line:      cm.Line,
			CommitID:  cm.CommitID,
			CreatedAt: parseGitHubTime(cm.CreatedAt),
		})
	}
	return result, nil
}
