package reviewer

import (
	"context"
	"log/slog"
	"time"

	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// ReviewHistory assembles a reviewer's chronological review record for one
// repository. Pull requests created before since are discarded; a zero
// since defaults to the configured history window back from now.
//
// Reviews that were never submitted (no submission timestamp) still count
// toward the review total but are excluded from the response-time average
// rather than skewing it toward zero.
func (f *Finder) ReviewHistory(ctx context.Context, owner, repo, reviewer string, since time.Time) (*types.ReviewHistory, error) {
	if since.IsZero() {
		since = time.Now().Add(-f.window)
	}

	prs, err := f.accessor.PullRequests(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	history := &types.ReviewHistory{
		Reviewer: types.User{Login: reviewer},
	}

	var responseTotal time.Duration
	var timedReviews int

	// Pull requests arrive most-recently-updated first; that ordering is
	// preserved in the reviews list and does not affect the aggregates.
	for i := range prs {
		pr := &prs[i]
		if pr.CreatedAt.Before(since) {
			continue
		}

		reviews, err := f.accessor.Reviews(ctx, owner, repo, pr.Number)
		if err != nil {
			return nil, err
		}

		for _, review := range reviews {
			if review.Author != reviewer {
				continue
			}

			comments, err := f.client.ListReviewComments(ctx, owner, repo, pr.Number, review.ID)
			if err != nil {
				return nil, err
			}

			history.Reviews = append(history.Reviews, types.ReviewedPull{
				PRNumber:    pr.Number,
				SubmittedAt: review.SubmittedAt,
				Comments:    comments,
			})
			history.Stats.TotalComments += len(comments)

			if !review.SubmittedAt.IsZero() {
				responseTotal += review.SubmittedAt.Sub(pr.CreatedAt)
				timedReviews++
				if review.SubmittedAt.After(history.Stats.LastReviewAt) {
					history.Stats.LastReviewAt = review.SubmittedAt
				}
			}
		}
	}

	history.Stats.TotalReviews = len(history.Reviews)
	if timedReviews > 0 {
		history.Stats.AverageResponseTime = responseTotal / time.Duration(timedReviews)
	}

	slog.Debug("Assembled review history", "owner", owner, "repo", repo, "reviewer", reviewer,
		"reviews", history.Stats.TotalReviews, "comments", history.Stats.TotalComments)
	return history, nil
}
