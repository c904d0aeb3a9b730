package reviewer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// Scoring weights and normalizers. Fixed, not configurable. Pending load
// is inversely and asymptotically weighted; the related-file and volume
// terms are linear and unbounded above their nominal caps.
const (
	pendingWeight     = 0.3
	relatedWeight     = 0.4
	volumeWeight      = 0.3
	relatedNormalizer = 10.0
	volumeNormalizer  = 50.0

	maxRecentComments  = 10
	topCandidatesToLog = 5
)

// Score combines pending-review load, related-file experience, and total
// review volume into a single ranking score.
func Score(pendingReviews, relatedFileChanges, totalReviews int) float64 {
	return pendingWeight/float64(pendingReviews+1) +
		relatedWeight*float64(relatedFileChanges)/relatedNormalizer +
		volumeWeight*float64(totalReviews)/volumeNormalizer
}

// Recommend scores every eligible organization member against the given
// pull request and returns the top count candidates, highest score first.
// Ties keep their input order. A non-positive count falls back to the
// default of 10.
func (f *Finder) Recommend(ctx context.Context, ref types.PullRequestRef, count int) ([]types.ReviewerCandidate, error) {
	if count <= 0 {
		count = defaultCount
	}

	pr, err := f.client.PullRequest(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch target pull request: %w", err)
	}

	members, err := f.CandidateReviewers(ctx, ref.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate reviewers: %w", err)
	}

	load, err := f.ReviewRequestLoad(ctx, ref.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to compute review request load: %w", err)
	}

	requested := make(map[string]bool, len(pr.RequestedReviewers))
	for _, login := range pr.RequestedReviewers {
		requested[login] = true
	}

	// Exclude the author and anyone already asked to review.
	eligible := make([]types.User, 0, len(members))
	for _, member := range members {
		if member.Login == pr.Author || requested[member.Login] {
			continue
		}
		eligible = append(eligible, member)
	}

	since := time.Now().Add(-f.window)
	candidates := make([]types.ReviewerCandidate, len(eligible))

	// History and overlap for all candidates are computed concurrently and
	// joined; the first failure fails the whole join.
	g, gctx := errgroup.WithContext(ctx)
	for i, member := range eligible {
		g.Go(func() error {
			history, err := f.ReviewHistory(gctx, ref.Owner, ref.Repo, member.Login, since)
			if err != nil {
				return fmt.Errorf("failed to build review history for %s: %w", member.Login, err)
			}

			related, err := f.RelatedFileChanges(gctx, ref, member.Login)
			if err != nil {
				return fmt.Errorf("failed to compute related files for %s: %w", member.Login, err)
			}

			stats := history.Stats
			stats.RelatedFileChanges = related
			pending := load[member.Login]

			candidates[i] = types.ReviewerCandidate{
				Login:          member.Login,
				Name:           member.Name,
				PendingReviews: pending,
				Stats:          stats,
				RecentComments: recentCommentBodies(history.Reviews),
				Score:          Score(pending, related, stats.TotalReviews),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stable: tied scores keep the candidates' input order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}

	for i, c := range candidates {
		if i >= topCandidatesToLog {
			break
		}
		slog.Info("Candidate scored", "rank", i+1, "login", c.Login, "score", c.Score,
			"pending", c.PendingReviews, "related_files", c.Stats.RelatedFileChanges, "total_reviews", c.Stats.TotalReviews)
	}

	return candidates, nil
}

// recentCommentBodies collects up to maxRecentComments comment bodies,
// preserving the source ordering of the reviews list.
func recentCommentBodies(reviews []types.ReviewedPull) []string {
	var bodies []string
	for _, review := range reviews {
		for _, comment := range review.Comments {
			if comment.Body == "" {
				continue
			}
			bodies = append(bodies, comment.Body)
			if len(bodies) == maxRecentComments {
				return bodies
			}
		}
	}
	return bodies
}
