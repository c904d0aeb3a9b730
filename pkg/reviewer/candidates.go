package reviewer

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sim0417/mcp-pull-buddy/pkg/github"
	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// PullRequestsForOwner returns every pull request across all repositories
// of an organization.
func (f *Finder) PullRequestsForOwner(ctx context.Context, owner string) ([]types.PullRequest, error) {
	return f.accessor.OrgPullRequests(ctx, owner)
}

// ReviewRequestLoad counts, per login, the open review requests currently
// assigned across the organization's repositories.
func (f *Finder) ReviewRequestLoad(ctx context.Context, owner string) (map[string]int, error) {
	prs, err := f.accessor.OrgPullRequests(ctx, owner)
	if err != nil {
		return nil, err
	}

	load := make(map[string]int)
	for i := range prs {
		pr := &prs[i]
		if pr.State != "open" {
			continue
		}
		for _, login := range pr.RequestedReviewers {
			load[login]++
		}
	}
	return load, nil
}

// CandidateReviewers lists the organization's members as reviewer
// candidates, enriched with display names. Bot and automation accounts are
// filtered out. A failed detail lookup downgrades that member to
// login-only instead of failing the whole listing.
func (f *Finder) CandidateReviewers(ctx context.Context, owner string) ([]types.User, error) {
	logins, err := f.client.ListOrgMembers(ctx, owner)
	if err != nil {
		return nil, err
	}

	humans := make([]string, 0, len(logins))
	for _, login := range logins {
		if github.IsLikelyBot(login) {
			slog.Debug("Skipping bot account", "login", login)
			continue
		}
		humans = append(humans, login)
	}

	candidates := make([]types.User, len(humans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichmentFanOut)
	for i, login := range humans {
		g.Go(func() error {
			user, err := f.client.User(gctx, login)
			if err != nil {
				slog.Warn("Failed to enrich member, keeping login only", "login", login, "error", err)
				candidates[i] = types.User{Login: login}
				return nil
			}
			candidates[i] = *user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// PullRequestDetails fetches one pull request with its changed files and
// submitted reviews.
func (f *Finder) PullRequestDetails(ctx context.Context, ref types.PullRequestRef) (*types.PullRequestDetails, error) {
	pr, err := f.client.PullRequest(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, err
	}

	files, err := f.accessor.Files(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, err
	}

	reviews, err := f.accessor.Reviews(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, err
	}

	return &types.PullRequestDetails{PR: *pr, Files: files, Reviews: reviews}, nil
}
