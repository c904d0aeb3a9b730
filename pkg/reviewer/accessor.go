package reviewer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sim0417/mcp-pull-buddy/pkg/cache"
	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// Accessor provides read-through-cached collections of pull requests,
// reviews, and changed files. Fetched data is idempotent with respect to
// its key, so concurrent misses doing duplicate fetches are harmless; the
// later write wins.
type Accessor struct {
	client Upstream
	cache  *cache.Cache
}

// NewAccessor creates an accessor over the given client and cache store.
func NewAccessor(client Upstream, store *cache.Cache) *Accessor {
	return &Accessor{client: client, cache: store}
}

// PullRequests returns all pull requests for a repository, cached under
// "pr:{owner}:{repo}".
func (a *Accessor) PullRequests(ctx context.Context, owner, repo string) ([]types.PullRequest, error) {
	key := fmt.Sprintf("pr:%s:%s", owner, repo)
	if cached, found := a.cache.Get(key); found {
		if prs, ok := cached.([]types.PullRequest); ok {
			slog.Debug("Using cached pull requests", "component", "cache", "key", key, "count", len(prs))
			return prs, nil
		}
	}

	prs, err := a.client.ListPullRequests(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	a.cache.Set(key, prs)
	return prs, nil
}

// Reviews returns all reviews for one pull request, cached under
// "review:{owner}:{repo}:{prNumber}".
func (a *Accessor) Reviews(ctx context.Context, owner, repo string, prNumber int) ([]types.Review, error) {
	key := fmt.Sprintf("review:%s:%s:%d", owner, repo, prNumber)
	if cached, found := a.cache.Get(key); found {
		if reviews, ok := cached.([]types.Review); ok {
			slog.Debug("Using cached reviews", "component", "cache", "key", key, "count", len(reviews))
			return reviews, nil
		}
	}

	reviews, err := a.client.ListReviews(ctx, owner, repo, prNumber)
	if err != nil {
		return nil, err
	}
	a.cache.Set(key, reviews)
	return reviews, nil
}

// Files returns the changed-file list for one pull request, cached under
// "files:{owner}:{repo}:{prNumber}".
func (a *Accessor) Files(ctx context.Context, owner, repo string, prNumber int) ([]types.ChangedFile, error) {
	key := fmt.Sprintf("files:%s:%s:%d", owner, repo, prNumber)
	if cached, found := a.cache.Get(key); found {
		if files, ok := cached.([]types.ChangedFile); ok {
			slog.Debug("Using cached changed files", "component", "cache", "key", key, "count", len(files))
			return files, nil
		}
	}

	files, err := a.client.ListFiles(ctx, owner, repo, prNumber)
	if err != nil {
		return nil, err
	}
	a.cache.Set(key, files)
	return files, nil
}

// OrgPullRequests lists every repository in the organization and
// concatenates their pull requests. Not cached at this level; the
// per-repository listings go through PullRequests and share its cache.
func (a *Accessor) OrgPullRequests(ctx context.Context, owner string) ([]types.PullRequest, error) {
	repos, err := a.client.ListOrgRepos(ctx, owner)
	if err != nil {
		return nil, err
	}

	var all []types.PullRequest
	for _, repo := range repos {
		prs, err := a.PullRequests(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests for %s/%s: %w", owner, repo, err)
		}
		all = append(all, prs...)
	}
	return all, nil
}

// RateLimit is a direct pass-through, never cached.
func (a *Accessor) RateLimit(ctx context.Context) (*types.RateLimit, error) {
	return a.client.RateLimit(ctx)
}
