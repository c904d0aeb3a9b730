// Package reviewer implements the reviewer recommendation engine: cached
// upstream access, per-reviewer history aggregation, related-file overlap
// analysis, and candidate scoring.
package reviewer

import (
	"context"
	"time"

	"github.com/sim0417/mcp-pull-buddy/pkg/cache"
	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// Upstream is the slice of the GitHub client the engine consumes.
type Upstream interface {
	ListOrgRepos(ctx context.Context, owner string) ([]string, error)
	ListOrgMembers(ctx context.Context, owner string) ([]string, error)
	ListPullRequests(ctx context.Context, owner, repo string) ([]types.PullRequest, error)
	PullRequest(ctx context.Context, owner, repo string, prNumber int) (*types.PullRequest, error)
	ListFiles(ctx context.Context, owner, repo string, prNumber int) ([]types.ChangedFile, error)
	ListReviews(ctx context.Context, owner, repo string, prNumber int) ([]types.Review, error)
	ListReviewComments(ctx context.Context, owner, repo string, prNumber int, reviewID int64) ([]types.ReviewComment, error)
	User(ctx context.Context, login string) (*types.User, error)
	RateLimit(ctx context.Context) (*types.RateLimit, error)
}

// Configuration defaults.
const (
	defaultHistoryWindow = 30 * 24 * time.Hour // Review history lookback
	defaultCount         = 10                  // Ranked candidates returned
	enrichmentFanOut     = 8                   // Concurrent member-detail lookups
)

// Config holds configuration for the recommendation engine.
type Config struct {
	CacheTTL      time.Duration // TTL for cached upstream collections (default 5m)
	HistoryWindow time.Duration // Review history lookback (default 30 days)
}

// Finder recommends reviewers for pull requests.
type Finder struct {
	client   Upstream
	accessor *Accessor
	window   time.Duration
}

// New creates a Finder backed by the given upstream client.
func New(client Upstream, cfg Config) *Finder {
	window := cfg.HistoryWindow
	if window <= 0 {
		window = defaultHistoryWindow
	}
	return &Finder{
		client:   client,
		accessor: NewAccessor(client, cache.New(cfg.CacheTTL)),
		window:   window,
	}
}

// RateLimit returns the current upstream rate limit snapshot, never cached.
func (f *Finder) RateLimit(ctx context.Context) (*types.RateLimit, error) {
	return f.accessor.RateLimit(ctx)
}
