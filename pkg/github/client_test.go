package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sim0417/mcp-pull-buddy/pkg/internal/testutil"
)

func newTestClient(doer HTTPDoer) *Client {
	return &Client{httpClient: doer, token: "test-token"}
}

func TestListPullRequests(t *testing.T) {
	mock := testutil.NewMockHTTPDoer()
	url := "https://api.github.com/repos/acme/widgets/pulls?state=all&sort=updated&direction=desc&per_page=100&page=1"
	mock.SetResponse(http.MethodGet, url, http.StatusOK, []map[string]any{
		{
			"number":     7,
			"title":      "Add frobnicator",
			"state":      "open",
			"created_at": "2026-08-01T10:00:00Z",
			"updated_at": "2026-08-02T10:00:00Z",
			"user":       map[string]any{"login": "alice"},
			"requested_reviewers": []map[string]any{
				{"login": "bob"},
			},
		},
	})

	c := newTestClient(mock)
	prs, err := c.ListPullRequests(context.Background(), "acme", "widgets")
	if err != nil {
		t.Fatalf("ListPullRequests returned error: %v", err)
	}
	if len(prs) != 1 {
		t.Fatalf("expected 1 PR, got %d", len(prs))
	}

	pr := prs[0]
	if pr.Number != 7 {
		t.Errorf("expected number 7, got %d", pr.Number)
	}
	if pr.Author != "alice" {
		t.Errorf("expected author alice, got %q", pr.Author)
	}
	if pr.Owner != "acme" || pr.Repository != "widgets" {
		t.Errorf("unexpected owner/repo: %s/%s", pr.Owner, pr.Repository)
	}
	if len(pr.RequestedReviewers) != 1 || pr.RequestedReviewers[0] != "bob" {
		t.Errorf("unexpected requested reviewers: %v", pr.RequestedReviewers)
	}
	want := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if !pr.CreatedAt.Equal(want) {
		t.Errorf("expected created_at %v, got %v", want, pr.CreatedAt)
	}

	// A short page means no second request
	page2 := "https://api.github.com/repos/acme/widgets/pulls?state=all&sort=updated&direction=desc&per_page=100&page=2"
	if got := mock.CallCount(http.MethodGet, page2); got != 0 {
		t.Errorf("expected no second page fetch, got %d calls", got)
	}
}

func TestListPullRequests_Pagination(t *testing.T) {
	mock := testutil.NewMockHTTPDoer()

	fullPage := make([]map[string]any, perPageLimit)
	for i := range fullPage {
		fullPage[i] = map[string]any{
			"number": i + 1,
			"user":   map[string]any{"login": "alice"},
		}
	}
	page1 := "https://api.github.com/repos/acme/widgets/pulls?state=all&sort=updated&direction=desc&per_page=100&page=1"
	page2 := "https://api.github.com/repos/acme/widgets/pulls?state=all&sort=updated&direction=desc&per_page=100&page=2"
	mock.SetResponse(http.MethodGet, page1, http.StatusOK, fullPage)
	mock.SetResponse(http.MethodGet, page2, http.StatusOK, []map[string]any{
		{"number": 101, "user": map[string]any{"login": "bob"}},
	})

	c := newTestClient(mock)
	prs, err := c.ListPullRequests(context.Background(), "acme", "widgets")
	if err != nil {
		t.Fatalf("ListPullRequests returned error: %v", err)
	}
	if len(prs) != perPageLimit+1 {
		t.Fatalf("expected %d PRs, got %d", perPageLimit+1, len(prs))
	}
	if prs[perPageLimit].Number != 101 {
		t.Errorf("expected last PR from page 2, got number %d", prs[perPageLimit].Number)
	}
}

func TestListReviews_MissingSubmittedAt(t *testing.T) {
	mock := testutil.NewMockHTTPDoer()
	url := "https://api.github.com/repos/acme/widgets/pulls/7/reviews?per_page=100&page=1"
	mock.SetResponse(http.MethodGet, url, http.StatusOK, []map[string]any{
		{"id": 1, "user": map[string]any{"login": "bob"}, "state": "APPROVED", "submitted_at": "2026-08-03T12:00:00Z"},
		{"id": 2, "user": map[string]any{"login": "carol"}, "state": "PENDING"},
	})

	c := newTestClient(mock)
	reviews, err := c.ListReviews(context.Background(), "acme", "widgets", 7)
	if err != nil {
		t.Fatalf("ListReviews returned error: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].SubmittedAt.IsZero() {
		t.Error("expected first review to carry its submission time")
	}
	if !reviews[1].SubmittedAt.IsZero() {
		t.Error("expected missing submitted_at to decode as zero time")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		want       error
		header     http.Header
		name       string
		statusCode int
	}{
		{name: "unauthorized", statusCode: http.StatusUnauthorized, want: ErrAuthentication},
		{name: "not found", statusCode: http.StatusNotFound, want: ErrNotFound},
		{name: "too many requests", statusCode: http.StatusTooManyRequests, want: ErrRateLimited},
		{
			name:       "forbidden with exhausted quota",
			statusCode: http.StatusForbidden,
			header:     http.Header{"X-Ratelimit-Remaining": []string{"0"}},
			want:       ErrRateLimited,
		},
		{name: "plain forbidden", statusCode: http.StatusForbidden, want: ErrAuthentication},
	}

	url := "https://api.github.com/repos/acme/widgets/pulls/7"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockHTTPDoer()
			mock.SetResponseWithHeader(http.MethodGet, url, tt.statusCode, map[string]any{"message": "nope"}, tt.header)

			c := newTestClient(mock)
			_, err := c.PullRequest(context.Background(), "acme", "widgets", 7)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected errors.Is(err, %v), got %v", tt.want, err)
			}
		})
	}
}

func TestErrors_NotRetried(t *testing.T) {
	mock := testutil.NewMockHTTPDoer()
	url := "https://api.github.com/repos/acme/widgets/pulls/7"
	mock.SetResponse(http.MethodGet, url, http.StatusTooManyRequests, map[string]any{"message": "slow down"})

	c := newTestClient(mock)
	_, err := c.PullRequest(context.Background(), "acme", "widgets", 7)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if got := mock.CallCount(http.MethodGet, url); got != 1 {
		t.Errorf("rate limited request must not be retried, got %d calls", got)
	}
}

func TestRateLimit(t *testing.T) {
	mock := testutil.NewMockHTTPDoer()
	reset := time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)
	mock.SetResponse(http.MethodGet, "https://api.github.com/rate_limit", http.StatusOK, map[string]any{
		"resources": map[string]any{
			"core": map[string]any{
				"limit":     5000,
				"remaining": 4200,
				"used":      800,
				"reset":     reset.Unix(),
			},
		},
	})

	c := newTestClient(mock)
	rl, err := c.RateLimit(context.Background())
	if err != nil {
		t.Fatalf("RateLimit returned error: %v", err)
	}
	if rl.Limit != 5000 || rl.Remaining != 4200 || rl.Used != 800 {
		t.Errorf("unexpected snapshot: %+v", rl)
	}
	if !rl.ResetAt.Equal(reset) {
		t.Errorf("expected reset %v, got %v", reset, rl.ResetAt)
	}
}

func TestValidateToken(t *testing.T) {
	longToken := "ghp_" + fmt.Sprintf("%040d", 1)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"empty", "", true},
		{"too short", "abc", true},
		{"classic token", longToken, false},
		{"invalid characters", longToken[:len(longToken)-1] + "!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateToken(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
		})
	}
}

func TestIsLikelyBot(t *testing.T) {
	tests := []struct {
		username string
		wantBot  bool
	}{
		{"dependabot[bot]", true},
		{"renovate-bot", true},
		{"github-actions", true},
		{"mergify[bot]", true},
		{"prod-cd-bot", true},
		{"deploy-automation", true},
		{"johndoe", false},
		{"john-doe", false},
		{"user123", false},
		{"abbott", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			if got := IsLikelyBot(tt.username); got != tt.wantBot {
				t.Errorf("IsLikelyBot(%q) = %v, want %v", tt.username, got, tt.wantBot)
			}
		})
	}
}
