package reviewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// fakeUpstream is an in-memory Upstream for tests. Missing entries come
// back empty rather than failing, except where an error is configured.
type fakeUpstream struct {
	prs      map[string][]types.PullRequest   // owner/repo
	files    map[string][]types.ChangedFile   // owner/repo#number
	reviews  map[string][]types.Review        // owner/repo#number
	comments map[string][]types.ReviewComment // owner/repo#number@reviewID
	users    map[string]types.User
	userErrs map[string]error
	calls    map[string]int
	repos    []string
	members  []string
	rate     types.RateLimit
	mu       sync.Mutex
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		prs:      make(map[string][]types.PullRequest),
		files:    make(map[string][]types.ChangedFile),
		reviews:  make(map[string][]types.Review),
		comments: make(map[string][]types.ReviewComment),
		users:    make(map[string]types.User),
		userErrs: make(map[string]error),
		calls:    make(map[string]int),
	}
}

func repoKey(owner, repo string) string { return owner + "/" + repo }

func prKey(owner, repo string, n int) string { return fmt.Sprintf("%s/%s#%d", owner, repo, n) }

func commentKey(owner, repo string, n int, reviewID int64) string {
	return fmt.Sprintf("%s/%s#%d@%d", owner, repo, n, reviewID)
}

func (f *fakeUpstream) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[call]++
}

func (f *fakeUpstream) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

func (f *fakeUpstream) ListOrgRepos(_ context.Context, owner string) ([]string, error) {
	f.record("repos:" + owner)
	return f.repos, nil
}

func (f *fakeUpstream) ListOrgMembers(_ context.Context, owner string) ([]string, error) {
	f.record("members:" + owner)
	return f.members, nil
}

func (f *fakeUpstream) ListPullRequests(_ context.Context, owner, repo string) ([]types.PullRequest, error) {
	key := repoKey(owner, repo)
	f.record("prs:" + key)
	return f.prs[key], nil
}

func (f *fakeUpstream) PullRequest(_ context.Context, owner, repo string, prNumber int) (*types.PullRequest, error) {
	f.record("pr:" + prKey(owner, repo, prNumber))
	for _, pr := range f.prs[repoKey(owner, repo)] {
		if pr.Number == prNumber {
			return &pr, nil
		}
	}
	return nil, fmt.Errorf("pull request %d not in fixture", prNumber)
}

func (f *fakeUpstream) ListFiles(_ context.Context, owner, repo string, prNumber int) ([]types.ChangedFile, error) {
	key := prKey(owner, repo, prNumber)
	f.record("files:" + key)
	return f.files[key], nil
}

func (f *fakeUpstream) ListReviews(_ context.Context, owner, repo string, prNumber int) ([]types.Review, error) {
	key := prKey(owner, repo, prNumber)
	f.record("reviews:" + key)
	return f.reviews[key], nil
}

func (f *fakeUpstream) ListReviewComments(_ context.Context, owner, repo string, prNumber int, reviewID int64) ([]types.ReviewComment, error) {
	key := commentKey(owner, repo, prNumber, reviewID)
	f.record("comments:" + key)
	return f.comments[key], nil
}

func (f *fakeUpstream) User(_ context.Context, login string) (*types.User, error) {
	f.record("user:" + login)
	if err := f.userErrs[login]; err != nil {
		return nil, err
	}
	if user, ok := f.users[login]; ok {
		return &user, nil
	}
	return &types.User{Login: login}, nil
}

func (f *fakeUpstream) RateLimit(_ context.Context) (*types.RateLimit, error) {
	f.record("ratelimit")
	rate := f.rate
	return &rate, nil
}
