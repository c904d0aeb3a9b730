package reviewer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

var (
	// https://<host>/<owner>/<repo>/pull/<number>
	prURLPattern = regexp.MustCompile(`^https?://[^/\s]+/([^/\s]+)/([^/\s]+)/pull/(\d+)/?$`)

	// owner/repo#number shorthand
	prShorthandPattern = regexp.MustCompile(`^([^/#\s]+)/([^/#\s]+)#(\d+)$`)
)

// ParsePullRequestURL recognizes pull request references of the shape
// https://<host>/<owner>/<repo>/pull/<number> or the owner/repo#number
// shorthand. Any non-matching input yields ok == false, never an error.
func ParsePullRequestURL(raw string) (ref types.PullRequestRef, ok bool) {
	raw = strings.TrimSpace(raw)

	match := prURLPattern.FindStringSubmatch(raw)
	if match == nil {
		match = prShorthandPattern.FindStringSubmatch(raw)
	}
	if match == nil {
		return types.PullRequestRef{}, false
	}

	number, err := strconv.Atoi(match[3])
	if err != nil || number <= 0 {
		return types.PullRequestRef{}, false
	}

	return types.PullRequestRef{
		Owner:  match[1],
		Repo:   match[2],
		Number: number,
	}, true
}
