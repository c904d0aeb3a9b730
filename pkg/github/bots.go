package github

import "strings"

// botPatterns are substrings that mark an account as an automation account
// rather than a human reviewer.
var botPatterns = []string{
	"[bot]",
	"-bot",
	"_bot",
	"bot-",
	"bot_",
	".bot",
	"github-actions",
	"dependabot",
	"renovate",
	"greenkeeper",
	"snyk",
	"codecov",
	"coveralls",
	"mergify",
	"sonarcloud",
	"deepsource",
	"imgbot",
	"allcontributors",
	"stale",
	"-automation",
	"-ci",
	"-cd",
	"-deploy",
	"-release",
}

// IsLikelyBot reports whether a username matches well-known bot or
// automation account patterns.
func IsLikelyBot(username string) bool {
	lower := strings.ToLower(username)
	for _, pattern := range botPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
