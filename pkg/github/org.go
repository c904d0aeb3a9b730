package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// ListOrgRepos fetches the names of all repositories in an organization.
func (c *Client) ListOrgRepos(ctx context.Context, owner string) ([]string, error) {
	slog.Info("Fetching repositories for organization", "component", "api", "owner", owner)

	var all []string
	for page := 1; page <= maxPages; page++ {
		apiURL := fmt.Sprintf("%s/orgs/%s/repos?per_page=%d&page=%d", apiBase, owner, perPageLimit, page)

		var repos []struct {
			Name string `json:"name"`
		}
		if err := c.getJSON(ctx, apiURL, "list organization repositories", &repos); err != nil {
			return nil, err
		}

		for _, r := range repos {
			all = append(all, r.Name)
		}
		if len(repos) < perPageLimit {
			break
		}
	}
	return all, nil
}

// ListOrgMembers fetches the logins of all members of an organization.
func (c *Client) ListOrgMembers(ctx context.Context, owner string) ([]string, error) {
	slog.Info("Fetching organization members", "component", "api", "owner", owner)

	var all []string
	for page := 1; page <= maxPages; page++ {
		apiURL := fmt.Sprintf("%s/orgs/%s/members?per_page=%d&page=%d", apiBase, owner, perPageLimit, page)

		var members []struct {
			Login string `json:"login"`
		}
		if err := c.getJSON(ctx, apiURL, "list organization members", &members); err != nil {
			return nil, err
		}

		for _, m := range members {
			all = append(all, m.Login)
		}
		if len(members) < perPageLimit {
			break
		}
	}
	return all, nil
}

// User fetches a user's profile by login.
func (c *Client) User(ctx context.Context, login string) (*types.User, error) {
	slog.Info("Fetching user profile", "component", "api", "login", login)

	apiURL := fmt.Sprintf("%s/users/%s", apiBase, login)
	var user struct {
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if err := c.getJSON(ctx, apiURL, "get user", &user); err != nil {
		return nil, err
	}

	return &types.User{Login: user.Login, Name: user.Name}, nil
}

// RateLimit fetches the current core rate limit state. Never cached:
// rate-limit data must always be current.
func (c *Client) RateLimit(ctx context.Context) (*types.RateLimit, error) {
	slog.Info("Fetching rate limit", "component", "api")

	apiURL := apiBase + "/rate_limit"
	var result struct {
		Resources struct {
			Core struct {
				Limit     int   `json:"limit"`
				Remaining int   `json:"remaining"`
				Used      int   `json:"used"`
				Reset     int64 `json:"reset"`
			} `json:"core"`
		} `json:"resources"`
	}
	if err := c.getJSON(ctx, apiURL, "get rate limit", &result); err != nil {
		return nil, err
	}

	core := result.Resources.Core
	return &types.RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Used:      core.Used,
		ResetAt:   unixTime(core.Reset),
	}, nil
}
