// Package server registers the recommendation engine's operations as MCP
// tools. It is thin plumbing: every handler parses arguments, dispatches
// to the engine, and serializes the result to JSON text content.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/sim0417/mcp-pull-buddy/pkg/github"
	"github.com/sim0417/mcp-pull-buddy/pkg/reviewer"
	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// OrgScoper is implemented by clients whose credentials are scoped per
// organization (GitHub App installations).
type OrgScoper interface {
	SetCurrentOrg(org string)
}

// Server wires the recommendation engine into an MCP server.
type Server struct {
	finder *reviewer.Finder
	scope  OrgScoper
	mcp    *mcpserver.MCPServer
}

// New builds the MCP server and registers all tools. scope may be nil for
// credentials that are not organization-scoped.
func New(finder *reviewer.Finder, scope OrgScoper, version string) *Server {
	s := &Server{
		finder: finder,
		scope:  scope,
		mcp: mcpserver.NewMCPServer("pull-buddy", version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("recommend_reviewers",
		mcp.WithDescription("Recommend the best available reviewers for a pull request, ranked by pending load, related-file experience, and review volume"),
		mcp.WithString("pr_url", mcp.Required(), mcp.Description("Pull request URL (https://github.com/owner/repo/pull/123) or owner/repo#123 shorthand")),
		mcp.WithNumber("count", mcp.Description("Maximum number of candidates to return (default 10)")),
	), s.handleRecommend)

	s.mcp.AddTool(mcp.NewTool("get_pull_request_details",
		mcp.WithDescription("Fetch one pull request with its changed files and submitted reviews"),
		mcp.WithString("pr_url", mcp.Required(), mcp.Description("Pull request URL or owner/repo#123 shorthand")),
	), s.handleDetails)

	s.mcp.AddTool(mcp.NewTool("get_pull_requests",
		mcp.WithDescription("List pull requests across every repository of an organization"),
		mcp.WithString("owner", mcp.Required(), mcp.Description("Organization or user login")),
	), s.handlePullRequests)

	s.mcp.AddTool(mcp.NewTool("get_review_load",
		mcp.WithDescription("Count open review requests per login across an organization"),
		mcp.WithString("owner", mcp.Required(), mcp.Description("Organization or user login")),
	), s.handleReviewLoad)

	s.mcp.AddTool(mcp.NewTool("get_candidate_reviewers",
		mcp.WithDescription("List the organization's members as reviewer candidates with display names"),
		mcp.WithString("owner", mcp.Required(), mcp.Description("Organization or user login")),
	), s.handleCandidates)

	s.mcp.AddTool(mcp.NewTool("get_rate_limit",
		mcp.WithDescription("Report the current GitHub API rate limit"),
	), s.handleRateLimit)
}

func (s *Server) setOrg(owner string) {
	if s.scope != nil {
		s.scope.SetCurrentOrg(owner)
	}
}

// prRef extracts and parses the pr_url argument.
func prRef(req mcp.CallToolRequest) (types.PullRequestRef, *mcp.CallToolResult) {
	raw, err := req.RequireString("pr_url")
	if err != nil {
		return types.PullRequestRef{}, mcp.NewToolResultError(err.Error())
	}
	ref, ok := reviewer.ParsePullRequestURL(raw)
	if !ok {
		return types.PullRequestRef{}, mcp.NewToolResultError(fmt.Sprintf("invalid pull request reference %q: expected https://<host>/<owner>/<repo>/pull/<number>", raw))
	}
	return ref, nil
}

func (s *Server) handleRecommend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, errResult := prRef(req)
	if errResult != nil {
		return errResult, nil
	}
	count := req.GetInt("count", 0)

	s.setOrg(ref.Owner)
	slog.Info("Recommending reviewers", "component", "mcp", "owner", ref.Owner, "repo", ref.Repo, "pr", ref.Number, "count", count)

	ranked, err := s.finder.Recommend(ctx, ref, count)
	if err != nil {
		return upstreamError(err), nil
	}

	out := make([]rankedCandidate, 0, len(ranked))
	for i := range ranked {
		out = append(out, presentCandidate(&ranked[i]))
	}
	return jsonResult(out)
}

func (s *Server) handleDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, errResult := prRef(req)
	if errResult != nil {
		return errResult, nil
	}

	s.setOrg(ref.Owner)
	details, err := s.finder.PullRequestDetails(ctx, ref)
	if err != nil {
		return upstreamError(err), nil
	}

	out := pullRequestDetails{
		PR:      presentPR(&details.PR),
		Files:   make([]changedFile, 0, len(details.Files)),
		Reviews: make([]reviewEntry, 0, len(details.Reviews)),
	}
	for _, f := range details.Files {
		out.Files = append(out.Files, changedFile{
			Filename:  f.Filename,
			Status:    f.Status,
			Additions: f.Additions,
			Deletions: f.Deletions,
		})
	}
	for _, r := range details.Reviews {
		out.Reviews = append(out.Reviews, presentReview(&r))
	}
	return jsonResult(out)
}

func (s *Server) handlePullRequests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.setOrg(owner)
	prs, err := s.finder.PullRequestsForOwner(ctx, owner)
	if err != nil {
		return upstreamError(err), nil
	}

	out := make([]pullRequestSummary, 0, len(prs))
	for i := range prs {
		out = append(out, presentPR(&prs[i]))
	}
	return jsonResult(out)
}

func (s *Server) handleReviewLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.setOrg(owner)
	load, err := s.finder.ReviewRequestLoad(ctx, owner)
	if err != nil {
		return upstreamError(err), nil
	}
	return jsonResult(load)
}

func (s *Server) handleCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.setOrg(owner)
	candidates, err := s.finder.CandidateReviewers(ctx, owner)
	if err != nil {
		return upstreamError(err), nil
	}

	out := make([]userEntry, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, userEntry{Login: c.Login, Name: c.Name})
	}
	return jsonResult(out)
}

func (s *Server) handleRateLimit(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rl, err := s.finder.RateLimit(ctx)
	if err != nil {
		return upstreamError(err), nil
	}
	return jsonResult(map[string]any{
		"limit":     rl.Limit,
		"remaining": rl.Remaining,
		"used":      rl.Used,
		"resetAt":   rl.ResetAt.Format(time.RFC3339),
	})
}

// Presentation shapes. The engine's types stay untagged; handlers map them
// into these before marshaling so the wire format is stable.

type pullRequestSummary struct {
	Title              string   `json:"title"`
	State              string   `json:"state"`
	Author             string   `json:"author"`
	Repository         string   `json:"repository,omitempty"`
	CreatedAt          string   `json:"createdAt,omitempty"`
	UpdatedAt          string   `json:"updatedAt,omitempty"`
	RequestedReviewers []string `json:"requestedReviewers,omitempty"`
	Number             int      `json:"number"`
	ChangedFiles       int      `json:"changedFiles"`
	Additions          int      `json:"additions"`
	Deletions          int      `json:"deletions"`
	Draft              bool     `json:"draft"`
}

type changedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type reviewEntry struct {
	Author      string `json:"author"`
	State       string `json:"state,omitempty"`
	SubmittedAt string `json:"submittedAt,omitempty"`
	ID          int64  `json:"id"`
}

type pullRequestDetails struct {
	PR      pullRequestSummary `json:"pullRequest"`
	Files   []changedFile      `json:"files"`
	Reviews []reviewEntry      `json:"reviews"`
}

type userEntry struct {
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

func presentPR(pr *types.PullRequest) pullRequestSummary {
	out := pullRequestSummary{
		Number:             pr.Number,
		Title:              pr.Title,
		State:              pr.State,
		Author:             pr.Author,
		RequestedReviewers: pr.RequestedReviewers,
		ChangedFiles:       pr.ChangedFiles,
		Additions:          pr.Additions,
		Deletions:          pr.Deletions,
		Draft:              pr.Draft,
	}
	if pr.Owner != "" && pr.Repository != "" {
		out.Repository = pr.Owner + "/" + pr.Repository
	}
	if !pr.CreatedAt.IsZero() {
		out.CreatedAt = pr.CreatedAt.Format(time.RFC3339)
	}
	if !pr.UpdatedAt.IsZero() {
		out.UpdatedAt = pr.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func presentReview(r *types.Review) reviewEntry {
	out := reviewEntry{ID: r.ID, Author: r.Author, State: r.State}
	if !r.SubmittedAt.IsZero() {
		out.SubmittedAt = r.SubmittedAt.Format(time.RFC3339)
	}
	return out
}

// rankedCandidate is the presentation shape for one recommendation.
// Scores are rounded to two decimals for display; full precision lives in
// the engine's result.
type rankedCandidate struct {
	Login                 string   `json:"login"`
	Name                  string   `json:"name,omitempty"`
	LastReviewAt          string   `json:"lastReviewAt,omitempty"`
	RecentComments        []string `json:"recentComments,omitempty"`
	Score                 float64  `json:"score"`
	AverageResponseTimeMs int64    `json:"averageResponseTimeMs"`
	PendingReviews        int      `json:"pendingReviews"`
	RelatedFileChanges    int      `json:"relatedFileChanges"`
	TotalReviews          int      `json:"totalReviews"`
	TotalComments         int      `json:"totalComments"`
}

func presentCandidate(c *types.ReviewerCandidate) rankedCandidate {
	out := rankedCandidate{
		Login:                 c.Login,
		Name:                  c.Name,
		Score:                 roundScore(c.Score),
		PendingReviews:        c.PendingReviews,
		RelatedFileChanges:    c.Stats.RelatedFileChanges,
		TotalReviews:          c.Stats.TotalReviews,
		TotalComments:         c.Stats.TotalComments,
		AverageResponseTimeMs: c.Stats.AverageResponseTime.Milliseconds(),
		RecentComments:        c.RecentComments,
	}
	if !c.Stats.LastReviewAt.IsZero() {
		out.LastReviewAt = c.Stats.LastReviewAt.Format(time.RFC3339)
	}
	return out
}

func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

// upstreamError maps engine failures to structured tool errors; they are
// reported to the caller, never retried here.
func upstreamError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, github.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, github.ErrRateLimited):
		return mcp.NewToolResultError("rate limited: " + err.Error())
	case errors.Is(err, github.ErrAuthentication):
		return mcp.NewToolResultError("authentication failed: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
