package reviewer

import (
	"context"
	"log/slog"

	"github.com/sim0417/mcp-pull-buddy/pkg/types"
)

// RelatedFileChanges counts how many other pull requests the reviewer has
// reviewed that touch at least one file also touched by the target pull
// request. The target itself is excluded from the scan so a reviewer does
// not earn related-file credit for reviewing the very change under
// evaluation. Each qualifying pull request counts once.
func (f *Finder) RelatedFileChanges(ctx context.Context, ref types.PullRequestRef, reviewer string) (int, error) {
	targetFiles, err := f.accessor.Files(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return 0, err
	}
	if len(targetFiles) == 0 {
		return 0, nil
	}

	target := make(map[string]bool, len(targetFiles))
	for _, file := range targetFiles {
		target[file.Filename] = true
	}

	prs, err := f.accessor.PullRequests(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return 0, err
	}

	related := 0
	for i := range prs {
		pr := &prs[i]
		if pr.Number == ref.Number {
			continue
		}

		reviews, err := f.accessor.Reviews(ctx, ref.Owner, ref.Repo, pr.Number)
		if err != nil {
			return 0, err
		}

		reviewed := false
		for _, review := range reviews {
			if review.Author == reviewer {
				reviewed = true
				break
			}
		}
		if !reviewed {
			continue
		}

		files, err := f.accessor.Files(ctx, ref.Owner, ref.Repo, pr.Number)
		if err != nil {
			return 0, err
		}
		for _, file := range files {
			if target[file.Filename] {
				related++
				break
			}
		}
	}

	slog.Debug("Computed related-file experience", "owner", ref.Owner, "repo", ref.Repo,
		"pr", ref.Number, "reviewer", reviewer, "related", related)
	return related, nil
}
