package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/tidwall/gjson"
)

// first/last commit timestamps for a package's directory.
// empty strings mean "unknown", not error.
type CommitDates struct {
	CreatedAt   string `json:"created_at"`
	LastUpdated string `json:"last_updated"`
}

func commits_url(dir string) string {
	path := url.QueryEscape(PACKAGES_DIR + "/" + dir)
	return API_URL + fmt.Sprintf("/repos/%s/commits?path=%s&per_page=%d", MARKETPLACE_REPO, path, COMMITS_PER_PAGE)
}

// fetches the commit history for package `dir` and extracts the newest and
// oldest commit timestamps. the API returns commits newest-first.
// only the first page is fetched: for a package with more than 100 commits,
// 'created_at' is the oldest commit *on that page*, not the true first commit.
// only a rate-limit is propagated; anything else yields empty dates.
func resolve_commit_dates(dir string) (CommitDates, error) {
	empty_dates := CommitDates{}

	body, err := fetch_json(commits_url(dir))
	if err != nil {
		if errors.Is(err, err_rate_limited) {
			return empty_dates, err
		}
		slog.Debug("commit history unavailable", "package", dir, "error", err)
		return empty_dates, nil
	}

	commit_list := gjson.Parse(body)
	if !commit_list.IsArray() {
		slog.Debug("commit history is not a list", "package", dir)
		return empty_dates, nil
	}
	commits := commit_list.Array()
	if len(commits) == 0 {
		return empty_dates, nil
	}

	return CommitDates{
		LastUpdated: commits[0].Get("commit.committer.date").String(),
		CreatedAt:   commits[len(commits)-1].Get("commit.committer.date").String(),
	}, nil
}
