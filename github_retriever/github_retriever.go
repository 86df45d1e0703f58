// Package github_retriever fetches repository information from the GitHub
// REST API v3: file listings, file contents, recent commits and pull
// requests. Without a configured repository the retriever is disabled and
// every call reports that cleanly instead of failing mid-conversation.
package github_retriever

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Retriever is a thin GitHub REST client scoped to one repository.
type Retriever struct {
	token   string
	owner   string
	repo    string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// RepoFile is one entry of a directory listing.
type RepoFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// Commit is a recent commit summary.
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// PullRequest is a pull request summary.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	HTMLURL   string    `json:"html_url"`
}

// NewRetriever builds a retriever for owner/repo. A missing owner or repo
// leaves the retriever disabled.
func NewRetriever(token, owner, repo string, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		token:   token,
		owner:   owner,
		repo:    repo,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SetBaseURL points the client at a GitHub Enterprise instance or a test
// server.
func (r *Retriever) SetBaseURL(u string) {
	r.baseURL = strings.TrimRight(u, "/")
}

// IsEnabled reports whether a repository is configured.
func (r *Retriever) IsEnabled() bool {
	return r.owner != "" && r.repo != ""
}

func (r *Retriever) get(ctx context.Context, path string, query url.Values, out any) error {
	if !r.IsEnabled() {
		return fmt.Errorf("github retriever is not configured")
	}

	u := fmt.Sprintf("%s/repos/%s/%s%s", r.baseURL, r.owner, r.repo, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github API returned %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode github response: %w", err)
	}
	return nil
}

// ListFiles returns the files under path, optionally filtered by extension
// (e.g. ".py"). Directories are included only when ext is empty.
func (r *Retriever) ListFiles(ctx context.Context, path string, ext string) ([]RepoFile, error) {
	var entries []RepoFile
	if err := r.get(ctx, "/contents/"+strings.TrimPrefix(path, "/"), nil, &entries); err != nil {
		return nil, err
	}

	if ext == "" {
		return entries, nil
	}

	filtered := entries[:0]
	for _, e := range entries {
		if e.Type == "file" && strings.HasSuffix(e.Name, ext) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// GetFileContent fetches and decodes one file.
func (r *Retriever) GetFileContent(ctx context.Context, path string) (string, error) {
	var payload struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := r.get(ctx, "/contents/"+strings.TrimPrefix(path, "/"), nil, &payload); err != nil {
		return "", err
	}

	if payload.Encoding != "base64" {
		return payload.Content, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode file content: %w", err)
	}
	return string(decoded), nil
}

// GetRecentCommits returns up to n commits from the default branch.
func (r *Retriever) GetRecentCommits(ctx context.Context, n int) ([]Commit, error) {
	if n <= 0 {
		n = 10
	}
	query := url.Values{"per_page": {fmt.Sprint(n)}}

	var commits []Commit
	if err := r.get(ctx, "/commits", query, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// GetPullRequests returns up to n pull requests in the given state
// (open, closed, all).
func (r *Retriever) GetPullRequests(ctx context.Context, state string, n int) ([]PullRequest, error) {
	if state == "" {
		state = "open"
	}
	if n <= 0 {
		n = 10
	}
	query := url.Values{"state": {state}, "per_page": {fmt.Sprint(n)}}

	var prs []PullRequest
	if err := r.get(ctx, "/pulls", query, &prs); err != nil {
		return nil, err
	}
	return prs, nil
}
