package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/riptidestudio/earthlauncher/internal/branding"
	"github.com/riptidestudio/earthlauncher/internal/logging"
)

// GitHubSource lists zip archives in a GitHub repository directory.
type GitHubSource struct {
	url        string
	httpClient *http.Client
	token      string
	naming     Naming
	log        *slog.Logger
}

// contentEntry is one element of a contents API directory listing.
type contentEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// ContentsURL builds the contents API URL for a directory of a repository.
func ContentsURL(apiURL, owner, repo, dir string) string {
	u := fmt.Sprintf("%s/repos/%s/%s/contents", strings.TrimRight(apiURL, "/"), url.PathEscape(owner), url.PathEscape(repo))
	if dir = strings.Trim(dir, "/"); dir != "" {
		u += "/" + dir
	}
	return u
}

// NewGitHubSource returns a source reading the listing at listingURL.
func NewGitHubSource(listingURL string, opts ...Option) *GitHubSource {
	o := buildOptions(opts)
	return &GitHubSource{
		url:        listingURL,
		httpClient: o.httpClient,
		token:      o.token,
		naming:     o.naming,
		log:        logging.OrDiscard(o.log),
	}
}

// URL returns the listing URL.
func (s *GitHubSource) URL() string { return s.url }

// Fetch retrieves the remote listing.
func (s *GitHubSource) Fetch(ctx context.Context) ([]GamePackage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &Error{Source: s.url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", branding.UserAgent())
	if s.token != "" {
		req.Header.Set("Authorization", "token "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Source: s.url, Err: fmt.Errorf("fetching listing: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Source: s.url, Err: fmt.Errorf("GitHub API rate limit exceeded. Set repo.token or GITHUB_TOKEN for higher limits")}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &Error{Source: s.url, Err: fmt.Errorf("listing returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Source: s.url, Err: fmt.Errorf("reading response body: %w", err)}
	}

	var entries []contentEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &Error{Source: s.url, Err: fmt.Errorf("parsing listing JSON: %w", err)}
	}

	pkgs := make([]GamePackage, 0, len(entries))
	for _, e := range entries {
		if e.Type != "" && e.Type != "file" {
			continue
		}
		if e.DownloadURL == "" {
			continue
		}
		file := e.Name
		if !isZip(file) {
			file = urlFileName(e.DownloadURL)
			if !isZip(file) {
				continue
			}
		}
		pkgs = append(pkgs, GamePackage{
			Name:    s.naming(file),
			Locator: e.DownloadURL,
			Size:    e.Size,
		})
	}

	s.log.Debug("fetched remote catalog", "url", s.url, "entries", len(entries), "games", len(pkgs))
	return normalize(pkgs), nil
}
