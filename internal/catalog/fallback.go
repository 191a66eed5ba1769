package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/riptidestudio/earthlauncher/internal/config"
	"github.com/riptidestudio/earthlauncher/internal/logging"
)

// Tier names the source that answered a fetch.
type Tier string

const (
	TierRemote Tier = "remote"
	TierLocal  Tier = "local"
	TierNone   Tier = "none"
)

// Report is the outcome of a Fallback fetch.
type Report struct {
	Packages  []GamePackage `json:"packages"`
	Tier      Tier          `json:"tier"`
	RemoteErr error         `json:"-"`
	LocalErr  error         `json:"-"`
}

// Offline reports whether the remote tier failed.
func (r *Report) Offline() bool {
	return r.RemoteErr != nil
}

// Fallback tries the primary source and falls back to a local one.
type Fallback struct {
	primary Source
	local   Source
	log     *slog.Logger
}

// NewFallback chains primary and local. Either may be nil.
func NewFallback(primary, local Source, log *slog.Logger) *Fallback {
	return &Fallback{primary: primary, local: local, log: logging.OrDiscard(log)}
}

// Fetch returns the catalog. It never fails: when no tier can answer the
// result is an empty, non-nil slice.
func (f *Fallback) Fetch(ctx context.Context) []GamePackage {
	return f.FetchReport(ctx).Packages
}

// FetchReport is Fetch plus which tier answered and why others did not.
func (f *Fallback) FetchReport(ctx context.Context) *Report {
	r := &Report{Packages: []GamePackage{}, Tier: TierNone}

	if f.primary != nil {
		pkgs, err := f.primary.Fetch(ctx)
		if err == nil {
			r.Packages = nonNil(pkgs)
			r.Tier = TierRemote
			return r
		}
		r.RemoteErr = err
		f.log.Warn("remote catalog unavailable, using local archives", "err", err)
	}

	if f.local != nil {
		pkgs, err := f.local.Fetch(ctx)
		if err != nil {
			r.LocalErr = err
			f.log.Warn("local catalog unavailable", "err", err)
			return r
		}
		if len(pkgs) > 0 {
			r.Packages = pkgs
			r.Tier = TierLocal
		}
	}
	return r
}

func nonNil(pkgs []GamePackage) []GamePackage {
	if pkgs == nil {
		return []GamePackage{}
	}
	return normalize(pkgs)
}

// New builds the launcher's catalog from settings: the configured GitHub
// listing backed by the local archive directory.
func New(s *config.Settings, httpClient *http.Client, log *slog.Logger) *Fallback {
	listing := s.Repo.ListingURL
	if listing == "" {
		listing = ContentsURL(s.Repo.APIURL, s.Repo.Owner, s.Repo.Name, s.Repo.Path)
	}
	naming := NamingFor(s.Naming)
	remote := NewGitHubSource(listing,
		WithHTTPClient(httpClient),
		WithToken(s.Repo.Token),
		WithNaming(naming),
		WithLogger(log),
	)
	return NewFallback(remote, NewLocalSource(s.LocalDir, WithNaming(naming)), log)
}
