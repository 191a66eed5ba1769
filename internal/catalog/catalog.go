package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/riptidestudio/earthlauncher/internal/config"
)

// ErrUnavailable is matched by every catalog fetch failure.
var ErrUnavailable = errors.New("catalog unavailable")

// GamePackage is one installable game. Name is the unique key.
type GamePackage struct {
	Name    string `json:"name"`
	Locator string `json:"locator"`
	Size    int64  `json:"size"`
}

// Source produces a catalog listing.
type Source interface {
	Fetch(ctx context.Context) ([]GamePackage, error)
}

// Error is a failed catalog fetch.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// Naming turns an archive file name into a display name.
type Naming func(fileName string) string

var titleCaser = cases.Title(language.English)

// TitleName strips the .zip extension, turns '_' and '-' into spaces and
// title-cases each word: "retro_snake.zip" becomes "Retro Snake".
func TitleName(fileName string) string {
	stem := StemName(fileName)
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return titleCaser.String(strings.Join(strings.Fields(stem), " "))
}

// StemName strips the .zip extension and keeps the rest verbatim.
func StemName(fileName string) string {
	if isZip(fileName) {
		return fileName[:len(fileName)-len(".zip")]
	}
	return fileName
}

// NamingFor returns the Naming for a catalog.naming policy.
func NamingFor(policy string) Naming {
	if policy == config.NamingStem {
		return StemName
	}
	return TitleName
}

// Option configures a Source.
type Option func(*options)

type options struct {
	httpClient *http.Client
	token      string
	naming     Naming
	log        *slog.Logger
}

// WithHTTPClient sets the HTTP client used by remote sources.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithToken sets a GitHub token for higher rate limits and private repos.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithNaming sets the display naming policy.
func WithNaming(n Naming) Option {
	return func(o *options) {
		o.naming = n
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func buildOptions(opts []Option) options {
	o := options{
		httpClient: http.DefaultClient,
		naming:     TitleName,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// normalize drops duplicate names (first wins) and sorts by name.
func normalize(pkgs []GamePackage) []GamePackage {
	seen := make(map[string]bool, len(pkgs))
	out := make([]GamePackage, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Name == "" || seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isZip(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zip")
}

// urlFileName returns the last path element of a URL, or "" if it has none.
func urlFileName(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	base := path.Base(rawURL)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
