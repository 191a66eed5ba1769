package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/riptidestudio/earthlauncher/internal/branding"
	"github.com/riptidestudio/earthlauncher/internal/logging"
)

// DefaultChunkSize is the read size used while streaming a payload.
const DefaultChunkSize = 8 * 1024

// Error kinds.
var (
	ErrNetwork = errors.New("network failure")
	ErrIO      = errors.New("local I/O failure")
)

// Error describes a failed transfer. errors.Is matches both the kind
// (ErrNetwork, ErrIO) and the underlying cause.
type Error struct {
	Kind    error
	Locator string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Locator, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// ProgressFunc receives the completed percentage in [0, 100].
type ProgressFunc func(percent float64)

// Engine performs downloads.
type Engine struct {
	httpClient *http.Client
	chunkSize  int
	retries    int
	backoff    time.Duration
	token      string
	log        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		e.httpClient = c
	}
}

// WithChunkSize overrides the streaming chunk size.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithRetries sets how many extra attempts a network failure gets, and the
// initial delay between them. The delay doubles after each attempt.
func WithRetries(n int, backoff time.Duration) Option {
	return func(e *Engine) {
		e.retries = n
		e.backoff = backoff
	}
}

// WithToken attaches a GitHub access token to requests for GitHub hosts.
func WithToken(token string) Option {
	return func(e *Engine) {
		e.token = token
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		httpClient: http.DefaultClient,
		chunkSize:  DefaultChunkSize,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.OrDiscard(e.log)
	return e
}

// IsRemote reports whether locator is fetched over HTTP.
func IsRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// LocalPath returns the filesystem path of a non-remote locator, decoding
// file:// URLs.
func LocalPath(locator string) string {
	if strings.HasPrefix(locator, "file://") {
		if u, err := url.Parse(locator); err == nil {
			return u.Path
		}
	}
	return locator
}

// Download writes the payload at locator to dest, overwriting any existing
// file. It does not rename on completion, so an interrupted transfer leaves a
// partial file behind.
func (e *Engine) Download(ctx context.Context, locator, dest string, onProgress ProgressFunc) error {
	if !IsRemote(locator) {
		return e.copyLocal(ctx, locator, dest, onProgress)
	}

	delay := e.backoff
	var err error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if attempt > 0 {
			e.log.Warn("retrying download", "url", locator, "attempt", attempt+1, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		err = e.fetch(ctx, locator, dest, onProgress)
		if err == nil || !errors.Is(err, ErrNetwork) || ctx.Err() != nil {
			break
		}
	}
	return err
}

func (e *Engine) fetch(ctx context.Context, locator, dest string, onProgress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return &Error{Kind: ErrNetwork, Locator: locator, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", branding.UserAgent())
	if e.token != "" && isGitHubHost(req.URL.Hostname()) {
		req.Header.Set("Authorization", "token "+e.token)
	}

	e.log.Debug("starting download", "url", locator, "dest", dest)
	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: ErrNetwork, Locator: locator, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: ErrNetwork, Locator: locator, Err: fmt.Errorf("server returned status %d", resp.StatusCode)}
	}

	n, err := e.stream(ctx, resp.Body, dest, resp.ContentLength, onProgress, ErrNetwork, locator)
	if err != nil {
		return err
	}
	e.log.Debug("download complete", "url", locator, "bytes", n)
	return nil
}

func (e *Engine) copyLocal(ctx context.Context, locator, dest string, onProgress ProgressFunc) error {
	src := LocalPath(locator)
	f, err := os.Open(src)
	if err != nil {
		return &Error{Kind: ErrIO, Locator: locator, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &Error{Kind: ErrIO, Locator: locator, Err: err}
	}

	_, err = e.stream(ctx, f, dest, info.Size(), onProgress, ErrIO, locator)
	return err
}

// stream copies r to dest chunk by chunk. readKind classifies read errors.
func (e *Engine) stream(ctx context.Context, r io.Reader, dest string, total int64, onProgress ProgressFunc, readKind error, locator string) (int64, error) {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, &Error{Kind: ErrIO, Locator: locator, Err: fmt.Errorf("creating %s: %w", dest, err)}
	}
	defer out.Close()

	buf := make([]byte, e.chunkSize)
	var done int64
	for {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return done, &Error{Kind: ErrIO, Locator: locator, Err: fmt.Errorf("writing %s: %w", dest, writeErr)}
			}
			done += int64(n)
			if total > 0 && onProgress != nil {
				onProgress(float64(done) / float64(total) * 100)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return done, ctx.Err()
			}
			return done, &Error{Kind: readKind, Locator: locator, Err: fmt.Errorf("reading stream: %w", readErr)}
		}
	}

	if err := out.Close(); err != nil {
		return done, &Error{Kind: ErrIO, Locator: locator, Err: fmt.Errorf("closing %s: %w", dest, err)}
	}
	return done, nil
}

func isGitHubHost(host string) bool {
	return host == "github.com" || strings.HasSuffix(host, ".github.com") ||
		strings.HasSuffix(host, ".githubusercontent.com")
}
