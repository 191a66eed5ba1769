package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/riptidestudio/earthlauncher/internal/config"
)

func listingServer(t *testing.T, entries []contentEntry) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubSource_Fetch(t *testing.T) {
	srv := listingServer(t, []contentEntry{
		{Name: "retro_snake.zip", Type: "file", Size: 10240, DownloadURL: "http://x/retro_snake.zip"},
		{Name: "README.md", Type: "file", Size: 12, DownloadURL: "http://x/README.md"},
		{Name: "archive", Type: "dir"},
		{Name: "Space Blaster", Type: "file", Size: 5, DownloadURL: "http://x/space-blaster.zip?raw=1"},
		{Name: "no-url.zip", Type: "file"},
	})

	src := NewGitHubSource(srv.URL, WithHTTPClient(srv.Client()))
	pkgs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	want := []GamePackage{
		{Name: "Retro Snake", Locator: "http://x/retro_snake.zip", Size: 10240},
		{Name: "Space Blaster", Locator: "http://x/space-blaster.zip?raw=1", Size: 5},
	}
	if len(pkgs) != len(want) {
		t.Fatalf("got %d packages (%v), want %d", len(pkgs), pkgs, len(want))
	}
	for i := range want {
		if pkgs[i] != want[i] {
			t.Errorf("pkgs[%d] = %+v, want %+v", i, pkgs[i], want[i])
		}
	}
}

func TestGitHubSource_Headers(t *testing.T) {
	var gotAuth, gotAccept, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	src := NewGitHubSource(srv.URL, WithHTTPClient(srv.Client()), WithToken("s3cret"))
	pkgs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if pkgs == nil || len(pkgs) != 0 {
		t.Errorf("pkgs = %#v, want empty non-nil", pkgs)
	}
	if gotAuth != "token s3cret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotUA == "" {
		t.Error("User-Agent not set")
	}
}

func TestGitHubSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{not json")) }},
		{"object instead of array", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"name":"x.zip"}`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewGitHubSource(srv.URL, WithHTTPClient(srv.Client())).Fetch(context.Background())
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("err = %v, want ErrUnavailable", err)
			}
			var ce *Error
			if !errors.As(err, &ce) || ce.Source != srv.URL {
				t.Errorf("expected *Error for %s, got %#v", srv.URL, err)
			}
		})
	}
}

func TestContentsURL(t *testing.T) {
	tests := []struct {
		api, owner, repo, dir string
		want                  string
	}{
		{"https://api.github.com", "RiptideStudio", "Earth-Library", "", "https://api.github.com/repos/RiptideStudio/Earth-Library/contents"},
		{"https://api.github.com/", "o", "r", "/games/", "https://api.github.com/repos/o/r/contents/games"},
	}
	for _, tt := range tests {
		if got := ContentsURL(tt.api, tt.owner, tt.repo, tt.dir); got != tt.want {
			t.Errorf("ContentsURL = %s, want %s", got, tt.want)
		}
	}
}

func TestNaming(t *testing.T) {
	tests := []struct {
		file  string
		title string
		stem  string
	}{
		{"retro_snake.zip", "Retro Snake", "retro_snake"},
		{"space-blaster.ZIP", "Space Blaster", "space-blaster"},
		{"Pong.zip", "Pong", "Pong"},
		{"tic__tac_toe.zip", "Tic Tac Toe", "tic__tac_toe"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			if got := TitleName(tt.file); got != tt.title {
				t.Errorf("TitleName = %q, want %q", got, tt.title)
			}
			if got := StemName(tt.file); got != tt.stem {
				t.Errorf("StemName = %q, want %q", got, tt.stem)
			}
		})
	}
	if NamingFor(config.NamingStem)("a_b.zip") != "a_b" {
		t.Error("NamingFor(stem) should keep the stem")
	}
}

func writeArchives(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("PK"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	writeArchives(t, dir, "zeta.zip", "alpha_game.zip", "notes.txt", ".hidden.zip")
	if err := os.Mkdir(filepath.Join(dir, "installed.zip"), 0755); err != nil {
		t.Fatal(err)
	}

	pkgs, err := NewLocalSource(dir).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("got %v, want 2 packages", pkgs)
	}
	if pkgs[0].Name != "Alpha Game" || pkgs[1].Name != "Zeta" {
		t.Errorf("names = %s, %s", pkgs[0].Name, pkgs[1].Name)
	}
	if pkgs[0].Locator != filepath.Join(dir, "alpha_game.zip") || pkgs[0].Size != 2 {
		t.Errorf("pkgs[0] = %+v", pkgs[0])
	}
}

func TestLocalSource_MissingDir(t *testing.T) {
	pkgs, err := NewLocalSource(filepath.Join(t.TempDir(), "nope")).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if pkgs == nil || len(pkgs) != 0 {
		t.Errorf("pkgs = %#v, want empty", pkgs)
	}
}

type failingSource struct{}

func (failingSource) Fetch(context.Context) ([]GamePackage, error) {
	return nil, &Error{Source: "test", Err: errors.New("connection refused")}
}

func TestFallback_Remote(t *testing.T) {
	srv := listingServer(t, []contentEntry{
		{Name: "b.zip", Type: "file", DownloadURL: "http://x/b.zip"},
		{Name: "a.zip", Type: "file", DownloadURL: "http://x/a.zip"},
	})
	dir := t.TempDir()
	writeArchives(t, dir, "local.zip")

	f := NewFallback(NewGitHubSource(srv.URL, WithHTTPClient(srv.Client())), NewLocalSource(dir), nil)
	r := f.FetchReport(context.Background())
	if r.Tier != TierRemote || r.Offline() {
		t.Errorf("tier = %s, offline = %v", r.Tier, r.Offline())
	}
	if len(r.Packages) != 2 || r.Packages[0].Name != "A" {
		t.Errorf("packages = %v", r.Packages)
	}
}

func TestFallback_LocalWhenRemoteFails(t *testing.T) {
	dir := t.TempDir()
	writeArchives(t, dir, "retro_snake.zip")

	f := NewFallback(failingSource{}, NewLocalSource(dir), nil)
	r := f.FetchReport(context.Background())
	if r.Tier != TierLocal || !r.Offline() {
		t.Errorf("tier = %s, offline = %v", r.Tier, r.Offline())
	}
	if len(r.Packages) != 1 || r.Packages[0].Name != "Retro Snake" {
		t.Errorf("packages = %v", r.Packages)
	}
}

func TestFallback_NothingAvailable(t *testing.T) {
	f := NewFallback(failingSource{}, NewLocalSource(t.TempDir()), nil)
	pkgs := f.Fetch(context.Background())
	if pkgs == nil {
		t.Fatal("Fetch must return a non-nil slice")
	}
	if len(pkgs) != 0 {
		t.Errorf("pkgs = %v, want empty", pkgs)
	}
	if f.FetchReport(context.Background()).Tier != TierNone {
		t.Error("tier should be none")
	}
}

// A failed remote fetch is indistinguishable from an empty local directory.
func TestFallback_FailedRemoteEqualsEmptyLocal(t *testing.T) {
	empty := t.TempDir()
	failed := NewFallback(failingSource{}, NewLocalSource(empty), nil).Fetch(context.Background())
	local, err := NewLocalSource(empty).Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != len(local) || len(failed) != 0 {
		t.Errorf("failed = %v, local = %v", failed, local)
	}
}

func TestNew_FromSettings(t *testing.T) {
	srv := listingServer(t, []contentEntry{
		{Name: "retro_snake.zip", Type: "file", DownloadURL: "http://x/retro_snake.zip"},
	})
	s := &config.Settings{
		Repo:     config.Repo{ListingURL: srv.URL},
		LocalDir: t.TempDir(),
		Naming:   config.NamingStem,
	}
	pkgs := New(s, srv.Client(), nil).Fetch(context.Background())
	if len(pkgs) != 1 || pkgs[0].Name != "retro_snake" {
		t.Errorf("pkgs = %v", pkgs)
	}
}
