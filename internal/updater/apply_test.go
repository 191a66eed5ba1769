package updater

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestApply(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("self-update is disabled on Windows")
	}
	newBinary := []byte("#!/bin/sh\necho '{\"version\": \"1.1.0\"}'\n")
	archiveData := createTestZip(t, newBinary)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archiveData)
	}))
	defer srv.Close()

	exe := filepath.Join(t.TempDir(), "earthlauncher")
	writeVersionScript(t, exe, "1.0.0")

	release := &Release{
		Version: "v1.1.0",
		Assets:  []Asset{{Name: ArchiveName(), DownloadURL: srv.URL + "/" + ArchiveName()}},
	}
	u := New("1.0.0", WithHTTPClient(srv.Client()))
	if err := u.Apply(context.Background(), release, exe, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	data, err := os.ReadFile(exe)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, newBinary) {
		t.Errorf("binary not replaced: %s", data)
	}
	if _, err := os.Stat(exe + ".backup"); !os.IsNotExist(err) {
		t.Error("backup should be removed after a successful update")
	}
}

func TestApply_NoAsset(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("self-update is disabled on Windows")
	}
	u := New("1.0.0")
	release := &Release{Version: "v1.1.0", Assets: []Asset{{Name: "earthlauncher_plan9_mips.zip"}}}
	if err := u.Apply(context.Background(), release, filepath.Join(t.TempDir(), "earthlauncher"), nil); err == nil {
		t.Fatal("expected error when no asset matches the platform")
	}
}

func TestCheckAndPrintBanner(t *testing.T) {
	dir := t.TempDir()
	cache := &VersionCache{
		LatestVersion:   "v2.0.0",
		CurrentVersion:  "1.0.0",
		CheckedAt:       time.Now(),
		UpdateAvailable: true,
		Source:          New("1.0.0").Source(),
	}
	if err := SaveCache(dir, cache); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	New("1.0.0").CheckAndPrintBanner(&buf, dir)
	if !strings.Contains(buf.String(), "1.0.0 -> v2.0.0") {
		t.Errorf("banner = %q", buf.String())
	}

	// A cache written by a different build stays silent.
	buf.Reset()
	New("1.5.0").CheckAndPrintBanner(&buf, dir)
	if buf.Len() != 0 {
		t.Errorf("unexpected banner for a different build: %q", buf.String())
	}
}

func TestCheckAndPrintBanner_OtherSourceRefreshes(t *testing.T) {
	srv := releaseServer(t, nil, nil)
	defer srv.Close()

	dir := t.TempDir()
	if err := SaveCache(dir, &VersionCache{
		LatestVersion:   "v9.0.0",
		CurrentVersion:  "1.0.0",
		CheckedAt:       time.Now(),
		UpdateAvailable: true,
		Source:          srv.URL + "/repos/acme/launcher",
	}); err != nil {
		t.Fatal(err)
	}

	u := New("1.0.0", WithAPIBase(srv.URL), WithRepo("acme/launcher"), WithMirror("https://dl.example.com/"))
	var buf bytes.Buffer
	u.CheckAndPrintBanner(&buf, dir)
	if buf.Len() != 0 {
		t.Errorf("banner from a cache for another source: %q", buf.String())
	}

	// The fresh but foreign cache is replaced in the background.
	deadline := time.Now().Add(5 * time.Second)
	for {
		cache, err := LoadCache(dir)
		if err == nil && cache != nil && cache.Source == u.Source() {
			if cache.LatestVersion != "v1.4.0" {
				t.Errorf("LatestVersion = %q, want v1.4.0", cache.LatestVersion)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("cache never refreshed for %q", u.Source())
		}
		time.Sleep(10 * time.Millisecond)
	}

	buf.Reset()
	u.CheckAndPrintBanner(&buf, dir)
	if !strings.Contains(buf.String(), "1.0.0 -> v1.4.0") {
		t.Errorf("banner = %q", buf.String())
	}
}

func TestUpdater_Source(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"default", nil, "https://api.github.com/repos/acme/launcher"},
		{"api base", []Option{WithAPIBase("http://ghe.local/api/")}, "http://ghe.local/api/repos/acme/launcher"},
		{"mirror", []Option{WithMirror("https://dl.example.com/")}, "https://api.github.com/repos/acme/launcher mirror=https://dl.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := New("1.0.0", append([]Option{WithRepo("acme/launcher")}, tt.opts...)...)
			if got := u.Source(); got != tt.want {
				t.Errorf("Source = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRefreshCache(t *testing.T) {
	srv := releaseServer(t, nil, nil)
	defer srv.Close()

	dir := t.TempDir()
	u := New("1.0.0", WithAPIBase(srv.URL), WithRepo("acme/launcher"))
	u.RefreshCache(context.Background(), dir)

	cache, err := LoadCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cache == nil || !cache.UpdateAvailable || cache.LatestVersion != "v1.4.0" {
		t.Errorf("cache = %+v", cache)
	}
	if cache != nil && cache.Source != u.Source() {
		t.Errorf("Source = %q, want %q", cache.Source, u.Source())
	}
}
