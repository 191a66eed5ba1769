package library

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/riptidestudio/earthlauncher/internal/archive"
	"github.com/riptidestudio/earthlauncher/internal/catalog"
	"github.com/riptidestudio/earthlauncher/internal/manifest"
	"github.com/riptidestudio/earthlauncher/internal/progress"
	"github.com/riptidestudio/earthlauncher/internal/resolver"
	"github.com/riptidestudio/earthlauncher/internal/transfer"
)

// A script-only archive is resolved through the script rule.
func TestInstall_ScriptGame(t *testing.T) {
	data := buildZip(t, zipFile{name: "retro_snake.py", body: "print('snake')\n"})
	srv := archiveServer(t, map[string][]byte{"retro_snake.zip": data})

	listing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"retro_snake.zip","type":"file","size":10240,"download_url":"` + srv.URL + `/retro_snake.zip"}]`))
	}))
	defer listing.Close()

	pkgs, err := catalog.NewGitHubSource(listing.URL, catalog.WithHTTPClient(listing.Client())).Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "Retro Snake" {
		t.Fatalf("catalog = %v", pkgs)
	}

	root := t.TempDir()
	inst := newTestInstaller(t, root, srv.Client())
	res, err := inst.Install(context.Background(), pkgs[0])
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	if !inst.tracker.IsInstalled("Retro Snake") {
		t.Fatal("Retro Snake should be installed")
	}
	want := filepath.Join(root, "Retro Snake", "retro_snake.py")
	if res.Executable != want {
		t.Errorf("Executable = %s, want %s", res.Executable, want)
	}
	if _, ok := inst.Ledger().Get("Retro Snake"); ok {
		t.Error("ledger entry should be cleared")
	}
	if got := rootEntries(t, root); !reflect.DeepEqual(got, []string{"Retro Snake"}) {
		t.Errorf("install root = %v, want only the game", got)
	}

	rec, err := manifest.ReadRecord(res.Dir)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if rec.Executable != "retro_snake.py" || rec.JobID != res.JobID || rec.Size != 10240 {
		t.Errorf("record = %+v", rec)
	}
}

// A capitalized runtime without the execute bit is found by name and made
// executable.
func TestInstall_GameRuntime(t *testing.T) {
	data := buildZip(t,
		zipFile{name: "GameRuntime", body: "#!/bin/sh\n", mode: 0644},
		zipFile{name: "data/level1.dat", body: "lvl"},
	)
	srv := archiveServer(t, map[string][]byte{"runtime.zip": data})

	root := t.TempDir()
	inst := newTestInstaller(t, root, srv.Client())
	res, err := inst.Install(context.Background(), catalog.GamePackage{Name: "Runtime", Locator: srv.URL + "/runtime.zip"})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if filepath.Base(res.Executable) != "GameRuntime" {
		t.Errorf("Executable = %s", res.Executable)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(res.Executable)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0755 {
			t.Errorf("mode = %o, want 755", info.Mode().Perm())
		}
	}
}

// An archive with nothing runnable fails and leaves no trace.
func TestInstall_NoExecutable(t *testing.T) {
	srv := archiveServer(t, map[string][]byte{"empty.zip": buildZip(t)})

	root := t.TempDir()
	inst := newTestInstaller(t, root, srv.Client())
	_, err := inst.Install(context.Background(), catalog.GamePackage{Name: "Empty", Locator: srv.URL + "/empty.zip"})
	if !errors.Is(err, resolver.ErrNoExecutable) {
		t.Fatalf("err = %v, want ErrNoExecutable", err)
	}
	if inst.tracker.IsInstalled("Empty") {
		t.Error("Empty must not be installed")
	}
	if _, ok := inst.Ledger().Get("Empty"); ok {
		t.Error("ledger entry should be cleared")
	}
	if got := rootEntries(t, root); len(got) != 0 {
		t.Errorf("install root = %v, want empty", got)
	}
}

// Two concurrent installs of one game: the second is rejected.
func TestStart_ConcurrentSameGame(t *testing.T) {
	data := buildZip(t, zipFile{name: "main.py", body: "print(1)\n"})
	release := make(chan struct{})
	var mu sync.Mutex
	downloads := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		downloads++
		mu.Unlock()
		<-release
		w.Write(data)
	}))
	defer srv.Close()

	root := t.TempDir()
	var results []Result
	var resMu sync.Mutex
	inst := newTestInstaller(t, root, srv.Client(), WithOnDone(func(r Result) {
		resMu.Lock()
		results = append(results, r)
		resMu.Unlock()
	}))

	pkg := catalog.GamePackage{Name: "Dup", Locator: srv.URL + "/dup.zip"}
	if err := inst.Start(context.Background(), pkg); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := inst.Start(context.Background(), pkg); !errors.Is(err, progress.ErrInFlight) {
		t.Fatalf("second Start err = %v, want ErrInFlight", err)
	}
	if _, err := inst.Install(context.Background(), pkg); !errors.Is(err, progress.ErrInFlight) {
		t.Fatalf("Install during Start err = %v, want ErrInFlight", err)
	}

	close(release)
	inst.Wait()

	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v, want one success", results)
	}
	if downloads != 1 {
		t.Errorf("downloads = %d, want 1", downloads)
	}
	if !inst.tracker.IsInstalled("Dup") {
		t.Error("Dup should be installed")
	}
}

// Installing and uninstalling leaves the install root as it was.
func TestInstallUninstall_RoundTrip(t *testing.T) {
	srv := archiveServer(t, map[string][]byte{"g.zip": buildZip(t, zipFile{name: "run.sh", body: "exit 0\n"})})

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	before := rootEntries(t, root)

	inst := newTestInstaller(t, root, srv.Client())
	if inst.tracker.IsInstalled("G") {
		t.Fatal("G installed before install")
	}
	if _, err := inst.Install(context.Background(), catalog.GamePackage{Name: "G", Locator: srv.URL + "/g.zip"}); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !inst.tracker.IsInstalled("G") {
		t.Fatal("G not installed after install")
	}
	if err := inst.tracker.Remove("G"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if inst.tracker.IsInstalled("G") {
		t.Fatal("G installed after uninstall")
	}

	if after := rootEntries(t, root); !reflect.DeepEqual(after, before) {
		t.Errorf("install root = %v, want %v", after, before)
	}
}

func TestInstall_LocalArchiveKept(t *testing.T) {
	root := t.TempDir()
	archivePath := filepath.Join(root, "pong.zip")
	if err := os.WriteFile(archivePath, buildZip(t, zipFile{name: "pong.py", body: "print(2)\n"}), 0644); err != nil {
		t.Fatal(err)
	}

	pkgs, err := catalog.NewLocalSource(root).Fetch(context.Background())
	if err != nil || len(pkgs) != 1 {
		t.Fatalf("local catalog = %v, %v", pkgs, err)
	}

	inst := NewInstaller(NewTracker(root))
	if _, err := inst.Install(context.Background(), pkgs[0]); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !inst.tracker.IsInstalled("Pong") {
		t.Error("Pong should be installed")
	}
	if _, err := os.Stat(archivePath); err != nil {
		t.Errorf("local archive should be kept: %v", err)
	}
}

func TestInstall_AlreadyInstalled(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "Pong"), 0755); err != nil {
		t.Fatal(err)
	}
	inst := NewInstaller(NewTracker(root))
	_, err := inst.Install(context.Background(), catalog.GamePackage{Name: "Pong", Locator: "/nowhere/pong.zip"})
	if !errors.Is(err, ErrAlreadyInstalled) {
		t.Fatalf("err = %v, want ErrAlreadyInstalled", err)
	}
	if _, ok := inst.Ledger().Get("Pong"); ok {
		t.Error("ledger entry should be cleared")
	}
}

func TestInstall_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/corrupt.zip":
			w.Write([]byte("definitely not a zip"))
		default:
			http.Error(w, "gone", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		locator string
		want    error
	}{
		{"corrupt archive", srv.URL + "/corrupt.zip", archive.ErrCorrupt},
		{"server error", srv.URL + "/broken.zip", transfer.ErrNetwork},
		{"missing local archive", filepath.Join(t.TempDir(), "missing.zip"), transfer.ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			inst := newTestInstaller(t, root, srv.Client())
			_, err := inst.Install(context.Background(), catalog.GamePackage{Name: "Bad", Locator: tt.locator})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if inst.tracker.IsInstalled("Bad") {
				t.Error("Bad must not be installed")
			}
			if _, ok := inst.Ledger().Get("Bad"); ok {
				t.Error("ledger entry should be cleared")
			}
			if _, err := os.Stat(inst.StagingDir()); !os.IsNotExist(err) {
				t.Errorf("staging directory left behind: %v", err)
			}
		})
	}
}

func TestInstall_InvalidName(t *testing.T) {
	inst := NewInstaller(NewTracker(t.TempDir()))
	_, err := inst.Install(context.Background(), catalog.GamePackage{Name: "../escape", Locator: "/x.zip"})
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("err = %v, want ErrInvalidName", err)
	}
}

func TestCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.Write(make([]byte, 1024))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	root := t.TempDir()
	done := make(chan Result, 1)
	inst := newTestInstaller(t, root, srv.Client(), WithOnDone(func(r Result) { done <- r }))

	if inst.Cancel("Slow") {
		t.Error("Cancel with nothing in flight should report false")
	}
	if err := inst.Start(context.Background(), catalog.GamePackage{Name: "Slow", Locator: srv.URL + "/slow.zip"}); err != nil {
		t.Fatal(err)
	}

	// Wait for the download to begin reporting progress.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if e, ok := inst.Ledger().Get("Slow"); ok && e.Percent > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("download never reported progress")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !inst.Cancel("Slow") {
		t.Fatal("Cancel should find the in-flight install")
	}
	select {
	case r := <-done:
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("Err = %v, want context.Canceled", r.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("install did not stop after Cancel")
	}
	inst.Wait()

	if inst.tracker.IsInstalled("Slow") {
		t.Error("canceled install must not be installed")
	}
	if got := rootEntries(t, root); len(got) != 0 {
		t.Errorf("install root = %v, want empty", got)
	}
}
