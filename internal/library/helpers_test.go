package library

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"testing"

	"github.com/riptidestudio/earthlauncher/internal/catalog"
	"github.com/riptidestudio/earthlauncher/internal/launch"
	"github.com/riptidestudio/earthlauncher/internal/transfer"
)

type zipFile struct {
	name string
	body string
	mode os.FileMode
}

// buildZip returns the bytes of a zip archive holding files.
func buildZip(t *testing.T, files ...zipFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		hdr := &zip.FileHeader{Name: f.name, Method: zip.Deflate}
		if f.mode != 0 {
			hdr.SetMode(f.mode)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// archiveServer serves each archive at "/<key>".
func archiveServer(t *testing.T, archives map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := archives[r.URL.Path[1:]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestInstaller(t *testing.T, root string, client *http.Client, opts ...InstallerOption) *Installer {
	t.Helper()
	opts = append([]InstallerOption{WithTransfer(transfer.New(transfer.WithHTTPClient(client)))}, opts...)
	return NewInstaller(NewTracker(root), opts...)
}

// rootEntries lists the names directly under dir.
func rootEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

type stubCatalog struct {
	report catalog.Report
}

func (s *stubCatalog) FetchReport(context.Context) *catalog.Report {
	r := s.report
	if r.Packages == nil {
		r.Packages = []catalog.GamePackage{}
	}
	return &r
}

func newTestLibrary(t *testing.T, root string, pkgs []catalog.GamePackage, client *http.Client) *Library {
	t.Helper()
	inst := newTestInstaller(t, root, client)
	cat := &stubCatalog{report: catalog.Report{Packages: pkgs, Tier: catalog.TierRemote}}
	lib := New(cat, inst, launch.New())
	lib.Refresh(context.Background())
	return lib
}
