package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestParse(t *testing.T) {
	m, err := Parse(testPath("valid-full.yaml"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Name != "Retro Snake" {
		t.Errorf("Name = %q, want %q", m.Name, "Retro Snake")
	}
	if m.Entry != "bin/snake" {
		t.Errorf("Entry = %q, want %q", m.Entry, "bin/snake")
	}
	if len(m.Env) != 2 || m.Env["SNAKE_SPEED"] != "fast" {
		t.Errorf("Env = %v", m.Env)
	}
}

func TestParse_FileNotFound(t *testing.T) {
	_, err := Parse(testPath("nonexistent.yaml"))
	if err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should match fs.ErrNotExist: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Load on empty dir: err = %v, want fs.ErrNotExist", err)
	}

	content := "name: Pong\nentry: pong.py\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if m.Entry != "pong.py" {
		t.Errorf("Entry = %q, want pong.py", m.Entry)
	}
}

func TestSemVer(t *testing.T) {
	tests := []struct {
		version string
		want    string
		wantErr bool
	}{
		{"1.2.0", "1.2.0", false},
		{"v0.3.1", "0.3.1", false},
		{"2", "2.0.0", false},
		{"", "", true},
		{"latest", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			m := &GameManifest{Name: "x", Version: tt.version}
			v, err := m.SemVer()
			if (err != nil) != tt.wantErr {
				t.Fatalf("SemVer() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && v.String() != tt.want {
				t.Errorf("SemVer() = %s, want %s", v, tt.want)
			}
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	installed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	rec := &Record{
		Name:        "Retro Snake",
		Version:     "1.2.0",
		Locator:     "https://example.com/retro_snake.zip",
		Size:        4096,
		Executable:  "GameRuntime",
		InstalledAt: installed,
		JobID:       "5f0c3a4e-1111-4222-8333-944455556666",
	}
	if err := WriteRecord(dir, rec); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	got, err := ReadRecord(dir)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if got.Name != rec.Name || got.Executable != rec.Executable || got.Size != rec.Size {
		t.Errorf("ReadRecord = %+v, want %+v", got, rec)
	}
	if !got.InstalledAt.Equal(installed) {
		t.Errorf("InstalledAt = %v, want %v", got.InstalledAt, installed)
	}
}

func TestReadRecord_Missing(t *testing.T) {
	if _, err := ReadRecord(t.TempDir()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}
