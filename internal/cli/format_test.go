package cli

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/riptidestudio/earthlauncher/internal/launch"
	"github.com/riptidestudio/earthlauncher/internal/library"
	"github.com/riptidestudio/earthlauncher/internal/progress"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "-"},
		{-1, "-"},
		{512, "512 B"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := humanSize(tt.in); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		name  string
		entry library.Entry
		want  string
	}{
		{"available", library.Entry{Name: "a"}, "available"},
		{"installed", library.Entry{Name: "a", Installed: true}, "installed"},
		{"running", library.Entry{Name: "a", Installed: true, Running: true}, "running"},
		{"downloading", library.Entry{Name: "a", Progress: &progress.Entry{Phase: progress.Downloading, Percent: 12.7}}, "Downloading 12%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusLabel(tt.entry); got != tt.want {
				t.Errorf("statusLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterEntries(t *testing.T) {
	entries := []library.Entry{
		{Name: "a", Installed: true},
		{Name: "b"},
		{Name: "c", Installed: true},
	}
	tests := []struct {
		name                 string
		installed, available bool
		want                 []string
	}{
		{"all", false, false, []string{"a", "b", "c"}},
		{"both flags", true, true, []string{"a", "b", "c"}},
		{"installed", true, false, []string{"a", "c"}},
		{"available", false, true, []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range filterEntries(entries, tt.installed, tt.available) {
				got = append(got, e.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("filterEntries() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressLine(t *testing.T) {
	got := progressLine("Snake", progress.Entry{Phase: progress.Downloading, Percent: 50})
	want := "Downloading Snake [==========          ]  50%"
	if got != want {
		t.Errorf("progressLine() = %q, want %q", got, want)
	}

	full := progressLine("Snake", progress.Entry{Phase: progress.Extracting, Percent: 100})
	if !strings.Contains(full, "[====================] 100%") {
		t.Errorf("progressLine(100) = %q", full)
	}
}

func TestCheckInterpreters(t *testing.T) {
	interps := map[string]launch.Interpreter{
		".py": {Programs: []string{"python3", "python"}},
		".sh": {Programs: []string{"sh"}},
	}
	lookPath := func(name string) (string, error) {
		if name == "python" || name == "sh" {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}

	var buf bytes.Buffer
	checkInterpreters(&buf, interps, lookPath)
	out := buf.String()
	if !strings.Contains(out, "[ OK ] .py: /usr/bin/python") {
		t.Errorf("python fallback not reported:\n%s", out)
	}
	if strings.Index(out, ".py") > strings.Index(out, ".sh") {
		t.Errorf("extensions not sorted:\n%s", out)
	}

	buf.Reset()
	checkInterpreters(&buf, interps, func(string) (string, error) { return "", errors.New("missing") })
	if strings.Count(buf.String(), "[MISS]") != 2 {
		t.Errorf("missing interpreters not reported:\n%s", buf.String())
	}
}

func TestRunManifestCheck(t *testing.T) {
	var buf bytes.Buffer
	if err := runManifestCheck(&buf, "../manifest/testdata/valid-full.yaml"); err != nil {
		t.Fatalf("valid manifest rejected: %v\n%s", err, buf.String())
	}
	if !strings.Contains(buf.String(), "Valid manifest: Retro Snake (v1.2.0)") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	if err := runManifestCheck(&buf, "../manifest/testdata/invalid-unknown-field.yaml"); err == nil {
		t.Fatal("invalid manifest accepted")
	}
	if !strings.Contains(buf.String(), "[FAIL]") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestVersionJSON(t *testing.T) {
	buildVersion, buildCommit, buildDate = "1.2.3", "abc", "today"
	t.Cleanup(func() { versionJSON = false })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version", "--json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"version": "1.2.3"`) {
		t.Errorf("version --json = %q", out.String())
	}
}
