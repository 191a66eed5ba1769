package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"

	"github.com/riptidestudio/earthlauncher/internal/config"
	"github.com/riptidestudio/earthlauncher/internal/launch"
	"github.com/riptidestudio/earthlauncher/internal/library"
	"github.com/riptidestudio/earthlauncher/internal/manifest"
	"github.com/riptidestudio/earthlauncher/internal/resolver"
)

var checkManifest string

func init() {
	doctorCmd.Flags().StringVar(&checkManifest, "check-manifest", "", "Validate a game.yaml file at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the launcher and installed games",
	Long: `Run diagnostic checks: install root permissions, script interpreters, catalog
reachability, and the executables and manifests of installed games.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if checkManifest != "" {
			return runManifestCheck(out, checkManifest)
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		failed := 0
		failed += checkInstallRoot(out, a.settings)
		checkInterpreters(out, launch.DefaultInterpreters, exec.LookPath)
		failed += checkCatalog(cmd, a)
		failed += checkInstalledGames(out, a.lib.Tracker())
		checkHost(out, a.settings)

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

func checkInstallRoot(w io.Writer, s *config.Settings) int {
	fmt.Fprintln(w, "Install root:")
	if err := os.MkdirAll(s.InstallRoot, 0755); err != nil {
		fmt.Fprintf(w, "  [FAIL] cannot create %s: %v\n", s.InstallRoot, err)
		return 1
	}
	f, err := os.CreateTemp(s.InstallRoot, ".doctor-*")
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s is not writable: %v\n", s.InstallRoot, err)
		return 1
	}
	f.Close()
	os.Remove(f.Name())
	fmt.Fprintf(w, "  [ OK ] %s is writable\n", s.InstallRoot)
	return 0
}

// checkInterpreters reports which script interpreters are available. A
// missing interpreter only matters for games shipping that kind of script.
func checkInterpreters(w io.Writer, interpreters map[string]launch.Interpreter, lookPath func(string) (string, error)) {
	fmt.Fprintln(w, "Interpreters:")
	exts := make([]string, 0, len(interpreters))
	for ext := range interpreters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	for _, ext := range exts {
		found := ""
		for _, prog := range interpreters[ext].Programs {
			if path, err := lookPath(prog); err == nil {
				found = path
				break
			}
		}
		if found == "" {
			fmt.Fprintf(w, "  [MISS] %s: none of %v on PATH\n", ext, interpreters[ext].Programs)
			continue
		}
		fmt.Fprintf(w, "  [ OK ] %s: %s\n", ext, found)
	}
}

func checkCatalog(cmd *cobra.Command, a *app) int {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Catalog:")
	r := a.lib.Refresh(cmd.Context())
	if r.RemoteErr != nil {
		fmt.Fprintf(w, "  [FAIL] remote listing unreachable: %v\n", r.RemoteErr)
		fmt.Fprintf(w, "  [INFO] local fallback %s has %d archive(s)\n", a.settings.LocalDir, len(r.Packages))
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] remote listing has %d game(s)\n", len(r.Packages))
	return 0
}

func checkInstalledGames(w io.Writer, tracker *library.Tracker) int {
	fmt.Fprintln(w, "Installed games:")
	names, err := tracker.Installed()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] listing %s: %v\n", tracker.Root(), err)
		return 1
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "  [INFO] none")
		return 0
	}

	res := resolver.New()
	failed := 0
	for _, name := range names {
		dir := tracker.Path(name)
		exe, err := res.Resolve(dir)
		if err != nil {
			fmt.Fprintf(w, "  [FAIL] %s: %v\n", name, err)
			failed++
			continue
		}

		manifestPath := filepath.Join(dir, manifest.FileName)
		result, err := manifest.ValidateFile(manifestPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fmt.Fprintf(w, "  [ OK ] %s: %s\n", name, relTo(dir, exe))
		case err != nil:
			fmt.Fprintf(w, "  [FAIL] %s: %v\n", name, err)
			failed++
		case !result.Valid:
			fmt.Fprintf(w, "  [WARN] %s: %s has %d issue(s), run with --check-manifest %s\n",
				name, manifest.FileName, len(result.Issues), manifestPath)
		default:
			fmt.Fprintf(w, "  [ OK ] %s: %s (%s valid)\n", name, relTo(dir, exe), manifest.FileName)
		}
	}
	return failed
}

func checkHost(w io.Writer, s *config.Settings) {
	fmt.Fprintln(w, "Host:")
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(w, "  [INFO] memory %s available of %s\n", humanSize(int64(vm.Available)), humanSize(int64(vm.Total)))
	}
	if s.ManageWindow {
		if _, err := exec.LookPath("wmctrl"); err != nil {
			fmt.Fprintln(w, "  [WARN] window.manage is set but wmctrl is not on PATH")
		} else {
			fmt.Fprintln(w, "  [ OK ] wmctrl found")
		}
	}
}

func runManifestCheck(w io.Writer, path string) error {
	fmt.Fprintf(w, "Manifest validation: %s\n", path)

	result, err := manifest.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("manifest validation failed: %w", err)
	}

	if result.Valid {
		m, err := manifest.Parse(path)
		if err != nil {
			fmt.Fprintf(w, "  [ OK ] Valid manifest\n")
			return nil
		}
		fmt.Fprintf(w, "  [ OK ] Valid manifest: %s", m.Name)
		if m.Version != "" {
			fmt.Fprintf(w, " (v%s)", m.Version)
		}
		fmt.Fprintln(w)
		return nil
	}

	fmt.Fprintf(w, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
	for _, issue := range result.Issues {
		if issue.Path != "" {
			fmt.Fprintf(w, "    - %s: %s\n", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(w, "    - %s\n", issue.Message)
		}
	}
	return fmt.Errorf("manifest %s has %d validation issue(s)", path, len(result.Issues))
}

func relTo(dir, path string) string {
	if rel, err := filepath.Rel(dir, path); err == nil {
		return rel
	}
	return path
}
