package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/riptidestudio/earthlauncher/internal/branding"
	"github.com/riptidestudio/earthlauncher/internal/catalog"
	"github.com/riptidestudio/earthlauncher/internal/config"
	"github.com/riptidestudio/earthlauncher/internal/launch"
	"github.com/riptidestudio/earthlauncher/internal/library"
	"github.com/riptidestudio/earthlauncher/internal/logging"
	"github.com/riptidestudio/earthlauncher/internal/transfer"
)

// retryBackoff is the first delay between transfer attempts.
const retryBackoff = time.Second

// app bundles what a command needs: settings, a logger and the controller.
type app struct {
	settings *config.Settings
	log      *slog.Logger
	closeLog func() error
	lib      *library.Library
}

// newApp loads settings and assembles the library. manageWindow enables the
// wmctrl hooks when window.manage is also set.
func newApp(manageWindow bool, opts ...library.Option) (*app, error) {
	s, err := config.Load(resolveConfigDir())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		s.Log.Level = logLevel
	}

	log, closeLog, err := logging.New(logging.Options{
		Level:  s.Log.Level,
		Format: s.Log.Format,
		File:   s.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}

	engine := transfer.New(
		transfer.WithHTTPClient(transferClient(s.HTTPTimeout)),
		transfer.WithRetries(s.TransferRetries, retryBackoff),
		transfer.WithToken(s.Repo.Token),
		transfer.WithLogger(log),
	)
	installer := library.NewInstaller(
		library.NewTracker(s.InstallRoot),
		library.WithTransfer(engine),
		library.WithInstallLogger(log),
	)

	launchOpts := []launch.Option{
		launch.WithEnv(s.LaunchEnv),
		launch.WithLogger(log),
	}
	if manageWindow && s.ManageWindow {
		if wm := launch.NewWindowManager(branding.DisplayName()); wm != nil {
			launchOpts = append(launchOpts, launch.WithAfterStart(wm.AfterStart), launch.WithAfterExit(wm.AfterExit))
		} else {
			log.Warn("window.manage is set but wmctrl is not installed")
		}
	}

	source := catalog.New(s, &http.Client{Timeout: s.HTTPTimeout}, log)
	opts = append([]library.Option{library.WithLogger(log)}, opts...)
	lib := library.New(source, installer, launch.New(launchOpts...), opts...)

	return &app{settings: s, log: log, closeLog: closeLog, lib: lib}, nil
}

// close waits for background installs and releases the log destination.
func (a *app) close() {
	a.lib.Installer().Wait()
	a.closeLog()
}

// find refreshes the catalog and returns the entry called name. An exact
// match wins over a case-insensitive one.
func (a *app) find(ctx context.Context, name string, refresh bool) (library.Entry, error) {
	if refresh {
		a.lib.Refresh(ctx)
	}
	entries := a.lib.Entries()
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return library.Entry{}, fmt.Errorf("no game named %q. Run '%s list' to see the library", name, branding.CLIName())
}

// transferClient bounds connection setup but not the body, so large
// archives are not cut off by the overall timeout.
func transferClient(timeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = timeout
	t.TLSHandshakeTimeout = timeout
	return &http.Client{Transport: t}
}
