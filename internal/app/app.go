package app

import (
	"context"
	"errors"
	"fmt"

	"n5toc/internal/config"
	"n5toc/internal/frontend"
	"n5toc/internal/fsys"
	"n5toc/internal/logger"
	"n5toc/internal/server"
	"n5toc/internal/storage/sqlite"
	"n5toc/internal/toc"
	"n5toc/internal/walker"
)

// App ties together configuration, the table of contents builder, and the HTTP server.
type App struct {
	cfg     *config.Config
	fs      fsys.FS
	log     logger.Logger
	builder *toc.Builder
	server  *server.Server
}

// New constructs an App using the provided configuration. fs defaults to the
// host filesystem when nil. cfg must already be validated.
func New(cfg *config.Config, fs fsys.FS, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if fs == nil {
		fs = fsys.NewOSFS()
	}
	log = logger.OrNop(log)

	builder, err := toc.NewBuilder(fs, cfg.ScanSettings(), log)
	if err != nil {
		return nil, fmt.Errorf("create builder: %w", err)
	}

	renderer := frontend.NewRenderer(cfg.Notes)
	srv := server.New(builder, renderer, server.Options{ScanTimeout: cfg.ScanTimeout}, log)

	return &App{cfg: cfg, fs: fs, log: log, builder: builder, server: srv}, nil
}

// CheckRoot fails when the scan root is missing or not a directory.
func (a *App) CheckRoot() error {
	info, err := a.fs.Stat(a.cfg.RootDir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", walker.ErrRootUnreadable, a.cfg.RootDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s: not a directory", walker.ErrRootUnreadable, a.cfg.RootDir)
	}
	return nil
}

// Run checks the scan root and starts the HTTP server until the context is cancelled.
// Scans happen per request; nothing is indexed up front.
func (a *App) Run(ctx context.Context) error {
	if err := a.CheckRoot(); err != nil {
		return err
	}

	a.log.Infof("serving N5 volumes under %s", a.cfg.RootDir)
	a.log.Infof("starting server on %s", a.cfg.ListenAddr)
	if err := a.server.Start(ctx, a.cfg.ListenAddr); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	return nil
}

// Scan runs one scan outside the HTTP server.
func (a *App) Scan() (*toc.Report, error) {
	return a.builder.Scan()
}

// Export scans once and writes the result to the SQLite database at dbPath.
func (a *App) Export(ctx context.Context, dbPath string) (*toc.Report, error) {
	report, err := a.builder.Scan()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := store.SaveReport(ctx, report); err != nil {
		return nil, err
	}
	a.log.Infof("wrote %d entries of scan %s to %s", len(report.Entries), report.ID, dbPath)
	return report, nil
}
