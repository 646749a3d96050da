package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"n5toc/internal/frontend"
	"n5toc/internal/logger"
	"n5toc/internal/toc"
)

// Scanner produces a fresh table of contents.
type Scanner interface {
	Scan() (*toc.Report, error)
}

// Options tune request handling.
type Options struct {
	// ScanTimeout bounds how long a request waits for a scan. Zero waits forever.
	ScanTimeout time.Duration
}

// Server wires together HTTP handlers for the API and embedded frontend.
type Server struct {
	scanner  Scanner
	renderer *frontend.Renderer
	opts     Options
	log      logger.Logger

	mu   sync.Mutex
	last *toc.Report
}

// New creates a Server instance backed by the provided scanner and renderer.
func New(scanner Scanner, renderer *frontend.Renderer, opts Options, log logger.Logger) *Server {
	return &Server{scanner: scanner, renderer: renderer, opts: opts, log: logger.OrNop(log)}
}

// Routes returns the HTTP handler that exposes the application endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/toc", s.handleTOC)
	mux.HandleFunc("/api/toc", s.handleAPITOC)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.Handle("/static/", http.StripPrefix("/static/", s.renderer.StaticHandler()))
	return mux
}

// Start runs the HTTP server until the provided context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// LastScan returns a summary of the most recent completed scan, or nil.
func (s *Server) LastScan() *toc.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return s.last.Summary()
}

type scanResult struct {
	report *toc.Report
	err    error
}

// scan runs one full scan for the request. The scan itself cannot be
// interrupted; on deadline the request gives up and the result is dropped.
func (s *Server) scan(ctx context.Context) (*toc.Report, error) {
	if s.opts.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ScanTimeout)
		defer cancel()
	}

	done := make(chan scanResult, 1)
	go func() {
		report, err := s.scanner.Scan()
		done <- scanResult{report: report, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		s.mu.Lock()
		s.last = res.report
		s.mu.Unlock()
		return res.report, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) scanOrFail(w http.ResponseWriter, r *http.Request) (*toc.Report, bool) {
	report, err := s.scan(r.Context())
	switch {
	case err == nil:
		return report, true
	case errors.Is(err, context.DeadlineExceeded):
		s.log.Warnf("scan exceeded %v, request abandoned", s.opts.ScanTimeout)
		http.Error(w, "scan timed out", http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		s.log.Debugf("client went away during scan")
	default:
		s.log.Errorf("scan failed: %v", err)
		http.Error(w, fmt.Sprintf("scan failed: %v", err), http.StatusInternalServerError)
	}
	return nil, false
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/toc", http.StatusFound)
}

func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, ok := s.scanOrFail(w, r)
	if !ok {
		return
	}
	if err := s.renderer.RenderTOC(w, s.renderer.NewPage(report)); err != nil {
		http.Error(w, fmt.Sprintf("render page: %v", err), http.StatusInternalServerError)
	}
}

func (s *Server) handleAPITOC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, ok := s.scanOrFail(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{
		"root":    report.Root,
		"entries": report.Entries,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	last := s.LastScan()
	if last == nil {
		writeJSON(w, map[string]any{"scanned": false})
		return
	}
	writeJSON(w, map[string]any{
		"scanned":    true,
		"lastScan":   last,
		"durationMs": last.Duration().Milliseconds(),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
	}
}
