package cli

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/pkg/cache"
	sferrors "github.com/sceneforge/sceneforge/pkg/errors"
	"github.com/sceneforge/sceneforge/pkg/pipeline"
)

// assetExtensions lists the file extensions the preview server treats as
// compilable assets.
var assetExtensions = map[string]bool{
	".gltf": true,
	".glb":  true,
}

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	types   bool
	noCache bool
}

// newServeCmd creates the serve command, a local preview server that compiles
// assets on demand.
func newServeCmd(cfg *Config) *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a live preview of compiled components",
		Long: `Serve assets from a directory and compile them to components on demand.

Routes:
  /                      index of assets found in the directory
  /assets/{file}         the raw asset file
  /components/{file}     the compiled component source (recompiled per request,
                         cached by asset content hash)

Examples:
  sceneforge serve               # serve the current directory on :8080
  sceneforge serve models -a :3000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runServe(c.Context(), *cfg, opts, dir)
		},
	}

	cmd.Flags().StringVarP(&opts.addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().BoolVarP(&opts.types, "types", "t", cfg.Types, "emit typed (.tsx) output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// server holds the preview server's shared state.
type server struct {
	dir    string
	cfg    Config
	opts   serveOpts
	runner *pipeline.Runner
	logger *log.Logger
}

// runServe starts the preview server and blocks until the context is
// cancelled or the listener fails.
func runServe(ctx context.Context, cfg Config, opts serveOpts, dir string) error {
	logger := loggerFromContext(ctx)

	info, err := os.Stat(dir)
	if err != nil {
		return sferrors.Wrap(sferrors.ErrCodeFileNotFound, err, "directory %s not found", dir)
	}
	if !info.IsDir() {
		return sferrors.New(sferrors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}

	c, err := openCache(cfg, opts.noCache)
	if err != nil {
		logger.Warnf("Cache disabled: %v", err)
		c = cache.NewNullCache()
	}
	defer c.Close()

	s := &server{
		dir:    dir,
		cfg:    cfg,
		opts:   opts,
		runner: pipeline.NewRunner(c, nil, logger),
		logger: logger,
	}

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		printInfo("Serving %s on %s", StyleHighlight.Render(dir), StyleHighlight.Render("http://localhost"+opts.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// routes builds the chi router.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/assets/{file}", s.handleAsset)
	r.Get("/components/{file}", s.handleComponent)

	return r
}

// requestLogger logs each request with its duration.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		s.logger.Debug("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><title>sceneforge preview</title></head>
<body>
<h1>Assets</h1>
<ul>
{{range .}}<li>{{.}}: <a href="/assets/{{.}}">asset</a> · <a href="/components/{{.}}">component</a></li>
{{end}}</ul>
</body>
</html>
`))

// handleIndex lists the compilable assets found in the served directory.
func (s *server) handleIndex(w http.ResponseWriter, req *http.Request) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var assets []string
	for _, e := range entries {
		if !e.IsDir() && assetExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			assets = append(assets, e.Name())
		}
	}
	sort.Strings(assets)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTemplate.Execute(w, assets)
}

// assetPath resolves a requested file name inside the served directory,
// rejecting traversal outside it.
func (s *server) assetPath(file string) (string, bool) {
	if file != filepath.Base(file) || !assetExtensions[strings.ToLower(filepath.Ext(file))] {
		return "", false
	}
	return filepath.Join(s.dir, file), true
}

// handleAsset serves the raw asset file.
func (s *server) handleAsset(w http.ResponseWriter, req *http.Request) {
	path, ok := s.assetPath(chi.URLParam(req, "file"))
	if !ok {
		http.NotFound(w, req)
		return
	}
	http.ServeFile(w, req, path)
}

// handleComponent compiles the asset and returns the component source.
// Compiles are cached by asset content hash, so unchanged assets respond
// instantly; edit the file and reload to recompile.
func (s *server) handleComponent(w http.ResponseWriter, req *http.Request) {
	file := chi.URLParam(req, "file")
	path, ok := s.assetPath(file)
	if !ok {
		http.NotFound(w, req)
		return
	}

	result, err := s.runner.Execute(req.Context(), pipeline.Options{
		AssetPath:     path,
		OutputPath:    "-",
		LoadPath:      "/assets/" + file,
		ComponentName: s.cfg.ComponentName,
		KeepNames:     s.cfg.KeepNames,
		KeepGroups:    s.cfg.KeepGroups,
		Meta:          s.cfg.Meta,
		Types:         s.opts.types,
		Shadows:       s.cfg.Shadows,
		Precision:     s.cfg.Precision,
		PrintWidth:    s.cfg.PrintWidth,
		Instancing:    s.cfg.Instancing,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if sferrors.Is(err, sferrors.ErrCodeFileNotFound) {
			status = http.StatusNotFound
		} else if sferrors.Is(err, sferrors.ErrCodeInvalidAsset) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, fmt.Sprintf("compile failed: %s", sferrors.UserMessage(err)), status)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(result.Source))
}
