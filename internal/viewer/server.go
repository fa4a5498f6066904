// Package viewer serves rendered plots over HTTP so they can be inspected in
// a browser. Serve blocks until its context is cancelled.
package viewer

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/banshee-data/trackml.viz/internal/httputil"
	"github.com/banshee-data/trackml.viz/internal/monitoring"
	"github.com/banshee-data/trackml.viz/internal/timeutil"
)

//go:embed index.html
var indexHTML embed.FS

var indexTemplate = template.Must(template.ParseFS(indexHTML, "index.html"))

// ShutdownTimeout bounds the graceful shutdown once Serve's context ends.
const ShutdownTimeout = 5 * time.Second

// Plot is one file listed by the viewer.
type Plot struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // image, scene or document
	Size int64  `json:"size"`
}

var kinds = map[string]string{
	".png":  "image",
	".svg":  "image",
	".jpg":  "image",
	".jpeg": "image",
	".html": "scene",
	".pdf":  "document",
	".eps":  "document",
	".tif":  "document",
	".tiff": "document",
}

// Server lists and serves the plots of one directory.
type Server struct {
	title string
	dir   string
	fsys  fs.FS

	clock   timeutil.Clock
	started time.Time
}

// New creates a viewer for the plots in dir.
func New(dir string) *Server {
	return NewFS(os.DirFS(dir), dir)
}

// NewFS creates a viewer over fsys. name is shown when the listing is empty.
func NewFS(fsys fs.FS, name string) *Server {
	s := &Server{title: "trackml plots", dir: name, fsys: fsys}
	s.SetClock(timeutil.RealClock{})
	return s
}

// SetClock replaces the clock used for health reports and restarts uptime.
func (s *Server) SetClock(c timeutil.Clock) {
	s.clock = c
	s.started = c.Now()
}

// SetTitle sets the index page heading.
func (s *Server) SetTitle(title string) {
	s.title = title
}

// Plots returns the viewable files at the top of the directory, sorted by
// name. Other files and subdirectories are ignored.
func (s *Server) Plots() ([]Plot, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list plots: %w", err)
	}

	plots := []Plot{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		kind, ok := kinds[strings.ToLower(path.Ext(e.Name()))]
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}
		plots = append(plots, Plot{Name: e.Name(), Kind: kind, Size: info.Size()})
	}
	return plots, nil
}

// Handler returns the viewer routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/plots", s.handlePlots)
	mux.Handle("/plots/", http.StripPrefix("/plots/", http.FileServer(http.FS(s.fsys))))
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":    "ok",
		"service":   "viewer",
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
		"uptime":    s.clock.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handlePlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	plots, err := s.Plots()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, plots)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	plots, err := s.Plots()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		Title string
		Dir   string
		Plots []Plot
	}{s.title, s.dir, plots}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
	}
}

// Serve listens on listen and serves until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, listen string) error {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to create listener for viewer: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener. The listener is closed on
// return.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	server := &http.Server{Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("viewer listening on %s", URL(ln.Addr()))
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("viewer: %w", err)
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down viewer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("viewer shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Logf("viewer force close error: %v", err)
		}
	}

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

// URL returns the browser address for a listener address. Unspecified hosts
// become localhost.
func URL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String()
	}
	host := "localhost"
	if tcp.IP != nil && !tcp.IP.IsUnspecified() {
		host = tcp.IP.String()
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(tcp.Port))
}
