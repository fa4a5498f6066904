package viewer

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/banshee-data/trackml.viz/internal/monitoring"
	"github.com/banshee-data/trackml.viz/internal/timeutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"hist.png":      {Data: []byte("\x89PNG....")},
		"track_3d.html": {Data: []byte("<html>scene</html>")},
		"track_xy.svg":  {Data: []byte("<svg></svg>")},
		"profile.pdf":   {Data: []byte("%PDF")},
		"notes.txt":     {Data: []byte("ignored")},
		"old/hist.png":  {Data: []byte("nested")},
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPlots(t *testing.T) {
	s := NewFS(fixtureFS(), "fixture")

	plots, err := s.Plots()
	require.NoError(t, err)

	want := []Plot{
		{Name: "hist.png", Kind: "image", Size: 8},
		{Name: "profile.pdf", Kind: "document", Size: 4},
		{Name: "track_3d.html", Kind: "scene", Size: 18},
		{Name: "track_xy.svg", Kind: "image", Size: 11},
	}
	if diff := cmp.Diff(want, plots); diff != "" {
		t.Errorf("Plots() mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_Index(t *testing.T) {
	s := NewFS(fixtureFS(), "fixture")
	s.SetTitle("event 1000")

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<title>event 1000</title>")
	assert.Contains(t, body, `<img src="/plots/hist.png"`)
	assert.Contains(t, body, `<iframe src="/plots/track_3d.html"`)
	assert.Contains(t, body, `<a href="/plots/profile.pdf">download</a>`)
	assert.NotContains(t, body, "notes.txt")
}

func TestHandler_EmptyIndex(t *testing.T) {
	s := NewFS(fstest.MapFS{}, "plots")

	rec := get(t, s.Handler(), "/")
	assert.Contains(t, rec.Body.String(), "No plots in plots.")
}

func TestHandler_Routes(t *testing.T) {
	h := NewFS(fixtureFS(), "fixture").Handler()

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"plot file", http.MethodGet, "/plots/track_3d.html", http.StatusOK},
		{"missing file", http.MethodGet, "/plots/nope.png", http.StatusNotFound},
		{"unknown page", http.MethodGet, "/other", http.StatusNotFound},
		{"list", http.MethodGet, "/api/plots", http.StatusOK},
		{"list post", http.MethodPost, "/api/plots", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandler_PlotsJSON(t *testing.T) {
	rec := get(t, NewFS(fixtureFS(), "fixture").Handler(), "/api/plots")
	require.Equal(t, http.StatusOK, rec.Code)

	var plots []Plot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&plots))
	require.Len(t, plots, 4)
	assert.Equal(t, "scene", plots[2].Kind)
}

func TestNew_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xy.png"), []byte("png"), 0644))

	plots, err := New(dir).Plots()
	require.NoError(t, err)
	require.Len(t, plots, 1)
	assert.Equal(t, "xy.png", plots[0].Name)

	_, err = New(filepath.Join(dir, "missing")).Plots()
	assert.Error(t, err)
}

func TestServeListener_ShutsDownOnCancel(t *testing.T) {
	quiet(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewFS(fixtureFS(), "fixture").ServeListener(ctx, ln) }()

	resp, err := http.Get(URL(ln.Addr()) + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_BadAddress(t *testing.T) {
	err := NewFS(fstest.MapFS{}, "x").Serve(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", URL(&net.TCPAddr{Port: 8080}))
	assert.Equal(t, "http://localhost:8080", URL(&net.TCPAddr{IP: net.IPv4zero, Port: 8080}))
	assert.Equal(t, "http://127.0.0.1:9000", URL(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}))
	assert.Equal(t, "http://[::1]:80", URL(&net.TCPAddr{IP: net.IPv6loopback, Port: 80}))
}

func TestHandler_Health(t *testing.T) {
	start := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	s := NewFS(fstest.MapFS{}, "x")
	s.SetClock(clock)
	clock.Advance(95 * time.Second)

	rec := get(t, s.Handler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	want := map[string]string{
		"status":    "ok",
		"service":   "viewer",
		"timestamp": "2026-10-01T12:01:35Z",
		"uptime":    "1m35s",
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}
