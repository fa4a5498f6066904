package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/trackml.viz/internal/config"
	"github.com/banshee-data/trackml.viz/internal/fsutil"
	"github.com/banshee-data/trackml.viz/internal/geometry"
	"github.com/banshee-data/trackml.viz/internal/monitoring"
	"github.com/banshee-data/trackml.viz/internal/version"
	"github.com/banshee-data/trackml.viz/internal/viewer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], fsutil.OSFileSystem{}, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("trackml-plot: %v", err)
	}
}

// app is the state shared by one invocation's command.
type app struct {
	cfg    *config.PlotConfig
	fsys   fsutil.FileSystem
	out    string
	stdout io.Writer

	det *geometry.Detector
}

// detector loads the detector table on first use.
func (a *app) detector() (*geometry.Detector, error) {
	if a.det != nil {
		return a.det, nil
	}
	det, err := geometry.Load(a.fsys, a.cfg.GetDetectorsPath())
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d detector modules from %s", det.Len(), a.cfg.GetDetectorsPath())
	a.det = det
	return det, nil
}

// command renders one kind of plot and returns the files it wrote.
type command struct {
	summary string
	run     func(a *app, args []string) ([]string, error)
}

var commands = map[string]command{
	"hist":     {"Histogram one event column", runHist},
	"xy":       {"Scatter one event column against another", runXY},
	"profile":  {"Binned mean of y against x with standard errors", runProfile},
	"heatmap":  {"Weighted 2D histogram with a colour bar", runHeatMap},
	"track":    {"3D scene and projections of one particle track", runTrack},
	"layers":   {"Track drawn over the pixel detector layers", runLayers},
	"detector": {"Module outlines of the selected volumes", runDetector},
}

// commandOrder fixes the usage listing order.
var commandOrder = []string{"hist", "xy", "profile", "heatmap", "track", "layers", "detector"}

func run(ctx context.Context, args []string, fsys fsutil.FileSystem, stdout io.Writer) error {
	global := flag.NewFlagSet("trackml-plot", flag.ContinueOnError)
	configPath := global.String("config", "", "JSON plot config; built-in defaults when empty")
	out := global.String("out", "", "Output directory (overrides output_dir)")
	view := global.Bool("view", false, "Serve the outputs in a browser after rendering and block until interrupted")
	listen := global.String("listen", "", "Viewer listen address (overrides listen)")
	debug := global.Bool("debug", false, "Enable debug logging")
	global.Usage = func() { printUsage(global.Output(), global) }

	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() < 1 {
		global.Usage()
		return errors.New("no command given")
	}

	cfg := config.EmptyPlotConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadPlotConfig(*configPath); err != nil {
			return err
		}
	}
	monitoring.SetDebug(*debug || cfg.GetDebug())

	a := &app{cfg: cfg, fsys: fsys, out: cfg.GetOutputDir(), stdout: stdout}
	if *out != "" {
		a.out = *out
	}

	name, rest := global.Arg(0), global.Args()[1:]
	switch name {
	case "version":
		fmt.Fprintf(stdout, "trackml-plot %s\n", version.String())
		return nil
	case "help":
		printUsage(stdout, global)
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		global.Usage()
		return fmt.Errorf("unknown command %q", name)
	}

	written, err := cmd.run(a, rest)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, path := range written {
		fmt.Fprintln(stdout, path)
	}

	if !*view {
		return nil
	}
	addr := cfg.GetListen()
	if *listen != "" {
		addr = *listen
	}
	return a.serve(ctx, addr, name)
}

// viewer returns the server for the output directory, headed with the
// command that filled it.
func (a *app) viewer(command string) *viewer.Server {
	srv := viewer.New(a.out)
	srv.SetTitle(fmt.Sprintf("trackml-plot %s: %s", command, a.out))
	return srv
}

// serve blocks serving the output directory until ctx is cancelled.
func (a *app) serve(ctx context.Context, addr, command string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener for viewer: %w", err)
	}
	url := viewer.URL(ln.Addr())
	log.Printf("Viewing %s at %s (Ctrl-C to stop)", a.out, url)
	if a.cfg.GetOpenBrowser() {
		if err := viewer.OpenBrowser(url); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	}
	return a.viewer(command).ServeListener(ctx, ln)
}

func printUsage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintln(w, `trackml-plot - plots for TrackML hit, track and detector data

Usage: trackml-plot [global flags] <command> [flags]

Commands:`)
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-9s  %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, `  version    Show build information
  help       Show this help message

Global flags:`)
	global.SetOutput(w)
	global.PrintDefaults()
	fmt.Fprintln(w, `
Examples:
  trackml-plot hist -event train_100_events/event000001000 -column r -bins 100
  trackml-plot -view layers -event train_100_events/event000001000 -modules
  trackml-plot -config config/plot.defaults.json detector -volumes 7,8,9`)
}
