package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot/vg"
)

// DefaultConfigPath is the path to the canonical plot defaults file.
const DefaultConfigPath = "config/plot.defaults.json"

// PlotConfig holds the settings shared by every plot command. Fields are
// pointers so a partial file leaves the rest at their defaults.
type PlotConfig struct {
	// Inputs
	DetectorsPath *string `json:"detectors_path,omitempty"`

	// Output
	OutputDir    *string  `json:"output_dir,omitempty"`
	Format       *string  `json:"format,omitempty"` // file extension: png, svg, pdf, eps, jpg, tif
	WidthInches  *float64 `json:"width_inches,omitempty"`
	HeightInches *float64 `json:"height_inches,omitempty"`

	// Binning
	HistBins     *int `json:"hist_bins,omitempty"`
	ProfileBins  *int `json:"profile_bins,omitempty"`
	HeatMapXBins *int `json:"heatmap_x_bins,omitempty"`
	HeatMapYBins *int `json:"heatmap_y_bins,omitempty"`

	// Detector views
	MinTrackHits      *int    `json:"min_track_hits,omitempty"`
	PixelVolumes      []int   `json:"pixel_volumes,omitempty"`
	EChartsAssetsHost *string `json:"echarts_assets_host,omitempty"`

	// Viewer
	Listen      *string `json:"listen,omitempty"`
	OpenBrowser *bool   `json:"open_browser,omitempty"`

	Debug *bool `json:"debug,omitempty"`
}

var formats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "eps": true,
	"jpg": true, "jpeg": true, "tif": true, "tiff": true,
}

// EmptyPlotConfig returns a PlotConfig with every field unset.
func EmptyPlotConfig() *PlotConfig {
	return &PlotConfig{}
}

// LoadPlotConfig loads a PlotConfig from a JSON file. The file must have a
// .json extension and be under 1MB.
func LoadPlotConfig(path string) (*PlotConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPlotConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *PlotConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/trackml-plot/
	}
	for _, path := range candidates {
		if cfg, err := LoadPlotConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *PlotConfig) Validate() error {
	if c.Format != nil && !formats[strings.ToLower(*c.Format)] {
		return fmt.Errorf("unsupported format %q", *c.Format)
	}
	if c.WidthInches != nil && *c.WidthInches <= 0 {
		return fmt.Errorf("width_inches must be positive, got %f", *c.WidthInches)
	}
	if c.HeightInches != nil && *c.HeightInches <= 0 {
		return fmt.Errorf("height_inches must be positive, got %f", *c.HeightInches)
	}

	bins := []struct {
		name string
		v    *int
	}{
		{"hist_bins", c.HistBins},
		{"profile_bins", c.ProfileBins},
		{"heatmap_x_bins", c.HeatMapXBins},
		{"heatmap_y_bins", c.HeatMapYBins},
	}
	for _, b := range bins {
		if b.v != nil && *b.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", b.name, *b.v)
		}
	}

	if c.MinTrackHits != nil && *c.MinTrackHits < 1 {
		return fmt.Errorf("min_track_hits must be at least 1, got %d", *c.MinTrackHits)
	}
	for _, v := range c.PixelVolumes {
		if v < 0 {
			return fmt.Errorf("pixel_volumes must be non-negative, got %d", v)
		}
	}
	if c.DetectorsPath != nil && *c.DetectorsPath == "" {
		return fmt.Errorf("detectors_path must not be empty")
	}
	return nil
}

// GetDetectorsPath returns detectors_path or the default.
func (c *PlotConfig) GetDetectorsPath() string {
	if c.DetectorsPath == nil {
		return "data/detectors.csv"
	}
	return *c.DetectorsPath
}

// GetOutputDir returns output_dir or the default.
func (c *PlotConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "plots"
	}
	return *c.OutputDir
}

// GetFormat returns the lower-cased output format or png.
func (c *PlotConfig) GetFormat() string {
	if c.Format == nil || *c.Format == "" {
		return "png"
	}
	return strings.ToLower(*c.Format)
}

// GetWidth returns the figure width.
func (c *PlotConfig) GetWidth() vg.Length {
	if c.WidthInches == nil {
		return 10 * vg.Inch
	}
	return vg.Length(*c.WidthInches) * vg.Inch
}

// GetHeight returns the figure height.
func (c *PlotConfig) GetHeight() vg.Length {
	if c.HeightInches == nil {
		return 7 * vg.Inch
	}
	return vg.Length(*c.HeightInches) * vg.Inch
}

// GetHistBins returns hist_bins or the default.
func (c *PlotConfig) GetHistBins() int {
	if c.HistBins == nil {
		return 50
	}
	return *c.HistBins
}

// GetProfileBins returns profile_bins or the default.
func (c *PlotConfig) GetProfileBins() int {
	if c.ProfileBins == nil {
		return 20
	}
	return *c.ProfileBins
}

// GetHeatMapBins returns heatmap_x_bins and heatmap_y_bins or their defaults.
func (c *PlotConfig) GetHeatMapBins() (nx, ny int) {
	nx, ny = 100, 100
	if c.HeatMapXBins != nil {
		nx = *c.HeatMapXBins
	}
	if c.HeatMapYBins != nil {
		ny = *c.HeatMapYBins
	}
	return nx, ny
}

// GetMinTrackHits returns min_track_hits or the default.
func (c *PlotConfig) GetMinTrackHits() int {
	if c.MinTrackHits == nil {
		return 3
	}
	return *c.MinTrackHits
}

// GetPixelVolumes returns pixel_volumes or the pixel detector volumes.
func (c *PlotConfig) GetPixelVolumes() []int {
	if len(c.PixelVolumes) == 0 {
		return []int{7, 8, 9}
	}
	return c.PixelVolumes
}

// GetEChartsAssetsHost returns echarts_assets_host; empty means the
// go-echarts CDN.
func (c *PlotConfig) GetEChartsAssetsHost() string {
	if c.EChartsAssetsHost == nil {
		return ""
	}
	return *c.EChartsAssetsHost
}

// GetListen returns the viewer listen address or the default.
func (c *PlotConfig) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return "localhost:8080"
	}
	return *c.Listen
}

// GetOpenBrowser returns open_browser or the default.
func (c *PlotConfig) GetOpenBrowser() bool {
	if c.OpenBrowser == nil {
		return true
	}
	return *c.OpenBrowser
}

// GetDebug returns debug or the default.
func (c *PlotConfig) GetDebug() bool {
	if c.Debug == nil {
		return false
	}
	return *c.Debug
}
