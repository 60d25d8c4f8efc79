package training

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// PlotType represents different types of plots that can be generated
type PlotType string

const (
	// Calibration plots
	ReliabilityDiagram  PlotType = "reliability_diagram"
	ConfidenceHistogram PlotType = "confidence_histogram"

	// Threshold search plots
	ThresholdSweep PlotType = "threshold_sweep"
)

// PlotData is the universal JSON format consumed by external plotting tools
type PlotData struct {
	// Metadata
	PlotType  PlotType  `json:"plot_type"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	ModelName string    `json:"model_name"`

	// Data
	Series []SeriesData `json:"series"`

	// Configuration
	Config PlotConfig `json:"config"`

	// Summary values shown next to the plot
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// SeriesData represents a single data series in a plot
type SeriesData struct {
	Name  string                 `json:"name"`
	Type  string                 `json:"type"` // "line", "scatter", "bar"
	Data  []DataPoint            `json:"data"`
	Style map[string]interface{} `json:"style,omitempty"`
}

// DataPoint represents a single point in a data series
type DataPoint struct {
	X     interface{} `json:"x"`
	Y     interface{} `json:"y"`
	Label string      `json:"label,omitempty"`
}

// PlotConfig contains plot-specific configuration
type PlotConfig struct {
	XAxisLabel    string                 `json:"x_axis_label"`
	YAxisLabel    string                 `json:"y_axis_label"`
	XAxisScale    string                 `json:"x_axis_scale"` // "linear", "log"
	YAxisScale    string                 `json:"y_axis_scale"` // "linear", "log"
	ShowLegend    bool                   `json:"show_legend"`
	ShowGrid      bool                   `json:"show_grid"`
	Width         int                    `json:"width"`
	Height        int                    `json:"height"`
	Interactive   bool                   `json:"interactive"`
	CustomOptions map[string]interface{} `json:"custom_options,omitempty"`
}

// SweepPoint is one scanned threshold with its validation metrics
type SweepPoint struct {
	Threshold float64 `json:"threshold"`
	ECE       float64 `json:"ece"`
	NLL       float64 `json:"nll"`
	Accuracy  float64 `json:"accuracy"`
}

// VisualizationCollector gathers calibration data and turns it into plots
type VisualizationCollector struct {
	modelName string

	// Reliability bins keyed by variant name ("uncalibrated", "feature clip", ...)
	reliability map[string][]BinStat

	sweep    []SweepPoint
	selected float64
}

// NewVisualizationCollector creates a new visualization collector
func NewVisualizationCollector(modelName string) *VisualizationCollector {
	return &VisualizationCollector{
		modelName:   modelName,
		reliability: make(map[string][]BinStat),
		selected:    -1,
	}
}

// RecordReliability stores the reliability bins of one model variant
func (vc *VisualizationCollector) RecordReliability(variant string, bins []BinStat) {
	vc.reliability[variant] = append([]BinStat(nil), bins...)
}

// RecordSweep stores a threshold search and the value it selected.
// A negative selected value means nothing was selected.
func (vc *VisualizationCollector) RecordSweep(points []SweepPoint, selected float64) {
	vc.sweep = append([]SweepPoint(nil), points...)
	vc.selected = selected
}

// variants returns the recorded variant names in a stable order
func (vc *VisualizationCollector) variants() []string {
	names := make([]string, 0, len(vc.reliability))
	for name := range vc.reliability {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateReliabilityDiagramPlot plots per-bin accuracy against confidence.
// Empty bins are skipped.
func (vc *VisualizationCollector) GenerateReliabilityDiagramPlot() PlotData {
	series := []SeriesData{
		{
			Name: "Perfect Calibration",
			Type: "line",
			Data: []DataPoint{{X: 0.0, Y: 0.0}, {X: 1.0, Y: 1.0}},
			Style: map[string]interface{}{
				"color":      "#95A5A6",
				"line_style": "dashed",
			},
		},
	}

	metrics := make(map[string]interface{})
	for _, name := range vc.variants() {
		bins := vc.reliability[name]
		s := SeriesData{
			Name: name,
			Type: "line",
			Data: make([]DataPoint, 0, len(bins)),
			Style: map[string]interface{}{
				"line_width": 2,
				"marker":     "o",
			},
		}

		total, weighted := 0, 0.0
		for _, b := range bins {
			total += b.Count
			if b.Count == 0 {
				continue
			}
			s.Data = append(s.Data, DataPoint{
				X:     b.Confidence,
				Y:     b.Accuracy,
				Label: fmt.Sprintf("(%.2f, %.2f] n=%d", b.Lower, b.Upper, b.Count),
			})
		}
		for _, b := range bins {
			if total > 0 {
				weighted += float64(b.Count) / float64(total) * b.Gap()
			}
		}

		series = append(series, s)
		metrics[name+"_ece"] = weighted
	}

	return PlotData{
		PlotType:  ReliabilityDiagram,
		Title:     fmt.Sprintf("Reliability Diagram - %s", vc.modelName),
		Timestamp: time.Now(),
		ModelName: vc.modelName,
		Series:    series,
		Config: PlotConfig{
			XAxisLabel:  "Confidence",
			YAxisLabel:  "Accuracy",
			XAxisScale:  "linear",
			YAxisScale:  "linear",
			ShowLegend:  true,
			ShowGrid:    true,
			Width:       600,
			Height:      600,
			Interactive: true,
		},
		Metrics: metrics,
	}
}

// GenerateConfidenceHistogramPlot plots how many samples fall in each
// confidence bin for every recorded variant.
func (vc *VisualizationCollector) GenerateConfidenceHistogramPlot() PlotData {
	var series []SeriesData
	for _, name := range vc.variants() {
		bins := vc.reliability[name]
		s := SeriesData{
			Name: name,
			Type: "bar",
			Data: make([]DataPoint, len(bins)),
			Style: map[string]interface{}{
				"alpha": 0.6,
			},
		}
		for i, b := range bins {
			s.Data[i] = DataPoint{X: (b.Lower + b.Upper) / 2, Y: b.Count}
		}
		series = append(series, s)
	}

	return PlotData{
		PlotType:  ConfidenceHistogram,
		Title:     fmt.Sprintf("Confidence Histogram - %s", vc.modelName),
		Timestamp: time.Now(),
		ModelName: vc.modelName,
		Series:    series,
		Config: PlotConfig{
			XAxisLabel:  "Confidence",
			YAxisLabel:  "Samples",
			XAxisScale:  "linear",
			YAxisScale:  "linear",
			ShowLegend:  true,
			ShowGrid:    true,
			Width:       800,
			Height:      400,
			Interactive: true,
		},
	}
}

// GenerateThresholdSweepPlot plots ECE, NLL and accuracy against the
// scanned threshold.
func (vc *VisualizationCollector) GenerateThresholdSweepPlot() PlotData {
	series := []SeriesData{
		{
			Name: "ECE",
			Type: "line",
			Data: make([]DataPoint, len(vc.sweep)),
			Style: map[string]interface{}{
				"color":      "#FF6B6B",
				"line_width": 2,
			},
		},
		{
			Name: "NLL",
			Type: "line",
			Data: make([]DataPoint, len(vc.sweep)),
			Style: map[string]interface{}{
				"color":      "#4ECDC4",
				"line_width": 2,
			},
		},
		{
			Name: "Accuracy",
			Type: "line",
			Data: make([]DataPoint, len(vc.sweep)),
			Style: map[string]interface{}{
				"color":      "#5F27CD",
				"line_width": 2,
				"line_style": "dashed",
			},
		},
	}

	for i, p := range vc.sweep {
		series[0].Data[i] = DataPoint{X: p.Threshold, Y: p.ECE}
		series[1].Data[i] = DataPoint{X: p.Threshold, Y: p.NLL}
		series[2].Data[i] = DataPoint{X: p.Threshold, Y: p.Accuracy}
	}

	plot := PlotData{
		PlotType:  ThresholdSweep,
		Title:     fmt.Sprintf("Clip Threshold Search - %s", vc.modelName),
		Timestamp: time.Now(),
		ModelName: vc.modelName,
		Series:    series,
		Config: PlotConfig{
			XAxisLabel:  "Threshold C",
			YAxisLabel:  "Metric",
			XAxisScale:  "linear",
			YAxisScale:  "log",
			ShowLegend:  true,
			ShowGrid:    true,
			Width:       800,
			Height:      600,
			Interactive: true,
		},
	}
	if vc.selected >= 0 {
		plot.Config.CustomOptions = map[string]interface{}{"vertical_line": vc.selected}
		plot.Metrics = map[string]interface{}{"selected_threshold": vc.selected}
	}
	return plot
}

// ToJSON converts plot data to a JSON string
func (pd PlotData) ToJSON() (string, error) {
	jsonData, err := json.Marshal(pd)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plot data: %v", err)
	}
	return string(jsonData), nil
}

// Clear removes all recorded data
func (vc *VisualizationCollector) Clear() {
	vc.reliability = make(map[string][]BinStat)
	vc.sweep = nil
	vc.selected = -1
}
