package training

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReliabilityDiagramPlot(t *testing.T) {
	// confidence 0.5 correct, confidence 0.75 wrong
	logits := mustLogits(t, [][]float32{{0, 0}, {0, float32(math.Log(3))}})
	labels := mustLabels(t, 0, 0)

	bins, err := NewECELoss(DefaultECEBins).Bins(logits, labels)
	require.NoError(t, err)

	vc := NewVisualizationCollector("toy")
	vc.RecordReliability("uncalibrated", bins)

	plot := vc.GenerateReliabilityDiagramPlot()
	assert.Equal(t, ReliabilityDiagram, plot.PlotType)
	require.Len(t, plot.Series, 2)
	assert.Equal(t, "Perfect Calibration", plot.Series[0].Name)

	// only the two occupied bins are drawn
	points := plot.Series[1].Data
	require.Len(t, points, 2)
	assert.InDelta(t, 0.5, points[0].X.(float64), 1e-6)
	assert.Equal(t, 1.0, points[0].Y)
	assert.InDelta(t, 0.75, points[1].X.(float64), 1e-6)
	assert.Equal(t, 0.0, points[1].Y)

	assert.InDelta(t, 0.625, plot.Metrics["uncalibrated_ece"].(float64), 1e-6)
}

func TestConfidenceHistogramPlot(t *testing.T) {
	vc := NewVisualizationCollector("toy")
	vc.RecordReliability("b", []BinStat{{Lower: 0, Upper: 0.5, Count: 3}, {Lower: 0.5, Upper: 1, Count: 1}})
	vc.RecordReliability("a", []BinStat{{Lower: 0, Upper: 0.5}, {Lower: 0.5, Upper: 1, Count: 4}})

	plot := vc.GenerateConfidenceHistogramPlot()
	require.Len(t, plot.Series, 2)
	assert.Equal(t, "a", plot.Series[0].Name)
	assert.Equal(t, DataPoint{X: 0.25, Y: 3}, plot.Series[1].Data[0])
	assert.Equal(t, DataPoint{X: 0.75, Y: 4}, plot.Series[0].Data[1])
}

func TestThresholdSweepPlot(t *testing.T) {
	vc := NewVisualizationCollector("toy")

	plot := vc.GenerateThresholdSweepPlot()
	assert.Nil(t, plot.Metrics)
	assert.Empty(t, plot.Series[0].Data)

	vc.RecordSweep([]SweepPoint{
		{Threshold: 0, ECE: 0.3, NLL: 0.9, Accuracy: 0.6},
		{Threshold: 1, ECE: 0.1, NLL: 0.5, Accuracy: 0.8},
	}, 1)

	plot = vc.GenerateThresholdSweepPlot()
	assert.Equal(t, ThresholdSweep, plot.PlotType)
	require.Len(t, plot.Series, 3)
	assert.Equal(t, DataPoint{X: 1.0, Y: 0.1}, plot.Series[0].Data[1])
	assert.Equal(t, DataPoint{X: 0.0, Y: 0.9}, plot.Series[1].Data[0])
	assert.Equal(t, 1.0, plot.Metrics["selected_threshold"])

	js, err := plot.ToJSON()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(js), &decoded))
	assert.Equal(t, "threshold_sweep", decoded["plot_type"])

	vc.Clear()
	assert.Empty(t, vc.GenerateThresholdSweepPlot().Series[0].Data)
	assert.Len(t, vc.GenerateReliabilityDiagramPlot().Series, 1)
}
