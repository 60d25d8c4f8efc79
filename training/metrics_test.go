package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricTypeString(t *testing.T) {
	assert.Equal(t, "ECE", ECE.String())
	assert.Equal(t, "NLL", NLL.String())
	assert.Equal(t, "Accuracy", Accuracy.String())
	assert.Equal(t, "Unknown(9)", MetricType(9).String())
}

func TestNewECELoss(t *testing.T) {
	assert.Equal(t, DefaultECEBins, NewECELoss(0).NumBins())
	assert.Equal(t, 10, NewECELoss(10).NumBins())
	assert.Equal(t, "ece", NewECELoss(0).Name())
}

func TestECELoss(t *testing.T) {
	t.Run("Two bins", func(t *testing.T) {
		// confidence 0.5 correct, confidence 0.75 wrong
		logits := mustLogits(t, [][]float32{{0, 0}, {0, float32(math.Log(3))}})
		labels := mustLabels(t, 0, 0)

		ece, err := NewECELoss(15).Forward(logits, labels)
		require.NoError(t, err)
		assert.InDelta(t, 0.625, ece, 1e-5)
	})

	t.Run("Perfectly calibrated", func(t *testing.T) {
		logits := mustLogits(t, [][]float32{{100, -100}, {-100, 100}})
		labels := mustLabels(t, 0, 1)

		ece, err := NewECELoss(15).Forward(logits, labels)
		require.NoError(t, err)
		assert.InDelta(t, 0, ece, 1e-6)
	})

	t.Run("Overconfident and wrong", func(t *testing.T) {
		logits := mustLogits(t, [][]float32{{100, -100}, {-100, 100}})
		labels := mustLabels(t, 1, 0)

		ece, err := NewECELoss(15).Forward(logits, labels)
		require.NoError(t, err)
		assert.InDelta(t, 1, ece, 1e-6)
	})

	t.Run("Empty batch", func(t *testing.T) {
		_, err := NewECELoss(15).Forward(mustLogits(t, [][]float32{{1, 2}}), mustLabels(t))
		assert.Error(t, err)
	})
}

func TestECEBins(t *testing.T) {
	logits := mustLogits(t, [][]float32{{0, 0}, {0, 0}, {5, 0}})
	labels := mustLabels(t, 0, 1, 0)

	bins, err := NewECELoss(10).Bins(logits, labels)
	require.NoError(t, err)
	require.Len(t, bins, 10)

	assert.InDelta(t, 0.0, bins[0].Lower, 1e-12)
	assert.InDelta(t, 1.0, bins[9].Upper, 1e-12)

	// 0.5 lands in (0.4, 0.5]
	assert.Equal(t, 2, bins[4].Count)
	assert.InDelta(t, 0.5, bins[4].Confidence, 1e-6)
	assert.InDelta(t, 0.5, bins[4].Accuracy, 1e-12)
	assert.InDelta(t, 0, bins[4].Gap(), 1e-6)

	// softmax([5, 0]) ≈ 0.9933
	assert.Equal(t, 1, bins[9].Count)
	assert.InDelta(t, 1.0, bins[9].Accuracy, 1e-12)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 3, total)
}

func TestComputeAccuracy(t *testing.T) {
	logits := mustLogits(t, [][]float32{{1, 0}, {0, 1}, {1, 0}, {0, 1}})

	acc, err := ComputeAccuracy(logits, mustLabels(t, 0, 1, 1, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)

	_, err = ComputeAccuracy(logits, mustLabels(t, 0))
	assert.Error(t, err)
}
