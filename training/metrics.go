package training

import (
	"fmt"
	"math"

	"github.com/tsawler/featureclip/tensor"
	"gonum.org/v1/gonum/floats"
)

// MetricType represents the metrics tracked while calibrating
type MetricType int

const (
	ECE MetricType = iota // Expected Calibration Error
	NLL                   // Negative Log Likelihood
	Accuracy
)

func (mt MetricType) String() string {
	switch mt {
	case ECE:
		return "ECE"
	case NLL:
		return "NLL"
	case Accuracy:
		return "Accuracy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(mt))
	}
}

// DefaultECEBins is the number of equal-width confidence bins used by ECELoss
const DefaultECEBins = 15

// ECELoss computes the Expected Calibration Error: predictions are bucketed
// by confidence into equal-width bins over (0, 1] and the absolute gap
// between mean confidence and accuracy is averaged, weighted by bin size.
type ECELoss struct {
	nBins      int
	boundaries []float64
}

// NewECELoss creates an ECE metric with nBins bins (DefaultECEBins if <= 0)
func NewECELoss(nBins int) *ECELoss {
	if nBins <= 0 {
		nBins = DefaultECEBins
	}
	boundaries := make([]float64, nBins+1)
	floats.Span(boundaries, 0, 1)
	boundaries[nBins] = 1
	return &ECELoss{nBins: nBins, boundaries: boundaries}
}

func (e *ECELoss) Name() string {
	return "ece"
}

// NumBins returns the number of confidence bins
func (e *ECELoss) NumBins() int {
	return e.nBins
}

// BinStat summarises one reliability-diagram bucket
type BinStat struct {
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"` // mean max-probability of samples in the bin
	Accuracy   float64 `json:"accuracy"`   // fraction of samples in the bin predicted correctly
}

// Gap is |Confidence - Accuracy| for the bin
func (b BinStat) Gap() float64 {
	return math.Abs(b.Confidence - b.Accuracy)
}

// Forward computes the ECE for a batch
func (e *ECELoss) Forward(logits, labels *tensor.Tensor) (float64, error) {
	bins, err := e.Bins(logits, labels)
	if err != nil {
		return 0, err
	}

	total := 0
	weighted := make([]float64, len(bins))
	for i, b := range bins {
		total += b.Count
		weighted[i] = b.Gap() * float64(b.Count)
	}

	return floats.Sum(weighted) / float64(total), nil
}

// Bins returns per-bin reliability statistics. A sample falls into a bin
// when lower < confidence <= upper.
func (e *ECELoss) Bins(logits, labels *tensor.Tensor) ([]BinStat, error) {
	confidences, correct, err := confidenceAndCorrectness(logits, labels)
	if err != nil {
		return nil, err
	}

	bins := make([]BinStat, e.nBins)
	confSums := make([]float64, e.nBins)
	hits := make([]int, e.nBins)

	for i := range bins {
		bins[i].Lower = e.boundaries[i]
		bins[i].Upper = e.boundaries[i+1]
	}

	for i, conf := range confidences {
		idx := e.binIndex(conf)
		if idx < 0 {
			continue
		}
		bins[idx].Count++
		confSums[idx] += conf
		if correct[i] {
			hits[idx]++
		}
	}

	for i := range bins {
		if bins[i].Count == 0 {
			continue
		}
		n := float64(bins[i].Count)
		bins[i].Confidence = confSums[i] / n
		bins[i].Accuracy = float64(hits[i]) / n
	}

	return bins, nil
}

// binIndex locates the bin satisfying lower < conf <= upper, or -1.
func (e *ECELoss) binIndex(conf float64) int {
	for i := 0; i < e.nBins; i++ {
		if conf > e.boundaries[i] && conf <= e.boundaries[i+1] {
			return i
		}
	}
	return -1
}

// ComputeAccuracy returns the fraction of rows whose argmax matches the label
func ComputeAccuracy(logits, labels *tensor.Tensor) (float64, error) {
	_, correct, err := confidenceAndCorrectness(logits, labels)
	if err != nil {
		return 0, err
	}

	hits := 0
	for _, ok := range correct {
		if ok {
			hits++
		}
	}
	return float64(hits) / float64(len(correct)), nil
}

// confidenceAndCorrectness returns the max softmax probability of each row
// and whether the argmax equals the label.
func confidenceAndCorrectness(logits, labels *tensor.Tensor) ([]float64, []bool, error) {
	batchSize, numClasses, err := checkClassification(logits, labels)
	if err != nil {
		return nil, nil, err
	}

	probs, err := tensor.Softmax(logits)
	if err != nil {
		return nil, nil, fmt.Errorf("softmax computation failed: %v", err)
	}
	predictions, err := tensor.ArgMax(logits)
	if err != nil {
		return nil, nil, fmt.Errorf("argmax computation failed: %v", err)
	}

	probData := probs.Data.([]float32)
	predData := predictions.Data.([]int32)
	targets := labels.Data.([]int32)

	confidences := make([]float64, batchSize)
	correct := make([]bool, batchSize)
	for i := 0; i < batchSize; i++ {
		confidences[i] = float64(probData[i*numClasses+int(predData[i])])
		correct[i] = predData[i] == targets[i]
	}

	return confidences, correct, nil
}
