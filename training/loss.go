package training

import (
	"fmt"
	"math"

	"github.com/tsawler/featureclip/tensor"
)

// Loss is a scalar criterion over a batch of logits and class labels.
type Loss interface {
	Forward(logits, labels *tensor.Tensor) (float64, error)
	Name() string
}

// CrossEntropyLoss implements softmax cross entropy (negative log likelihood)
type CrossEntropyLoss struct {
	reduction string // "mean" or "sum"
}

// NewCrossEntropyLoss creates a new Cross Entropy loss function
func NewCrossEntropyLoss(reduction string) *CrossEntropyLoss {
	if reduction == "" {
		reduction = "mean"
	}
	return &CrossEntropyLoss{reduction: reduction}
}

func (ce *CrossEntropyLoss) Name() string {
	return "nll"
}

// Forward computes the cross entropy loss
// logits: [batch_size, num_classes]
// labels: [batch_size] class indices
func (ce *CrossEntropyLoss) Forward(logits, labels *tensor.Tensor) (float64, error) {
	batchSize, numClasses, err := checkClassification(logits, labels)
	if err != nil {
		return 0, err
	}

	data := logits.Data.([]float32)
	targets := labels.Data.([]int32)

	var total float64
	for i := 0; i < batchSize; i++ {
		row := data[i*numClasses : (i+1)*numClasses]
		total += logSumExp(row) - float64(row[targets[i]])
	}

	if ce.reduction == "mean" {
		total /= float64(batchSize)
	}

	return total, nil
}

// logSumExp computes log(sum(exp(row))) without overflow
func logSumExp(row []float32) float64 {
	maxVal := float64(row[0])
	for _, v := range row[1:] {
		if float64(v) > maxVal {
			maxVal = float64(v)
		}
	}

	var sum float64
	for _, v := range row {
		sum += math.Exp(float64(v) - maxVal)
	}
	return maxVal + math.Log(sum)
}

// checkClassification validates a logits/labels pair and returns its
// batch size and class count.
func checkClassification(logits, labels *tensor.Tensor) (int, int, error) {
	if logits == nil || labels == nil {
		return 0, 0, fmt.Errorf("logits and labels must not be nil")
	}
	if logits.DType != tensor.Float32 || labels.DType != tensor.Int32 {
		return 0, 0, fmt.Errorf("logits must be Float32 and labels must be Int32")
	}
	if len(logits.Shape) != 2 {
		return 0, 0, fmt.Errorf("logits must be 2D tensor [batch_size, num_classes], got shape %v", logits.Shape)
	}
	if len(labels.Shape) != 1 {
		return 0, 0, fmt.Errorf("labels must be 1D tensor [batch_size], got shape %v", labels.Shape)
	}

	batchSize := logits.Shape[0]
	numClasses := logits.Shape[1]

	if labels.Shape[0] != batchSize {
		return 0, 0, fmt.Errorf("batch size mismatch: logits %d, labels %d", batchSize, labels.Shape[0])
	}
	if batchSize == 0 {
		return 0, 0, fmt.Errorf("cannot compute metric on an empty batch")
	}

	for i, c := range labels.Data.([]int32) {
		if c < 0 || int(c) >= numClasses {
			return 0, 0, fmt.Errorf("label %d at index %d out of range [0, %d)", c, i, numClasses)
		}
	}

	return batchSize, numClasses, nil
}
