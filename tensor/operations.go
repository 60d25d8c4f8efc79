package tensor

import (
	"fmt"
	"math"
)

func checkFloat32(t *Tensor, op string) error {
	if t == nil {
		return fmt.Errorf("%s: nil tensor", op)
	}
	if t.DType != Float32 {
		return fmt.Errorf("%s only supports Float32 dtype, got %s", op, t.DType)
	}
	return nil
}

func checkMatrix(t *Tensor, op string) error {
	if err := checkFloat32(t, op); err != nil {
		return err
	}
	if len(t.Shape) != 2 {
		return fmt.Errorf("%s requires a 2D tensor [batch_size, dim], got shape %v", op, t.Shape)
	}
	return nil
}

// Clamp limits every element to [min, max]. The input is left untouched.
func Clamp(t *Tensor, min, max float32) (*Tensor, error) {
	if err := checkFloat32(t, "Clamp"); err != nil {
		return nil, err
	}
	if min > max {
		return nil, fmt.Errorf("Clamp: min %f is greater than max %f", min, max)
	}

	result, err := Zeros(t.Shape, t.DType, t.Device)
	if err != nil {
		return nil, err
	}

	data := t.Data.([]float32)
	resultData := result.Data.([]float32)

	for i := 0; i < t.NumElems; i++ {
		v := data[i]
		if v < min {
			v = min
		} else if v > max {
			v = max
		}
		resultData[i] = v
	}

	return result, nil
}

// ClampSymmetric clamps every element to [-c, c]. c may be +Inf, in which
// case the result is an exact copy of t.
func ClampSymmetric(t *Tensor, c float64) (*Tensor, error) {
	if math.IsNaN(c) || c < 0 {
		return nil, fmt.Errorf("ClampSymmetric: threshold must be non-negative, got %v", c)
	}
	if math.IsInf(c, 1) {
		if err := checkFloat32(t, "ClampSymmetric"); err != nil {
			return nil, err
		}
		return t.Clone()
	}
	bound := float32(c)
	return Clamp(t, -bound, bound)
}

// MaxAbs returns the largest absolute element value.
func MaxAbs(t *Tensor) (float64, error) {
	if err := checkFloat32(t, "MaxAbs"); err != nil {
		return 0, err
	}

	var m float64
	for _, v := range t.Data.([]float32) {
		if a := math.Abs(float64(v)); a > m {
			m = a
		}
	}
	return m, nil
}

// Softmax normalises each row of a [batch_size, num_classes] tensor.
func Softmax(logits *Tensor) (*Tensor, error) {
	if err := checkMatrix(logits, "Softmax"); err != nil {
		return nil, err
	}

	batchSize := logits.Shape[0]
	numClasses := logits.Shape[1]

	data := logits.Data.([]float32)
	result := make([]float32, len(data))

	for i := 0; i < batchSize; i++ {
		offset := i * numClasses

		// Find max for numerical stability
		maxVal := data[offset]
		for j := 1; j < numClasses; j++ {
			if data[offset+j] > maxVal {
				maxVal = data[offset+j]
			}
		}

		var sum float64
		for j := 0; j < numClasses; j++ {
			exp := math.Exp(float64(data[offset+j] - maxVal))
			result[offset+j] = float32(exp)
			sum += exp
		}

		for j := 0; j < numClasses; j++ {
			result[offset+j] = float32(float64(result[offset+j]) / sum)
		}
	}

	return NewTensor(logits.Shape, logits.DType, logits.Device, result)
}

// ArgMax returns the index of the largest value in each row as an Int32
// vector. Ties resolve to the lowest index.
func ArgMax(t *Tensor) (*Tensor, error) {
	if err := checkMatrix(t, "ArgMax"); err != nil {
		return nil, err
	}

	rows := t.Shape[0]
	cols := t.Shape[1]
	data := t.Data.([]float32)
	out := make([]int32, rows)

	for i := 0; i < rows; i++ {
		offset := i * cols
		maxIdx := 0
		maxVal := data[offset]
		for j := 1; j < cols; j++ {
			if data[offset+j] > maxVal {
				maxVal = data[offset+j]
				maxIdx = j
			}
		}
		out[i] = int32(maxIdx)
	}

	return NewTensor([]int{rows}, Int32, t.Device, out)
}
