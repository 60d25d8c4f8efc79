package tensor

import (
	"fmt"
)

func getIndex(indices []int, strides []int) int {
	index := 0
	for i, idx := range indices {
		index += idx * strides[i]
	}
	return index
}

// SliceRows returns rows [start, end) of a tensor as a new tensor.
func SliceRows(t *Tensor, start, end int) (*Tensor, error) {
	if len(t.Shape) == 0 {
		return nil, fmt.Errorf("SliceRows: tensor has no dimensions")
	}
	if start < 0 || end > t.Shape[0] || start > end {
		return nil, fmt.Errorf("SliceRows: range [%d, %d) out of bounds for batch size %d", start, end, t.Shape[0])
	}

	shape := make([]int, len(t.Shape))
	copy(shape, t.Shape)
	shape[0] = end - start

	rowSize := 1
	for _, d := range t.Shape[1:] {
		rowSize *= d
	}

	switch t.DType {
	case Float32:
		src := t.Data.([]float32)[start*rowSize : end*rowSize]
		data := make([]float32, len(src))
		copy(data, src)
		return NewTensor(shape, Float32, t.Device, data)
	case Int32:
		src := t.Data.([]int32)[start*rowSize : end*rowSize]
		data := make([]int32, len(src))
		copy(data, src)
		return NewTensor(shape, Int32, t.Device, data)
	default:
		return nil, fmt.Errorf("unsupported dtype for SliceRows: %s", t.DType)
	}
}

// Concat joins tensors along the batch (first) dimension. All inputs must
// share dtype and trailing dimensions.
func Concat(tensors []*Tensor) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, fmt.Errorf("Concat requires at least one tensor")
	}

	first := tensors[0]
	tail := first.Shape[1:]
	total := 0

	for i, t := range tensors {
		if t.DType != first.DType {
			return nil, fmt.Errorf("tensor %d has dtype %s, expected %s", i, t.DType, first.DType)
		}
		if len(t.Shape) != len(first.Shape) {
			return nil, fmt.Errorf("tensor %d has shape %v, incompatible with %v", i, t.Shape, first.Shape)
		}
		for d := range tail {
			if t.Shape[d+1] != tail[d] {
				return nil, fmt.Errorf("tensor %d has shape %v, incompatible with %v", i, t.Shape, first.Shape)
			}
		}
		total += t.Shape[0]
	}

	shape := append([]int{total}, tail...)

	switch first.DType {
	case Float32:
		data := make([]float32, 0, calculateNumElements(shape))
		for _, t := range tensors {
			data = append(data, t.Data.([]float32)...)
		}
		return NewTensor(shape, Float32, first.Device, data)
	case Int32:
		data := make([]int32, 0, calculateNumElements(shape))
		for _, t := range tensors {
			data = append(data, t.Data.([]int32)...)
		}
		return NewTensor(shape, Int32, first.Device, data)
	default:
		return nil, fmt.Errorf("unsupported dtype for Concat: %s", first.DType)
	}
}
