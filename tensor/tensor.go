package tensor

import (
	"fmt"
)

type DType int

const (
	Float32 DType = iota
	Int32
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "Float32"
	case Int32:
		return "Int32"
	default:
		return "Unknown"
	}
}

// DeviceType records where tensor memory lives. Calibration runs entirely on
// the host, so CPU is the only device.
type DeviceType int

const (
	CPU DeviceType = iota
)

func (d DeviceType) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// Tensor is a dense row-major array. Data holds []float32 or []int32
// depending on DType.
type Tensor struct {
	Shape    []int
	Strides  []int
	DType    DType
	Device   DeviceType
	Data     interface{}
	NumElems int
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v, dtype=%s, device=%s, elements=%d)",
		t.Shape, t.DType, t.Device, t.NumElems)
}

// Rows returns the leading (batch) dimension.
func (t *Tensor) Rows() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return t.Shape[0]
}

// Cols returns the trailing dimension of a 2-D tensor, or 1 for a vector.
func (t *Tensor) Cols() int {
	if len(t.Shape) < 2 {
		return 1
	}
	return t.Shape[len(t.Shape)-1]
}

func calculateStrides(shape []int) []int {
	if len(shape) == 0 {
		return []int{}
	}

	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

func calculateNumElements(shape []int) int {
	if len(shape) == 0 {
		return 0
	}

	elements := 1
	for _, dim := range shape {
		elements *= dim
	}
	return elements
}

// validateShape allows a zero leading dimension so an empty batch can be
// represented and rejected by the metric layer with a proper error.
func validateShape(shape []int) error {
	if len(shape) == 0 {
		return fmt.Errorf("invalid shape: tensor must have at least one dimension")
	}
	for i, dim := range shape {
		if dim < 0 || (dim == 0 && i > 0) {
			return fmt.Errorf("invalid shape: dimension %d has size %d", i, dim)
		}
	}
	return nil
}
