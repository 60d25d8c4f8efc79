package tensor

import (
	"fmt"
	"strings"
)

func (t *Tensor) Clone() (*Tensor, error) {
	clone := &Tensor{
		Shape:    make([]int, len(t.Shape)),
		Strides:  make([]int, len(t.Strides)),
		DType:    t.DType,
		Device:   t.Device,
		NumElems: t.NumElems,
	}

	copy(clone.Shape, t.Shape)
	copy(clone.Strides, t.Strides)

	switch t.DType {
	case Float32:
		if t.Data == nil {
			return nil, fmt.Errorf("tensor has nil data")
		}
		data := t.Data.([]float32)
		cloneData := make([]float32, len(data))
		copy(cloneData, data)
		clone.Data = cloneData
	case Int32:
		if t.Data == nil {
			return nil, fmt.Errorf("tensor has nil data")
		}
		data := t.Data.([]int32)
		cloneData := make([]int32, len(data))
		copy(cloneData, data)
		clone.Data = cloneData
	default:
		return nil, fmt.Errorf("unsupported dtype for Clone: %s", t.DType)
	}

	return clone, nil
}

func (t *Tensor) GetFloat32Data() ([]float32, error) {
	if t.DType != Float32 {
		return nil, fmt.Errorf("tensor dtype is %s, not Float32", t.DType)
	}
	return t.Data.([]float32), nil
}

func (t *Tensor) GetInt32Data() ([]int32, error) {
	if t.DType != Int32 {
		return nil, fmt.Errorf("tensor dtype is %s, not Int32", t.DType)
	}
	return t.Data.([]int32), nil
}

func (t *Tensor) At(indices ...int) (interface{}, error) {
	if len(indices) != len(t.Shape) {
		return nil, fmt.Errorf("number of indices (%d) must match tensor dimensions (%d)", len(indices), len(t.Shape))
	}

	for i, idx := range indices {
		if idx < 0 || idx >= t.Shape[i] {
			return nil, fmt.Errorf("index %d out of bounds for dimension %d (size %d)", idx, i, t.Shape[i])
		}
	}

	flatIndex := getIndex(indices, t.Strides)

	switch t.DType {
	case Float32:
		return t.Data.([]float32)[flatIndex], nil
	case Int32:
		return t.Data.([]int32)[flatIndex], nil
	default:
		return nil, fmt.Errorf("unsupported dtype for At: %s", t.DType)
	}
}

// Row returns a copy of row i of a 2-D Float32 tensor.
func (t *Tensor) Row(i int) ([]float32, error) {
	if err := checkMatrix(t, "Row"); err != nil {
		return nil, err
	}
	if i < 0 || i >= t.Shape[0] {
		return nil, fmt.Errorf("row %d out of bounds (size %d)", i, t.Shape[0])
	}
	cols := t.Shape[1]
	out := make([]float32, cols)
	copy(out, t.Data.([]float32)[i*cols:(i+1)*cols])
	return out, nil
}

// Equal reports whether both tensors share dtype, shape and element values.
func (t *Tensor) Equal(other *Tensor) (bool, error) {
	if t.DType != other.DType {
		return false, nil
	}

	if len(t.Shape) != len(other.Shape) {
		return false, nil
	}

	for i, dim := range t.Shape {
		if dim != other.Shape[i] {
			return false, nil
		}
	}

	switch t.DType {
	case Float32:
		data1 := t.Data.([]float32)
		data2 := other.Data.([]float32)
		for i := range data1 {
			if data1[i] != data2[i] {
				return false, nil
			}
		}
	case Int32:
		data1 := t.Data.([]int32)
		data2 := other.Data.([]int32)
		for i := range data1 {
			if data1[i] != data2[i] {
				return false, nil
			}
		}
	default:
		return false, fmt.Errorf("unsupported dtype for Equal: %s", t.DType)
	}

	return true, nil
}

func (t *Tensor) PrintData(maxElements int) string {
	if maxElements <= 0 {
		maxElements = 10
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tensor(shape=%v, dtype=%s, device=%s)\n", t.Shape, t.DType, t.Device))
	sb.WriteString("Data: [")

	switch t.DType {
	case Float32:
		data := t.Data.([]float32)
		for i, val := range data {
			if i >= maxElements {
				sb.WriteString(fmt.Sprintf("... (%d more)", len(data)-maxElements))
				break
			}
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%.4f", val))
		}
	case Int32:
		data := t.Data.([]int32)
		for i, val := range data {
			if i >= maxElements {
				sb.WriteString(fmt.Sprintf("... (%d more)", len(data)-maxElements))
				break
			}
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%d", val))
		}
	}

	sb.WriteString("]")
	return sb.String()
}
