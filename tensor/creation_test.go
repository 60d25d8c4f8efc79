package tensor

import (
	"reflect"
	"testing"
)

func TestNewTensor(t *testing.T) {
	t.Run("Valid Float32 tensor", func(t *testing.T) {
		shape := []int{2, 3}
		data := []float32{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}

		tensor, err := NewTensor(shape, Float32, CPU, data)
		if err != nil {
			t.Fatalf("NewTensor failed: %v", err)
		}

		if !reflect.DeepEqual(tensor.Shape, shape) {
			t.Errorf("Shape = %v, expected %v", tensor.Shape, shape)
		}
		if tensor.NumElems != 6 {
			t.Errorf("NumElems = %d, expected 6", tensor.NumElems)
		}
		if !reflect.DeepEqual(tensor.Strides, []int{3, 1}) {
			t.Errorf("Strides = %v, expected [3 1]", tensor.Strides)
		}
	})

	t.Run("Shape is copied", func(t *testing.T) {
		shape := []int{2, 2}
		tensor, err := NewTensor(shape, Float32, CPU, []float32{1, 2, 3, 4})
		if err != nil {
			t.Fatalf("NewTensor failed: %v", err)
		}
		shape[0] = 9
		if tensor.Shape[0] != 2 {
			t.Errorf("tensor shape aliased caller slice: %v", tensor.Shape)
		}
	})

	t.Run("Data length mismatch", func(t *testing.T) {
		_, err := NewTensor([]int{2, 2}, Float32, CPU, []float32{1, 2, 3})
		if err == nil {
			t.Error("Expected error for data length mismatch")
		}
	})

	t.Run("Wrong data type", func(t *testing.T) {
		_, err := NewTensor([]int{2}, Float32, CPU, []int32{1, 2})
		if err == nil {
			t.Error("Expected error for mismatched data type")
		}
	})

	t.Run("Scalar fill", func(t *testing.T) {
		tensor, err := Full([]int{3}, float32(2.5), Float32, CPU)
		if err != nil {
			t.Fatalf("Full failed: %v", err)
		}
		expected := []float32{2.5, 2.5, 2.5}
		if !reflect.DeepEqual(tensor.Data.([]float32), expected) {
			t.Errorf("Data = %v, expected %v", tensor.Data, expected)
		}
	})
}

func TestZeros(t *testing.T) {
	tensor, err := Zeros([]int{2, 2}, Int32, CPU)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	if !reflect.DeepEqual(tensor.Data.([]int32), []int32{0, 0, 0, 0}) {
		t.Errorf("Data = %v, expected zeros", tensor.Data)
	}
}

func TestFromRows(t *testing.T) {
	t.Run("Valid rows", func(t *testing.T) {
		tensor, err := FromRows([][]float32{{1, 2}, {3, 4}, {5, 6}})
		if err != nil {
			t.Fatalf("FromRows failed: %v", err)
		}
		if !reflect.DeepEqual(tensor.Shape, []int{3, 2}) {
			t.Errorf("Shape = %v, expected [3 2]", tensor.Shape)
		}
		if !reflect.DeepEqual(tensor.Data.([]float32), []float32{1, 2, 3, 4, 5, 6}) {
			t.Errorf("Data = %v", tensor.Data)
		}
	})

	t.Run("Ragged rows", func(t *testing.T) {
		if _, err := FromRows([][]float32{{1, 2}, {3}}); err == nil {
			t.Error("Expected error for ragged rows")
		}
	})

	t.Run("No rows", func(t *testing.T) {
		if _, err := FromRows(nil); err == nil {
			t.Error("Expected error for empty input")
		}
	})
}

func TestLabels(t *testing.T) {
	t.Run("Copies input", func(t *testing.T) {
		src := []int32{0, 1, 2}
		labels, err := Labels(src)
		if err != nil {
			t.Fatalf("Labels failed: %v", err)
		}
		src[0] = 5
		if labels.Data.([]int32)[0] != 0 {
			t.Errorf("Labels aliased caller slice")
		}
	})

	t.Run("Empty batch", func(t *testing.T) {
		labels, err := Labels(nil)
		if err != nil {
			t.Fatalf("Labels failed on empty input: %v", err)
		}
		if labels.Rows() != 0 || labels.NumElems != 0 {
			t.Errorf("expected empty tensor, got %v", labels)
		}
	})
}
