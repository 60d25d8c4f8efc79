package tensor

import (
	"strings"
	"testing"
)

func TestClone(t *testing.T) {
	a, _ := NewTensor([]int{2, 2}, Float32, CPU, []float32{1, 2, 3, 4})

	clone, err := a.Clone()
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	clone.Data.([]float32)[0] = 100
	clone.Shape[0] = 9
	if a.Data.([]float32)[0] != 1 || a.Shape[0] != 2 {
		t.Error("Clone shares memory with the original")
	}
}

func TestAt(t *testing.T) {
	a, _ := NewTensor([]int{2, 3}, Float32, CPU, []float32{1, 2, 3, 4, 5, 6})

	v, err := a.At(1, 2)
	if err != nil {
		t.Fatalf("At failed: %v", err)
	}
	if v.(float32) != 6 {
		t.Errorf("At(1, 2) = %v, expected 6", v)
	}

	if _, err := a.At(2, 0); err == nil {
		t.Error("Expected error for out-of-bounds index")
	}
	if _, err := a.At(0); err == nil {
		t.Error("Expected error for wrong number of indices")
	}
}

func TestRow(t *testing.T) {
	a, _ := NewTensor([]int{2, 2}, Float32, CPU, []float32{1, 2, 3, 4})

	row, err := a.Row(1)
	if err != nil {
		t.Fatalf("Row failed: %v", err)
	}
	if row[0] != 3 || row[1] != 4 {
		t.Errorf("Row(1) = %v, expected [3 4]", row)
	}
	row[0] = 42
	if a.Data.([]float32)[2] != 3 {
		t.Error("Row should return a copy")
	}
}

func TestEqual(t *testing.T) {
	a, _ := NewTensor([]int{2}, Float32, CPU, []float32{1, 2})
	b, _ := NewTensor([]int{2}, Float32, CPU, []float32{1, 2})
	c, _ := NewTensor([]int{2}, Float32, CPU, []float32{1, 3})
	d, _ := NewTensor([]int{2, 1}, Float32, CPU, []float32{1, 2})

	if eq, _ := a.Equal(b); !eq {
		t.Error("identical tensors reported unequal")
	}
	if eq, _ := a.Equal(c); eq {
		t.Error("different values reported equal")
	}
	if eq, _ := a.Equal(d); eq {
		t.Error("different shapes reported equal")
	}
}

func TestPrintData(t *testing.T) {
	a, _ := NewTensor([]int{5}, Float32, CPU, []float32{1, 2, 3, 4, 5})

	out := a.PrintData(2)
	if !strings.Contains(out, "... (3 more)") {
		t.Errorf("PrintData output missing truncation marker: %s", out)
	}
}
