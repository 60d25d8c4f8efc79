package tensor

import (
	"math"
	"reflect"
	"testing"
)

func TestClamp(t *testing.T) {
	t.Run("Clamps both sides", func(t *testing.T) {
		a, _ := NewTensor([]int{2, 2}, Float32, CPU, []float32{-3, -0.5, 0.5, 3})

		result, err := Clamp(a, -1, 1)
		if err != nil {
			t.Fatalf("Clamp failed: %v", err)
		}

		expected := []float32{-1, -0.5, 0.5, 1}
		if !reflect.DeepEqual(result.Data.([]float32), expected) {
			t.Errorf("Result = %v, expected %v", result.Data, expected)
		}
		if !reflect.DeepEqual(a.Data.([]float32), []float32{-3, -0.5, 0.5, 3}) {
			t.Errorf("Clamp mutated its input: %v", a.Data)
		}
	})

	t.Run("Inverted bounds", func(t *testing.T) {
		a, _ := NewTensor([]int{1}, Float32, CPU, []float32{0})
		if _, err := Clamp(a, 1, -1); err == nil {
			t.Error("Expected error for min > max")
		}
	})

	t.Run("Int32 rejected", func(t *testing.T) {
		a, _ := NewTensor([]int{1}, Int32, CPU, []int32{0})
		if _, err := Clamp(a, -1, 1); err == nil {
			t.Error("Expected error for Int32 tensor")
		}
	})
}

func TestClampSymmetric(t *testing.T) {
	input := []float32{-10, -2.5, 0, 0.25, 7, 10}

	t.Run("Infinite threshold is identity", func(t *testing.T) {
		a, _ := NewTensor([]int{3, 2}, Float32, CPU, input)

		result, err := ClampSymmetric(a, math.Inf(1))
		if err != nil {
			t.Fatalf("ClampSymmetric failed: %v", err)
		}

		equal, err := result.Equal(a)
		if err != nil || !equal {
			t.Errorf("Result = %v, expected %v", result.Data, input)
		}
		if &result.Data.([]float32)[0] == &a.Data.([]float32)[0] {
			t.Error("Infinite threshold should still return a copy")
		}
	})

	t.Run("Zero threshold collapses to zero", func(t *testing.T) {
		a, _ := NewTensor([]int{3, 2}, Float32, CPU, input)

		result, err := ClampSymmetric(a, 0)
		if err != nil {
			t.Fatalf("ClampSymmetric failed: %v", err)
		}
		for i, v := range result.Data.([]float32) {
			if v != 0 {
				t.Errorf("Result[%d] = %v, expected 0", i, v)
			}
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		a, _ := NewTensor([]int{3, 2}, Float32, CPU, input)

		once, err := ClampSymmetric(a, 2.5)
		if err != nil {
			t.Fatalf("ClampSymmetric failed: %v", err)
		}
		twice, err := ClampSymmetric(once, 2.5)
		if err != nil {
			t.Fatalf("ClampSymmetric failed: %v", err)
		}

		equal, _ := once.Equal(twice)
		if !equal {
			t.Errorf("clamp not idempotent: %v vs %v", once.Data, twice.Data)
		}
	})

	t.Run("Invalid thresholds", func(t *testing.T) {
		a, _ := NewTensor([]int{1}, Float32, CPU, []float32{1})
		for _, c := range []float64{-0.01, math.NaN(), math.Inf(-1)} {
			if _, err := ClampSymmetric(a, c); err == nil {
				t.Errorf("Expected error for threshold %v", c)
			}
		}
	})
}

func TestMaxAbs(t *testing.T) {
	a, _ := NewTensor([]int{4}, Float32, CPU, []float32{1, -8, 3, 7.5})

	m, err := MaxAbs(a)
	if err != nil {
		t.Fatalf("MaxAbs failed: %v", err)
	}
	if m != 8 {
		t.Errorf("MaxAbs = %v, expected 8", m)
	}
}

func TestSoftmax(t *testing.T) {
	t.Run("Rows sum to one", func(t *testing.T) {
		logits, _ := NewTensor([]int{2, 3}, Float32, CPU, []float32{1, 2, 3, 1000, 1000, 1000})

		probs, err := Softmax(logits)
		if err != nil {
			t.Fatalf("Softmax failed: %v", err)
		}

		data := probs.Data.([]float32)
		for i := 0; i < 2; i++ {
			var sum float64
			for j := 0; j < 3; j++ {
				sum += float64(data[i*3+j])
			}
			if math.Abs(sum-1) > 1e-6 {
				t.Errorf("row %d sums to %v", i, sum)
			}
		}

		if math.Abs(float64(data[3])-1.0/3.0) > 1e-6 {
			t.Errorf("large equal logits should be uniform, got %v", data[3:])
		}
		if !(data[2] > data[1] && data[1] > data[0]) {
			t.Errorf("softmax should preserve ordering: %v", data[:3])
		}
	})

	t.Run("Requires 2D", func(t *testing.T) {
		v, _ := NewTensor([]int{3}, Float32, CPU, []float32{1, 2, 3})
		if _, err := Softmax(v); err == nil {
			t.Error("Expected error for 1D input")
		}
	})
}

func TestArgMax(t *testing.T) {
	logits, _ := NewTensor([]int{3, 3}, Float32, CPU, []float32{
		0.1, 0.7, 0.2,
		5, 5, 1,
		-1, -2, -0.5,
	})

	result, err := ArgMax(logits)
	if err != nil {
		t.Fatalf("ArgMax failed: %v", err)
	}

	expected := []int32{1, 0, 2}
	if !reflect.DeepEqual(result.Data.([]int32), expected) {
		t.Errorf("Result = %v, expected %v", result.Data, expected)
	}
}
