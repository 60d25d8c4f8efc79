package layers

import (
	"fmt"

	"github.com/tsawler/featureclip/tensor"
	"gonum.org/v1/gonum/mat"
)

// LayerType represents the kind of classifier head
type LayerType int

const (
	Dense LayerType = iota
	Identity
)

func (lt LayerType) String() string {
	switch lt {
	case Dense:
		return "Dense"
	case Identity:
		return "Identity"
	default:
		return "Unknown"
	}
}

// LayerSpec describes a head for summaries and logging.
// InputSize and OutputSize are zero when the head accepts any width.
type LayerSpec struct {
	Type           LayerType `json:"type"`
	Name           string    `json:"name"`
	InputSize      int       `json:"input_size,omitempty"`
	OutputSize     int       `json:"output_size,omitempty"`
	ParameterCount int64     `json:"parameter_count,omitempty"`
}

func (ls LayerSpec) String() string {
	if ls.Type == Identity {
		return fmt.Sprintf("%s(%s)", ls.Type, ls.Name)
	}
	return fmt.Sprintf("%s(%s, %d -> %d, params=%d)", ls.Type, ls.Name, ls.InputSize, ls.OutputSize, ls.ParameterCount)
}

// Head maps a [batch_size, dim] tensor to [batch_size, num_classes] logits.
// Implementations must not mutate their input and must be safe for
// concurrent Forward calls.
type Head interface {
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)
	Spec() LayerSpec
}

// Linear is a frozen fully connected classifier: logits = x·Wᵀ + b.
type Linear struct {
	name   string
	weight *mat.Dense // [num_classes, in_features]
	bias   []float64
}

// NewLinear creates a linear head from a [num_classes][in_features] weight
// matrix and an optional bias of length num_classes (nil for no bias).
func NewLinear(weight [][]float32, bias []float32, name string) (*Linear, error) {
	if len(weight) == 0 || len(weight[0]) == 0 {
		return nil, fmt.Errorf("linear head %q requires a non-empty weight matrix", name)
	}

	outSize := len(weight)
	inSize := len(weight[0])
	data := make([]float64, 0, outSize*inSize)
	for i, row := range weight {
		if len(row) != inSize {
			return nil, fmt.Errorf("linear head %q: weight row %d has length %d, expected %d", name, i, len(row), inSize)
		}
		for _, w := range row {
			data = append(data, float64(w))
		}
	}

	b := make([]float64, outSize)
	if bias != nil {
		if len(bias) != outSize {
			return nil, fmt.Errorf("linear head %q: bias length %d does not match %d classes", name, len(bias), outSize)
		}
		for i, v := range bias {
			b[i] = float64(v)
		}
	}

	return &Linear{
		name:   name,
		weight: mat.NewDense(outSize, inSize, data),
		bias:   b,
	}, nil
}

func (l *Linear) Spec() LayerSpec {
	out, in := l.weight.Dims()
	return LayerSpec{
		Type:           Dense,
		Name:           l.name,
		InputSize:      in,
		OutputSize:     out,
		ParameterCount: int64(out*in + len(l.bias)),
	}
}

// Forward computes logits for a batch of features.
func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if input == nil || input.DType != tensor.Float32 || len(input.Shape) != 2 {
		return nil, fmt.Errorf("linear head %q expects a Float32 [batch_size, in_features] tensor, got %v", l.name, input)
	}

	outSize, inSize := l.weight.Dims()
	batchSize := input.Shape[0]
	if input.Shape[1] != inSize {
		return nil, fmt.Errorf("linear head %q: input has %d features, expected %d", l.name, input.Shape[1], inSize)
	}

	// gonum rejects zero-sized matrices
	if batchSize == 0 {
		return tensor.Zeros([]int{0, outSize}, tensor.Float32, input.Device)
	}

	src := input.Data.([]float32)
	x := make([]float64, len(src))
	for i, v := range src {
		x[i] = float64(v)
	}

	var out mat.Dense
	out.Mul(mat.NewDense(batchSize, inSize, x), l.weight.T())

	result := make([]float32, batchSize*outSize)
	for i := 0; i < batchSize; i++ {
		for j := 0; j < outSize; j++ {
			result[i*outSize+j] = float32(out.At(i, j) + l.bias[j])
		}
	}

	return tensor.NewTensor([]int{batchSize, outSize}, tensor.Float32, input.Device, result)
}

// IdentityHead passes its input through unchanged. It is the head used when
// clipping is applied directly to logits.
type IdentityHead struct {
	name string
}

func NewIdentity(name string) *IdentityHead {
	return &IdentityHead{name: name}
}

func (h *IdentityHead) Spec() LayerSpec {
	return LayerSpec{Type: Identity, Name: h.name}
}

func (h *IdentityHead) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if input == nil {
		return nil, fmt.Errorf("identity head %q: nil input", h.name)
	}
	return input, nil
}
