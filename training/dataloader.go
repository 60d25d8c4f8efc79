package training

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/tsawler/featureclip/tensor"
)

// Dataset interface defines methods that all validation datasets must implement
type Dataset interface {
	Len() int                                                   // Total number of samples
	Get(idx int) (input *tensor.Tensor, label int32, err error) // Returns a single 1-D Float32 sample
}

// DataLoader batches a Dataset into (input, label) pairs
type DataLoader struct {
	dataset   Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	indices   []int
	position  int
	mutex     sync.Mutex
}

// NewDataLoader creates a new DataLoader. seed is only used when shuffle is set.
func NewDataLoader(dataset Dataset, batchSize int, shuffle bool, seed int64) *DataLoader {
	if batchSize <= 0 {
		batchSize = 1
	}

	datasetLen := dataset.Len()
	indices := make([]int, datasetLen)
	for i := range indices {
		indices[i] = i
	}

	dl := &DataLoader{
		dataset:   dataset,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		indices:   indices,
	}
	dl.Reset()
	return dl
}

// Batch represents a batch of inputs [batch_size, dim] and labels [batch_size]
type Batch struct {
	Data   *tensor.Tensor
	Labels *tensor.Tensor
}

// Size returns the number of samples in the batch
func (b *Batch) Size() int {
	return b.Labels.Rows()
}

// Len returns the number of batches in an epoch
func (dl *DataLoader) Len() int {
	return (dl.dataset.Len() + dl.batchSize - 1) / dl.batchSize
}

// Reset rewinds the loader, reshuffling when enabled
func (dl *DataLoader) Reset() {
	dl.mutex.Lock()
	defer dl.mutex.Unlock()

	dl.position = 0

	if dl.shuffle {
		for i := len(dl.indices) - 1; i > 0; i-- {
			j := dl.rng.Intn(i + 1)
			dl.indices[i], dl.indices[j] = dl.indices[j], dl.indices[i]
		}
	}
}

// Next returns the next batch or nil once the epoch is complete
func (dl *DataLoader) Next() (*Batch, error) {
	dl.mutex.Lock()
	defer dl.mutex.Unlock()

	if dl.position >= len(dl.indices) {
		return nil, nil // End of epoch
	}

	batchEnd := dl.position + dl.batchSize
	if batchEnd > len(dl.indices) {
		batchEnd = len(dl.indices)
	}

	batchIndices := dl.indices[dl.position:batchEnd]
	dl.position = batchEnd

	batch, err := dl.loadBatch(batchIndices)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %v", err)
	}

	return batch, nil
}

// loadBatch loads samples and stacks them into batched tensors
func (dl *DataLoader) loadBatch(indices []int) (*Batch, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("empty batch indices")
	}

	first, _, err := dl.dataset.Get(indices[0])
	if err != nil {
		return nil, fmt.Errorf("failed to load sample %d: %v", indices[0], err)
	}
	if first.DType != tensor.Float32 || len(first.Shape) != 1 {
		return nil, fmt.Errorf("samples must be 1D Float32 tensors, got %v", first)
	}

	dim := first.Shape[0]
	data := make([]float32, 0, len(indices)*dim)
	labels := make([]int32, len(indices))

	for i, idx := range indices {
		sample, label, err := dl.dataset.Get(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to load sample %d: %v", idx, err)
		}
		if sample.DType != tensor.Float32 || len(sample.Shape) != 1 || sample.Shape[0] != dim {
			return nil, fmt.Errorf("sample %d has shape %v, expected [%d]", idx, sample.Shape, dim)
		}
		data = append(data, sample.Data.([]float32)...)
		labels[i] = label
	}

	batchData, err := tensor.NewTensor([]int{len(indices), dim}, tensor.Float32, tensor.CPU, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch data tensor: %v", err)
	}

	batchLabels, err := tensor.Labels(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch labels tensor: %v", err)
	}

	return &Batch{
		Data:   batchData,
		Labels: batchLabels,
	}, nil
}

// TensorDataset serves rows of an in-memory [N, dim] tensor with their labels
type TensorDataset struct {
	inputs *tensor.Tensor
	labels []int32
}

// NewTensorDataset creates a dataset over pre-extracted inputs and labels
func NewTensorDataset(inputs, labels *tensor.Tensor) (*TensorDataset, error) {
	if inputs == nil || inputs.DType != tensor.Float32 || len(inputs.Shape) != 2 {
		return nil, fmt.Errorf("inputs must be a 2D Float32 tensor, got %v", inputs)
	}
	labelData, err := labels.GetInt32Data()
	if err != nil {
		return nil, fmt.Errorf("labels: %v", err)
	}
	if len(labelData) != inputs.Shape[0] {
		return nil, fmt.Errorf("inputs and labels must have same length: %d vs %d", inputs.Shape[0], len(labelData))
	}

	return &TensorDataset{inputs: inputs, labels: labelData}, nil
}

func (ds *TensorDataset) Len() int {
	return len(ds.labels)
}

func (ds *TensorDataset) Get(idx int) (*tensor.Tensor, int32, error) {
	if idx < 0 || idx >= len(ds.labels) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", idx, len(ds.labels))
	}

	row, err := ds.inputs.Row(idx)
	if err != nil {
		return nil, 0, err
	}
	sample, err := tensor.NewTensor([]int{len(row)}, tensor.Float32, tensor.CPU, row)
	if err != nil {
		return nil, 0, err
	}

	return sample, ds.labels[idx], nil
}
