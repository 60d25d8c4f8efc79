package training

import (
	"fmt"

	"github.com/tsawler/featureclip/tensor"
)

// SubsetDataset exposes a contiguous window of an underlying dataset, e.g.
// the held-out tail used for calibration.
type SubsetDataset struct {
	originalDataset Dataset
	offset          int
	limit           int
}

// NewSubsetDataset wraps original and exposes samples [offset, offset+limit).
// limit is truncated to what the original dataset can provide.
func NewSubsetDataset(original Dataset, offset, limit int) (*SubsetDataset, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("offset and limit cannot be negative")
	}
	if offset > original.Len() {
		return nil, fmt.Errorf("offset %d beyond dataset length %d", offset, original.Len())
	}
	if offset+limit > original.Len() {
		limit = original.Len() - offset
	}
	return &SubsetDataset{
		originalDataset: original,
		offset:          offset,
		limit:           limit,
	}, nil
}

// SplitDataset divides a dataset into a leading part and a held-out part
// holding roughly heldOutFraction of the samples.
func SplitDataset(original Dataset, heldOutFraction float64) (*SubsetDataset, *SubsetDataset, error) {
	if heldOutFraction < 0 || heldOutFraction > 1 {
		return nil, nil, fmt.Errorf("held-out fraction must be in [0, 1], got %v", heldOutFraction)
	}
	n := original.Len()
	heldOut := int(float64(n) * heldOutFraction)

	head, err := NewSubsetDataset(original, 0, n-heldOut)
	if err != nil {
		return nil, nil, err
	}
	tail, err := NewSubsetDataset(original, n-heldOut, heldOut)
	if err != nil {
		return nil, nil, err
	}
	return head, tail, nil
}

func (sd *SubsetDataset) Len() int {
	return sd.limit
}

func (sd *SubsetDataset) Get(idx int) (*tensor.Tensor, int32, error) {
	if idx < 0 || idx >= sd.limit {
		return nil, 0, fmt.Errorf("index out of bounds for subset: %d (limit: %d)", idx, sd.limit)
	}
	return sd.originalDataset.Get(sd.offset + idx)
}
