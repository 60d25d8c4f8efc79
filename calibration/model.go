package calibration

import (
	"fmt"

	"github.com/tsawler/featureclip/layers"
	"github.com/tsawler/featureclip/tensor"
	"github.com/tsawler/featureclip/training"
)

// Model is an externally trained classifier that exposes its penultimate
// features next to its logits.
type Model interface {
	// Forward returns logits [batch, classes] and features [batch, dim].
	Forward(input *tensor.Tensor) (logits, features *tensor.Tensor, err error)
	// Classifier maps features to logits.
	Classifier() layers.Head
}

// BatchSource enumerates (input, label) batches. *training.DataLoader
// satisfies it.
type BatchSource interface {
	Reset()
	Next() (*training.Batch, error)
}

// ModelWithFeatureClipping wraps a live model so that every forward pass
// clips features before classification.
type ModelWithFeatureClipping struct {
	model      Model
	calibrator *Calibrator
}

// NewModelWithFeatureClipping wraps model. cfg must target FeatureSpace.
func NewModelWithFeatureClipping(model Model, cfg Config) (*ModelWithFeatureClipping, error) {
	if cfg.Target != FeatureSpace {
		return nil, fmt.Errorf("%w: model wrapper clips features, got target %s", ErrInvalidConfig, cfg.Target)
	}
	cal, err := New(model.Classifier(), cfg)
	if err != nil {
		return nil, err
	}
	return &ModelWithFeatureClipping{model: model, calibrator: cal}, nil
}

// FeatureClip returns the current threshold (+Inf until tuned).
func (m *ModelWithFeatureClipping) FeatureClip() float64 {
	return m.calibrator.Threshold()
}

func (m *ModelWithFeatureClipping) Calibrator() *Calibrator {
	return m.calibrator
}

// Forward runs the model and returns logits computed from clipped features.
func (m *ModelWithFeatureClipping) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	logits, _, err := m.ForwardWithFeatures(input)
	return logits, err
}

// ForwardWithFeatures is Forward that also returns the clipped features.
func (m *ModelWithFeatureClipping) ForwardWithFeatures(input *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	_, features, err := m.model.Forward(input)
	if err != nil {
		return nil, nil, fmt.Errorf("model forward failed: %v", err)
	}
	clipped, err := Clip(features, m.calibrator.Threshold())
	if err != nil {
		return nil, nil, err
	}
	logits, err := m.calibrator.Head().Forward(clipped)
	if err != nil {
		return nil, nil, fmt.Errorf("classifier forward failed: %v", err)
	}
	return logits, clipped, nil
}

// Tune runs the model over every batch of valid, then fits the threshold on
// the collected features.
func (m *ModelWithFeatureClipping) Tune(valid BatchSource) (Result, error) {
	logits, features, labels, err := Collect(m.model, valid)
	if err != nil {
		return Result{}, err
	}
	if _, err := m.calibrator.Fit(features, logits, labels); err != nil {
		return Result{}, err
	}
	return m.calibrator.Result(), nil
}

// Collect runs model over all batches of src and concatenates logits,
// features and labels.
func Collect(model Model, src BatchSource) (logits, features, labels *tensor.Tensor, err error) {
	src.Reset()

	var logitBatches, featureBatches, labelBatches []*tensor.Tensor
	for {
		batch, err := src.Next()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to read validation batch: %v", err)
		}
		if batch == nil {
			break
		}

		l, f, err := model.Forward(batch.Data)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("model forward failed: %v", err)
		}
		if l.Rows() != batch.Size() || f.Rows() != batch.Size() {
			return nil, nil, nil, fmt.Errorf("%w: model returned %d logits and %d features for %d samples",
				ErrShapeMismatch, l.Rows(), f.Rows(), batch.Size())
		}
		logitBatches = append(logitBatches, l)
		featureBatches = append(featureBatches, f)
		labelBatches = append(labelBatches, batch.Labels)
	}

	if len(labelBatches) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: validation loader produced no batches", ErrInsufficientData)
	}

	if logits, err = tensor.Concat(logitBatches); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to concatenate logits: %v", err)
	}
	if features, err = tensor.Concat(featureBatches); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to concatenate features: %v", err)
	}
	if labels, err = tensor.Concat(labelBatches); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to concatenate labels: %v", err)
	}
	return logits, features, labels, nil
}
