package calibration

import (
	"fmt"
	"math"

	"github.com/tsawler/featureclip/layers"
	"github.com/tsawler/featureclip/tensor"
)

// Calibrator applies feature clipping in front of a frozen classifier head.
//
// A new Calibrator is unfitted (threshold +Inf, Forward equals the plain
// head). Fit replaces the threshold. Forward only reads state, so concurrent
// Forward calls are safe once fitting is done; callers must serialise Fit
// and SetThreshold themselves.
type Calibrator struct {
	head   layers.Head
	cfg    Config
	result Result
}

// New creates an unfitted calibrator. head may be nil only for LogitSpace.
func New(head layers.Head, cfg Config) (*Calibrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if head == nil {
		if cfg.Target == FeatureSpace {
			return nil, fmt.Errorf("%w: feature-space clipping needs a classifier head", ErrInvalidConfig)
		}
		head = layers.NewIdentity("logits")
	}

	return &Calibrator{
		head:   head,
		cfg:    cfg,
		result: Unfitted(cfg.Target, cfg.Criterion),
	}, nil
}

// NewFeatureClipping returns a feature-space calibrator with the default
// 2000-step scan.
func NewFeatureClipping(head layers.Head, criterion Criterion) (*Calibrator, error) {
	cfg := DefaultFeatureConfig()
	cfg.Criterion = criterion
	return New(head, cfg)
}

// NewLogitClipping returns a logit-space calibrator with the default
// 4000-step scan and an identity head.
func NewLogitClipping(criterion Criterion) (*Calibrator, error) {
	cfg := DefaultLogitConfig()
	cfg.Criterion = criterion
	return New(nil, cfg)
}

func (c *Calibrator) Threshold() float64 {
	return c.result.Threshold
}

func (c *Calibrator) Config() Config {
	return c.cfg
}

func (c *Calibrator) Head() layers.Head {
	return c.head
}

// Result returns the outcome of the last Fit, or the unfitted result.
func (c *Calibrator) Result() Result {
	return c.result
}

// SetThreshold overrides the clip value without searching. +Inf restores the
// identity transform.
func (c *Calibrator) SetThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 {
		return fmt.Errorf("%w: threshold must be non-negative, got %v", ErrInvalidConfig, threshold)
	}
	res := Unfitted(c.cfg.Target, c.cfg.Criterion)
	res.Threshold = threshold
	c.result = res
	return nil
}

// Fit searches the threshold on validation data and returns the calibrator.
// features is ignored for LogitSpace; logits is optional for FeatureSpace.
// On error the previous threshold is kept.
func (c *Calibrator) Fit(features, logits, labels *tensor.Tensor) (*Calibrator, error) {
	head := c.head
	if c.cfg.Target == LogitSpace {
		features = nil
	}

	res, err := Fit(head, features, logits, labels, c.cfg)
	if err != nil {
		return c, err
	}
	c.result = res
	return c, nil
}

// Forward clips input with the current threshold and classifies it.
func (c *Calibrator) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return c.result.Apply(c.head, input)
}
