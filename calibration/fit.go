package calibration

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/tsawler/featureclip/layers"
	"github.com/tsawler/featureclip/tensor"
	"github.com/tsawler/featureclip/training"
)

// Result is the immutable outcome of a threshold search. The zero value is
// not usable; start from Unfitted.
type Result struct {
	RunID     string
	Target    Target
	Criterion Criterion

	// Threshold is the selected clip value C, +Inf when nothing was scanned.
	Threshold float64

	ThresholdECE float64 // first scanned minimiser of ECE
	ThresholdNLL float64 // first scanned minimiser of NLL
	BestECE      float64
	BestNLL      float64

	// Metrics of the unclipped model on the same validation data.
	BaselineECE float64
	BaselineNLL float64

	// Trace is nil unless Config.RecordTrace was set.
	Trace *Trace
}

// Unfitted returns the identity result: every threshold is +Inf.
func Unfitted(target Target, criterion Criterion) Result {
	inf := math.Inf(1)
	return Result{
		Target:       target,
		Criterion:    criterion,
		Threshold:    inf,
		ThresholdECE: inf,
		ThresholdNLL: inf,
		BestECE:      inf,
		BestNLL:      inf,
		BaselineECE:  math.NaN(),
		BaselineNLL:  math.NaN(),
	}
}

// Fitted reports whether a search produced a finite threshold.
func (r Result) Fitted() bool {
	return !math.IsInf(r.Threshold, 1)
}

// Apply clips x at the result's threshold and runs head on it. A nil head is
// treated as the identity, which is what LogitSpace results normally use.
func (r Result) Apply(head layers.Head, x *tensor.Tensor) (*tensor.Tensor, error) {
	return clipAndClassify(head, x, r.Threshold)
}

// Clip is the symmetric clamp to [-c, c]; c = +Inf returns an equal copy.
func Clip(x *tensor.Tensor, c float64) (*tensor.Tensor, error) {
	if math.IsNaN(c) || c < 0 {
		return nil, fmt.Errorf("%w: threshold must be non-negative, got %v", ErrInvalidConfig, c)
	}
	return tensor.ClampSymmetric(x, c)
}

func clipAndClassify(head layers.Head, x *tensor.Tensor, c float64) (*tensor.Tensor, error) {
	clipped, err := Clip(x, c)
	if err != nil {
		return nil, err
	}
	if head == nil {
		return clipped, nil
	}
	return head.Forward(clipped)
}

// Fit grid-searches the clip threshold on held-out data.
//
// For FeatureSpace, features is clipped and passed through head; logits is
// optional and only used for the baseline metrics. For LogitSpace, logits is
// clipped and head may be nil (identity). Ties keep the smallest scanned
// threshold. Inputs are never modified.
func Fit(head layers.Head, features, logits, labels *tensor.Tensor, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	input, err := searchInput(head, features, logits, cfg.Target)
	if err != nil {
		return Result{}, err
	}
	if err := checkBatch(input, labels); err != nil {
		return Result{}, err
	}
	if cfg.Target == FeatureSpace && logits != nil {
		if err := checkBatch(logits, labels); err != nil {
			return Result{}, fmt.Errorf("logits: %w", err)
		}
	}

	nllCriterion := training.NewCrossEntropyLoss("mean")
	eceCriterion := training.NewECELoss(cfg.NumBins)

	res := Unfitted(cfg.Target, cfg.Criterion)
	res.RunID = uuid.New().String()

	baseline := logits
	if cfg.Target == FeatureSpace {
		if baseline, err = clipAndClassify(head, features, math.Inf(1)); err != nil {
			return Result{}, fmt.Errorf("baseline forward failed: %v", err)
		}
	} else if head != nil {
		if baseline, err = head.Forward(logits); err != nil {
			return Result{}, fmt.Errorf("baseline forward failed: %v", err)
		}
	}
	if res.BaselineNLL, err = nllCriterion.Forward(baseline, labels); err != nil {
		return Result{}, fmt.Errorf("baseline nll failed: %v", err)
	}
	if res.BaselineECE, err = eceCriterion.Forward(baseline, labels); err != nil {
		return Result{}, fmt.Errorf("baseline ece failed: %v", err)
	}

	maxAbs, err := tensor.MaxAbs(input)
	if err != nil {
		return Result{}, err
	}
	cfg.logf("feature clipping [%s]: scanning %d thresholds from %.4f by %.4f on %d samples (max |x| = %.4f, %s)",
		res.RunID, cfg.Steps, cfg.Start, cfg.Increment, labels.Rows(), maxAbs, cfg.Target)

	if cfg.RecordTrace {
		res.Trace = &Trace{RunID: res.RunID, Target: cfg.Target, Criterion: cfg.Criterion}
	}

	var bar *training.ProgressBar
	refresh := cfg.Steps/100 + 1
	if cfg.Progress != nil {
		bar = training.NewProgressBar(fmt.Sprintf("clip search (%s)", cfg.Target), cfg.Steps, cfg.Progress)
	}

	for q := 0; q < cfg.Steps; q++ {
		c := cfg.Candidate(q)

		out, err := clipAndClassify(head, input, c)
		if err != nil {
			return Result{}, fmt.Errorf("forward at C=%v failed: %w", c, err)
		}
		nll, err := nllCriterion.Forward(out, labels)
		if err != nil {
			return Result{}, fmt.Errorf("nll at C=%v failed: %v", c, err)
		}
		ece, err := eceCriterion.Forward(out, labels)
		if err != nil {
			return Result{}, fmt.Errorf("ece at C=%v failed: %v", c, err)
		}

		if nll < res.BestNLL {
			res.BestNLL = nll
			res.ThresholdNLL = c
		}
		if ece < res.BestECE {
			res.BestECE = ece
			res.ThresholdECE = c
		}

		if res.Trace != nil || (cfg.LogEvery > 0 && q%cfg.LogEvery == 0) {
			acc, err := training.ComputeAccuracy(out, labels)
			if err != nil {
				return Result{}, fmt.Errorf("accuracy at C=%v failed: %v", c, err)
			}
			if res.Trace != nil {
				res.Trace.Points = append(res.Trace.Points, TracePoint{Threshold: c, ECE: ece, NLL: nll, Accuracy: acc})
			}
			if cfg.LogEvery > 0 && q%cfg.LogEvery == 0 {
				cfg.logf("  step %d: C=%.4f ece=%.6f nll=%.6f acc=%.4f", q, c, ece, nll, acc)
			}
		}

		if bar != nil && (q+1)%refresh == 0 {
			bar.Update(q+1, map[string]float64{"best_ece": res.BestECE, "best_nll": res.BestNLL})
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if cfg.Criterion == ECE {
		res.Threshold = res.ThresholdECE
	} else {
		res.Threshold = res.ThresholdNLL
	}
	if res.Trace != nil {
		res.Trace.Selected = res.Threshold
	}

	cfg.logf("feature clipping [%s]: selected C=%v by %s (ece %.6f -> %.6f, nll %.6f -> %.6f)",
		res.RunID, res.Threshold, cfg.Criterion, res.BaselineECE, res.BestECE, res.BaselineNLL, res.BestNLL)

	return res, nil
}

// searchInput picks the tensor that gets clipped for the target.
func searchInput(head layers.Head, features, logits *tensor.Tensor, target Target) (*tensor.Tensor, error) {
	switch target {
	case FeatureSpace:
		if head == nil {
			return nil, fmt.Errorf("%w: feature-space clipping needs a classifier head", ErrInvalidConfig)
		}
		if features == nil {
			return nil, fmt.Errorf("%w: feature-space clipping needs validation features", ErrInvalidConfig)
		}
		return features, nil
	default:
		if logits == nil {
			return nil, fmt.Errorf("%w: logit-space clipping needs validation logits", ErrInvalidConfig)
		}
		return logits, nil
	}
}

// checkBatch verifies x is a 2-D Float32 batch aligned with a 1-D label
// vector holding at least one sample.
func checkBatch(x, labels *tensor.Tensor) error {
	if x.DType != tensor.Float32 || len(x.Shape) != 2 {
		return fmt.Errorf("%w: expected a 2D Float32 tensor, got %v", ErrShapeMismatch, x)
	}
	if labels == nil || labels.DType != tensor.Int32 || len(labels.Shape) != 1 {
		return fmt.Errorf("%w: labels must be a 1D Int32 tensor, got %v", ErrShapeMismatch, labels)
	}
	if x.Shape[0] != labels.Shape[0] {
		return fmt.Errorf("%w: batch size %d but %d labels", ErrShapeMismatch, x.Shape[0], labels.Shape[0])
	}
	if x.Shape[0] == 0 {
		return fmt.Errorf("%w: validation set is empty", ErrInsufficientData)
	}
	return nil
}
