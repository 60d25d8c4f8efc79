package calibration

import (
	"fmt"
	"io"
	"log"
	"math"
	"strings"
)

// Target selects which tensor the threshold is applied to.
type Target int

const (
	// FeatureSpace clips penultimate features before the classifier head.
	FeatureSpace Target = iota
	// LogitSpace clips the classifier's output logits directly.
	LogitSpace
)

func (t Target) String() string {
	switch t {
	case FeatureSpace:
		return "features"
	case LogitSpace:
		return "logits"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// ParseTarget accepts "features" or "logits" in any case.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "features":
		return FeatureSpace, nil
	case "logits":
		return LogitSpace, nil
	default:
		return 0, fmt.Errorf("%w: unknown target %q (want features or logits)", ErrInvalidConfig, s)
	}
}

// Criterion is the validation metric minimised by the threshold search.
type Criterion int

const (
	ECE Criterion = iota
	NLL
)

func (c Criterion) String() string {
	switch c {
	case ECE:
		return "ece"
	case NLL:
		return "nll"
	default:
		return fmt.Sprintf("Criterion(%d)", int(c))
	}
}

// ParseCriterion accepts "ece" or "nll" in any case.
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ece":
		return ECE, nil
	case "nll":
		return NLL, nil
	default:
		return 0, fmt.Errorf("%w: unknown criterion %q (want ece or nll)", ErrInvalidConfig, s)
	}
}

const (
	DefaultIncrement    = 0.01
	DefaultFeatureSteps = 2000
	DefaultLogitSteps   = 4000
)

// Config controls the threshold grid search. Candidates are
// Start + q*Increment for q in [0, Steps).
type Config struct {
	Target    Target
	Criterion Criterion
	Start     float64
	Increment float64
	Steps     int

	// NumBins is the ECE bin count; 0 selects training.DefaultECEBins.
	NumBins int

	// RecordTrace keeps every scanned (threshold, ECE, NLL, accuracy) point.
	RecordTrace bool

	// Logger receives a summary line per fit; nil disables logging.
	Logger *log.Logger
	// LogEvery additionally logs every n-th scanned candidate when > 0.
	LogEvery int

	// Progress, if set, receives a live progress bar for the scan.
	Progress io.Writer
}

// DefaultFeatureConfig scans feature-space thresholds 0.00 .. 19.99.
func DefaultFeatureConfig() Config {
	return Config{
		Target:      FeatureSpace,
		Criterion:   ECE,
		Increment:   DefaultIncrement,
		Steps:       DefaultFeatureSteps,
		RecordTrace: true,
	}
}

// DefaultLogitConfig scans logit-space thresholds 0.00 .. 39.99.
func DefaultLogitConfig() Config {
	return Config{
		Target:      LogitSpace,
		Criterion:   ECE,
		Increment:   DefaultIncrement,
		Steps:       DefaultLogitSteps,
		RecordTrace: true,
	}
}

// LegacyModelConfig reproduces the single-candidate scan (C = 0.01) that the
// live-model wrapper historically ran. Prefer DefaultFeatureConfig.
func LegacyModelConfig() Config {
	cfg := DefaultFeatureConfig()
	cfg.Start = 0.01
	cfg.Steps = 1
	return cfg
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Target != FeatureSpace && c.Target != LogitSpace {
		return fmt.Errorf("%w: unknown target %s", ErrInvalidConfig, c.Target)
	}
	if c.Criterion != ECE && c.Criterion != NLL {
		return fmt.Errorf("%w: unknown criterion %s", ErrInvalidConfig, c.Criterion)
	}
	if math.IsNaN(c.Increment) || math.IsInf(c.Increment, 0) || c.Increment < 0 {
		return fmt.Errorf("%w: increment must be finite and non-negative, got %v", ErrInvalidConfig, c.Increment)
	}
	if math.IsNaN(c.Start) || math.IsInf(c.Start, 0) || c.Start < 0 {
		return fmt.Errorf("%w: start must be finite and non-negative, got %v", ErrInvalidConfig, c.Start)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidConfig, c.Steps)
	}
	if c.NumBins < 0 {
		return fmt.Errorf("%w: bins must be non-negative, got %d", ErrInvalidConfig, c.NumBins)
	}
	return nil
}

// Candidate returns the q-th scanned threshold.
func (c Config) Candidate(q int) float64 {
	return c.Start + float64(q)*c.Increment
}

func (c Config) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
