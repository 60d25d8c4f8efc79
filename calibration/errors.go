package calibration

import "errors"

var (
	// ErrShapeMismatch is returned when a tensor's batch size differs from the label count.
	ErrShapeMismatch = errors.New("dimension mismatch")
	// ErrInvalidConfig is returned for unusable search settings or thresholds.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInsufficientData is returned when the validation set is empty.
	ErrInsufficientData = errors.New("insufficient data")
)
