package calibration

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/featureclip/training"
)

// TracePoint is the validation outcome of one scanned threshold.
type TracePoint struct {
	Threshold float64
	ECE       float64
	NLL       float64
	Accuracy  float64
}

// Trace records every candidate of a search in scan order.
type Trace struct {
	RunID     string
	Target    Target
	Criterion Criterion
	Selected  float64
	Points    []TracePoint
}

// Len is safe on a nil trace.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Points)
}

// Thresholds returns the scanned candidates in order.
func (t *Trace) Thresholds() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.Threshold
	}
	return out
}

// BestBy returns the first point minimising the criterion. ok is false for
// an empty trace.
func (t *Trace) BestBy(criterion Criterion) (best TracePoint, ok bool) {
	bestVal := math.Inf(1)
	for _, p := range t.Points {
		v := p.ECE
		if criterion == NLL {
			v = p.NLL
		}
		if v < bestVal {
			bestVal = v
			best = p
			ok = true
		}
	}
	return best, ok
}

// AsStruct converts the trace into a protobuf Struct so an evaluation
// pipeline can embed it in its own messages. Points are stored column-wise.
func (t *Trace) AsStruct() (*structpb.Struct, error) {
	n := len(t.Points)
	thresholds := make([]interface{}, n)
	eces := make([]interface{}, n)
	nlls := make([]interface{}, n)
	accs := make([]interface{}, n)

	for i, p := range t.Points {
		for _, v := range []float64{p.Threshold, p.ECE, p.NLL, p.Accuracy} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("trace point %d has non-finite value %v", i, v)
			}
		}
		thresholds[i] = p.Threshold
		eces[i] = p.ECE
		nlls[i] = p.NLL
		accs[i] = p.Accuracy
	}

	fields := map[string]interface{}{
		"run_id":     t.RunID,
		"target":     t.Target.String(),
		"criterion":  t.Criterion.String(),
		"steps":      n,
		"thresholds": thresholds,
		"ece":        eces,
		"nll":        nlls,
		"accuracy":   accs,
	}
	// JSON has no infinity; an unfitted trace simply omits the selection.
	if !math.IsInf(t.Selected, 0) && !math.IsNaN(t.Selected) {
		fields["selected"] = t.Selected
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace struct: %v", err)
	}
	return s, nil
}

// MarshalJSON renders the trace through protojson.
func (t *Trace) MarshalJSON() ([]byte, error) {
	s, err := t.AsStruct()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// Record hands the sweep to a plot collector.
func (t *Trace) Record(vc *training.VisualizationCollector) {
	points := make([]training.SweepPoint, len(t.Points))
	for i, p := range t.Points {
		points[i] = training.SweepPoint{Threshold: p.Threshold, ECE: p.ECE, NLL: p.NLL, Accuracy: p.Accuracy}
	}
	selected := t.Selected
	if math.IsInf(selected, 0) || math.IsNaN(selected) {
		selected = -1
	}
	vc.RecordSweep(points, selected)
}
