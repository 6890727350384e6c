package response

import (
	"fmt"
	"math"

	"github.jpl.nasa.gov/bdube/goiris/mathx"
)

const (
	// transitionExp smooths the handoff between adjacent epoch fits.
	transitionExp = 1.5

	// secondsPerYear converts utime deltas to the years the fit
	// coefficients were derived in (Julian year, 365.25 days).
	secondsPerYear = 365.25 * 86400
)

// FitThroughput evaluates a piecewise time-segmented throughput fit at an
// observation time.
//
// intervals are the calibration epochs in increasing order; coeffs holds one
// [a, b, c] triple per epoch.  Within an epoch the fitted value is
// a + b*exp(c*dt) with dt in years from the epoch start.  In the gap between
// one epoch's end and the next epoch's start, both neighbouring fits are
// evaluated and blended with weights (1-u)^1.5 and u^1.5, u being the
// normalized position in the gap, so the curve stays smooth across epoch
// boundaries.
//
// Observation times before the first epoch evaluate as if at the first
// epoch's start; times after the last epoch's end evaluate as if at the last
// epoch's end.  There is no extrapolation beyond the calibrated span.
func FitThroughput(tObs float64, intervals []Interval, coeffs [][]float64) (float64, error) {
	if len(intervals) == 0 {
		return 0, fmt.Errorf("response: no calibration epochs")
	}
	if len(coeffs) != len(intervals) {
		return 0, fmt.Errorf("response: %d coefficient sets for %d epochs", len(coeffs), len(intervals))
	}
	for i, c := range coeffs {
		if len(c) != 3 {
			return 0, fmt.Errorf("response: epoch %d: want 3 coefficients, got %d", i, len(c))
		}
	}

	// clamp to the calibrated span
	last := len(intervals) - 1
	t := mathx.Clamp(tObs, intervals[0].Start, intervals[last].End)

	// ordered search for the governing epoch: last epoch whose start is
	// at or before t
	w := 0
	for w < last && t >= intervals[w+1].Start {
		w++
	}

	if t <= intervals[w].End || w == last {
		return evalEpoch(t, intervals[w], coeffs[w]), nil
	}

	// t falls in the gap between epoch w and w+1; blend the two fits
	u := (t - intervals[w].End) / (intervals[w+1].Start - intervals[w].End)
	w0 := math.Pow(1-u, transitionExp)
	w1 := math.Pow(u, transitionExp)
	v0 := evalEpoch(t, intervals[w], coeffs[w])
	v1 := evalEpoch(t, intervals[w+1], coeffs[w+1])
	return w0*v0 + w1*v1, nil
}

func evalEpoch(t float64, iv Interval, c []float64) float64 {
	dt := (t - iv.Start) / secondsPerYear
	return c[0] + c[1]*math.Exp(c[2]*dt)
}
