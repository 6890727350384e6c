/*Package radiometry converts IRIS pixel data between detector counts,
photon counts, exposure-corrected rates, and physical radiance.

Every operation is a pure function over (data, uncertainty, unit): it either
returns freshly allocated arrays and the new unit, or an error with the
inputs untouched.  Uncertainty arrays ride along through every scale factor.
The dust mask calculation lives here too; applying a mask to a cube is the
container's job (package cube) since it is the one in-place mutation in the
system.
*/
package radiometry

import (
	"errors"
	"fmt"

	"github.jpl.nasa.gov/bdube/goiris/detector"
	"github.jpl.nasa.gov/bdube/goiris/ndarray"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

var (
	// ErrZeroExposure is returned when an exposure time entry is zero or
	// negative; dividing by it would destroy the data irrecoverably.
	ErrZeroExposure = errors.New("radiometry: exposure time entries must be positive")

	// ErrShapeMismatch is returned when data and uncertainty arrays
	// disagree in shape.
	ErrShapeMismatch = errors.New("radiometry: data and uncertainty shapes differ")
)

// checkPair validates the data/uncertainty pairing shared by all
// operations.  uncertainty may be nil.
func checkPair(data, uncertainty *ndarray.Array) error {
	if data == nil {
		return errors.New("radiometry: nil data array")
	}
	if data.NDim() < 1 || data.NDim() > 3 {
		return &ndarray.DimensionalityError{Op: "radiometry", Rank: data.NDim()}
	}
	if uncertainty != nil && !data.SameShape(uncertainty) {
		return ErrShapeMismatch
	}
	return nil
}

// ConvertDNPhoton converts between the DN and photon unit families using the
// fixed per-channel gain.  target must be the counting equivalent of the
// current unit (time exponent preserved) or equal to it, in which case the
// call is a no-op copy.  The conversion round-trips to within floating point
// tolerance.
func ConvertDNPhoton(data, uncertainty *ndarray.Array, current units.Unit, det detector.Type, target units.Unit) (*ndarray.Array, *ndarray.Array, units.Unit, error) {
	if err := checkPair(data, uncertainty); err != nil {
		return nil, nil, units.Invalid, err
	}
	if current == target {
		// self loop, equal-valued copy
		return data.Clone(), uncertainty.Clone(), current, nil
	}
	equiv, fromPhoton, err := current.CountingEquivalent()
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	if target != equiv {
		return nil, nil, units.Invalid, &units.UnsupportedUnitError{
			Have: target.String(),
			Want: fmt.Sprintf("%s or %s", current, equiv)}
	}
	gain := det.DNToPhoton()
	if gain == 0 {
		return nil, nil, units.Invalid, fmt.Errorf("radiometry: no DN gain for detector %s", det)
	}
	factor := gain
	if fromPhoton {
		factor = 1 / gain
	}
	return data.Scale(factor), uncertainty.Scale(factor), target, nil
}

// expandExposure normalizes the exposure vector against the data: a single
// value broadcasts to every frame, otherwise one entry per axis 0 index is
// required.  All entries must be positive.
func expandExposure(data *ndarray.Array, exposure []float64) ([]float64, error) {
	if len(exposure) == 0 {
		return nil, errors.New("radiometry: empty exposure time")
	}
	for _, e := range exposure {
		if e <= 0 {
			return nil, ErrZeroExposure
		}
	}
	nframes := data.Shape[0]
	if len(exposure) == 1 && nframes != 1 {
		out := make([]float64, nframes)
		for i := range out {
			out[i] = exposure[0]
		}
		return out, nil
	}
	if len(exposure) != nframes {
		return nil, fmt.Errorf("radiometry: %d exposure times for %d frames", len(exposure), nframes)
	}
	return exposure, nil
}

// ApplyExposureTimeCorrection divides data and uncertainty by the exposure
// time, broadcast over the non-time axes, and divides a second out of the
// unit.  Unless force is set, units already carrying inverse time are
// refused with units.ErrAlreadyCorrected.
func ApplyExposureTimeCorrection(data, uncertainty *ndarray.Array, current units.Unit, exposure []float64, force bool) (*ndarray.Array, *ndarray.Array, units.Unit, error) {
	if err := checkPair(data, uncertainty); err != nil {
		return nil, nil, units.Invalid, err
	}
	next, err := current.PerSecond(force)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	exp, err := expandExposure(data, exposure)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	inv := make([]float64, len(exp))
	for i, e := range exp {
		inv[i] = 1 / e
	}
	newData, err := data.ScaleFrames(inv)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	var newUncert *ndarray.Array
	if uncertainty != nil {
		newUncert, err = uncertainty.ScaleFrames(inv)
		if err != nil {
			return nil, nil, units.Invalid, err
		}
	}
	return newData, newUncert, next, nil
}

// UndoExposureTimeCorrection multiplies the exposure time back in, the exact
// inverse of ApplyExposureTimeCorrection.  Unless force is set, units
// without inverse time are refused with units.ErrNotCorrected.
func UndoExposureTimeCorrection(data, uncertainty *ndarray.Array, current units.Unit, exposure []float64, force bool) (*ndarray.Array, *ndarray.Array, units.Unit, error) {
	if err := checkPair(data, uncertainty); err != nil {
		return nil, nil, units.Invalid, err
	}
	next, err := current.TimesSecond(force)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	exp, err := expandExposure(data, exposure)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	newData, err := data.ScaleFrames(exp)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	var newUncert *ndarray.Array
	if uncertainty != nil {
		newUncert, err = uncertainty.ScaleFrames(exp)
		if err != nil {
			return nil, nil, units.Invalid, err
		}
	}
	return newData, newUncert, next, nil
}
