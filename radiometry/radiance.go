package radiometry

import (
	"errors"
	"fmt"

	"github.jpl.nasa.gov/bdube/goiris/ndarray"
	"github.jpl.nasa.gov/bdube/goiris/response"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

// hc is the photon energy scale, erg Angstrom; E = hc / lambda.
const hc = 1.9864458571489287e-8

// RadianceParams carries the geometry and calibration inputs for the
// radiance conversion.  Axis resolution (which WCS axis is spectral, the
// plate scale behind the solid angle) is the caller's problem; by the time
// values arrive here they are plain scalars and vectors.
type RadianceParams struct {
	// ObsTime is the observation time, utime seconds.
	ObsTime float64

	// Table is the calibration table to draw effective areas from.
	Table *response.Table

	// Segment names the detector segment in the table, e.g. "FUV1".
	Segment string

	// Wavelength is the wavelength of each spectral bin, Angstrom, one
	// entry per index of the last data axis.
	Wavelength []float64

	// Dispersion is the spectral width of one pixel, Angstrom.
	Dispersion float64

	// SolidAngle is the sky solid angle subtended by one pixel,
	// steradian.
	SolidAngle float64
}

func (p RadianceParams) validate(data *ndarray.Array) error {
	if p.Table == nil {
		return errors.New("radiometry: radiance conversion requires a calibration table")
	}
	if p.Dispersion <= 0 {
		return fmt.Errorf("radiometry: nonpositive spectral dispersion %g", p.Dispersion)
	}
	if p.SolidAngle <= 0 {
		return fmt.Errorf("radiometry: nonpositive solid angle %g", p.SolidAngle)
	}
	last := data.Shape[data.NDim()-1]
	if len(p.Wavelength) != last {
		return fmt.Errorf("radiometry: %d wavelengths for spectral axis of length %d",
			len(p.Wavelength), last)
	}
	return nil
}

// binFactors computes the photon-rate to radiance factor per spectral bin:
// photon energy divided by (effective area x solid angle x dispersion).
func (p RadianceParams) binFactors(data *ndarray.Array) ([]float64, error) {
	if err := p.validate(data); err != nil {
		return nil, err
	}
	area, err := p.Table.EffectiveAreaAt(p.Segment, p.ObsTime, p.Wavelength)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(p.Wavelength))
	for i, w := range p.Wavelength {
		if area[i] <= 0 {
			return nil, fmt.Errorf("radiometry: nonpositive effective area %g at %g Angstrom", area[i], w)
		}
		out[i] = hc / w / (area[i] * p.SolidAngle * p.Dispersion)
	}
	return out, nil
}

// ConvertToRadiance converts photon-rate data to physical radiance,
// erg / s / cm^2 / sr / Angstrom.  The current unit must be photon/s;
// photon counts are accepted too and exposure corrected on the way through
// (exposure may be nil when the data is already a rate).
func ConvertToRadiance(data, uncertainty *ndarray.Array, current units.Unit, p RadianceParams, exposure []float64) (*ndarray.Array, *ndarray.Array, units.Unit, error) {
	if err := checkPair(data, uncertainty); err != nil {
		return nil, nil, units.Invalid, err
	}
	if current == units.Photon {
		var err error
		data, uncertainty, current, err = ApplyExposureTimeCorrection(data, uncertainty, current, exposure, false)
		if err != nil {
			return nil, nil, units.Invalid, err
		}
	}
	if current != units.PhotonPerSecond {
		return nil, nil, units.Invalid, &units.UnsupportedUnitError{
			Have: current.String(), Want: units.PhotonPerSecond.String()}
	}
	factors, err := p.binFactors(data)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	newData, err := data.ScaleLastAxis(factors)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	var newUncert *ndarray.Array
	if uncertainty != nil {
		newUncert, err = uncertainty.ScaleLastAxis(factors)
		if err != nil {
			return nil, nil, units.Invalid, err
		}
	}
	return newData, newUncert, units.Radiance, nil
}

// ConvertFromRadiance inverts ConvertToRadiance, returning the data to
// photon/s with the same calibration inputs.
func ConvertFromRadiance(data, uncertainty *ndarray.Array, current units.Unit, p RadianceParams) (*ndarray.Array, *ndarray.Array, units.Unit, error) {
	if err := checkPair(data, uncertainty); err != nil {
		return nil, nil, units.Invalid, err
	}
	if current != units.Radiance {
		return nil, nil, units.Invalid, &units.UnsupportedUnitError{
			Have: current.String(), Want: units.Radiance.String()}
	}
	factors, err := p.binFactors(data)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	inv := make([]float64, len(factors))
	for i, f := range factors {
		inv[i] = 1 / f
	}
	newData, err := data.ScaleLastAxis(inv)
	if err != nil {
		return nil, nil, units.Invalid, err
	}
	var newUncert *ndarray.Array
	if uncertainty != nil {
		newUncert, err = uncertainty.ScaleLastAxis(inv)
		if err != nil {
			return nil, nil, units.Invalid, err
		}
	}
	return newData, newUncert, units.PhotonPerSecond, nil
}
