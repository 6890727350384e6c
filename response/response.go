/*Package response loads the versioned IRIS effective area calibration
datasets and evaluates them at an observation time.

A dataset ("response table") is released per calibration version 1 through 4.
Versions 1 and 2 carry fixed pre-launch effective area curves; versions 3 and
4 add per-segment time breakpoints and fit coefficients describing the slow
degradation of throughput on orbit.  Tables are immutable once loaded and are
shared by every observation that references the same version, via Cache.

Times are "utime": seconds since 1979-01-01T00:00:00Z, the convention used by
the level 2 headers and the calibration archives.
*/
package response

import (
	"errors"
	"fmt"
	"time"

	"github.jpl.nasa.gov/bdube/goiris/mathx"
)

// Known calibration dataset versions.
const (
	MinVersion = 1
	MaxVersion = 4
)

var (
	// ErrUnknownVersion is returned when a version outside 1..4 is requested.
	ErrUnknownVersion = errors.New("response: unknown calibration version")

	// ErrConflictingSelectors is returned when more than one of version,
	// explicit path, or pre-launch is specified to Load.
	ErrConflictingSelectors = errors.New("response: specify exactly one of Version, Path, PreLaunch")
)

// ConfigurationError wraps a failure to locate or parse a calibration
// dataset.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("response: bad calibration dataset %s: %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// utimeEpoch anchors the utime scale.
var utimeEpoch = time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC)

// UTime converts a wall time to seconds since the utime epoch.
func UTime(t time.Time) float64 {
	return t.Sub(utimeEpoch).Seconds()
}

// FromUTime converts utime seconds back to a wall time.
func FromUTime(sec float64) time.Time {
	return utimeEpoch.Add(time.Duration(sec * float64(time.Second)))
}

// Interval is one calibration epoch: the span over which a single set of
// throughput fit coefficients applies.
type Interval struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// Segment is the calibration data for one detector segment: FUV1, FUV2, NUV,
// or one SJI passband (for example SJI_1330).
type Segment struct {
	// Name is the segment label as used in level 2 metadata.
	Name string `yaml:"name"`

	// Channel is the owning CCD: FUV, NUV or SJI.
	Channel string `yaml:"channel"`

	// Area is the effective area curve sampled on the table wavelength
	// grid.  For versions 1 and 2 it is the absolute pre-launch area in
	// cm^2; for versions 3 and 4 it is the normalized shape which the time
	// fit scales.
	Area []float64 `yaml:"area"`

	// Anchors are the wavelengths (Angstrom) at which the time fit is
	// evaluated; empty for pre-launch tables.
	Anchors []float64 `yaml:"anchors,omitempty"`

	// Coeffs holds one [a, b, c] triple per anchor per epoch,
	// indexed [anchor][epoch].  The fitted throughput at time t within an
	// epoch is a + b*exp(c*dt), dt in years from the epoch start.
	Coeffs [][][]float64 `yaml:"coeffs,omitempty"`
}

// Table is one immutable calibration dataset.
type Table struct {
	// Version is the dataset version, 1..4.
	Version int `yaml:"version"`

	// Date is the dataset release date.
	Date time.Time `yaml:"date"`

	// Comment carries free-text provenance from the archive.
	Comment string `yaml:"comment,omitempty"`

	// GeometricArea is the unobstructed telescope aperture in cm^2.
	GeometricArea float64 `yaml:"geometric_area"`

	// Wavelength is the common grid, Angstrom, strictly increasing.
	Wavelength []float64 `yaml:"wavelength"`

	// EpochsFUV and EpochsNUV are the calibration breakpoints for the two
	// spectrograph CCDs.  SJI passbands follow their source CCD: FUV
	// passbands use EpochsFUV, NUV passbands use EpochsNUV.
	EpochsFUV []Interval `yaml:"epochs_fuv,omitempty"`
	EpochsNUV []Interval `yaml:"epochs_nuv,omitempty"`

	// Segments holds the per-segment curves.
	Segments []Segment `yaml:"segments"`
}

// Validate checks the table invariants: breakpoints strictly increasing,
// coefficient rows aligned one to one with breakpoints, area curves on the
// wavelength grid.
func (t *Table) Validate() error {
	if t.Version < MinVersion || t.Version > MaxVersion {
		return fmt.Errorf("%w: %d", ErrUnknownVersion, t.Version)
	}
	if len(t.Wavelength) == 0 {
		return errors.New("response: empty wavelength grid")
	}
	for i := 1; i < len(t.Wavelength); i++ {
		if t.Wavelength[i] <= t.Wavelength[i-1] {
			return fmt.Errorf("response: wavelength grid not increasing at index %d", i)
		}
	}
	if err := validateIntervals("FUV", t.EpochsFUV); err != nil {
		return err
	}
	if err := validateIntervals("NUV", t.EpochsNUV); err != nil {
		return err
	}
	for _, seg := range t.Segments {
		if len(seg.Area) != len(t.Wavelength) {
			return fmt.Errorf("response: segment %s area has %d samples, grid has %d",
				seg.Name, len(seg.Area), len(t.Wavelength))
		}
		if len(seg.Anchors) != len(seg.Coeffs) {
			return fmt.Errorf("response: segment %s has %d anchors but %d coefficient rows",
				seg.Name, len(seg.Anchors), len(seg.Coeffs))
		}
		epochs := t.epochsFor(seg)
		for ai, perEpoch := range seg.Coeffs {
			if len(perEpoch) != len(epochs) {
				return fmt.Errorf("response: segment %s anchor %d has %d coefficient sets for %d epochs",
					seg.Name, ai, len(perEpoch), len(epochs))
			}
			for ei, triple := range perEpoch {
				if len(triple) != 3 {
					return fmt.Errorf("response: segment %s anchor %d epoch %d: want 3 coefficients, got %d",
						seg.Name, ai, ei, len(triple))
				}
			}
		}
	}
	return nil
}

func validateIntervals(label string, ivals []Interval) error {
	for i, iv := range ivals {
		if iv.End <= iv.Start {
			return fmt.Errorf("response: %s epoch %d end before start", label, i)
		}
		if i > 0 && iv.Start <= ivals[i-1].Start {
			return fmt.Errorf("response: %s epochs not in increasing order at %d", label, i)
		}
	}
	return nil
}

// epochsFor returns the breakpoint set governing a segment.
func (t *Table) epochsFor(seg Segment) []Interval {
	if seg.Channel == "NUV" {
		return t.EpochsNUV
	}
	return t.EpochsFUV
}

// Segment returns the named segment, or an error naming the known segments.
func (t *Table) Segment(name string) (*Segment, error) {
	for i := range t.Segments {
		if t.Segments[i].Name == name {
			return &t.Segments[i], nil
		}
	}
	known := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		known = append(known, s.Name)
	}
	return nil, fmt.Errorf("response: no segment %q in version %d table (have %v)", name, t.Version, known)
}

// EffectiveArea evaluates the segment effective area curve at the given
// observation time, returning one value per wavelength grid point, cm^2.
//
// Pre-launch tables (no anchors) are time independent.  Otherwise the per
// anchor throughput fit is evaluated at tObs and interpolated linearly in
// wavelength across the grid, clamped outside the anchor span, and applied
// to the segment shape.
func (t *Table) EffectiveArea(segment string, tObs float64) ([]float64, error) {
	seg, err := t.Segment(segment)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(seg.Area))
	copy(out, seg.Area)
	if len(seg.Anchors) == 0 {
		return out, nil
	}
	epochs := t.epochsFor(*seg)
	fits := make([]float64, len(seg.Anchors))
	for i, perEpoch := range seg.Coeffs {
		v, err := FitThroughput(tObs, epochs, perEpoch)
		if err != nil {
			return nil, fmt.Errorf("response: segment %s anchor %d: %w", segment, i, err)
		}
		fits[i] = v
	}
	for i, w := range t.Wavelength {
		out[i] *= mathx.Interp(seg.Anchors, fits, w)
	}
	return out, nil
}

// EffectiveAreaAt evaluates the effective area at arbitrary wavelengths by
// linear interpolation on the grid, clamped at the grid edges.
func (t *Table) EffectiveAreaAt(segment string, tObs float64, wavelengths []float64) ([]float64, error) {
	grid, err := t.EffectiveArea(segment, tObs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(wavelengths))
	for i, w := range wavelengths {
		out[i] = mathx.Interp(t.Wavelength, grid, w)
	}
	return out, nil
}

