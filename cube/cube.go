/*Package cube binds one IRIS exposure series together: the pixel array,
its uncertainty, a pixel mask, the unit state, header metadata, and the
per-frame auxiliary coordinates (time, exposure time, pointing).

A Cube is immutable by convention: every conversion returns a new Cube
sharing metadata and coordinates with its parent.  The one deliberate
exception is ApplyDustMask, which edits the owned mask buffer in place and
flips the DustMasked flag; masking is bookkeeping on the same observation,
not a new data product.

Array mechanics live in package ndarray and the conversions in package
radiometry; this package only enforces the container contract and wires the
two together.
*/
package cube

import (
	"fmt"

	"github.jpl.nasa.gov/bdube/goiris/detector"
	"github.jpl.nasa.gov/bdube/goiris/ndarray"
	"github.jpl.nasa.gov/bdube/goiris/radiometry"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

// Required metadata and coordinate keys.
const (
	// KeyDetectorType must be present in every cube's metadata.
	KeyDetectorType = "detector type"

	// KeySpectralWindow must additionally be present on spectrograph
	// window cubes.
	KeySpectralWindow = "spectral window"

	// CoordTime is the per-frame observation time, utime seconds.
	CoordTime = "time"

	// CoordExposureTime is the per-frame exposure time, seconds.
	CoordExposureTime = "exposure time"
)

// MissingMetadataError reports a required metadata key absent at
// construction.
type MissingMetadataError struct{ Key string }

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("cube: required metadata key %q missing", e.Key)
}

// MissingCoordinateError reports a required coordinate absent at
// construction.
type MissingCoordinateError struct{ Key string }

func (e *MissingCoordinateError) Error() string {
	return fmt.Sprintf("cube: required coordinate %q missing", e.Key)
}

// Meta is the header metadata attached to a cube.
type Meta map[string]interface{}

// String returns the metadata value under key as a string, or "" if absent
// or not a string.
func (m Meta) String(key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Float returns the metadata value under key as a float64 if possible.
func (m Meta) Float(key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Coords maps coordinate names to per-frame value arrays.
type Coords map[string][]float64

// Cube is one exposure series from a single spectral window or SJI
// passband.
type Cube struct {
	// Data is the pixel array, 1 to 3 dims with axis 0 time-like.
	Data *ndarray.Array

	// Uncertainty is the 1-sigma uncertainty, same shape as Data, or nil
	// for unscaled reads.
	Uncertainty *ndarray.Array

	// Mask flags bad pixels, same shape as Data.
	Mask *ndarray.Mask

	// Unit is the current radiometric unit state.
	Unit units.Unit

	// Meta holds header metadata; KeyDetectorType is always present.
	Meta Meta

	// Coords holds the named per-frame coordinates; CoordTime and
	// CoordExposureTime are always present.
	Coords Coords

	// Scaled is false for memory-mapped, unscaled reads, which refuse
	// radiometric conversions.
	Scaled bool

	// DustMasked records whether the dust positions are currently set in
	// Mask.
	DustMasked bool
}

// New builds an imaging (SJI) cube, validating the container contract:
// detector type metadata, time and exposure time coordinates, uncertainty
// shaped like the data.
func New(data, uncertainty *ndarray.Array, unit units.Unit, meta Meta, coords Coords) (*Cube, error) {
	return construct(data, uncertainty, unit, meta, coords, false)
}

// NewSpectral builds a spectrograph window cube, which additionally
// requires the spectral window name in its metadata.
func NewSpectral(data, uncertainty *ndarray.Array, unit units.Unit, meta Meta, coords Coords) (*Cube, error) {
	return construct(data, uncertainty, unit, meta, coords, true)
}

func construct(data, uncertainty *ndarray.Array, unit units.Unit, meta Meta, coords Coords, spectral bool) (*Cube, error) {
	if data == nil {
		return nil, fmt.Errorf("cube: nil data array")
	}
	if data.NDim() < 1 || data.NDim() > 3 {
		return nil, &ndarray.DimensionalityError{Op: "cube.New", Rank: data.NDim()}
	}
	if uncertainty != nil && !data.SameShape(uncertainty) {
		return nil, radiometry.ErrShapeMismatch
	}
	if meta == nil {
		return nil, &MissingMetadataError{Key: KeyDetectorType}
	}
	if meta.String(KeyDetectorType) == "" {
		return nil, &MissingMetadataError{Key: KeyDetectorType}
	}
	if _, err := detector.Parse(meta.String(KeyDetectorType)); err != nil {
		return nil, err
	}
	if spectral && meta.String(KeySpectralWindow) == "" {
		return nil, &MissingMetadataError{Key: KeySpectralWindow}
	}
	for _, key := range []string{CoordTime, CoordExposureTime} {
		if len(coords[key]) == 0 {
			return nil, &MissingCoordinateError{Key: key}
		}
	}
	return &Cube{
		Data:        data,
		Uncertainty: uncertainty,
		Mask:        ndarray.NewMask(data),
		Unit:        unit,
		Meta:        meta,
		Coords:      coords,
		Scaled:      unit != units.DNUnscaled,
	}, nil
}

// Detector returns the cube's detector type.
func (c *Cube) Detector() detector.Type {
	t, _ := detector.Parse(c.Meta.String(KeyDetectorType))
	return t
}

// ExposureTime returns the per-frame exposure times, seconds.
func (c *Cube) ExposureTime() []float64 { return c.Coords[CoordExposureTime] }

// Times returns the per-frame observation times, utime seconds.
func (c *Cube) Times() []float64 { return c.Coords[CoordTime] }

// derive builds the post-conversion cube, sharing meta and coords with the
// parent and copying the mask and flags.
func (c *Cube) derive(data, uncertainty *ndarray.Array, unit units.Unit) *Cube {
	return &Cube{
		Data:        data,
		Uncertainty: uncertainty,
		Mask:        c.Mask.Clone(),
		Unit:        unit,
		Meta:        c.Meta,
		Coords:      c.Coords,
		Scaled:      c.Scaled,
		DustMasked:  c.DustMasked,
	}
}

// errUnscaled guards conversions on memmap data.
func (c *Cube) errUnscaled(op string) error {
	if !c.Scaled {
		return fmt.Errorf("cube: %s is not available on unscaled (memory-mapped) data", op)
	}
	return nil
}

// ConvertCounts converts the cube between the DN and photon families,
// returning a new cube.  Converting to the current unit returns an
// equal-valued copy.
func (c *Cube) ConvertCounts(target units.Unit) (*Cube, error) {
	if err := c.errUnscaled("count conversion"); err != nil {
		return nil, err
	}
	d, u, nu, err := radiometry.ConvertDNPhoton(c.Data, c.Uncertainty, c.Unit, c.Detector(), target)
	if err != nil {
		return nil, err
	}
	return c.derive(d, u, nu), nil
}

// ApplyExposureTimeCorrection applies (undo=false) or removes (undo=true)
// the exposure time normalization, returning a new cube.  Unless force is
// set, the unit guard refuses double application or spurious undo.
func (c *Cube) ApplyExposureTimeCorrection(undo, force bool) (*Cube, error) {
	if err := c.errUnscaled("exposure time correction"); err != nil {
		return nil, err
	}
	var (
		d, u *ndarray.Array
		nu   units.Unit
		err  error
	)
	if undo {
		d, u, nu, err = radiometry.UndoExposureTimeCorrection(c.Data, c.Uncertainty, c.Unit, c.ExposureTime(), force)
	} else {
		d, u, nu, err = radiometry.ApplyExposureTimeCorrection(c.Data, c.Uncertainty, c.Unit, c.ExposureTime(), force)
	}
	if err != nil {
		return nil, err
	}
	return c.derive(d, u, nu), nil
}

// ToRadiance converts the cube to physical radiance.  Photon-count cubes
// are exposure corrected on the way; DN cubes must be converted to photons
// first.  The observation time defaults to the cube's first frame time when
// params.ObsTime is zero.
func (c *Cube) ToRadiance(p radiometry.RadianceParams) (*Cube, error) {
	if err := c.errUnscaled("radiance conversion"); err != nil {
		return nil, err
	}
	if p.ObsTime == 0 {
		p.ObsTime = c.Times()[0]
	}
	d, u, nu, err := radiometry.ConvertToRadiance(c.Data, c.Uncertainty, c.Unit, p, c.ExposureTime())
	if err != nil {
		return nil, err
	}
	return c.derive(d, u, nu), nil
}

// FromRadiance inverts ToRadiance, returning the cube to photon/s.
func (c *Cube) FromRadiance(p radiometry.RadianceParams) (*Cube, error) {
	if p.ObsTime == 0 {
		p.ObsTime = c.Times()[0]
	}
	d, u, nu, err := radiometry.ConvertFromRadiance(c.Data, c.Uncertainty, c.Unit, p)
	if err != nil {
		return nil, err
	}
	return c.derive(d, u, nu), nil
}

// ApplyDustMask sets (undo=false) or clears (undo=true) the dust positions
// in the cube's mask, in place.  This is the one stateful operation on a
// cube; the mask buffer is owned by the cube, so no other cube observes the
// edit.  Applying twice is the same as applying once.
func (c *Cube) ApplyDustMask(undo bool) {
	dust := radiometry.CalculateDustMask(c.Data)
	if undo {
		for i, d := range dust.Data {
			if d {
				c.Mask.Data[i] = false
			}
		}
		c.DustMasked = false
		return
	}
	for i, d := range dust.Data {
		if d {
			c.Mask.Data[i] = true
		}
	}
	c.DustMasked = true
}

// String summarizes the cube in a form close to the level 2 quicklook
// tools.
func (c *Cube) String() string {
	return fmt.Sprintf("IRIS cube %v detector=%s unit=%s frames=%d shape=%v dustmasked=%v",
		c.Meta["OBSID"], c.Meta.String(KeyDetectorType), c.Unit, c.Data.Shape[0], c.Data.Shape, c.DustMasked)
}
