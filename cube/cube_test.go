package cube_test

import (
	"errors"
	"math"
	"testing"

	"github.jpl.nasa.gov/bdube/goiris/cube"
	"github.jpl.nasa.gov/bdube/goiris/detector"
	"github.jpl.nasa.gov/bdube/goiris/ndarray"
	"github.jpl.nasa.gov/bdube/goiris/radiometry"
	"github.jpl.nasa.gov/bdube/goiris/response"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

func sjiMeta() cube.Meta {
	return cube.Meta{cube.KeyDetectorType: "SJI", "OBSID": 3860259453, "TWAVE1": 1400.0}
}

func sjiCoords(frames int) cube.Coords {
	times := make([]float64, frames)
	exp := make([]float64, frames)
	for i := range times {
		times[i] = 1.1e9 + float64(i)*10
		exp[i] = 2
	}
	return cube.Coords{cube.CoordTime: times, cube.CoordExposureTime: exp}
}

func sjiCube(t *testing.T) *cube.Cube {
	t.Helper()
	data, _ := ndarray.FromSlice([]float64{
		1, 2, 3,
		4, 5, 6}, 2, 3)
	uncert, _ := ndarray.FromSlice([]float64{
		0.1, 0.2, 0.3,
		0.4, 0.5, 0.6}, 2, 3)
	c, err := cube.New(data, uncert, units.DN, sjiMeta(), sjiCoords(2))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewRequiresDetectorType(t *testing.T) {
	data, _ := ndarray.New(1, 2)
	_, err := cube.New(data, nil, units.DN, cube.Meta{}, sjiCoords(1))
	var mm *cube.MissingMetadataError
	if !errors.As(err, &mm) {
		t.Errorf("expected MissingMetadataError got %v", err)
	}
}

func TestNewRequiresCoordinates(t *testing.T) {
	data, _ := ndarray.New(1, 2)
	_, err := cube.New(data, nil, units.DN, sjiMeta(), cube.Coords{cube.CoordTime: []float64{0}})
	var mc *cube.MissingCoordinateError
	if !errors.As(err, &mc) {
		t.Errorf("expected MissingCoordinateError got %v", err)
	}
}

func TestNewRejectsShapeMismatch(t *testing.T) {
	data, _ := ndarray.New(2, 2)
	uncert, _ := ndarray.New(3)
	_, err := cube.New(data, uncert, units.DN, sjiMeta(), sjiCoords(2))
	if !errors.Is(err, radiometry.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch got %v", err)
	}
}

func TestNewSpectralRequiresWindow(t *testing.T) {
	data, _ := ndarray.New(1, 2)
	meta := cube.Meta{cube.KeyDetectorType: "FUV1"}
	_, err := cube.NewSpectral(data, nil, units.DN, meta, sjiCoords(1))
	var mm *cube.MissingMetadataError
	if !errors.As(err, &mm) {
		t.Errorf("expected MissingMetadataError got %v", err)
	}
	meta[cube.KeySpectralWindow] = "C II 1336"
	if _, err := cube.NewSpectral(data, nil, units.DN, meta, sjiCoords(1)); err != nil {
		t.Errorf("expected success with the window present, got %v", err)
	}
}

func TestConvertCountsProducesNewCube(t *testing.T) {
	c := sjiCube(t)
	ph, err := c.ConvertCounts(units.Photon)
	if err != nil {
		t.Fatal(err)
	}
	if ph.Unit != units.Photon {
		t.Errorf("expected %v got %v", units.Photon, ph.Unit)
	}
	if c.Unit != units.DN {
		t.Errorf("expected the source cube untouched, unit is %v", c.Unit)
	}
	gain := detector.SJI.DNToPhoton()
	if ph.Data.Data[0] != c.Data.Data[0]*gain {
		t.Errorf("expected %f got %f", c.Data.Data[0]*gain, ph.Data.Data[0])
	}
	if ph.Uncertainty.Data[0] != c.Uncertainty.Data[0]*gain {
		t.Errorf("expected uncertainty scaled by the gain")
	}
}

func TestExposureCorrectionGuards(t *testing.T) {
	c := sjiCube(t)
	rate, err := c.ApplyExposureTimeCorrection(false, false)
	if err != nil {
		t.Fatal(err)
	}
	if rate.Unit != units.DNPerSecond {
		t.Errorf("expected %v got %v", units.DNPerSecond, rate.Unit)
	}
	_, err = rate.ApplyExposureTimeCorrection(false, false)
	if !errors.Is(err, units.ErrAlreadyCorrected) {
		t.Errorf("expected ErrAlreadyCorrected got %v", err)
	}
	back, err := rate.ApplyExposureTimeCorrection(true, false)
	if err != nil {
		t.Fatal(err)
	}
	if back.Unit != units.DN {
		t.Errorf("expected %v got %v", units.DN, back.Unit)
	}
	for i := range c.Data.Data {
		if math.Abs(back.Data.Data[i]-c.Data.Data[i]) > 1e-12 {
			t.Errorf("did not round trip at %d", i)
		}
	}
}

func TestUnscaledRefusesConversions(t *testing.T) {
	data, _ := ndarray.New(1, 2)
	c, err := cube.New(data, nil, units.DNUnscaled, sjiMeta(), sjiCoords(1))
	if err != nil {
		t.Fatal(err)
	}
	if c.Scaled {
		t.Error("expected an unscaled cube")
	}
	if _, err := c.ConvertCounts(units.Photon); err == nil {
		t.Error("expected count conversion to be refused on unscaled data")
	}
	if _, err := c.ApplyExposureTimeCorrection(false, false); err == nil {
		t.Error("expected exposure correction to be refused on unscaled data")
	}
}

func TestApplyDustMaskIdempotent(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{
		1, detector.BadPixelScaled, 3,
		4, 5, detector.BadPixelScaled}, 2, 3)
	c, err := cube.New(data, nil, units.DN, sjiMeta(), sjiCoords(2))
	if err != nil {
		t.Fatal(err)
	}
	c.ApplyDustMask(false)
	if !c.DustMasked {
		t.Error("expected DustMasked true after apply")
	}
	if c.Mask.CountTrue() != 2 {
		t.Errorf("expected 2 masked positions got %d", c.Mask.CountTrue())
	}
	c.ApplyDustMask(false)
	if c.Mask.CountTrue() != 2 {
		t.Errorf("expected applying twice to equal once, got %d", c.Mask.CountTrue())
	}
	c.ApplyDustMask(true)
	if c.DustMasked {
		t.Error("expected DustMasked false after undo")
	}
	if c.Mask.CountTrue() != 0 {
		t.Errorf("expected an empty mask after undo, got %d", c.Mask.CountTrue())
	}
}

func TestDustMaskDoesNotLeakAcrossDerived(t *testing.T) {
	c := sjiCube(t)
	ph, err := c.ConvertCounts(units.Photon)
	if err != nil {
		t.Fatal(err)
	}
	ph.Mask.Data[0] = true
	if c.Mask.Data[0] {
		t.Error("expected the parent mask to be unaffected by edits to the derived cube")
	}
}

func TestToRadianceDefaultsObsTime(t *testing.T) {
	table := &response.Table{
		Version:       2,
		GeometricArea: 100,
		Wavelength:    []float64{1400, 1401, 1402},
		Segments: []response.Segment{
			{Name: "SJI_1400", Channel: "SJI", Area: []float64{1, 1, 1}},
		},
	}
	c := sjiCube(t)
	ph, err := c.ConvertCounts(units.Photon)
	if err != nil {
		t.Fatal(err)
	}
	p := radiometry.RadianceParams{
		Table:      table,
		Segment:    "SJI_1400",
		Wavelength: []float64{1400, 1401, 1402},
		Dispersion: 0.05,
		SolidAngle: 1e-11,
	}
	rad, err := ph.ToRadiance(p)
	if err != nil {
		t.Fatal(err)
	}
	if rad.Unit != units.Radiance {
		t.Errorf("expected %v got %v", units.Radiance, rad.Unit)
	}
	back, err := rad.FromRadiance(p)
	if err != nil {
		t.Fatal(err)
	}
	if back.Unit != units.PhotonPerSecond {
		t.Errorf("expected %v got %v", units.PhotonPerSecond, back.Unit)
	}
}
