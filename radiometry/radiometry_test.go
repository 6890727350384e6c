package radiometry_test

import (
	"errors"
	"math"
	"testing"

	"github.jpl.nasa.gov/bdube/goiris/detector"
	"github.jpl.nasa.gov/bdube/goiris/ndarray"
	"github.jpl.nasa.gov/bdube/goiris/radiometry"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

const eps = 1e-12

func approx(a, b float64) bool {
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestConvertDNPhotonFUV(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{
		0.563, 1.132, -1.343,
		-0.719, 1.441, 1.566}, 2, 3)
	out, _, u, err := radiometry.ConvertDNPhoton(data, nil, units.DN, detector.FUV, units.Photon)
	if err != nil {
		t.Fatal(err)
	}
	if u != units.Photon {
		t.Errorf("expected %v got %v", units.Photon, u)
	}
	expected := []float64{2.252, 4.528, -5.372, -2.876, 5.764, 6.264}
	for i := range expected {
		if !approx(out.Data[i], expected[i]) {
			t.Errorf("expected %f at position %d, got %f", expected[i], i, out.Data[i])
		}
	}
}

func TestConvertDNPhotonNUV(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{1, 2, 3}, 3)
	out, _, _, err := radiometry.ConvertDNPhoton(data, nil, units.DN, detector.NUV, units.Photon)
	if err != nil {
		t.Fatal(err)
	}
	expected := []float64{18, 36, 54}
	for i := range expected {
		if !approx(out.Data[i], expected[i]) {
			t.Errorf("expected %f at position %d, got %f", expected[i], i, out.Data[i])
		}
	}
}

func TestConvertDNPhotonRoundTrips(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{0.5, -1.25, 100, 3.75}, 4)
	uncert, _ := ndarray.FromSlice([]float64{0.1, 0.2, 0.3, 0.4}, 4)
	ph, phu, u, err := radiometry.ConvertDNPhoton(data, uncert, units.DN, detector.FUV2, units.Photon)
	if err != nil {
		t.Fatal(err)
	}
	back, backu, u2, err := radiometry.ConvertDNPhoton(ph, phu, u, detector.FUV2, units.DN)
	if err != nil {
		t.Fatal(err)
	}
	if u2 != units.DN {
		t.Errorf("expected %v got %v", units.DN, u2)
	}
	for i := range data.Data {
		if !approx(back.Data[i], data.Data[i]) {
			t.Errorf("data did not round trip at %d: %f != %f", i, back.Data[i], data.Data[i])
		}
		if !approx(backu.Data[i], uncert.Data[i]) {
			t.Errorf("uncertainty did not round trip at %d: %f != %f", i, backu.Data[i], uncert.Data[i])
		}
	}
}

func TestConvertDNPhotonSelfLoopCopies(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{1, 2}, 2)
	out, _, u, err := radiometry.ConvertDNPhoton(data, nil, units.DN, detector.SJI, units.DN)
	if err != nil {
		t.Fatal(err)
	}
	if u != units.DN {
		t.Errorf("expected %v got %v", units.DN, u)
	}
	out.Data[0] = 99
	if data.Data[0] != 1 {
		t.Error("expected the self conversion to copy, not alias")
	}
}

func TestConvertDNPhotonRefusesCrossFamilyRate(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{1}, 1)
	// DN/s to photon (not photon/s) is not an edge
	_, _, _, err := radiometry.ConvertDNPhoton(data, nil, units.DNPerSecond, detector.FUV, units.Photon)
	if err == nil {
		t.Error("expected an error converting DN/s directly to photon, got nil")
	}
}

func TestExposureCorrectionPerFrame(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{
		2, 4,
		9, 12}, 2, 2)
	out, _, u, err := radiometry.ApplyExposureTimeCorrection(data, nil, units.Photon, []float64{2, 3}, false)
	if err != nil {
		t.Fatal(err)
	}
	if u != units.PhotonPerSecond {
		t.Errorf("expected %v got %v", units.PhotonPerSecond, u)
	}
	expected := []float64{1, 2, 3, 4}
	for i := range expected {
		if !approx(out.Data[i], expected[i]) {
			t.Errorf("expected %f at position %d, got %f", expected[i], i, out.Data[i])
		}
	}
}

func TestExposureCorrectionScalarBroadcast(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{2, 4, 6}, 3)
	out, _, _, err := radiometry.ApplyExposureTimeCorrection(data, nil, units.DN, []float64{2}, false)
	if err != nil {
		t.Fatal(err)
	}
	expected := []float64{1, 2, 3}
	for i := range expected {
		if !approx(out.Data[i], expected[i]) {
			t.Errorf("expected %f at position %d, got %f", expected[i], i, out.Data[i])
		}
	}
}

func TestExposureCorrectionRefusesDouble(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{1}, 1)
	_, _, _, err := radiometry.ApplyExposureTimeCorrection(data, nil, units.PhotonPerSecond, []float64{2}, false)
	if !errors.Is(err, units.ErrAlreadyCorrected) {
		t.Errorf("expected ErrAlreadyCorrected got %v", err)
	}
}

func TestExposureCorrectionForcedDouble(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{8}, 1)
	out, _, u, err := radiometry.ApplyExposureTimeCorrection(data, nil, units.PhotonPerSecond, []float64{2}, true)
	if err != nil {
		t.Fatal(err)
	}
	if u != units.PhotonPerSecondSquared {
		t.Errorf("expected %v got %v", units.PhotonPerSecondSquared, u)
	}
	if !approx(out.Data[0], 4) {
		t.Errorf("expected 4 got %f", out.Data[0])
	}
}

func TestUndoExposureCorrectionRefusesUncorrected(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{1}, 1)
	_, _, _, err := radiometry.UndoExposureTimeCorrection(data, nil, units.Photon, []float64{2}, false)
	if !errors.Is(err, units.ErrNotCorrected) {
		t.Errorf("expected ErrNotCorrected got %v", err)
	}
}

func TestExposureCorrectionRoundTrips(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{
		1, 2,
		3, 4,
		5, 6}, 3, 2)
	exp := []float64{0.5, 2, 8}
	d2, _, u, err := radiometry.ApplyExposureTimeCorrection(data, nil, units.Photon, exp, false)
	if err != nil {
		t.Fatal(err)
	}
	d3, _, u2, err := radiometry.UndoExposureTimeCorrection(d2, nil, u, exp, false)
	if err != nil {
		t.Fatal(err)
	}
	if u2 != units.Photon {
		t.Errorf("expected %v got %v", units.Photon, u2)
	}
	for i := range data.Data {
		if !approx(d3.Data[i], data.Data[i]) {
			t.Errorf("did not round trip at %d: %f != %f", i, d3.Data[i], data.Data[i])
		}
	}
}

func TestExposureCorrectionZeroExposure(t *testing.T) {
	data, _ := ndarray.FromSlice([]float64{1, 2}, 2)
	_, _, _, err := radiometry.ApplyExposureTimeCorrection(data, nil, units.DN, []float64{1, 0}, false)
	if !errors.Is(err, radiometry.ErrZeroExposure) {
		t.Errorf("expected ErrZeroExposure got %v", err)
	}
}

func TestShapeMismatch(t *testing.T) {
	data, _ := ndarray.New(2, 2)
	uncert, _ := ndarray.New(3)
	_, _, _, err := radiometry.ConvertDNPhoton(data, uncert, units.DN, detector.FUV, units.Photon)
	if !errors.Is(err, radiometry.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch got %v", err)
	}
}
