package mathx_test

import (
	"testing"

	"github.jpl.nasa.gov/bdube/goiris/mathx"
)

func TestInterpMidpoint(t *testing.T) {
	xs := []float64{0, 10}
	ys := []float64{0, 1}
	out := mathx.Interp(xs, ys, 5)
	if out != 0.5 {
		t.Errorf("expected 0.5 got %f", out)
	}
}

func TestInterpClampsEnds(t *testing.T) {
	xs := []float64{1, 2, 3}
	ys := []float64{10, 20, 30}
	if out := mathx.Interp(xs, ys, 0); out != 10 {
		t.Errorf("expected clamp to 10 got %f", out)
	}
	if out := mathx.Interp(xs, ys, 99); out != 30 {
		t.Errorf("expected clamp to 30 got %f", out)
	}
}

func TestInterpSinglePointIsConstant(t *testing.T) {
	out := mathx.Interp([]float64{5}, []float64{42}, -100)
	if out != 42 {
		t.Errorf("expected 42 got %f", out)
	}
}

func TestLinspace(t *testing.T) {
	out := mathx.Linspace(0, 1, 5)
	expected := []float64{0, 0.25, 0.5, 0.75, 1}
	if len(out) != len(expected) {
		t.Fatalf("expected %d values got %d", len(expected), len(out))
	}
	for i := range out {
		if out[i] != expected[i] {
			t.Errorf("expected %f at position %d, got %f", expected[i], i, out[i])
		}
	}
}

func TestClampHigh(t *testing.T) {
	if out := mathx.Clamp(20, 0, 10); out != 10 {
		t.Errorf("expected 10 got %f", out)
	}
}

func TestClampLow(t *testing.T) {
	if out := mathx.Clamp(-1, 0, 10); out != 0 {
		t.Errorf("expected 0 got %f", out)
	}
}
