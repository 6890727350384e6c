package response_test

import (
	"math"
	"testing"

	"github.jpl.nasa.gov/bdube/goiris/response"
)

const secondsPerYear = 365.25 * 86400

func TestFitThroughputWithinEpoch(t *testing.T) {
	ivals := []response.Interval{{Start: 0, End: 100}}
	coeffs := [][]float64{{1, 0.5, -0.2}}
	tObs := 50.
	want := 1 + 0.5*math.Exp(-0.2*tObs/secondsPerYear)
	got, err := response.FitThroughput(tObs, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %g got %g", want, got)
	}
}

func TestFitThroughputClampsBeforeFirstEpoch(t *testing.T) {
	ivals := []response.Interval{{Start: 100, End: 200}}
	coeffs := [][]float64{{2, 1, -0.5}}
	atStart, err := response.FitThroughput(100, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	before, err := response.FitThroughput(-1e9, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	if before != atStart {
		t.Errorf("expected times before the span to evaluate at the start, %g != %g", before, atStart)
	}
}

func TestFitThroughputClampsAfterLastEpoch(t *testing.T) {
	ivals := []response.Interval{{Start: 0, End: 1e8}}
	coeffs := [][]float64{{2, 1, -0.5}}
	atEnd, err := response.FitThroughput(1e8, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	after, err := response.FitThroughput(1e12, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	if after != atEnd {
		t.Errorf("expected times after the span to evaluate at the end, %g != %g", after, atEnd)
	}
}

func TestFitThroughputBlendsAcrossGap(t *testing.T) {
	// constant fits per epoch (b=0): epoch 0 gives 2, epoch 1 gives 4
	ivals := []response.Interval{
		{Start: 0, End: 100},
		{Start: 300, End: 400},
	}
	coeffs := [][]float64{{2, 0, 0}, {4, 0, 0}}
	mid, err := response.FitThroughput(200, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	w := math.Pow(0.5, 1.5)
	want := w*2 + w*4
	if math.Abs(mid-want) > 1e-12 {
		t.Errorf("expected %g at the gap midpoint, got %g", want, mid)
	}
}

func TestFitThroughputContinuousAtGapEdges(t *testing.T) {
	ivals := []response.Interval{
		{Start: 0, End: 100},
		{Start: 300, End: 400},
	}
	coeffs := [][]float64{{2, 0, 0}, {4, 0, 0}}
	atEnd, err := response.FitThroughput(100, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	justAfter, err := response.FitThroughput(100.001, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(atEnd-justAfter) > 1e-3 {
		t.Errorf("expected continuity at the epoch end, %g vs %g", atEnd, justAfter)
	}
	atStart, err := response.FitThroughput(300, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	justBefore, err := response.FitThroughput(299.999, ivals, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(atStart-justBefore) > 1e-3 {
		t.Errorf("expected continuity at the epoch start, %g vs %g", atStart, justBefore)
	}
}

func TestFitThroughputNoEpochs(t *testing.T) {
	_, err := response.FitThroughput(0, nil, nil)
	if err == nil {
		t.Error("expected an error for no epochs, got nil")
	}
}

func TestFitThroughputCoefficientCountMismatch(t *testing.T) {
	ivals := []response.Interval{{Start: 0, End: 1}}
	_, err := response.FitThroughput(0, ivals, [][]float64{{1, 2, 3}, {4, 5, 6}})
	if err == nil {
		t.Error("expected an error for 2 coefficient sets on 1 epoch, got nil")
	}
}

func TestFitThroughputBadTriple(t *testing.T) {
	ivals := []response.Interval{{Start: 0, End: 1}}
	_, err := response.FitThroughput(0, ivals, [][]float64{{1, 2}})
	if err == nil {
		t.Error("expected an error for a 2-coefficient set, got nil")
	}
}
