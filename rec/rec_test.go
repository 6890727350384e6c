package rec_test

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/astrogo/fitsio"

	"github.jpl.nasa.gov/bdube/goiris/cube"
	"github.jpl.nasa.gov/bdube/goiris/ndarray"
	"github.jpl.nasa.gov/bdube/goiris/rec"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

func testCube(t *testing.T) *cube.Cube {
	t.Helper()
	data, _ := ndarray.FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	uncert, _ := ndarray.FromSlice([]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, 2, 3)
	meta := cube.Meta{cube.KeyDetectorType: "SJI", "OBSID": 12345}
	coords := cube.Coords{
		cube.CoordTime:         []float64{0, 10},
		cube.CoordExposureTime: []float64{2, 2},
	}
	c, err := cube.New(data, uncert, units.DN, meta, coords)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestWriteCubeRoundTrips(t *testing.T) {
	dir, err := ioutil.TempDir("", "goiris")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	r := rec.Recorder{Root: dir, Prefix: "conv", Enabled: true}
	c := testCube(t)
	fn, err := r.WriteCube(c)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(fn, "conv000000.fits") {
		t.Errorf("expected the counter in the filename, got %s", fn)
	}

	fid, err := os.Open(fn)
	if err != nil {
		t.Fatal(err)
	}
	defer fid.Close()
	fits, err := fitsio.Open(fid)
	if err != nil {
		t.Fatal(err)
	}
	defer fits.Close()

	hdr := fits.HDU(0).Header()
	if card := hdr.Get("BUNIT"); card == nil || card.Value != "DN" {
		t.Errorf("expected BUNIT DN, got %v", card)
	}
	if card := hdr.Get("DETECTOR"); card == nil || card.Value != "SJI" {
		t.Errorf("expected DETECTOR SJI, got %v", card)
	}

	img, ok := fits.HDU(0).(fitsio.Image)
	if !ok {
		t.Fatal("expected the primary HDU to be an image")
	}
	back := make([]float64, 6)
	if err := img.Read(&back); err != nil {
		t.Fatal(err)
	}
	for i := range back {
		if back[i] != c.Data.Data[i] {
			t.Errorf("expected %f at position %d, got %f", c.Data.Data[i], i, back[i])
		}
	}

	if len(fits.HDUs()) != 2 {
		t.Fatalf("expected a SIGMA extension, file has %d HDUs", len(fits.HDUs()))
	}
	sig := fits.HDU(1).Header()
	if card := sig.Get("EXTNAME"); card == nil || card.Value != "SIGMA" {
		t.Errorf("expected EXTNAME SIGMA, got %v", card)
	}
}

func TestWriteCubeIncrementsNames(t *testing.T) {
	dir, err := ioutil.TempDir("", "goiris")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	r := rec.Recorder{Root: dir, Prefix: "conv", Enabled: true}
	c := testCube(t)
	first, err := r.WriteCube(c)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.WriteCube(c)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Errorf("expected distinct filenames, both were %s", first)
	}
	if !strings.HasSuffix(second, "conv000001.fits") {
		t.Errorf("expected the counter to advance, got %s", second)
	}
}
