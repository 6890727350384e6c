/*Package level2 reads IRIS level 2 FITS products into cubes.

Level 2 files carry a primary image HDU with the pixel data and observation
keywords, one image extension per spectral window for spectrograph rasters,
and an auxiliary image extension of per-frame columns (time offsets,
exposure times, piezo pointing, orbital phase).  The auxiliary extension is
a plain 2D float array; its header maps column names to column indices.

Two read modes mirror the pipeline's: scaled (BZERO/BSCALE applied, bad
pixels at -200, photon-statistics uncertainty attached) and unscaled
(raw values for memory-mapped workflows, bad pixels at -32768, no
uncertainty, radiometric conversions refused downstream).
*/
package level2

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/astrogo/fitsio"

	"github.jpl.nasa.gov/bdube/goiris/cube"
	"github.jpl.nasa.gov/bdube/goiris/detector"
)

// startObsLayout parses STARTOBS / ENDOBS keywords.
const startObsLayout = "2006-01-02T15:04:05.999"

// utimeEpoch anchors the level 2 time scale, seconds since 1979-01-01.
var utimeEpoch = time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC)

// header pulls a keyword value, nil if absent.
func header(hdr *fitsio.Header, key string) interface{} {
	c := hdr.Get(key)
	if c == nil {
		return nil
	}
	return c.Value
}

func headerString(hdr *fitsio.Header, key string) string {
	if s, ok := header(hdr, key).(string); ok {
		return s
	}
	return ""
}

func headerInt(hdr *fitsio.Header, key string) (int, bool) {
	switch v := header(hdr, key).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func headerFloat(hdr *fitsio.Header, key string) (float64, bool) {
	switch v := header(hdr, key).(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// readImage reads an image HDU into float64s.  shape is returned slowest
// axis first (FITS stores NAXIS1 fastest).  When scale is true, BZERO and
// BSCALE are applied; fitsio leaves that to the caller, which is exactly
// what the unscaled mode needs.
func readImage(hdu fitsio.HDU, scale bool) ([]float64, []int, error) {
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, nil, fmt.Errorf("level2: HDU %q is not an image", hdu.Name())
	}
	hdr := img.Header()
	axes := hdr.Axes()
	n := 1
	for _, ax := range axes {
		n *= ax
	}
	out := make([]float64, n)
	switch hdr.Bitpix() {
	case 8:
		raw := make([]int8, n)
		if err := img.Read(&raw); err != nil {
			return nil, nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 16:
		raw := make([]int16, n)
		if err := img.Read(&raw); err != nil {
			return nil, nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 32:
		raw := make([]int32, n)
		if err := img.Read(&raw); err != nil {
			return nil, nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -64:
		if err := img.Read(&out); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("level2: unsupported BITPIX %d", hdr.Bitpix())
	}
	if scale {
		bzero, okZ := headerFloat(hdr, "BZERO")
		bscale, okS := headerFloat(hdr, "BSCALE")
		if !okS || bscale == 0 {
			bscale = 1
		}
		if !okZ {
			bzero = 0
		}
		if okZ || okS {
			for i := range out {
				out[i] = out[i]*bscale + bzero
			}
		}
	}
	// reverse axes: FITS order is fastest first
	shape := make([]int, len(axes))
	for i, ax := range axes {
		shape[len(axes)-1-i] = ax
	}
	return out, shape, nil
}

// auxTable is the decoded auxiliary extension: per-frame columns addressed
// by name.
type auxTable struct {
	data  []float64
	rows  int
	cols  int
	index map[string]int
	hdr   *fitsio.Header
}

// readAux decodes the auxiliary image extension.  Column indices come from
// the extension's own header keywords (TIME, EXPTIMES, PZTX, ...).
func readAux(hdu fitsio.HDU) (*auxTable, error) {
	data, shape, err := readImage(hdu, true)
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("level2: auxiliary extension must be 2D, got %dD", len(shape))
	}
	t := &auxTable{data: data, rows: shape[0], cols: shape[1], index: map[string]int{}, hdr: hdu.Header()}
	return t, nil
}

// Column returns the named per-frame column, resolving the index through
// the extension header.
func (t *auxTable) Column(name string) ([]float64, error) {
	idx, ok := headerInt(t.hdr, name)
	if !ok {
		return nil, fmt.Errorf("level2: auxiliary extension has no column index keyword %q", name)
	}
	if idx < 0 || idx >= t.cols {
		return nil, fmt.Errorf("level2: column index %d for %q outside %d columns", idx, name, t.cols)
	}
	out := make([]float64, t.rows)
	for r := 0; r < t.rows; r++ {
		out[r] = t.data[r*t.cols+idx]
	}
	return out, nil
}

// startObs parses the STARTOBS keyword into utime seconds.
func startObs(hdr *fitsio.Header) (float64, error) {
	s := headerString(hdr, "STARTOBS")
	if s == "" {
		return 0, fmt.Errorf("level2: missing STARTOBS keyword")
	}
	t, err := time.Parse(startObsLayout, s)
	if err != nil {
		return 0, fmt.Errorf("level2: bad STARTOBS %q: %w", s, err)
	}
	return t.Sub(utimeEpoch).Seconds(), nil
}

// uncertaintyDN derives the 1-sigma uncertainty of scaled DN data from
// photon statistics plus readout noise, expressed back in DN.
func uncertaintyDN(data []float64, det detector.Type) []float64 {
	gain := det.DNToPhoton()
	rn := det.ReadoutNoise()
	out := make([]float64, len(data))
	for i, dn := range data {
		out[i] = math.Sqrt(math.Abs(dn*gain)+rn*rn) / gain
	}
	return out
}

// openFITS opens a FITS file, returning the file handle for closing.
func openFITS(path string) (*os.File, *fitsio.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	fits, err := fitsio.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("level2: %s: %w", path, err)
	}
	return f, fits, nil
}

// sharedAuxCoords pulls the auxiliary columns every product carries.
func sharedAuxCoords(aux *auxTable, t0 float64) (cube.Coords, error) {
	coords := cube.Coords{}
	times, err := aux.Column("TIME")
	if err != nil {
		return nil, err
	}
	for i := range times {
		times[i] += t0
	}
	coords[cube.CoordTime] = times
	// pointing and orbital columns; optional in synthetic files
	for _, name := range []string{"PZTX", "PZTY", "XCENIX", "YCENIX", "OBS_VRIX", "OPHASEIX"} {
		if col, err := aux.Column(name); err == nil {
			coords[name] = col
		}
	}
	return coords, nil
}

// extractMeta copies the observation keywords a cube carries around.
func extractMeta(hdr *fitsio.Header, det string) cube.Meta {
	meta := cube.Meta{cube.KeyDetectorType: det}
	for _, key := range []string{"TELESCOP", "INSTRUME", "DATA_LEV", "OBS_DESC", "STARTOBS", "ENDOBS"} {
		if v := header(hdr, key); v != nil {
			meta[key] = v
		}
	}
	for _, key := range []string{"OBSID", "NRASTERP"} {
		if v, ok := headerInt(hdr, key); ok {
			meta[key] = v
		}
	}
	for _, key := range []string{"TWAVE1", "SAT_ROT", "FOVX", "FOVY", "XCEN", "YCEN"} {
		if v, ok := headerFloat(hdr, key); ok {
			meta[key] = v
		}
	}
	return meta
}
