package level2

import (
	"fmt"

	"github.jpl.nasa.gov/bdube/goiris/cube"
	"github.jpl.nasa.gov/bdube/goiris/detector"
	"github.jpl.nasa.gov/bdube/goiris/ndarray"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

// ReadSJI reads one level 2 slit-jaw imaging file into a cube.
//
// With unscaled=false the pixel values have BZERO/BSCALE applied, bad
// pixels (-200) are masked and set to NaN, and a photon-statistics
// uncertainty is attached.  With unscaled=true the raw values are kept
// (bad pixels -32768 zeroed), no uncertainty exists, and the resulting
// cube refuses radiometric conversions.
func ReadSJI(path string, unscaled bool) (*cube.Cube, error) {
	f, fits, err := openFITS(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer fits.Close()

	// auxiliary extension follows the primary HDU
	if nhdu := len(fits.HDUs()); nhdu < 2 {
		return nil, fmt.Errorf("level2: %s: %d HDUs is too few for an SJI file", path, nhdu)
	}
	primary := fits.HDU(0)
	hdr := primary.Header()
	data, shape, err := readImage(primary, !unscaled)
	if err != nil {
		return nil, fmt.Errorf("level2: %s: %w", path, err)
	}
	arr, err := ndarray.FromSlice(data, shape...)
	if err != nil {
		return nil, err
	}

	aux, err := readAux(fits.HDU(1))
	if err != nil {
		return nil, fmt.Errorf("level2: %s: %w", path, err)
	}
	t0, err := startObs(hdr)
	if err != nil {
		return nil, err
	}
	coords, err := sharedAuxCoords(aux, t0)
	if err != nil {
		return nil, err
	}
	expt, err := aux.Column("EXPTIMES")
	if err != nil {
		return nil, err
	}
	coords[cube.CoordExposureTime] = expt
	for _, name := range []string{"SLTPX1IX", "SLTPX2IX"} {
		if col, err := aux.Column(name); err == nil {
			coords[name] = col
		}
	}

	meta := extractMeta(hdr, "SJI")
	meta["NBFRAMES"] = shape[0]

	if unscaled {
		for i, v := range arr.Data {
			if v == detector.BadPixelUnscaled {
				arr.Data[i] = 0
			}
		}
		return cube.New(arr, nil, units.DNUnscaled, meta, coords)
	}

	bad := make([]bool, len(arr.Data))
	for i, v := range arr.Data {
		if v == detector.BadPixelScaled {
			bad[i] = true
		}
	}
	uncert, err := ndarray.FromSlice(uncertaintyDN(arr.Data, detector.SJI), shape...)
	if err != nil {
		return nil, err
	}
	c, err := cube.New(arr, uncert, units.DN, meta, coords)
	if err != nil {
		return nil, err
	}
	for i, b := range bad {
		if b {
			c.Mask.Data[i] = true
		}
	}
	return c, nil
}

// ReadSJISequence reads several SJI files from the same observation into a
// sequence; a single path returns a one-member sequence.  Mismatched OBSID
// or passband across the files is an error.
func ReadSJISequence(paths []string, unscaled bool) (*cube.Sequence, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("level2: no files given")
	}
	cubes := make([]*cube.Cube, len(paths))
	for i, p := range paths {
		c, err := ReadSJI(p, unscaled)
		if err != nil {
			return nil, err
		}
		cubes[i] = c
	}
	return cube.NewSequence(cubes)
}
