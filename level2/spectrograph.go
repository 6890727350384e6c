package level2

import (
	"fmt"
	"strings"

	"github.jpl.nasa.gov/bdube/goiris/cube"
	"github.jpl.nasa.gov/bdube/goiris/detector"
	"github.jpl.nasa.gov/bdube/goiris/ndarray"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

// Window describes one spectral window of a raster observation, from the
// TDESCn / TDETn / TWAVEn / TWMINn / TWMAXn keyword groups.
type Window struct {
	// Name is the window label, e.g. "Si IV 1394".
	Name string

	// Detector is FUV1, FUV2 or NUV.
	Detector string

	// Brightest, Min and Max are wavelengths in Angstrom.
	Brightest float64
	Min       float64
	Max       float64
}

// Raster holds one spectrograph raster scan: one cube per spectral window,
// all sharing the observation metadata and auxiliary coordinates.
type Raster struct {
	// Windows maps window name to its cube.
	Windows map[string]*cube.Cube

	// Info lists the windows in file order.
	Info []Window

	// Meta is the primary header metadata.
	Meta cube.Meta
}

// ReadSpectrograph reads a level 2 raster file.  want selects spectral
// windows by name; nil or empty means all windows in the file.  Requesting
// a window the file does not carry is an error.
func ReadSpectrograph(path string, want []string) (*Raster, error) {
	f, fits, err := openFITS(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer fits.Close()

	primary := fits.HDU(0)
	hdr := primary.Header()
	nwin, ok := headerInt(hdr, "NWIN")
	if !ok || nwin < 1 {
		return nil, fmt.Errorf("level2: %s: missing or bad NWIN keyword", path)
	}

	windows := make([]Window, 0, nwin)
	for i := 1; i <= nwin; i++ {
		w := Window{
			Name:     headerString(hdr, fmt.Sprintf("TDESC%d", i)),
			Detector: headerString(hdr, fmt.Sprintf("TDET%d", i)),
		}
		w.Brightest, _ = headerFloat(hdr, fmt.Sprintf("TWAVE%d", i))
		w.Min, _ = headerFloat(hdr, fmt.Sprintf("TWMIN%d", i))
		w.Max, _ = headerFloat(hdr, fmt.Sprintf("TWMAX%d", i))
		windows = append(windows, w)
	}

	selected, err := selectWindows(windows, want, path)
	if err != nil {
		return nil, err
	}

	// auxiliary extension is the second to last HDU
	nhdu := len(fits.HDUs())
	if nhdu < nwin+2 {
		return nil, fmt.Errorf("level2: %s: %d HDUs is too few for %d windows", path, nhdu, nwin)
	}
	aux, err := readAux(fits.HDU(nhdu - 2))
	if err != nil {
		return nil, fmt.Errorf("level2: %s: %w", path, err)
	}
	t0, err := startObs(hdr)
	if err != nil {
		return nil, err
	}
	baseCoords, err := sharedAuxCoords(aux, t0)
	if err != nil {
		return nil, err
	}
	exptFUV, errF := aux.Column("EXPTIMEF")
	exptNUV, errN := aux.Column("EXPTIMEN")

	out := &Raster{Windows: map[string]*cube.Cube{}, Info: selected}
	for _, w := range selected {
		idx := windowIndex(windows, w.Name)
		data, shape, err := readImage(fits.HDU(idx+1), true)
		if err != nil {
			return nil, fmt.Errorf("level2: %s window %q: %w", path, w.Name, err)
		}
		arr, err := ndarray.FromSlice(data, shape...)
		if err != nil {
			return nil, err
		}
		det, err := detector.Parse(w.Detector)
		if err != nil {
			return nil, fmt.Errorf("level2: %s window %q: %w", path, w.Name, err)
		}

		coords := cube.Coords{}
		for k, v := range baseCoords {
			coords[k] = v
		}
		if det.Channel() == detector.FUV {
			if errF != nil {
				return nil, errF
			}
			coords[cube.CoordExposureTime] = exptFUV
		} else {
			if errN != nil {
				return nil, errN
			}
			coords[cube.CoordExposureTime] = exptNUV
		}

		meta := extractMeta(hdr, w.Detector)
		meta[cube.KeySpectralWindow] = w.Name
		meta["TWMIN"] = w.Min
		meta["TWMAX"] = w.Max

		bad := make([]bool, len(arr.Data))
		for i, v := range arr.Data {
			if v == detector.BadPixelScaled {
				bad[i] = true
			}
		}
		uncert, err := ndarray.FromSlice(uncertaintyDN(arr.Data, det), shape...)
		if err != nil {
			return nil, err
		}
		c, err := cube.NewSpectral(arr, uncert, units.DN, meta, coords)
		if err != nil {
			return nil, err
		}
		for i, b := range bad {
			if b {
				c.Mask.Data[i] = true
			}
		}
		out.Windows[w.Name] = c
	}
	out.Meta = extractMeta(hdr, "FUV")
	return out, nil
}

// selectWindows resolves the requested window names against the file's.
func selectWindows(have []Window, want []string, path string) ([]Window, error) {
	if len(want) == 0 {
		return have, nil
	}
	out := make([]Window, 0, len(want))
	for _, name := range want {
		idx := windowIndex(have, name)
		if idx < 0 {
			known := make([]string, len(have))
			for i, w := range have {
				known[i] = w.Name
			}
			return nil, fmt.Errorf("level2: %s: no spectral window %q (file has %s)",
				path, name, strings.Join(known, ", "))
		}
		out = append(out, have[idx])
	}
	return out, nil
}

func windowIndex(ws []Window, name string) int {
	for i, w := range ws {
		if w.Name == name {
			return i
		}
	}
	return -1
}
