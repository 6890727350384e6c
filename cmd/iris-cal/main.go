// Command iris-cal converts an IRIS level 2 file between calibration states
// and writes the result as a new FITS file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/theckman/yacspin"

	"github.jpl.nasa.gov/bdube/goiris/cube"
	"github.jpl.nasa.gov/bdube/goiris/level2"
	"github.jpl.nasa.gov/bdube/goiris/mathx"
	"github.jpl.nasa.gov/bdube/goiris/radiometry"
	"github.jpl.nasa.gov/bdube/goiris/rec"
	"github.jpl.nasa.gov/bdube/goiris/response"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

func usage() {
	fmt.Fprintf(os.Stderr, `iris-cal converts an IRIS level 2 file between calibration states.

Usage:
	iris-cal [flags] <file.fits>

Target units for -to include %q, %q, %q, and %q.  Radiance requires
-dispersion, -solid-angle, and -window for raster files.

Flags:
`, "DN", "photon", "photon / s", "radiance")
	flag.PrintDefaults()
}

func main() {
	var (
		window     = flag.String("window", "", "spectral window to read from a raster file; empty means SJI")
		unscaled   = flag.Bool("unscaled", false, "skip header scaling, leave the data in unscaled DN")
		to         = flag.String("to", "photon / s", "target unit, or 'radiance'")
		dust       = flag.Bool("dust", false, "mask dust positions before writing")
		version    = flag.Int("cal-version", response.MaxVersion, "response calibration version")
		calDir     = flag.String("cal-dir", "calibration", "directory holding the response calibration files")
		segment    = flag.String("segment", "", "response segment for radiance; defaults to the window name")
		dispersion = flag.Float64("dispersion", 0, "spectral plate scale, Angstrom per pixel")
		solidAngle = flag.Float64("solid-angle", 0, "pixel solid angle, steradian")
		outDir     = flag.String("out", ".", "directory to write output under")
		prefix     = flag.String("prefix", "iriscal", "output file name prefix")
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[59],
		SuffixAutoColon: true,
		StopCharacter:   "done",
	}
	spinner, err := yacspin.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	spinner.Suffix(" reading " + path)
	spinner.Start()

	var c *cube.Cube
	if *window == "" {
		c, err = level2.ReadSJI(path, *unscaled)
	} else {
		var ras *level2.Raster
		ras, err = level2.ReadSpectrograph(path, []string{*window})
		if err == nil {
			c = ras.Windows[*window]
		}
	}
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}

	spinner.Suffix(" converting to " + *to)
	c, err = convert(c, *to, *version, *calDir, *segment, *window, *dispersion, *solidAngle)
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}
	if *dust {
		c.ApplyDustMask(false)
	}

	spinner.Suffix(" writing")
	r := rec.Recorder{Root: *outDir, Prefix: *prefix, Enabled: true}
	out, err := r.WriteCube(c)
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}
	spinner.Stop()
	fmt.Println("wrote", out)
}

// cubeWavelengths builds the per-column wavelength vector for the cube's
// last axis: the window's TWMIN..TWMAX span for raster windows, the constant
// TWAVE1 passband center for SJI.
func cubeWavelengths(c *cube.Cube) []float64 {
	n := c.Data.Shape[len(c.Data.Shape)-1]
	if min, ok := c.Meta.Float("TWMIN"); ok {
		max, _ := c.Meta.Float("TWMAX")
		return mathx.Linspace(min, max, n)
	}
	w, _ := c.Meta.Float("TWAVE1")
	out := make([]float64, n)
	for i := range out {
		out[i] = w
	}
	return out
}

// convert walks the cube to the target unit
func convert(c *cube.Cube, to string, version int, calDir, segment, window string, dispersion, solidAngle float64) (*cube.Cube, error) {
	if strings.EqualFold(to, "radiance") {
		if segment == "" {
			segment = window
		}
		cache := response.NewCache(calDir)
		table, err := cache.Get(response.Options{Version: version})
		if err != nil {
			return nil, err
		}
		seg, err := table.Segment(segment)
		if err != nil {
			return nil, err
		}
		// counts first, radiance handles the rest
		c, err = c.ConvertCounts(units.Photon)
		if err != nil {
			return nil, err
		}
		p := radiometry.RadianceParams{
			Table:      table,
			Segment:    seg.Name,
			Wavelength: cubeWavelengths(c),
			Dispersion: dispersion,
			SolidAngle: solidAngle,
		}
		return c.ToRadiance(p)
	}
	target, err := units.Parse(to)
	if err != nil {
		return nil, err
	}
	switch target.TimeExponent() {
	case 0:
		return c.ConvertCounts(target)
	case -1:
		base, err := target.TimesSecond(true)
		if err != nil {
			return nil, err
		}
		c, err = c.ConvertCounts(base)
		if err != nil {
			return nil, err
		}
		return c.ApplyExposureTimeCorrection(false, false)
	default:
		return nil, &units.UnsupportedUnitError{Have: to}
	}
}
