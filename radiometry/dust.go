package radiometry

import (
	"github.jpl.nasa.gov/bdube/goiris/detector"
	"github.jpl.nasa.gov/bdube/goiris/ndarray"
)

// CalculateDustMask returns a mask that is true exactly where the data holds
// the scaled bad-pixel sentinel (-200), the value the level 2 pipeline
// writes over dust-contaminated and otherwise bad pixels.  Pure function; the
// data is not touched.
func CalculateDustMask(data *ndarray.Array) *ndarray.Mask {
	m := ndarray.NewMask(data)
	for i, v := range data.Data {
		if v == detector.BadPixelScaled {
			m.Data[i] = true
		}
	}
	return m
}
