// Package rec contains a recorder used to save converted cubes to disk as
// FITS files with incrementing filenames in yyyy-mm-dd subfolders.
package rec

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/astrogo/fitsio"

	"github.jpl.nasa.gov/bdube/goiris/cube"
)

// Recorder writes cube FITS files with incrementing filenames.  It is not
// thread safe.
type Recorder struct {
	// counter is the internally incrementing counter
	counter int

	// Root is the root path
	Root string

	// Prefix is the prefix for the filenames
	Prefix string

	// timeFldr is the subfolder with yyyy-mm-dd format.
	timeFldr string

	// Enabled is a flag unused by this struct that allows consumers to
	// disable its use in their code
	Enabled bool
}

// updateFolder checks the current time and updates the folder as needed
func (r *Recorder) updateFolder() {
	now := time.Now()
	y, m, d := now.Year(), now.Month(), now.Day()
	r.timeFldr = fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

// mkDir makes the folder and returns it
func (r *Recorder) mkDir() (string, error) {
	fldr := path.Join(r.Root, r.timeFldr)
	err := os.MkdirAll(fldr, 0777)
	return fldr, err
}

// WriteCube serializes a cube to the next numbered FITS file and returns
// the path written.  The pixel data goes in the primary HDU as float64 with
// the unit state and observation keywords in the header; uncertainty, when
// present, goes in an extension named SIGMA.
func (r *Recorder) WriteCube(c *cube.Cube) (string, error) {
	r.updateFolder()
	fldr, err := r.mkDir()
	if err != nil {
		return "", err
	}
	fn := fmt.Sprintf("%s%06d.fits", r.Prefix, r.counter)
	fn = path.Join(fldr, fn)
	fid, err := os.Create(fn)
	if err != nil {
		return "", err
	}
	defer fid.Close()

	fits, err := fitsio.Create(fid)
	if err != nil {
		return "", err
	}
	defer fits.Close()

	// fits axes are fastest first
	dims := make([]int, len(c.Data.Shape))
	for i, s := range c.Data.Shape {
		dims[len(dims)-1-i] = s
	}
	im := fitsio.NewImage(-64, dims)
	defer im.Close()
	cards := []fitsio.Card{
		{Name: "BUNIT", Value: c.Unit.String()},
		{Name: "DETECTOR", Value: c.Meta.String(cube.KeyDetectorType)},
		{Name: "DUSTMASK", Value: c.DustMasked},
	}
	if v, ok := c.Meta["OBSID"]; ok {
		cards = append(cards, fitsio.Card{Name: "OBSID", Value: v})
	}
	if w := c.Meta.String(cube.KeySpectralWindow); w != "" {
		cards = append(cards, fitsio.Card{Name: "SPWIN", Value: w})
	}
	if err := im.Header().Append(cards...); err != nil {
		return "", err
	}
	if err := im.Write(c.Data.Data); err != nil {
		return "", err
	}
	if err := fits.Write(im); err != nil {
		return "", err
	}
	if c.Uncertainty != nil {
		sig := fitsio.NewImage(-64, dims)
		defer sig.Close()
		if err := sig.Header().Append(fitsio.Card{Name: "EXTNAME", Value: "SIGMA"}); err != nil {
			return "", err
		}
		if err := sig.Write(c.Uncertainty.Data); err != nil {
			return "", err
		}
		if err := fits.Write(sig); err != nil {
			return "", err
		}
	}
	r.counter++
	return fn, nil
}

// Incr updates the filename counter; it scans the folder to do so.  If
// there is an error, the counter is not incremented
func (r *Recorder) Incr() {
	dn, _ := r.mkDir()
	files, err := ioutil.ReadDir(dn)
	if err != nil {
		return
	}
	count := 0
	for _, file := range files {
		// skip directories, non-fits, and wrong prefix
		if file.IsDir() {
			continue
		}
		fn := file.Name()
		if !strings.HasSuffix(fn, ".fits") || !strings.HasPrefix(fn, r.Prefix) {
			continue
		}
		bit := strings.Split(fn, r.Prefix)[1]
		bit = bit[:len(bit)-5] // pop fits
		n, err := strconv.Atoi(bit)
		if err != nil {
			return
		}
		if count < n {
			count = n
		}
	}
	r.counter = count + 1
}
