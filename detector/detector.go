/*Package detector enumerates the IRIS detector channels and their fixed
conversion constants.

IRIS has two spectrograph CCDs (FUV split into FUV1 and FUV2 readouts, and
NUV) plus the slit-jaw imager.  Each channel has a fixed DN-to-photon gain
and readout noise; those never vary with time, unlike the effective area
handled by package response.
*/
package detector

import "fmt"

// Type identifies a detector channel.
type Type int

// The IRIS detector channels.
const (
	// FUV is the far ultraviolet CCD, either readout.
	FUV Type = iota

	// FUV1 is the short-wavelength FUV readout.
	FUV1

	// FUV2 is the long-wavelength FUV readout.
	FUV2

	// NUV is the near ultraviolet CCD.
	NUV

	// SJI is the slit-jaw imager.
	SJI
)

// Bad pixel sentinel values written by the level 2 pipeline.
const (
	// BadPixelScaled marks bad or dust pixels in scaled (BZERO/BSCALE
	// applied) data.
	BadPixelScaled = -200

	// BadPixelUnscaled marks bad pixels in unscaled, memory-mapped data.
	BadPixelUnscaled = -32768
)

var typeNames = map[Type]string{
	FUV:  "FUV",
	FUV1: "FUV1",
	FUV2: "FUV2",
	NUV:  "NUV",
	SJI:  "SJI",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Parse maps a "detector type" metadata value to a Type.  The level 2 files
// label spectral windows FUV1 or FUV2; both share the FUV CCD constants.
func Parse(s string) (Type, error) {
	switch s {
	case "FUV", "FUV1", "FUV2":
		// FUV1/FUV2 distinguish readout regions; keep the precise label.
		for t, name := range typeNames {
			if name == s {
				return t, nil
			}
		}
	case "NUV":
		return NUV, nil
	case "SJI":
		return SJI, nil
	}
	return 0, fmt.Errorf("detector: unrecognized detector type %q", s)
}

// Channel collapses the readout-specific labels to the channel with the
// physical constants: FUV1 and FUV2 both map to FUV.
func (t Type) Channel() Type {
	if t == FUV1 || t == FUV2 {
		return FUV
	}
	return t
}

// dnToPhoton is the fixed gain in photons per DN for each channel.
var dnToPhoton = map[Type]float64{
	FUV: 4,
	NUV: 18,
	SJI: 18,
}

// DNToPhoton returns the photons-per-DN gain for the channel.
func (t Type) DNToPhoton() float64 {
	return dnToPhoton[t.Channel()]
}

// readoutNoise is the RMS readout noise per channel, in photons.
var readoutNoise = map[Type]float64{
	FUV: 3.1,
	NUV: 1.2,
	SJI: 1.2,
}

// ReadoutNoise returns the channel readout noise in photons.
func (t Type) ReadoutNoise() float64 {
	return readoutNoise[t.Channel()]
}
