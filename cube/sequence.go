package cube

import (
	"fmt"

	"github.jpl.nasa.gov/bdube/goiris/units"
)

// InconsistentObservationError reports an attempt to aggregate cubes from
// different observations into one sequence.
type InconsistentObservationError struct {
	Field string
	Want  interface{}
	Got   interface{}
}

func (e *InconsistentObservationError) Error() string {
	return fmt.Sprintf("cube: sequence members must share %s; want %v, got %v", e.Field, e.Want, e.Got)
}

// Sequence aggregates cubes from the same observation: same OBSID and, for
// SJI data, the same passband (TWAVE1); for spectrograph data, the same
// spectral window.
type Sequence struct {
	Cubes []*Cube

	// Meta is the metadata of the first member, shared by all.
	Meta Meta
}

// NewSequence validates and aggregates the cubes.  At least one cube is
// required.
func NewSequence(cubes []*Cube) (*Sequence, error) {
	if len(cubes) == 0 {
		return nil, fmt.Errorf("cube: empty sequence")
	}
	first := cubes[0]
	obsid := first.Meta["OBSID"]
	band := first.Meta["TWAVE1"]
	window := first.Meta.String(KeySpectralWindow)
	for _, c := range cubes[1:] {
		if c.Meta["OBSID"] != obsid {
			return nil, &InconsistentObservationError{Field: "OBSID", Want: obsid, Got: c.Meta["OBSID"]}
		}
		if c.Meta["TWAVE1"] != band {
			return nil, &InconsistentObservationError{Field: "TWAVE1", Want: band, Got: c.Meta["TWAVE1"]}
		}
		if c.Meta.String(KeySpectralWindow) != window {
			return nil, &InconsistentObservationError{
				Field: KeySpectralWindow, Want: window, Got: c.Meta.String(KeySpectralWindow)}
		}
	}
	return &Sequence{Cubes: cubes, Meta: first.Meta}, nil
}

// ApplyExposureTimeCorrection applies or undoes the correction on every
// member, returning a new sequence.  The operation is all-or-nothing: if any
// member fails, no new sequence is produced.
func (s *Sequence) ApplyExposureTimeCorrection(undo, force bool) (*Sequence, error) {
	out := make([]*Cube, len(s.Cubes))
	for i, c := range s.Cubes {
		nc, err := c.ApplyExposureTimeCorrection(undo, force)
		if err != nil {
			return nil, fmt.Errorf("cube: sequence member %d: %w", i, err)
		}
		out[i] = nc
	}
	return &Sequence{Cubes: out, Meta: s.Meta}, nil
}

// ConvertCounts converts every member between the DN and photon families,
// returning a new sequence.
func (s *Sequence) ConvertCounts(target units.Unit) (*Sequence, error) {
	out := make([]*Cube, len(s.Cubes))
	for i, c := range s.Cubes {
		nc, err := c.ConvertCounts(target)
		if err != nil {
			return nil, fmt.Errorf("cube: sequence member %d: %w", i, err)
		}
		out[i] = nc
	}
	return &Sequence{Cubes: out, Meta: s.Meta}, nil
}

// ApplyDustMask sets or clears dust positions on every member's mask in
// place.
func (s *Sequence) ApplyDustMask(undo bool) {
	for _, c := range s.Cubes {
		c.ApplyDustMask(undo)
	}
}
