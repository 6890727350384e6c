/*Package units describes the closed set of radiometric unit states for IRIS
level 2 data and the legal moves between them.

Pixel values pass through a small state machine: raw detector counts (DN),
photon counts, their exposure-time corrected rates, and physical radiance.
Every conversion the engine performs is an edge on that machine, so a unit is
represented as an enum rather than a free-form string; an undefined edge is an
error at the point of request, not a silent mislabel.
*/
package units

import (
	"errors"
	"fmt"
)

// Unit is one radiometric unit state.
type Unit int

// The unit states.  DNUnscaled tags memory-mapped data that has not had
// BZERO/BSCALE applied; it does not participate in conversions.
const (
	// Invalid is the zero value, held by no real data.
	Invalid Unit = iota

	// DNUnscaled is raw, unscaled detector counts (memmap reads).
	DNUnscaled

	// DN is detector counts.
	DN

	// DNPerSecond is detector counts per second of exposure.
	DNPerSecond

	// DNSecond is detector counts times seconds (over-undone correction).
	DNSecond

	// DNPerSecondSquared is DN/s with a second correction forced on top.
	DNPerSecondSquared

	// Photon is photon counts.
	Photon

	// PhotonPerSecond is photons per second of exposure.
	PhotonPerSecond

	// PhotonSecond is photons times seconds (over-undone correction).
	PhotonSecond

	// PhotonPerSecondSquared is photon/s with a second correction forced on top.
	PhotonPerSecondSquared

	// Radiance is erg / s / cm^2 / sr / Angstrom.
	Radiance
)

var (
	// ErrAlreadyCorrected is returned when an exposure time correction is
	// applied to data whose unit already carries inverse time.
	ErrAlreadyCorrected = errors.New("exposure time correction already applied, pass force to reapply")

	// ErrNotCorrected is returned when an exposure time correction is undone
	// on data whose unit does not carry inverse time.
	ErrNotCorrected = errors.New("exposure time correction not yet applied, pass force to undo anyway")
)

var names = map[Unit]string{
	DNUnscaled:             "DN(unscaled)",
	DN:                     "DN",
	DNPerSecond:            "DN / s",
	DNSecond:               "DN s",
	DNPerSecondSquared:     "DN / s2",
	Photon:                 "photon",
	PhotonPerSecond:        "photon / s",
	PhotonSecond:           "photon s",
	PhotonPerSecondSquared: "photon / s2",
	Radiance:               "erg / (s cm2 sr Angstrom)",
}

func (u Unit) String() string {
	if s, ok := names[u]; ok {
		return s
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Parse converts a unit label as printed by String back to a Unit.
func Parse(s string) (Unit, error) {
	for u, name := range names {
		if s == name {
			return u, nil
		}
	}
	return Invalid, &UnsupportedUnitError{Have: s}
}

// UnsupportedUnitError is returned when a conversion is requested for a unit
// outside the family the operation understands.
type UnsupportedUnitError struct {
	Have string
	Want string
}

func (e *UnsupportedUnitError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("unsupported unit %s", e.Have)
	}
	return fmt.Sprintf("unsupported unit %s, need %s", e.Have, e.Want)
}

// TimeExponent returns the exponent of seconds carried by the unit;
// -1 for rates, +1 for over-undone corrections, 0 for plain counts.
func (u Unit) TimeExponent() int {
	switch u {
	case DNPerSecond, PhotonPerSecond, Radiance:
		return -1
	case DNPerSecondSquared, PhotonPerSecondSquared:
		return -2
	case DNSecond, PhotonSecond:
		return 1
	default:
		return 0
	}
}

// IsCountLike returns true for DN-family units.
func (u Unit) IsCountLike() bool {
	switch u {
	case DN, DNPerSecond, DNSecond, DNPerSecondSquared:
		return true
	}
	return false
}

// IsPhotonLike returns true for photon-family units.
func (u Unit) IsPhotonLike() bool {
	switch u {
	case Photon, PhotonPerSecond, PhotonSecond, PhotonPerSecondSquared:
		return true
	}
	return false
}

// perSecond is the closed table of legal "divide by seconds" moves.
var perSecond = map[Unit]Unit{
	DN:              DNPerSecond,
	DNSecond:        DN,
	DNPerSecond:     DNPerSecondSquared,
	Photon:          PhotonPerSecond,
	PhotonSecond:    Photon,
	PhotonPerSecond: PhotonPerSecondSquared,
}

// timesSecond is the closed table of legal "multiply by seconds" moves.
var timesSecond = map[Unit]Unit{
	DNPerSecond:            DN,
	DN:                     DNSecond,
	DNPerSecondSquared:     DNPerSecond,
	PhotonPerSecond:        Photon,
	Photon:                 PhotonSecond,
	PhotonPerSecondSquared: PhotonPerSecond,
}

// PerSecond returns the unit after division by seconds.  Unless force is
// set, units already carrying inverse time are refused with
// ErrAlreadyCorrected.
func (u Unit) PerSecond(force bool) (Unit, error) {
	if u.TimeExponent() < 0 && !force {
		return Invalid, ErrAlreadyCorrected
	}
	next, ok := perSecond[u]
	if !ok {
		return Invalid, &UnsupportedUnitError{Have: u.String()}
	}
	return next, nil
}

// TimesSecond returns the unit after multiplication by seconds, the inverse
// of PerSecond.  Unless force is set, units without inverse time are refused
// with ErrNotCorrected.
func (u Unit) TimesSecond(force bool) (Unit, error) {
	if u.TimeExponent() >= 0 && !force {
		return Invalid, ErrNotCorrected
	}
	next, ok := timesSecond[u]
	if !ok {
		return Invalid, &UnsupportedUnitError{Have: u.String()}
	}
	return next, nil
}

// CountingEquivalent maps a photon-family unit to its DN-family peer and
// vice versa, preserving the time exponent.  The bool reports whether the
// receiver was photon-like.
func (u Unit) CountingEquivalent() (Unit, bool, error) {
	pairs := map[Unit]Unit{
		DN:                     Photon,
		DNPerSecond:            PhotonPerSecond,
		DNSecond:               PhotonSecond,
		DNPerSecondSquared:     PhotonPerSecondSquared,
		Photon:                 DN,
		PhotonPerSecond:        DNPerSecond,
		PhotonSecond:           DNSecond,
		PhotonPerSecondSquared: DNPerSecondSquared,
	}
	next, ok := pairs[u]
	if !ok {
		return Invalid, false, &UnsupportedUnitError{Have: u.String(), Want: "a DN or photon family unit"}
	}
	return next, u.IsPhotonLike(), nil
}
