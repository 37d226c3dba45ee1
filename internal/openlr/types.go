// Package openlr implements the OpenLR physical binary format codec:
// decode(bytes) -> LocationReference, the external collaborator spec.md
// §6 specifies by signature only. Line locations are decoded in full;
// every other location type tag is recognized from the header alone and
// surfaced as an UnsupportedLocationReference, since supporting
// non-line location types is an explicit non-goal.
package openlr

import "github.com/tomtom-odat/odat-go/internal/geocoord"

// FRC is OpenLR's Functional Road Class, 0 (most important) to 7
// (least important).
type FRC int

const (
	FRC0 FRC = iota
	FRC1
	FRC2
	FRC3
	FRC4
	FRC5
	FRC6
	FRC7
)

// FOW is OpenLR's Form Of Way.
type FOW int

const (
	FOWUndefined FOW = iota
	FOWMotorway
	FOWMultipleCarriageway
	FOWSingleCarriageway
	FOWRoundabout
	FOWTrafficSquare
	FOWSlipRoad
	FOWOther
)

// LocationType identifies the binary header's location reference tag.
type LocationType int

const (
	LocationTypeLine LocationType = iota + 1
	LocationTypeGeoCoordinate
	LocationTypePointAlongLine
	LocationTypePOIWithAccessPoint
	LocationTypeCircle
	LocationTypeRectangle
	LocationTypeGrid
	LocationTypePolygon
	LocationTypeClosedLine
)

// LocationReference is the tagged-variant decode result. Only
// *LineLocationReference carries a fully decoded payload; every other
// constructor returns an *UnsupportedLocationReference whose Type field
// records the tag that was read from the header.
type LocationReference interface {
	locationReference()
	Type() LocationType
}

// UnsupportedLocationReference marks any binary payload whose header
// identifies a location type other than line location. Its presence
// is sufficient for the analyzer to return UNSUPPORTED_LOCATION_TYPE
// without attempting to decode the remaining payload.
type UnsupportedLocationReference struct {
	LocationType LocationType
}

func (*UnsupportedLocationReference) locationReference()  {}
func (u *UnsupportedLocationReference) Type() LocationType { return u.LocationType }

// LocationReferencePoint is one LRP of a line location reference.
type LocationReferencePoint struct {
	Coordinates geocoord.Coordinates
	FRC         FRC
	FOW         FOW
	Bearing     float64 // degrees, [0, 360)
	LFRCNP      FRC     // lowest FRC to next point; meaningless on the last LRP
	DNP         float64 // distance to next point, meters; meaningless on the last LRP
}

// LineLocationReference is the fully decoded payload of a line-location
// binary OpenLR code: an ordered LRP chain plus positive/negative
// offsets in meters.
type LineLocationReference struct {
	Points   []LocationReferencePoint
	PosOff   float64
	NegOff   float64
}

func (*LineLocationReference) locationReference()  {}
func (*LineLocationReference) Type() LocationType { return LocationTypeLine }
