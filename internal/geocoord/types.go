// Package geocoord provides the geodesic data model and helper
// operations that spec.md treats as an external collaborator (distance,
// bearing, interpolation, splitting, joining, buffering on WGS-84
// coordinates). Built on github.com/paulmach/orb, grounded on
// mmp-vice/misc/airspace.go's use of orb for polygon geometry.
package geocoord

import "github.com/paulmach/orb"

// Coordinates is a (longitude, latitude) pair in decimal degrees, WGS-84.
type Coordinates struct {
	Lon float64
	Lat float64
}

func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func FromPoint(p orb.Point) Coordinates {
	return Coordinates{Lon: p[0], Lat: p[1]}
}

// LineString is an ordered sequence of >= 2 Coordinates.
type LineString []Coordinates

func (ls LineString) ToOrb() orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, c := range ls {
		out[i] = c.Point()
	}
	return out
}

func FromOrbLineString(ols orb.LineString) LineString {
	out := make(LineString, len(ols))
	for i, p := range ols {
		out[i] = FromPoint(p)
	}
	return out
}

func (ls LineString) Start() Coordinates {
	return ls[0]
}

func (ls LineString) End() Coordinates {
	return ls[len(ls)-1]
}

// Reverse returns a new LineString with coordinates in reverse order.
func (ls LineString) Reverse() LineString {
	out := make(LineString, len(ls))
	for i, c := range ls {
		out[len(ls)-1-i] = c
	}
	return out
}

// Polygon is a simple closed LineString bounding an interior region.
type Polygon struct {
	Ring LineString
}

func (p Polygon) ToOrb() orb.Polygon {
	return orb.Polygon{p.Ring.ToOrb()}
}

func FromOrbPolygon(op orb.Polygon) Polygon {
	if len(op) == 0 {
		return Polygon{}
	}
	return Polygon{Ring: FromOrbLineString(op[0])}
}
