package geocoord

import (
	"math"

	"github.com/paulmach/orb/geo"
)

const earthRadiusM = 6371000.0

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func toDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// Distance returns the great-circle (haversine) distance between a and b, in
// meters, via orb/geo.DistanceHaversine.
func Distance(a, b Coordinates) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point())
}

// Bearing returns the initial bearing in degrees [0, 360) travelling from
// `from` toward `to` along a great circle, via orb/geo.Bearing (which
// returns [-180, 180]).
func Bearing(from, to Coordinates) float64 {
	return math.Mod(geo.Bearing(from.Point(), to.Point())+360.0, 360.0)
}

// DestinationPoint returns the point reached by travelling distanceM meters
// from `from` along initial bearing bearingDeg, via
// orb/geo.PointAtBearingAndDistance.
func DestinationPoint(from Coordinates, bearingDeg, distanceM float64) Coordinates {
	return FromPoint(geo.PointAtBearingAndDistance(from.Point(), bearingDeg, distanceM))
}

// LineStringLength returns the total geodesic length of ls, in meters.
func LineStringLength(ls LineString) float64 {
	total := 0.0
	for i := 1; i < len(ls); i++ {
		total += Distance(ls[i-1], ls[i])
	}
	return total
}

// Interpolate walks along coords accumulating segment lengths and returns
// the point distanceM meters along the path from its start. If distanceM
// exceeds the total length, the path's end point is returned.
func Interpolate(coords []Coordinates, distanceM float64) Coordinates {
	if len(coords) == 0 {
		return Coordinates{}
	}
	if distanceM <= 0 {
		return coords[0]
	}
	remaining := distanceM
	for i := 1; i < len(coords); i++ {
		segLen := Distance(coords[i-1], coords[i])
		if segLen >= remaining {
			brng := Bearing(coords[i-1], coords[i])
			return DestinationPoint(coords[i-1], brng, remaining)
		}
		remaining -= segLen
	}
	return coords[len(coords)-1]
}

// SplitLine splits ls at distanceM meters from its start. The first return
// value is the head (>=1 points, possibly degenerate); the second is the
// tail. If distanceM >= the line's length, tail is nil. If distanceM <= 0,
// head is nil.
func SplitLine(ls LineString, distanceM float64) (head, tail *LineString) {
	total := LineStringLength(ls)
	if distanceM <= 0 {
		t := append(LineString{}, ls...)
		return nil, &t
	}
	if distanceM >= total {
		h := append(LineString{}, ls...)
		return &h, nil
	}

	var headPts LineString
	remaining := distanceM
	headPts = append(headPts, ls[0])
	for i := 1; i < len(ls); i++ {
		segLen := Distance(ls[i-1], ls[i])
		if segLen >= remaining {
			brng := Bearing(ls[i-1], ls[i])
			splitPt := DestinationPoint(ls[i-1], brng, remaining)
			headPts = append(headPts, splitPt)
			tailPts := LineString{splitPt}
			tailPts = append(tailPts, ls[i:]...)
			h := headPts
			t := tailPts
			return &h, &t
		}
		headPts = append(headPts, ls[i])
		remaining -= segLen
	}
	h := headPts
	return &h, nil
}

// SplitLineAtPoint splits ls at the point on ls nearest to p, returning the
// prefix (start..nearest) and suffix (nearest..end).
func SplitLineAtPoint(ls LineString, p Coordinates) (prefix, suffix LineString) {
	_, distAlong := nearestPointOnLine(ls, p)
	head, tail := SplitLine(ls, distAlong)
	if head == nil {
		head = &LineString{ls[0]}
	}
	if tail == nil {
		tail = &LineString{ls[len(ls)-1]}
	}
	return *head, *tail
}

// JoinLines concatenates lines end-to-end, dropping the duplicated
// coordinate shared between the end of one segment and the start of the
// next.
func JoinLines(lines []LineString) LineString {
	var out LineString
	for _, l := range lines {
		if len(out) > 0 && len(l) > 0 {
			last := out[len(out)-1]
			if last == l[0] {
				out = append(out, l[1:]...)
				continue
			}
		}
		out = append(out, l...)
	}
	return out
}

// DistanceBetween returns the minimum geodesic distance, in meters, from p
// to any point on ls.
func DistanceBetween(ls LineString, p Coordinates) float64 {
	proj, _ := nearestPointOnLine(ls, p)
	return Distance(proj, p)
}

// localXY projects a Coordinates to a local equirectangular plane, scaled by
// cos(lat0), in meters, centered on origin. Valid only over the small
// extents (tens of meters) this package's splitting/projection helpers
// operate on -- the same simplification widely used for short-range
// corridor computations when an exact geodesic projection library isn't
// available.
func localXY(origin, c Coordinates) (x, y float64) {
	latRad := toRad(origin.Lat)
	x = toRad(c.Lon-origin.Lon) * math.Cos(latRad) * earthRadiusM
	y = toRad(c.Lat-origin.Lat) * earthRadiusM
	return
}

func localToCoord(origin Coordinates, x, y float64) Coordinates {
	latRad := toRad(origin.Lat)
	lon := origin.Lon + toDeg(x/(earthRadiusM*math.Cos(latRad)))
	lat := origin.Lat + toDeg(y/earthRadiusM)
	return Coordinates{Lon: lon, Lat: lat}
}

// nearestPointOnLine projects p onto the polyline ls (using a local
// equirectangular approximation per segment) and returns the nearest point
// plus the geodesic distance along ls from its start to that point.
func nearestPointOnLine(ls LineString, p Coordinates) (Coordinates, float64) {
	if len(ls) == 1 {
		return ls[0], 0
	}
	best := ls[0]
	bestDist := math.MaxFloat64
	bestAlong := 0.0
	alongAccum := 0.0

	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		segLen := Distance(a, b)

		ax, ay := 0.0, 0.0
		bx, by := localXY(a, b)
		px, py := localXY(a, p)

		dx, dy := bx-ax, by-ay
		var t float64
		denom := dx*dx + dy*dy
		if denom > 0 {
			t = ((px-ax)*dx + (py-ay)*dy) / denom
			if t < 0 {
				t = 0
			}
			if t > 1 {
				t = 1
			}
		}
		projX, projY := ax+t*dx, ay+t*dy
		proj := localToCoord(a, projX, projY)
		d := Distance(proj, p)
		if d < bestDist {
			bestDist = d
			best = proj
			bestAlong = alongAccum + t*segLen
		}
		alongAccum += segLen
	}
	return best, bestAlong
}
