package analyzer

import (
	"errors"
	"math"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
)

// ErrInvalidGeometry is returned by AdjustLocationReference when the
// geodesic operations it relies on fail (degenerate input geometry),
// mapping directly to result.InvalidGeometry per spec.md §4.2.
var ErrInvalidGeometry = errors.New("analyzer: offset adjustment produced invalid geometry")

const adjusterBearingLookaheadM = 20.0

// AdjustLocationReference implements spec.md §4.2: when ref carries
// nonzero offsets, the decoder's chosen first/last Line may legitimately
// lie outside the buffer, since the offsets shave geometry off the path
// ends. This rewrites ref into an equivalent offset-free reference whose
// endpoints sit on decodedLS (the already-decoded source geometry), so a
// subsequent re-decode is forced to place its terminal LRPs on in-buffer
// geometry.
func AdjustLocationReference(ref *openlr.LineLocationReference, decodedLS geocoord.LineString) (*openlr.LineLocationReference, error) {
	if ref.PosOff == 0 && ref.NegOff == 0 {
		return ref, nil
	}
	if len(ref.Points) < 2 || len(decodedLS) < 2 {
		return nil, ErrInvalidGeometry
	}

	points := append([]openlr.LocationReferencePoint{}, ref.Points...)

	if ref.PosOff > 0 {
		anchor := points[1].Coordinates
		prefix, _ := geocoord.SplitLineAtPoint(decodedLS, anchor)
		if geocoord.LineStringLength(prefix) <= 0 {
			return nil, ErrInvalidGeometry
		}
		lookahead := geocoord.Interpolate(prefix, math.Min(adjusterBearingLookaheadM, geocoord.LineStringLength(prefix)))

		points[0] = openlr.LocationReferencePoint{
			Coordinates: prefix.Start(),
			FRC:         points[0].FRC,
			FOW:         points[0].FOW,
			Bearing:     geocoord.Bearing(prefix.Start(), lookahead),
			LFRCNP:      points[0].LFRCNP,
			DNP:         geocoord.LineStringLength(prefix),
		}
	}

	if ref.NegOff > 0 {
		n := len(points)
		anchor := points[n-2].Coordinates
		_, suffix := geocoord.SplitLineAtPoint(decodedLS, anchor)
		if geocoord.LineStringLength(suffix) <= 0 {
			return nil, ErrInvalidGeometry
		}

		points[n-2].DNP = geocoord.LineStringLength(suffix)

		reversed := suffix.Reverse()
		lookahead := geocoord.Interpolate(reversed, math.Min(adjusterBearingLookaheadM, geocoord.LineStringLength(reversed)))
		points[n-1] = openlr.LocationReferencePoint{
			Coordinates: suffix.End(),
			FRC:         points[n-1].FRC,
			FOW:         points[n-1].FOW,
			Bearing:     geocoord.Bearing(suffix.End(), lookahead),
			LFRCNP:      points[n-1].LFRCNP,
			DNP:         points[n-1].DNP,
		}
	}

	return &openlr.LineLocationReference{Points: points, PosOff: 0, NegOff: 0}, nil
}
