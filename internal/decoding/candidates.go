package decoding

import (
	"math"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
)

// Score axis weights, adopted from openlr_dereferencer's default
// candidate-scoring weights (geo dominant, bearing next, FRC/FOW equal
// and smaller) since spec.md leaves the exact weighting to "the active
// config's weights" without naming values.
const (
	WeightGeo     = 0.34
	WeightBearing = 0.26
	WeightFRC     = 0.20
	WeightFOW     = 0.20
)

// DefaultLRPRadiusM is the fallback candidate search radius (meters)
// used when a DecodeConfig leaves LRPRadiusMeters unset, matching
// spec.md §6's lrp_radius default. It also normalizes the geo score: a
// candidate anchored exactly at the LRP's coordinates scores 1.0,
// decaying linearly to 0 at this radius.
const DefaultLRPRadiusM = 20.0

// lrpRadius returns config's configured search radius, or
// DefaultLRPRadiusM if the config leaves it unset.
func lrpRadius(config roadmap.DecodeConfig) float64 {
	if config.LRPRadiusMeters > 0 {
		return config.LRPRadiusMeters
	}
	return DefaultLRPRadiusM
}

// fowCompatibility scores how well an LRP's expected FOW matches a
// candidate Line's actual FOW, in [0,1]. Symmetric, diagonal-heavy:
// exact matches score 1, closely related FOWs (e.g. motorway vs
// multiple carriageway) score partial credit, unrelated pairs score 0.
var fowCompatibility = [8][8]float64{
	openlr.FOWUndefined:            {1.0, 0.5, 0.5, 0.5, 0.4, 0.4, 0.4, 0.6},
	openlr.FOWMotorway:             {0.5, 1.0, 0.8, 0.2, 0.2, 0.1, 0.3, 0.3},
	openlr.FOWMultipleCarriageway:  {0.5, 0.8, 1.0, 0.5, 0.3, 0.2, 0.4, 0.3},
	openlr.FOWSingleCarriageway:    {0.5, 0.2, 0.5, 1.0, 0.4, 0.3, 0.6, 0.4},
	openlr.FOWRoundabout:           {0.4, 0.2, 0.3, 0.4, 1.0, 0.5, 0.4, 0.3},
	openlr.FOWTrafficSquare:        {0.4, 0.1, 0.2, 0.3, 0.5, 1.0, 0.3, 0.3},
	openlr.FOWSlipRoad:             {0.4, 0.3, 0.4, 0.6, 0.4, 0.3, 1.0, 0.3},
	openlr.FOWOther:                {0.6, 0.3, 0.3, 0.4, 0.3, 0.3, 0.3, 1.0},
}

const fowRejectThreshold = 0.15
const frcRejectDeltaMax = 3 // FRC steps beyond LFRCNP over which the FRC score falls to 0

// MakeCandidates scores every line in candidateLines as a placement for
// lrp (at position lrpIndex in the reference, isLast marking the final
// LRP, which has no LFRCNP/DNP to check), reporting every event through
// observer if non-nil. It returns all candidates, scored and flagged --
// callers filter by the reject flags themselves, matching the
// original's separation of "reject" (hard no) from "score" (soft rank).
func MakeCandidates(lrpIndex int, lrp openlr.LocationReferencePoint, candidateLines []*roadmap.Line, config roadmap.DecodeConfig, isLast bool, observer roadmap.Observer) []*roadmap.Candidate {
	candidates := make([]*roadmap.Candidate, 0, len(candidateLines))

	for _, line := range candidateLines {
		c := scoreOne(lrp, line, config, isLast)
		candidates = append(candidates, c)

		if observer != nil {
			observer.OnCandidateFound(lrpIndex, c)
			if c.FRCReject {
				observer.OnCandidateRejectedFRC(lrpIndex, c)
			}
			if c.BearingReject {
				observer.OnCandidateRejectedBearing(lrpIndex, c)
			}
			if c.FRCReject || c.BearingReject || c.ScoreReject {
				observer.OnCandidateRejected(lrpIndex, c)
			}
			observer.OnCandidateScore(lrpIndex, c)
		}
	}

	if observer != nil {
		if len(candidates) == 0 {
			observer.OnNoCandidatesFound(lrpIndex)
		} else {
			observer.OnCandidatesFound(lrpIndex, candidates)
		}
	}

	return candidates
}

func scoreOne(lrp openlr.LocationReferencePoint, line *roadmap.Line, config roadmap.DecodeConfig, isLast bool) *roadmap.Candidate {
	point, distAlong := projectOnto(line.Geometry, lrp.Coordinates)
	distOff := geocoord.DistanceBetween(line.Geometry, lrp.Coordinates)

	c := &roadmap.Candidate{Line: line, PointOnLine: point}

	c.GeoScore = clamp01(1.0 - distOff/lrpRadius(config))

	lineBearing := geocoord.Bearing(line.Geometry.Start(), geocoord.Interpolate(line.Geometry, math.Min(20, geocoord.LineStringLength(line.Geometry))))
	bearingDelta := angularDelta(lrp.Bearing, lineBearing)
	if config.IgnoreBearing {
		c.BearingScore = 1.0
	} else {
		c.BearingScore = clamp01(1.0 - bearingDelta/180.0)
		if bearingDelta > config.MaxBearingDeviationDeg && !config.AnyPath {
			c.BearingReject = true
		}
	}

	if config.IgnoreFRC || config.AnyPath {
		c.FRCScore = 1.0
	} else {
		frcDelta := int(line.FRC) - int(lrp.LFRCNP)
		if !isLast && frcDelta > 0 {
			c.FRCReject = true
			c.FRCScore = 0
		} else {
			c.FRCScore = clamp01(1.0 - float64(abs(frcDelta))/float64(frcRejectDeltaMax))
		}
	}

	if config.IgnoreFOW || config.AnyPath {
		c.FOWScore = 1.0
	} else {
		c.FOWScore = fowCompatibility[lrp.FOW][line.FOW]
		if c.FOWScore < fowRejectThreshold {
			c.FOWScore = 0
		}
	}

	c.TotalScore = WeightGeo*c.GeoScore + WeightBearing*c.BearingScore + WeightFRC*c.FRCScore + WeightFOW*c.FOWScore

	if !config.AnyPath && c.TotalScore < fowRejectThreshold && !c.FRCReject && !c.BearingReject {
		c.ScoreReject = true
	}

	_ = distAlong
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// angularDelta returns the absolute smallest-angle difference between
// two bearings in degrees, in [0, 180].
func angularDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360.0)
	if d > 180.0 {
		d = 360.0 - d
	}
	return d
}

// projectOnto returns the nearest point on ls to p and the geodesic
// distance along ls from its start to that point.
func projectOnto(ls geocoord.LineString, p geocoord.Coordinates) (geocoord.Coordinates, float64) {
	prefix, _ := geocoord.SplitLineAtPoint(ls, p)
	return prefix.End(), geocoord.LineStringLength(prefix)
}
