// Package analyzer implements the Analyzer's master decision tree
// (spec.md §4.4), the diagnostic cascade (§4.5), adjust-and-match (§4.6),
// analyze-within-buffer (§4.7), the candidate comparator (§4.8), and
// diagnose_score (§4.9). Grounded on original_source/odat/analyzer.py's
// Analyzer.analyze method, restructured into small per-step Go
// functions rather than one monolithic method.
package analyzer

import (
	"github.com/tomtom-odat/odat-go/internal/decoding"
	"github.com/tomtom-odat/odat-go/internal/openlr"
	"github.com/tomtom-odat/odat-go/internal/result"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
)

// compareCandidates implements spec.md §4.8: walk the paired candidate
// sequences (outside: the decode whose geometry strayed from the
// buffer; inside: the decode confined to it) by LRP index, and return
// the first divergence's diagnosis, or AlternateShortestPath if every
// LRP was placed identically.
func compareCandidates(ref *openlr.LineLocationReference, outside, inside map[int]*roadmap.Candidate, config roadmap.DecodeConfig) result.AnalysisResult {
	n := len(ref.Points)

	for i := 0; i < n; i++ {
		out, in := outside[i], inside[i]
		if out == nil || in == nil {
			continue
		}
		if out.Line.ID == in.Line.ID {
			continue
		}

		switch i {
		case 0:
			if out.Line.EndNode == in.Line.StartNode {
				continue
			}
		case n - 1:
			if out.Line.StartNode == in.Line.EndNode {
				continue
			}
		}

		isLast := i == n-1
		return diagnoseScore(ref.Points[i], i, out.Line, in.Line, config, isLast)
	}

	return result.AlternateShortestPath
}

// diagnoseScore implements spec.md §4.9: regenerate the per-axis scores
// for the two competing candidate Lines at lrpIndex by re-invoking the
// candidate-scoring routine with a fresh ScoreCollector around each, and
// attribute the outside candidate's advantage to a rejection flag or,
// failing that, to whichever weighted score axis delta is largest.
func diagnoseScore(lrp openlr.LocationReferencePoint, lrpIndex int, outsideLine, insideLine *roadmap.Line, config roadmap.DecodeConfig, isLast bool) result.AnalysisResult {
	outsideScore := rescoreCandidate(lrpIndex, lrp, outsideLine, config, isLast)
	insideScore := rescoreCandidate(lrpIndex, lrp, insideLine, config, isLast)

	switch {
	case insideScore.FRCReject:
		return result.BetterFRCFound
	case insideScore.BearingReject:
		return result.BetterBearingFound
	case insideScore.ScoreReject:
		return result.BetterScoreFound
	}

	deltaGeo := decoding.WeightGeo * (outsideScore.GeoScore - insideScore.GeoScore)
	deltaBearing := decoding.WeightBearing * (outsideScore.BearingScore - insideScore.BearingScore)
	deltaFRC := decoding.WeightFRC * (outsideScore.FRCScore - insideScore.FRCScore)
	deltaFOW := decoding.WeightFOW * (outsideScore.FOWScore - insideScore.FOWScore)

	// Tie-break order fixed as geo > bearing > frc > fow (SPEC_FULL.md
	// open question (b)): strictly-greater comparisons below mean an
	// earlier axis wins any tie, including the all-zero case.
	best := deltaGeo
	axis := result.BetterGeolocationFound
	if deltaBearing > best {
		best, axis = deltaBearing, result.BetterBearingFound
	}
	if deltaFRC > best {
		best, axis = deltaFRC, result.BetterFRCFound
	}
	if deltaFOW > best {
		axis = result.BetterFOWFound
	}
	return axis
}

func rescoreCandidate(lrpIndex int, lrp openlr.LocationReferencePoint, line *roadmap.Line, config roadmap.DecodeConfig, isLast bool) *decoding.ScoreCollector {
	collector := decoding.NewScoreCollector()
	decoding.MakeCandidates(lrpIndex, lrp, []*roadmap.Line{line}, config, isLast, collector)
	return collector
}
