package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
	"github.com/tomtom-odat/odat-go/internal/result"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
)

func lineWithGeometry(id string, frc openlr.FRC, fow openlr.FOW, ls geocoord.LineString) *roadmap.Line {
	return &roadmap.Line{ID: id, FRC: frc, FOW: fow, StartNode: id + "-s", EndNode: id + "-e", Geometry: ls, Length: geocoord.LineStringLength(ls)}
}

func TestCompareCandidatesAllIdenticalIsAlternatePath(t *testing.T) {
	ref := &openlr.LineLocationReference{
		Points: []openlr.LocationReferencePoint{{}, {}},
	}
	same := lineWithGeometry("L1", openlr.FRC2, openlr.FOWSingleCarriageway, straightLine())
	outside := map[int]*roadmap.Candidate{0: {Line: same}, 1: {Line: same}}
	inside := map[int]*roadmap.Candidate{0: {Line: same}, 1: {Line: same}}

	got := compareCandidates(ref, outside, inside, roadmap.StrictConfig)
	assert.Equal(t, result.AlternateShortestPath, got)
}

func TestCompareCandidatesDivergenceAttributesDominantAxis(t *testing.T) {
	ls := straightLine()
	ref := &openlr.LineLocationReference{
		Points: []openlr.LocationReferencePoint{
			{Coordinates: ls[0], FRC: openlr.FRC2, FOW: openlr.FOWSingleCarriageway, Bearing: 0},
			{Coordinates: ls[len(ls)-1], FRC: openlr.FRC2, FOW: openlr.FOWSingleCarriageway},
		},
	}

	outsideLine := lineWithGeometry("OUT", openlr.FRC2, openlr.FOWSingleCarriageway, geocoord.LineString{{Lon: 1, Lat: 1}, {Lon: 1, Lat: 1.001}})
	insideLine := lineWithGeometry("IN", openlr.FRC2, openlr.FOWSingleCarriageway, ls)

	outside := map[int]*roadmap.Candidate{0: {Line: outsideLine}, 1: {Line: outsideLine}}
	inside := map[int]*roadmap.Candidate{0: {Line: insideLine}, 1: {Line: insideLine}}

	got := compareCandidates(ref, outside, inside, roadmap.StrictConfig)
	assert.Contains(t, []result.AnalysisResult{
		result.BetterGeolocationFound,
		result.BetterBearingFound,
		result.BetterFRCFound,
		result.BetterFOWFound,
		result.BetterScoreFound,
	}, got)
}

func TestCompareCandidatesSkipsMissingLRPs(t *testing.T) {
	ref := &openlr.LineLocationReference{Points: []openlr.LocationReferencePoint{{}, {}}}
	got := compareCandidates(ref, map[int]*roadmap.Candidate{}, map[int]*roadmap.Candidate{}, roadmap.StrictConfig)
	assert.Equal(t, result.AlternateShortestPath, got)
}
