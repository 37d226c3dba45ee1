package decoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
)

func northSouthLine(id string) *roadmap.Line {
	return &roadmap.Line{
		ID:       id,
		FRC:      openlr.FRC2,
		FOW:      openlr.FOWSingleCarriageway,
		Length:   1000,
		Geometry: geocoord.LineString{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0.009}},
	}
}

func TestScoreOneGeoScoreDecaysWithDistanceFromLine(t *testing.T) {
	line := northSouthLine("A")
	onLine := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0, Lat: 0.004}, FRC: line.FRC, FOW: line.FOW}
	near := scoreOne(onLine, line, roadmap.StrictConfig, false)

	off := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0.0005, Lat: 0.004}, FRC: line.FRC, FOW: line.FOW}
	far := scoreOne(off, line, roadmap.StrictConfig, false)

	assert.Greater(t, near.GeoScore, far.GeoScore)
}

func TestScoreOneGeoScoreHonorsConfiguredRadius(t *testing.T) {
	line := northSouthLine("A")
	lrp := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0.0002, Lat: 0.004}, FRC: line.FRC, FOW: line.FOW}

	narrow := scoreOne(lrp, line, roadmap.StrictConfig.WithLRPRadius(5), false)
	wide := scoreOne(lrp, line, roadmap.StrictConfig.WithLRPRadius(500), false)

	assert.Less(t, narrow.GeoScore, wide.GeoScore)
}

func TestScoreOneRejectsFRCWorseThanLFRCNPOnNonLastLRP(t *testing.T) {
	line := northSouthLine("A")
	line.FRC = openlr.FRC6
	lrp := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0, Lat: 0.004}, FRC: openlr.FRC2, FOW: line.FOW, LFRCNP: openlr.FRC2}

	c := scoreOne(lrp, line, roadmap.StrictConfig, false)
	assert.True(t, c.FRCReject)
}

func TestScoreOneNeverRejectsFRCOnLastLRP(t *testing.T) {
	line := northSouthLine("A")
	line.FRC = openlr.FRC6
	lrp := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0, Lat: 0.004}, FRC: openlr.FRC2, FOW: line.FOW, LFRCNP: openlr.FRC2}

	c := scoreOne(lrp, line, roadmap.StrictConfig, true)
	assert.False(t, c.FRCReject)
}

func TestScoreOneIgnoreFRCConfigNeverRejects(t *testing.T) {
	line := northSouthLine("A")
	line.FRC = openlr.FRC7
	lrp := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0, Lat: 0.004}, FRC: openlr.FRC0, FOW: line.FOW, LFRCNP: openlr.FRC0}

	c := scoreOne(lrp, line, roadmap.IgnoreFRCConfig, false)
	assert.False(t, c.FRCReject)
	assert.Equal(t, 1.0, c.FRCScore)
}

func TestScoreOneRejectsBearingBeyondConfiguredDeviation(t *testing.T) {
	line := northSouthLine("A") // runs due north, bearing ~0 degrees
	lrp := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0, Lat: 0.004}, Bearing: 180, FRC: line.FRC, FOW: line.FOW}

	c := scoreOne(lrp, line, roadmap.StrictConfig, false)
	assert.True(t, c.BearingReject)
}

func TestScoreOneIgnoreBearingConfigNeverRejects(t *testing.T) {
	line := northSouthLine("A")
	lrp := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0, Lat: 0.004}, Bearing: 180, FRC: line.FRC, FOW: line.FOW}

	cfg := roadmap.StrictConfig
	cfg.IgnoreBearing = true
	c := scoreOne(lrp, line, cfg, false)
	assert.False(t, c.BearingReject)
	assert.Equal(t, 1.0, c.BearingScore)
}

func TestScoreOneIgnoreFOWConfigScoresFull(t *testing.T) {
	line := northSouthLine("A")
	line.FOW = openlr.FOWRoundabout
	lrp := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0, Lat: 0.004}, FRC: line.FRC, FOW: openlr.FOWMotorway}

	c := scoreOne(lrp, line, roadmap.IgnoreFOWConfig, false)
	assert.Equal(t, 1.0, c.FOWScore)
}

func TestMakeCandidatesReportsFoundAndScoredEvents(t *testing.T) {
	lines := []*roadmap.Line{northSouthLine("A"), northSouthLine("B")}
	lrp := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0, Lat: 0.004}, FRC: openlr.FRC2, FOW: openlr.FOWSingleCarriageway}

	collector := NewScoreCollector()
	cands := MakeCandidates(0, lrp, lines, roadmap.StrictConfig, false, collector)

	require.Len(t, cands, 2)
	// ScoreCollector retains only the last scoring event's values.
	assert.Equal(t, cands[len(cands)-1].TotalScore, collector.TotalScore)
}

func TestMakeCandidatesNilObserverDoesNotPanic(t *testing.T) {
	lrp := openlr.LocationReferencePoint{Coordinates: geocoord.Coordinates{Lon: 0, Lat: 0.004}, FRC: openlr.FRC2, FOW: openlr.FOWSingleCarriageway}
	assert.NotPanics(t, func() {
		MakeCandidates(0, lrp, []*roadmap.Line{northSouthLine("A")}, roadmap.StrictConfig, false, nil)
	})
}
