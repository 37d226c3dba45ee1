package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
)

// box is a simple square polygon covering lon/lat in [0,1].
func box() geocoord.Polygon {
	return geocoord.Polygon{Ring: geocoord.LineString{
		{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}, {Lon: 1, Lat: 1}, {Lon: 1, Lat: 0}, {Lon: 0, Lat: 0},
	}}
}

type fakeSource struct {
	lines []*roadmap.Line
	err   error
}

func (f *fakeSource) FindLinesIntersecting(poly geocoord.Polygon) ([]*roadmap.Line, error) {
	return f.lines, f.err
}

func testRef() *openlr.LineLocationReference {
	return &openlr.LineLocationReference{
		Points: []openlr.LocationReferencePoint{
			{Coordinates: geocoord.Coordinates{Lon: 0.1, Lat: 0.1}},
			{Coordinates: geocoord.Coordinates{Lon: 0.9, Lat: 0.9}},
		},
	}
}

func TestNewBuildsLinesAndPeers(t *testing.T) {
	src := &fakeSource{lines: []*roadmap.Line{
		{ID: "A", StartNode: "n1", EndNode: "n2", Geometry: geocoord.LineString{{Lon: 0.1, Lat: 0.1}, {Lon: 0.5, Lat: 0.5}}, Bidirectional: true},
		{ID: "B", StartNode: "n2", EndNode: "n3", Geometry: geocoord.LineString{{Lon: 0.5, Lat: 0.5}, {Lon: 0.9, Lat: 0.9}}},
	}}

	o, err := New(src, box(), testRef(), nil)
	require.NoError(t, err)

	count, err := o.GetLineCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count) // A, -A, B

	a, err := o.GetLine("A")
	require.NoError(t, err)
	assert.True(t, a.ContainedInBuffer)

	peer, err := o.GetLine("-A")
	require.NoError(t, err)
	assert.Equal(t, "n2", peer.StartNode)
	assert.Equal(t, "n1", peer.EndNode)
	assert.Equal(t, a.Geometry.Start(), peer.Geometry.End())
}

func TestGetLineUnknownID(t *testing.T) {
	o, err := New(&fakeSource{}, box(), testRef(), nil)
	require.NoError(t, err)
	_, err = o.GetLine("missing")
	assert.ErrorIs(t, err, roadmap.ErrLineNotFound)
}

func TestFindLinesCloseToMarksEntryExitOutsideBuffer(t *testing.T) {
	outside := &roadmap.Line{
		ID: "OUT", StartNode: "s", EndNode: "e",
		Geometry: geocoord.LineString{{Lon: 0.1, Lat: 0.1}, {Lon: -0.1, Lat: -0.1}},
	}
	src := &fakeSource{lines: []*roadmap.Line{outside}}
	ref := testRef()

	o, err := New(src, box(), ref, nil)
	require.NoError(t, err)

	lines, err := o.FindLinesCloseTo(ref.Points[0].Coordinates, 50000)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].EntryOrExit)
}

func TestFindLinesCloseToExcludesOutOfBufferNonEndpoint(t *testing.T) {
	outside := &roadmap.Line{
		ID: "OUT", StartNode: "s", EndNode: "e",
		Geometry: geocoord.LineString{{Lon: 5, Lat: 5}, {Lon: 5.1, Lat: 5.1}},
	}
	src := &fakeSource{lines: []*roadmap.Line{outside}}
	o, err := New(src, box(), testRef(), nil)
	require.NoError(t, err)

	mid := geocoord.Coordinates{Lon: 0.5, Lat: 0.5}
	lines, err := o.FindLinesCloseTo(mid, 50000000)
	require.NoError(t, err)
	assert.Len(t, lines, 0)
}
